package library

// EncodePlantUMLBytes exposes the alphabet encoder for tests.
var EncodePlantUMLBytes = encodePlantUMLBytes
