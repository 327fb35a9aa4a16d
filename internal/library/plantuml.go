package library

import (
	"bytes"
	"compress/flate"
)

// plantumlAlphabet is the base64 variant the PlantUML server expects in
// encoded diagram URLs.
const plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// EncodePlantUML deflates diagram source and encodes it with the
// PlantUML URL alphabet, producing the path segment understood by a
// PlantUML server's /uml/{encoded} endpoint.
func EncodePlantUML(source string) string {
	var compressed bytes.Buffer

	writer, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		// Only reachable with an invalid level constant.
		return ""
	}

	if _, err := writer.Write([]byte(source)); err != nil {
		return ""
	}
	if err := writer.Close(); err != nil {
		return ""
	}

	return encodePlantUMLBytes(compressed.Bytes())
}

func encodePlantUMLBytes(data []byte) string {
	var out bytes.Buffer
	out.Grow((len(data)*4 + 2) / 3)

	for i := 0; i < len(data); i += 3 {
		var b1, b2, b3 byte
		b1 = data[i]
		if i+1 < len(data) {
			b2 = data[i+1]
		}
		if i+2 < len(data) {
			b3 = data[i+2]
		}

		out.WriteByte(plantumlAlphabet[b1>>2])
		out.WriteByte(plantumlAlphabet[((b1&0x3)<<4)|(b2>>4)])
		if i+1 < len(data) {
			out.WriteByte(plantumlAlphabet[((b2&0xF)<<2)|(b3>>6)])
		}
		if i+2 < len(data) {
			out.WriteByte(plantumlAlphabet[b3&0x3F])
		}
	}

	return out.String()
}
