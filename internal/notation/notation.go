// Package notation maps deferred-content categories to renderer
// adapters. Each adapter owns the fallback ordering appropriate to its
// engine's reliability and always returns failure as a value.
package notation

import "strings"

// Notation is a category of deferred block content.
type Notation string

const (
	Math    Notation = "math"
	Flow    Notation = "flow"
	Circuit Notation = "circuit"
	Mindmap Notation = "mindmap"
	UML     Notation = "uml"
	Chart   Notation = "chart"
	Music   Notation = "music"
	Timing  Notation = "timing"
)

// fenceLanguages maps fenced-code info strings to notation types. An
// unlisted language falls through to plain highlighted code.
var fenceLanguages = map[string]Notation{
	"math":       Math,
	"katex":      Math,
	"latex":      Math,
	"tex":        Math,
	"mermaid":    Flow,
	"flowchart":  Flow,
	"flow":       Flow,
	"sequence":   Flow,
	"circuit":    Circuit,
	"circuitikz": Circuit,
	"tikz":       Circuit,
	"mindmap":    Mindmap,
	"markmap":    Mindmap,
	"plantuml":   UML,
	"puml":       UML,
	"uml":        UML,
	"chart":      Chart,
	"vega-lite":  Chart,
	"vegalite":   Chart,
	"abc":        Music,
	"abcjs":      Music,
	"tablature":  Music,
	"wavedrom":   Timing,
	"timing":     Timing,
}

// DetectFence resolves a fenced-code language tag to a notation type.
func DetectFence(lang string) (Notation, bool) {
	notation, ok := fenceLanguages[strings.ToLower(strings.TrimSpace(lang))]
	return notation, ok
}

// RenderError is the structured failure value adapters hand back to
// the orchestrator. It carries the offending source so the error block
// can show it for diagnosis.
type RenderError struct {
	Code    string
	Message string
	Payload string
}

func (e *RenderError) Error() string {
	return e.Message
}
