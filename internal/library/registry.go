package library

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/markvista/markvista/internal/payload"
	"github.com/samber/oops"
)

//go:embed assets/*.min.js
var bundledAssets embed.FS

// Registry is the static table of engine descriptors.
type Registry struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

// NewRegistry builds a registry from descriptors. Duplicate names keep
// the first entry.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	registry := &Registry{
		byName: make(map[string]*Descriptor, len(descriptors)),
	}

	for _, descriptor := range descriptors {
		if _, exists := registry.byName[descriptor.Name]; exists {
			continue
		}

		registry.ordered = append(registry.ordered, descriptor)
		registry.byName[descriptor.Name] = descriptor
	}

	return registry
}

// Get returns the descriptor for an engine name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	descriptor, ok := r.byName[name]
	return descriptor, ok
}

// All returns descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}

// BuiltinOptions adjusts where builtin engines are acquired from.
type BuiltinOptions struct {
	// LocalDir adds a direct-load source reading bundles from a
	// directory the user manages, ranked after the embedded copy.
	LocalDir string

	// PrimaryCDN and AltCDNs override the remote bundle mirrors.
	PrimaryCDN string
	AltCDNs    []string
}

const defaultPrimaryCDN = "https://cdn.jsdelivr.net/npm"

func defaultAltCDNs() []string {
	return []string{"https://unpkg.com", "https://fastly.jsdelivr.net/npm"}
}

type builtinEngine struct {
	name    string
	version string
	npmPath string
}

func builtinEngines() []builtinEngine {
	return []builtinEngine{
		{name: "katex", version: "0.16.22", npmPath: "katex@0.16.22/dist/katex.min.js"},
		{name: "mermaid", version: "11.4.1", npmPath: "mermaid@11.4.1/dist/mermaid.min.js"},
		{name: "tikzjax", version: "1.0.3", npmPath: "tikzjax@1.0.3/dist/tikzjax.min.js"},
		{name: "markmap-lib", version: "0.18.12", npmPath: "markmap-lib@0.18.12/dist/browser/index.min.js"},
		{name: "vega-lite", version: "5.23.0", npmPath: "vega-lite@5.23.0/build/vega-lite.min.js"},
		{name: "abcjs", version: "6.4.4", npmPath: "abcjs@6.4.4/dist/abcjs-basic-min.js"},
		{name: "wavedrom", version: "3.5.0", npmPath: "wavedrom@3.5.0/wavedrom.min.js"},
	}
}

// Builtin assembles the descriptor table for every engine the preview
// pane knows how to host.
func Builtin(opts BuiltinOptions) *Registry {
	primaryCDN := opts.PrimaryCDN
	if primaryCDN == "" {
		primaryCDN = defaultPrimaryCDN
	}

	altCDNs := opts.AltCDNs
	if len(altCDNs) == 0 {
		altCDNs = defaultAltCDNs()
	}

	descriptors := make([]*Descriptor, 0, len(builtinEngines())+1)
	for _, engine := range builtinEngines() {
		descriptors = append(descriptors, builtinDescriptor(engine, opts.LocalDir, primaryCDN, altCDNs))
	}

	descriptors = append(descriptors, plantumlDescriptor())

	return NewRegistry(descriptors...)
}

func builtinDescriptor(engine builtinEngine, localDir, primaryCDN string, altCDNs []string) *Descriptor {
	assetName := engine.name + ".min.js"
	sources := []Source{{Kind: SourceEmbedded, Locator: assetName}}

	if localDir != "" {
		sources = append(sources, Source{
			Kind:    SourceDirectLoad,
			Locator: path.Join(localDir, assetName),
		})
	}

	sources = append(sources, Source{
		Kind:    SourceRemotePrimary,
		Locator: primaryCDN + "/" + engine.npmPath,
	})
	for _, alt := range altCDNs {
		sources = append(sources, Source{
			Kind:    SourceRemoteAlternate,
			Locator: alt + "/" + engine.npmPath,
		})
	}

	descriptor := &Descriptor{
		Name:    engine.name,
		Sources: sources,
		IsReady: bundleReady(engine.name),
	}

	switch engine.name {
	case "katex":
		descriptor.Capabilities = []string{"renderToString", "renderDisplay"}
		descriptor.Preconfigure = func() error {
			// KaTeX reads its macro table at load time, so it has to
			// exist before any source is attempted.
			registerMathMacros()
			return nil
		}
		descriptor.Bind = bindKatex
	case "mermaid":
		descriptor.Capabilities = []string{"render"}
		descriptor.Bind = bindContainer("render", "markvista-mermaid")
	case "tikzjax":
		descriptor.Capabilities = []string{"typeset"}
		descriptor.Bind = bindContainer("typeset", "markvista-tikz")
	case "markmap-lib":
		descriptor.Capabilities = []string{"transform"}
		descriptor.Bind = bindContainer("transform", "markvista-markmap")
	case "vega-lite":
		descriptor.Capabilities = []string{"compile"}
		descriptor.Bind = bindContainer("compile", "markvista-chart")
	case "abcjs":
		descriptor.Capabilities = []string{"renderAbc"}
		descriptor.Bind = bindContainer("renderAbc", "markvista-abc")
	case "wavedrom":
		descriptor.Capabilities = []string{"render"}
		descriptor.Bind = bindContainer("render", "markvista-wavedrom")
	}

	return descriptor
}

// bundleReady validates that an acquired bundle is complete enough to
// hand to the preview webview: non-empty, carries the upstream banner,
// and names the engine it claims to be.
func bundleReady(name string) func(h *EngineHandle) bool {
	return func(h *EngineHandle) bool {
		if h == nil || len(h.Bundle) == 0 {
			return false
		}

		if !bytes.HasPrefix(h.Bundle, []byte("/*!")) {
			return false
		}

		banner := h.Bundle
		if end := bytes.Index(banner, []byte("*/")); end >= 0 {
			banner = banner[:end]
		}

		return bytes.Contains(bytes.ToLower(banner), []byte(strings.ToLower(name)))
	}
}

// bindContainer attaches a capability that emits the webview container
// element for an engine. The preview pane executes the acquired bundle
// against the container's data attributes; the core never runs it.
func bindContainer(capability, class string) func(h *EngineHandle) {
	return func(h *EngineHandle) {
		name := h.Name
		h.SetCapability(capability, func(_ context.Context, body string) (string, error) {
			if strings.TrimSpace(body) == "" {
				return "", oops.
					Code("CONTENT_INVALID").
					With("engine", name).
					Errorf("block has no content")
			}

			return fmt.Sprintf(
				`<div class=%q data-engine=%q data-src="%s"></div>`,
				class, name, payload.Encode(body),
			), nil
		})
	}
}

// Inline math macros pre-registered before the math engine loads.
var mathMacros = map[string]string{}

func registerMathMacros() {
	if len(mathMacros) > 0 {
		return
	}

	mathMacros[`\R`] = `\mathbb{R}`
	mathMacros[`\N`] = `\mathbb{N}`
	mathMacros[`\Z`] = `\mathbb{Z}`
}

func expandMathMacros(tex string) string {
	for macro, expansion := range mathMacros {
		tex = strings.ReplaceAll(tex, macro+" ", expansion+" ")
	}

	return tex
}

func bindKatex(h *EngineHandle) {
	h.SetCapability("renderToString", func(_ context.Context, tex string) (string, error) {
		return renderMathSpan(tex, false)
	})
	h.SetCapability("renderDisplay", func(_ context.Context, tex string) (string, error) {
		return renderMathSpan(tex, true)
	})
}

func renderMathSpan(tex string, display bool) (string, error) {
	trimmed := strings.TrimSpace(tex)
	if trimmed == "" {
		return "", oops.
			Code("CONTENT_INVALID").
			With("engine", "katex").
			Errorf("math block has no content")
	}

	class := "katex-inline"
	if display {
		class = "katex-display"
	}

	expanded := expandMathMacros(trimmed)

	return fmt.Sprintf(
		`<span class=%q data-tex="%s">%s</span>`,
		class, payload.Encode(expanded), html.EscapeString(expanded),
	), nil
}

// plantumlDescriptor needs no bundle at all: encoding a diagram into an
// image reference is pure computation, so the engine resolves embedded.
func plantumlDescriptor() *Descriptor {
	return &Descriptor{
		Name: "plantuml",
		IsReady: func(h *EngineHandle) bool {
			return h != nil && h.HasRealCapability("encode")
		},
		EmbeddedResolve: func() *EngineHandle {
			handle := NewHandle("plantuml")
			handle.Origin = SourceEmbedded
			handle.SetCapability("encode", func(_ context.Context, source string) (string, error) {
				if strings.TrimSpace(source) == "" {
					return "", oops.
						Code("CONTENT_INVALID").
						With("engine", "plantuml").
						Errorf("diagram has no content")
				}

				return EncodePlantUML(source), nil
			})

			return handle
		},
		Capabilities: []string{"encode"},
	}
}
