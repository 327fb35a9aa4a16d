package render_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/markvista/markvista/internal/compile"
	"github.com/markvista/markvista/internal/hostsvc"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/notation"
	"github.com/markvista/markvista/internal/remote"
	"github.com/markvista/markvista/internal/render"
	"github.com/rs/zerolog"
)

type harness struct {
	renderer *render.Renderer
	compiler *compile.Compiler
}

func newHarness(t *testing.T, registry *library.Registry, host *hostsvc.Client) *harness {
	t.Helper()

	resolver := library.NewResolver(registry, library.Options{
		Client:       remote.New("", zerolog.Nop()),
		Log:          zerolog.Nop(),
		PollAttempts: 1,
		PollInterval: 10 * time.Millisecond,
	})

	if host == nil {
		host = hostsvc.New("", zerolog.Nop())
	}

	adapters := notation.NewSet(notation.Deps{
		Resolver: resolver,
		Remote:   remote.New("", zerolog.Nop()),
		Host:     host,
		Log:      zerolog.Nop(),
	})

	compiler := compile.New(resolver, zerolog.Nop())

	return &harness{
		renderer: render.New(compiler, adapters, render.Options{Log: zerolog.Nop()}),
		compiler: compiler,
	}
}

func TestProcessWithoutPlaceholdersIsPassThrough(t *testing.T) {
	h := newHarness(t, library.Builtin(library.BuiltinOptions{}), nil)

	doc := "# Title\n\nA paragraph with a [link](https://example.com).\n\n- one\n- two\n"

	compiled := h.compiler.Compile(context.Background(), doc)
	processed, err := h.renderer.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if processed != compiled.Markup {
		t.Errorf("Process() = %q, want compile output %q", processed, compiled.Markup)
	}
}

func TestProcessRendersAllBlocks(t *testing.T) {
	h := newHarness(t, library.Builtin(library.BuiltinOptions{}), nil)

	doc := "```mermaid\nA-->B\n```\n\n```vega-lite\n{\"mark\":\"bar\"}\n```\n\n```abc\nX:1\nK:C\nCDEF|\n```\n"

	markup, err := h.renderer.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	for _, want := range []string{"markvista-mermaid", "markvista-chart", "markvista-abc"} {
		if !strings.Contains(markup, want) {
			t.Errorf("final markup missing rendered block %q", want)
		}
	}

	if strings.Contains(markup, "markvista-pending") {
		t.Error("final markup still contains unresolved placeholders")
	}
}

func TestProcessIsolatesSingleBlockFailure(t *testing.T) {
	h := newHarness(t, library.Builtin(library.BuiltinOptions{}), nil)

	doc := strings.Join([]string{
		"```vega-lite\n{\"mark\":\"bar\"}\n```",
		"```vega-lite\n{not json at all\n```",
		"```vega-lite\n{\"mark\":\"line\"}\n```",
	}, "\n\n") + "\n"

	markup, err := h.renderer.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process() must contain block failures, got error %v", err)
	}

	if got := strings.Count(markup, "markvista-chart"); got != 2 {
		t.Errorf("rendered %d sibling blocks, want 2", got)
	}

	if got := strings.Count(markup, `<div class="markvista-block-error"`); got != 1 {
		t.Errorf("markup has %d error blocks, want exactly 1: %q", got, markup)
	}
}

func TestProcessFlowEngineUnavailableScenario(t *testing.T) {
	// Flow engine registered with no sources and no remote fallback:
	// the block must degrade to an error panel carrying the source.
	registry := library.NewRegistry(&library.Descriptor{Name: "mermaid"})
	h := newHarness(t, registry, nil)

	markup, err := h.renderer.Process(context.Background(), "```flowchart\nA-->B\n```\n")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if !strings.Contains(markup, `<div class="markvista-block-error"`) {
		t.Fatalf("markup %q has no error block", markup)
	}

	if !strings.Contains(markup, "A--&gt;B") {
		t.Errorf("error block in %q does not show the original source", markup)
	}

	for _, control := range []string{"<button", "<details", "<input", "onclick"} {
		if strings.Contains(markup, control) {
			t.Errorf("error block contains interactive control %q", control)
		}
	}
}

func TestProcessSupersession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"success":true,"content":"<svg>late</svg>"}`))
	}))
	defer server.Close()

	h := newHarness(t, library.Builtin(library.BuiltinOptions{}), hostsvc.New(server.URL, zerolog.Nop()))

	oldDoc := "```tikz\n\\draw (0,0);\n```\n"
	newDoc := "# fresh document\n"

	type processResult struct {
		markup string
		err    error
	}
	oldDone := make(chan processResult, 1)

	go func() {
		markup, err := h.renderer.Process(context.Background(), oldDoc)
		oldDone <- processResult{markup: markup, err: err}
	}()

	<-entered

	newMarkup, err := h.renderer.Process(context.Background(), newDoc)
	if err != nil {
		t.Fatalf("newer Process() error = %v", err)
	}

	if !strings.Contains(newMarkup, "fresh document") {
		t.Errorf("newer pass output %q is wrong", newMarkup)
	}

	close(release)

	old := <-oldDone
	if !errors.Is(old.err, render.ErrSuperseded) {
		t.Fatalf("stale pass error = %v, want ErrSuperseded", old.err)
	}

	if old.markup != "" {
		t.Errorf("stale pass leaked markup %q", old.markup)
	}
}

func TestProcessNeverPanics(t *testing.T) {
	// Unknown-notation placeholders cannot be produced by the
	// compiler, but a corrupted payload can exercise the containment
	// path end to end.
	h := newHarness(t, library.Builtin(library.BuiltinOptions{}), nil)

	docs := []string{
		"```mermaid\n```\n",
		"```wavedrom\nnot json\n```\n",
		"```math\n\n```\n",
	}

	for _, doc := range docs {
		if _, err := h.renderer.Process(context.Background(), doc); err != nil {
			t.Errorf("Process(%q) error = %v, failures must stay block-local", doc, err)
		}
	}
}
