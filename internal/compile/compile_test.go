package compile_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/markvista/markvista/internal/compile"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/notation"
	"github.com/markvista/markvista/internal/payload"
	"github.com/markvista/markvista/internal/remote"
	"github.com/rs/zerolog"
)

func newCompiler(t *testing.T) (*compile.Compiler, *library.Resolver) {
	t.Helper()

	resolver := library.NewResolver(library.Builtin(library.BuiltinOptions{}), library.Options{
		Client:       remote.New("", zerolog.Nop()),
		Log:          zerolog.Nop(),
		PollAttempts: 2,
		PollInterval: 10 * time.Millisecond,
	})

	return compile.New(resolver, zerolog.Nop()), resolver
}

func TestCompilePlainMarkdown(t *testing.T) {
	compiler, _ := newCompiler(t)

	result := compiler.Compile(context.Background(), "# Title\n\nSome *emphasis* here.\n")

	if len(result.Placeholders) != 0 {
		t.Fatalf("plain markdown produced %d placeholders, want 0", len(result.Placeholders))
	}

	for _, want := range []string{"<h1>Title</h1>", "<em>emphasis</em>"} {
		if !strings.Contains(result.Markup, want) {
			t.Errorf("markup %q missing %q", result.Markup, want)
		}
	}
}

func TestCompileNotationFences(t *testing.T) {
	tests := []struct {
		name         string
		lang         string
		body         string
		wantNotation notation.Notation
	}{
		{"flowchart", "flowchart", "A-->B", notation.Flow},
		{"mermaid", "mermaid", "graph TD\nA-->B", notation.Flow},
		{"math block", "math", "\\sum_{i=0}^n i", notation.Math},
		{"circuit", "circuitikz", "\\begin{circuitikz}\\end{circuitikz}", notation.Circuit},
		{"mindmap", "mindmap", "# root\n## child", notation.Mindmap},
		{"plantuml", "plantuml", "@startuml\nA -> B\n@enduml", notation.UML},
		{"chart", "vega-lite", `{"mark":"bar"}`, notation.Chart},
		{"music", "abc", "X:1\nK:C\nCDEF|", notation.Music},
		{"timing", "wavedrom", `{"signal":[]}`, notation.Timing},
	}

	compiler, _ := newCompiler(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "before\n\n```" + tt.lang + "\n" + tt.body + "\n```\n\nafter\n"
			result := compiler.Compile(context.Background(), doc)

			if len(result.Placeholders) != 1 {
				t.Fatalf("got %d placeholders, want 1", len(result.Placeholders))
			}

			placeholder := result.Placeholders[0]
			if placeholder.NotationType != tt.wantNotation {
				t.Errorf("notation = %q, want %q", placeholder.NotationType, tt.wantNotation)
			}

			if placeholder.Status() != compile.StatusPending {
				t.Errorf("status = %q, want pending", placeholder.Status())
			}

			decoded, err := payload.Decode(placeholder.EncodedPayload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded != tt.body {
				t.Errorf("decoded payload = %q, want verbatim body %q", decoded, tt.body)
			}

			if !strings.Contains(result.Markup, placeholder.Token) {
				t.Error("markup does not contain the placeholder token")
			}

			if !strings.Contains(result.Markup, "before") || !strings.Contains(result.Markup, "after") {
				t.Error("surrounding document text was lost")
			}
		})
	}
}

func TestCompileUnknownFenceFallsThrough(t *testing.T) {
	compiler, _ := newCompiler(t)

	result := compiler.Compile(context.Background(), "```python\nprint('hi')\n```\n")

	if len(result.Placeholders) != 0 {
		t.Fatalf("unknown fence produced %d placeholders, want 0", len(result.Placeholders))
	}

	if !strings.Contains(result.Markup, `class="language-python"`) {
		t.Errorf("markup %q should keep highlighted code rendering", result.Markup)
	}
}

func TestCompileEmptyBlockStillDefers(t *testing.T) {
	compiler, _ := newCompiler(t)

	result := compiler.Compile(context.Background(), "```mermaid\n```\n")

	if len(result.Placeholders) != 1 {
		t.Fatalf("empty notation block produced %d placeholders, want 1", len(result.Placeholders))
	}

	decoded, err := payload.Decode(result.Placeholders[0].EncodedPayload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if decoded != "" {
		t.Errorf("decoded payload = %q, want empty", decoded)
	}
}

func TestCompileInlineMathWhenReady(t *testing.T) {
	compiler, resolver := newCompiler(t)

	if _, err := resolver.Resolve(context.Background(), "katex"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	result := compiler.Compile(context.Background(), "left $x^2$ right\n")

	if len(result.Placeholders) != 0 {
		t.Fatalf("inline math should render synchronously, got %d placeholders", len(result.Placeholders))
	}

	markup := result.Markup
	spanStart := strings.Index(markup, `<span class="katex-inline"`)
	if spanStart < 0 {
		t.Fatalf("markup %q has no rendered inline math", markup)
	}

	if !strings.Contains(markup, ">x^2</span>") {
		t.Errorf("markup %q does not carry the math source", markup)
	}

	leftIdx := strings.Index(markup, "left ")
	rightIdx := strings.Index(markup, " right")
	if leftIdx < 0 || rightIdx < 0 || !(leftIdx < spanStart && spanStart < rightIdx) {
		t.Errorf("rendered math is not at the original position in %q", markup)
	}

	if strings.Contains(markup, "$x^2$") {
		t.Error("raw math delimiters should be replaced when the engine is ready")
	}
}

func TestCompileInlineMathWhenNotReady(t *testing.T) {
	compiler, _ := newCompiler(t)

	result := compiler.Compile(context.Background(), "left $x^2$ right\n")

	if !strings.Contains(result.Markup, "$x^2$") {
		t.Errorf("markup %q should keep the raw span while the engine is unresolved", result.Markup)
	}
}

func TestCompileInlineMathSkipsCodeSpans(t *testing.T) {
	compiler, resolver := newCompiler(t)

	if _, err := resolver.Resolve(context.Background(), "katex"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	result := compiler.Compile(context.Background(), "use `$HOME$PATH` here\n")

	if strings.Contains(result.Markup, "katex-inline") {
		t.Errorf("markup %q rendered math inside a code span", result.Markup)
	}
}

func TestPlaceholderStatusIsForwardOnly(t *testing.T) {
	compiler, _ := newCompiler(t)
	result := compiler.Compile(context.Background(), "```mermaid\nA-->B\n```\n")

	placeholder := result.Placeholders[0]

	if !placeholder.Advance(compile.StatusRendering) {
		t.Fatal("pending -> rendering should be allowed")
	}

	if placeholder.Advance(compile.StatusPending) {
		t.Error("backward transition was allowed")
	}

	if !placeholder.SetResult(compile.StatusRendered, "<svg/>") {
		t.Fatal("rendering -> rendered should be allowed")
	}

	if placeholder.SetResult(compile.StatusError, "boom") {
		t.Error("placeholder was finalized twice")
	}

	if placeholder.Result() != "<svg/>" {
		t.Errorf("Result() = %q, want the first finalized content", placeholder.Result())
	}
}
