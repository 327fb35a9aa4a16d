// Package compile performs the synchronous first phase of a render
// pass: document text becomes sanitized markup, with one placeholder
// container per deferred-notation block.
package compile

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/notation"
	"github.com/markvista/markvista/internal/payload"
	"github.com/rs/zerolog"
)

// Result is the output of one compile pass.
type Result struct {
	Markup       string
	Placeholders []*Placeholder
}

// Compiler turns document text into markup plus placeholders. Block
// notations are always deferred because some need network or host
// round trips; inline math is rendered immediately when the math
// engine is already resolved, since it is fast and bounded.
type Compiler struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

// New creates a Compiler backed by the given resolver.
func New(resolver *library.Resolver, log zerolog.Logger) *Compiler {
	return &Compiler{resolver: resolver, log: log}
}

var inlineMathPattern = regexp.MustCompile(`\$([^$\n]+)\$`)

// Compile runs the single synchronous pass over document text.
func (c *Compiler) Compile(ctx context.Context, text string) *Result {
	result := &Result{}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions)
	doc := mdParser.Parse([]byte(text))

	mathReady := c.resolver.IsResolved("katex")

	hook := func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		switch typed := node.(type) {
		case *ast.CodeBlock:
			if !entering {
				return ast.GoToNext, true
			}

			return c.renderCodeBlock(w, typed, result)
		case *ast.Text:
			if !entering || !mathReady {
				return ast.GoToNext, false
			}

			return c.renderTextWithMath(ctx, w, typed)
		default:
			return ast.GoToNext, false
		}
	}

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.SkipHTML,
		RenderNodeHook: hook,
	})

	result.Markup = string(markdown.Render(doc, renderer))
	return result
}

// renderCodeBlock defers known notation fences to placeholders. An
// unrecognized language falls through to the default highlighted code
// rendering. Empty or malformed bodies still produce a placeholder;
// reporting "no content" is the adapter's job.
func (c *Compiler) renderCodeBlock(w io.Writer, block *ast.CodeBlock, result *Result) (ast.WalkStatus, bool) {
	lang := fenceLanguage(block.Info)
	notationType, ok := notation.DetectFence(lang)
	if !ok {
		return ast.GoToNext, false
	}

	body := strings.TrimSuffix(string(block.Literal), "\n")
	placeholder := &Placeholder{
		ID:             fmt.Sprintf("mv-ph-%d", len(result.Placeholders)+1),
		NotationType:   notationType,
		EncodedPayload: payload.Encode(body),
		status:         StatusPending,
	}
	placeholder.Token = fmt.Sprintf(
		`<div class="markvista-pending" id=%q data-notation=%q data-src="%s"></div>`,
		placeholder.ID, string(notationType), placeholder.EncodedPayload,
	)

	result.Placeholders = append(result.Placeholders, placeholder)
	io.WriteString(w, placeholder.Token)
	io.WriteString(w, "\n")

	return ast.GoToNext, true
}

// renderTextWithMath substitutes rendered math for $…$ spans in a
// text node. Code spans and blocks are separate node types, so they
// never pass through here.
func (c *Compiler) renderTextWithMath(ctx context.Context, w io.Writer, text *ast.Text) (ast.WalkStatus, bool) {
	literal := string(text.Literal)

	matches := inlineMathPattern.FindAllStringSubmatchIndex(literal, -1)
	if len(matches) == 0 {
		return ast.GoToNext, false
	}

	handle, err := c.resolver.Resolve(ctx, "katex")
	if err != nil || handle.Unavailable {
		return ast.GoToNext, false
	}

	var out strings.Builder
	last := 0

	for _, match := range matches {
		out.WriteString(html.EscapeString(literal[last:match[0]]))

		tex := literal[match[2]:match[3]]
		rendered, invokeErr := c.resolver.Invoke(ctx, handle, "renderToString", tex)
		if invokeErr != nil {
			out.WriteString(html.EscapeString(literal[match[0]:match[1]]))
		} else {
			out.WriteString(rendered)
		}

		last = match[1]
	}

	out.WriteString(html.EscapeString(literal[last:]))
	io.WriteString(w, out.String())

	return ast.GoToNext, true
}

func fenceLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}
