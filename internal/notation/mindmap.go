package notation

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// mindmapAdapter turns heading-structured markdown into a mind map.
// When the transform engine is unavailable it degrades to a plain
// nested list derived from the heading markers, so the user still sees
// a tree instead of an error.
type mindmapAdapter struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

func newMindmapAdapter(deps Deps) *mindmapAdapter {
	return &mindmapAdapter{resolver: deps.Resolver, log: deps.Log}
}

func (a *mindmapAdapter) Notation() Notation {
	return Mindmap
}

func (a *mindmapAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	return runChain(ctx, a.log, Mindmap, payload, []attempt{
		{name: "markmap-transform", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "markmap-lib")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "transform", payload)
		}},
		{name: "heading-outline", run: func(_ context.Context) (string, error) {
			return headingOutline(payload)
		}},
	})
}

type outlineNode struct {
	text     string
	level    int
	children []*outlineNode
}

// headingOutline derives a nested list from # markers in the payload.
// Structural, not visual: no engine involved.
func headingOutline(payload string) (string, error) {
	root := &outlineNode{level: 0}
	stack := []*outlineNode{root}

	for _, line := range strings.Split(payload, "\n") {
		level, text := headingMarker(line)
		if level == 0 {
			continue
		}

		node := &outlineNode{text: text, level: level}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1]
		parent.children = append(parent.children, node)
		stack = append(stack, node)
	}

	if len(root.children) == 0 {
		return "", oops.
			Code("CONTENT_INVALID").
			Errorf("mind map block contains no headings")
	}

	var out strings.Builder
	out.WriteString(`<div class="markvista-mindmap-outline">`)
	writeOutline(&out, root.children)
	out.WriteString("</div>")

	return out.String(), nil
}

func writeOutline(out *strings.Builder, nodes []*outlineNode) {
	out.WriteString("<ul>")
	for _, node := range nodes {
		fmt.Fprintf(out, "<li>%s", html.EscapeString(node.text))
		if len(node.children) > 0 {
			writeOutline(out, node.children)
		}
		out.WriteString("</li>")
	}
	out.WriteString("</ul>")
}

func headingMarker(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && level < 7 && trimmed[level] == '#' {
		level++
	}

	if level == 0 || level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}

	return level, strings.TrimSpace(trimmed[level:])
}
