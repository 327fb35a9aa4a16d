package notation

import (
	"context"

	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/remote"
	"github.com/rs/zerolog"
)

// flowAdapter renders the mermaid diagram family (flowcharts,
// sequence and class diagrams). The in-pane engine is the primary
// path; a configured remote service is the fallback.
type flowAdapter struct {
	resolver *library.Resolver
	remote   *remote.Client
	log      zerolog.Logger
}

func newFlowAdapter(deps Deps) *flowAdapter {
	return &flowAdapter{resolver: deps.Resolver, remote: deps.Remote, log: deps.Log}
}

func (a *flowAdapter) Notation() Notation {
	return Flow
}

func (a *flowAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	return runChain(ctx, a.log, Flow, payload, []attempt{
		{name: "mermaid-engine", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "mermaid")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "render", payload)
		}},
		{name: "remote-render", run: func(ctx context.Context) (string, error) {
			svg, err := a.remote.Render(ctx, "mermaid", payload)
			if err != nil {
				return "", err
			}

			return Sanitize(svg), nil
		}},
	})
}
