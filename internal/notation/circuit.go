package notation

import (
	"context"
	"strings"

	"github.com/markvista/markvista/internal/hostsvc"
	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
)

// circuitAdapter handles the TikZ diagram family, which needs heavy
// native typesetting. Local-first: the privileged host service does
// the real LaTeX run; the in-pane engine is the fallback when the host
// is unavailable.
type circuitAdapter struct {
	resolver *library.Resolver
	host     *hostsvc.Client
	log      zerolog.Logger
}

func newCircuitAdapter(deps Deps) *circuitAdapter {
	return &circuitAdapter{resolver: deps.Resolver, host: deps.Host, log: deps.Log}
}

func (a *circuitAdapter) Notation() Notation {
	return Circuit
}

func (a *circuitAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	variant := "tikz"
	if strings.Contains(payload, `\begin{circuitikz}`) {
		variant = "circuitikz"
	}

	return runChain(ctx, a.log, Circuit, payload, []attempt{
		{name: "host-typeset", run: func(ctx context.Context) (string, error) {
			content, err := a.host.Typeset(ctx, payload, variant)
			if err != nil {
				return "", err
			}

			return Sanitize(content), nil
		}},
		{name: "tikzjax-engine", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "tikzjax")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "typeset", payload)
		}},
	})
}
