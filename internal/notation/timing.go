package notation

import (
	"context"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
)

// timingAdapter renders wavedrom timing diagrams.
type timingAdapter struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

func newTimingAdapter(deps Deps) *timingAdapter {
	return &timingAdapter{resolver: deps.Resolver, log: deps.Log}
}

func (a *timingAdapter) Notation() Notation {
	return Timing
}

func (a *timingAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	return runChain(ctx, a.log, Timing, payload, []attempt{
		{name: "wavedrom", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "wavedrom")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "render", payload)
		}},
	})
}
