package notation

import (
	"context"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
)

// mathAdapter renders display math blocks through the math engine.
type mathAdapter struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

func newMathAdapter(deps Deps) *mathAdapter {
	return &mathAdapter{resolver: deps.Resolver, log: deps.Log}
}

func (a *mathAdapter) Notation() Notation {
	return Math
}

func (a *mathAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	return runChain(ctx, a.log, Math, payload, []attempt{
		{name: "katex", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "katex")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "renderDisplay", payload)
		}},
	})
}
