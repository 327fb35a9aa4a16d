package notation

import (
	"context"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
)

// musicAdapter renders ABC music tablature through the abcjs engine.
type musicAdapter struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

func newMusicAdapter(deps Deps) *musicAdapter {
	return &musicAdapter{resolver: deps.Resolver, log: deps.Log}
}

func (a *musicAdapter) Notation() Notation {
	return Music
}

func (a *musicAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	return runChain(ctx, a.log, Music, payload, []attempt{
		{name: "abcjs", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "abcjs")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "renderAbc", payload)
		}},
	})
}
