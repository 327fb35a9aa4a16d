package notation

import (
	"context"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// chartAdapter compiles declarative chart specs. The payload is parsed
// as structured data before any engine is involved; malformed input is
// an immediate content failure.
type chartAdapter struct {
	resolver *library.Resolver
	log      zerolog.Logger
}

func newChartAdapter(deps Deps) *chartAdapter {
	return &chartAdapter{resolver: deps.Resolver, log: deps.Log}
}

func (a *chartAdapter) Notation() Notation {
	return Chart
}

func (a *chartAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	if !gjson.Valid(payload) {
		return "", &RenderError{
			Code:    "CONTENT_INVALID",
			Message: "chart spec is not valid JSON",
			Payload: payload,
		}
	}

	spec := gjson.Parse(payload)
	if !spec.IsObject() {
		return "", &RenderError{
			Code:    "CONTENT_INVALID",
			Message: "chart spec must be a JSON object",
			Payload: payload,
		}
	}

	return runChain(ctx, a.log, Chart, payload, []attempt{
		{name: "vega-lite", run: func(ctx context.Context) (string, error) {
			handle, err := a.resolver.Resolve(ctx, "vega-lite")
			if err != nil {
				return "", err
			}

			return a.resolver.Invoke(ctx, handle, "compile", payload)
		}},
	})
}
