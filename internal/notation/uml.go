package notation

import (
	"context"
	"fmt"
	"strings"

	"github.com/markvista/markvista/internal/library"
	"github.com/rs/zerolog"
)

const defaultPlantUMLBase = "https://www.plantuml.com/plantuml"

// umlAdapter encodes PlantUML source into an image reference served by
// a PlantUML endpoint. An encoding failure surfaces as a broken image
// reference in place, never as a thrown error; only an empty block is
// reported as a content failure.
type umlAdapter struct {
	resolver *library.Resolver
	base     string
	log      zerolog.Logger
}

func newUMLAdapter(deps Deps) *umlAdapter {
	base := deps.PlantUMLBase
	if base == "" {
		base = defaultPlantUMLBase
	}

	return &umlAdapter{resolver: deps.Resolver, base: strings.TrimRight(base, "/"), log: deps.Log}
}

func (a *umlAdapter) Notation() Notation {
	return UML
}

func (a *umlAdapter) Render(ctx context.Context, payload string) (string, *RenderError) {
	if strings.TrimSpace(payload) == "" {
		return "", &RenderError{
			Code:    "CONTENT_INVALID",
			Message: "UML block has no content",
			Payload: payload,
		}
	}

	handle, err := a.resolver.Resolve(ctx, "plantuml")
	if err == nil {
		encoded, invokeErr := a.resolver.Invoke(ctx, handle, "encode", payload)
		if invokeErr == nil && encoded != "" {
			return fmt.Sprintf(
				`<img class="markvista-uml" src="%s/svg/%s" alt="UML diagram"/>`,
				a.base, encoded,
			), nil
		}

		err = invokeErr
	}

	a.log.Debug().Err(err).Msg("plantuml encode unavailable, emitting broken reference")

	return `<img class="markvista-uml markvista-uml-broken" src="" alt="UML diagram unavailable"/>`, nil
}
