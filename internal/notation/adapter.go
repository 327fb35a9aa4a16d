package notation

import (
	"context"

	"github.com/markvista/markvista/internal/hostsvc"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/remote"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// Adapter renders one notation type's payload into final content.
// Failure is a value; a nil *RenderError means content is usable.
type Adapter interface {
	Notation() Notation
	Render(ctx context.Context, payload string) (string, *RenderError)
}

// Deps carries the shared collaborators adapters draw on.
type Deps struct {
	Resolver     *library.Resolver
	Remote       *remote.Client
	Host         *hostsvc.Client
	Log          zerolog.Logger
	PlantUMLBase string
}

// Set is the adapter registry keyed by notation type.
type Set struct {
	adapters map[Notation]Adapter
}

// NewSet wires the full adapter set.
func NewSet(deps Deps) *Set {
	adapters := []Adapter{
		newMathAdapter(deps),
		newFlowAdapter(deps),
		newCircuitAdapter(deps),
		newMindmapAdapter(deps),
		newUMLAdapter(deps),
		newChartAdapter(deps),
		newMusicAdapter(deps),
		newTimingAdapter(deps),
	}

	set := &Set{adapters: make(map[Notation]Adapter, len(adapters))}
	for _, adapter := range adapters {
		set.adapters[adapter.Notation()] = adapter
	}

	return set
}

// For returns the adapter for a notation type.
func (s *Set) For(notation Notation) (Adapter, bool) {
	adapter, ok := s.adapters[notation]
	return adapter, ok
}

// attempt is one step in an adapter's fallback chain.
type attempt struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runChain drives the shared adapter state machine: idle →
// invoking-primary → {success | invoking-fallback} → {success |
// failed}. The first attempt that succeeds wins; exhausting the chain
// yields a RenderError, never a panic or propagated error.
func runChain(ctx context.Context, log zerolog.Logger, notation Notation, payload string, attempts []attempt) (string, *RenderError) {
	var lastErr error

	for i, step := range attempts {
		phase := "invoking-primary"
		if i > 0 {
			phase = "invoking-fallback"
		}

		content, err := step.run(ctx)
		if err == nil {
			return content, nil
		}

		lastErr = err
		log.Debug().
			Str("notation", string(notation)).
			Str("phase", phase).
			Str("attempt", step.name).
			Err(err).
			Msg("render attempt failed")
	}

	if lastErr == nil {
		lastErr = oops.
			Code("ENGINE_UNAVAILABLE").
			With("notation", string(notation)).
			Errorf("no render path available")
	}

	return "", &RenderError{
		Code:    errorCode(lastErr),
		Message: lastErr.Error(),
		Payload: payload,
	}
}

func errorCode(err error) string {
	if typed, ok := oops.AsOops(err); ok {
		if code, ok := typed.Code().(string); ok {
			return code
		}
	}

	return "RENDER_FAILED"
}
