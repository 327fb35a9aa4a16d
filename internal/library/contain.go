package library

import (
	"context"

	"github.com/samber/oops"
)

// Invoke calls one engine capability with full containment. It is the
// narrowest boundary around third-party engine code: the expected
// capability surface is re-ensured before the call, and a panic from
// the engine is converted into a typed error after re-applying the
// stand-ins. The recover here is a last-resort log point, not the
// primary mechanism; EnsureCapabilities should prevent the condition.
func (r *Resolver) Invoke(ctx context.Context, handle *EngineHandle, capability, body string) (out string, err error) {
	if handle == nil || handle.Unavailable {
		name := "unknown"
		if handle != nil {
			name = handle.Name
		}

		return "", oops.
			Code("ENGINE_UNAVAILABLE").
			With("engine", name).
			With("capability", capability).
			Errorf("engine %q is unavailable", name)
	}

	if descriptor, ok := r.registry.Get(handle.Name); ok {
		EnsureCapabilities(handle, descriptor.Capabilities)
	}

	capFn, ok := handle.Capability(capability)
	if !ok {
		return "", oops.
			Code("CAPABILITY_MISSING").
			With("engine", handle.Name).
			With("capability", capability).
			Errorf("engine %q does not provide %q", handle.Name, capability)
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}

		if descriptor, ok := r.registry.Get(handle.Name); ok {
			EnsureCapabilities(handle, descriptor.Capabilities)
		}

		r.log.Error().
			Str("engine", handle.Name).
			Str("capability", capability).
			Interface("panic", recovered).
			Msg("engine capability panicked")

		out = ""
		err = oops.
			Code("CAPABILITY_MISSING").
			With("engine", handle.Name).
			With("capability", capability).
			Errorf("engine %q crashed while rendering: %v", handle.Name, recovered)
	}()

	return capFn(ctx, body)
}
