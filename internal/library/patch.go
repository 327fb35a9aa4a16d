package library

import (
	"context"

	"github.com/samber/oops"
)

// EnsureCapabilities installs no-op-safe stand-ins for any expected
// capability the handle is missing. Existing implementations are never
// overwritten and stand-ins are never re-wrapped, so the patch is
// idempotent. Called at two deterministic points: right after an
// engine becomes ready and again before every invocation.
func EnsureCapabilities(h *EngineHandle, expected []string) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range expected {
		if _, ok := h.caps[name]; ok {
			continue
		}

		h.caps[name] = standin(h.Name, name)
		h.standins[name] = true
	}
}

// standin is the safe replacement for a missing engine API: it reports
// the gap as a typed error instead of crashing the caller.
func standin(engine, capability string) Capability {
	return func(_ context.Context, _ string) (string, error) {
		return "", oops.
			Code("CAPABILITY_MISSING").
			With("engine", engine).
			With("capability", capability).
			Errorf("engine %q does not provide %q", engine, capability)
	}
}
