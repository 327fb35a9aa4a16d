// Package library resolves third-party rendering engines from ranked
// sources and hands out ready-to-use engine handles.
package library

import (
	"context"
	"sync"
)

// SourceKind ranks where an engine bundle may be acquired from.
type SourceKind string

const (
	SourceEmbedded        SourceKind = "embedded"
	SourceDirectLoad      SourceKind = "direct-load"
	SourceRemotePrimary   SourceKind = "remote-primary"
	SourceRemoteAlternate SourceKind = "remote-alternate"
)

// Source is one ranked acquisition location for an engine bundle.
type Source struct {
	Kind    SourceKind
	Locator string
}

// Capability is a callable slice of an engine's API surface.
type Capability func(ctx context.Context, payload string) (string, error)

// EngineHandle is the resolved reference to a rendering engine. Once a
// handle reaches ready it is shared read-only by all adapters; only
// capability patching may add (never replace) entries.
type EngineHandle struct {
	Name        string
	Origin      SourceKind
	Bundle      []byte
	Unavailable bool

	mu       sync.RWMutex
	caps     map[string]Capability
	standins map[string]bool
}

// NewHandle creates an empty handle for an engine name.
func NewHandle(name string) *EngineHandle {
	return &EngineHandle{
		Name:     name,
		caps:     make(map[string]Capability),
		standins: make(map[string]bool),
	}
}

// Capability returns the named capability and whether it exists.
func (h *EngineHandle) Capability(name string) (Capability, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	capFn, ok := h.caps[name]
	return capFn, ok
}

// SetCapability installs a real implementation, replacing any stand-in.
func (h *EngineHandle) SetCapability(name string, fn Capability) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.caps[name] = fn
	delete(h.standins, name)
}

// HasRealCapability reports whether name is implemented by something
// other than a patched stand-in.
func (h *EngineHandle) HasRealCapability(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.caps[name]
	return ok && !h.standins[name]
}

// Descriptor declares how one engine is acquired and validated. The
// builtin table is defined at process start and never mutated.
type Descriptor struct {
	Name    string
	Sources []Source

	// IsReady inspects a candidate handle without side effects. A
	// loaded bundle may not be usable yet, so resolution polls this
	// rather than trusting a single load-complete signal.
	IsReady func(h *EngineHandle) bool

	// Preconfigure runs exactly once, before any source is attempted.
	Preconfigure func() error

	// EmbeddedResolve attempts to obtain the engine without any
	// loading step, for engines already usable from the runtime.
	EmbeddedResolve func() *EngineHandle

	// Capabilities lists the API surface adapters depend on. Missing
	// entries are patched with stand-ins after resolution.
	Capabilities []string

	// Bind attaches real capability implementations once a handle
	// passes IsReady.
	Bind func(h *EngineHandle)
}

// Status tracks the lifecycle of one engine's resolution.
type Status string

const (
	StatusUnresolved Status = "unresolved"
	StatusResolving  Status = "resolving"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)
