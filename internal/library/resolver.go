package library

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/markvista/markvista/internal/remote"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPollAttempts = 50
	defaultPollInterval = 100 * time.Millisecond
	resolveAllParallel  = 4
)

type resolutionState struct {
	status Status
	handle *EngineHandle
}

// Options tunes resolver behavior.
type Options struct {
	Client       *remote.Client
	Log          zerolog.Logger
	PollAttempts int
	PollInterval time.Duration
}

// Resolver acquires engines from their ranked sources and caches the
// resulting handles. Resolution never fails for a registered engine:
// it settles ready, or failed with a sentinel unavailable handle that
// adapters degrade against.
type Resolver struct {
	registry     *Registry
	client       *remote.Client
	log          zerolog.Logger
	pollAttempts int
	pollInterval time.Duration

	mu           sync.Mutex
	states       map[string]*resolutionState
	preconfigure map[string]*sync.Once
	group        singleflight.Group
}

// NewResolver creates a Resolver over a descriptor registry.
func NewResolver(registry *Registry, opts Options) *Resolver {
	client := opts.Client
	if client == nil {
		client = remote.New("", opts.Log)
	}

	pollAttempts := opts.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = defaultPollAttempts
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Resolver{
		registry:     registry,
		client:       client,
		log:          opts.Log,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
		states:       make(map[string]*resolutionState),
		preconfigure: make(map[string]*sync.Once),
	}
}

// Resolve returns a ready or sentinel-unavailable handle for name.
// Concurrent calls for the same engine share one in-flight resolution
// and observe the exact same handle. The only error case is an engine
// name absent from the registry.
func (r *Resolver) Resolve(ctx context.Context, name string) (*EngineHandle, error) {
	descriptor, ok := r.registry.Get(name)
	if !ok {
		return nil, oops.
			Code("ENGINE_UNKNOWN").
			With("engine", name).
			Errorf("engine %q is not registered", name)
	}

	r.mu.Lock()
	state := r.stateLocked(name)
	if state.status == StatusReady || state.status == StatusFailed {
		handle := state.handle
		r.mu.Unlock()
		return handle, nil
	}

	state.status = StatusResolving
	r.mu.Unlock()

	result, _, _ := r.group.Do(name, func() (any, error) {
		return r.resolveDescriptor(ctx, descriptor), nil
	})

	return result.(*EngineHandle), nil
}

// IsResolved reports whether name has a ready engine handle.
func (r *Resolver) IsResolved(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[name]
	return ok && state.status == StatusReady
}

// Status returns the resolution status for name.
func (r *Resolver) Status(name string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[name]
	if !ok {
		return StatusUnresolved
	}

	return state.status
}

// Retry clears a failed engine so the next Resolve attempts its
// sources again. Failed is the only state a retry may leave.
func (r *Resolver) Retry(ctx context.Context, name string) (*EngineHandle, error) {
	r.mu.Lock()
	if state, ok := r.states[name]; ok && state.status == StatusFailed {
		delete(r.states, name)
	}
	r.mu.Unlock()

	return r.Resolve(ctx, name)
}

// SummaryEntry reports the outcome for one engine.
type SummaryEntry struct {
	Name   string
	Status Status
	Origin SourceKind
}

// Summary aggregates a ResolveAll run.
type Summary struct {
	Succeeded int
	Failed    int
	Entries   []SummaryEntry
}

// ResolveAll resolves every registered engine with bounded
// parallelism. Individual failures are contained in the summary; the
// call itself never fails.
func (r *Resolver) ResolveAll(ctx context.Context, tracker *progress.Tracker) Summary {
	descriptors := r.registry.All()
	entries := make([]SummaryEntry, len(descriptors))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(resolveAllParallel)

	for i, descriptor := range descriptors {
		group.Go(func() error {
			handle, err := r.Resolve(groupCtx, descriptor.Name)

			entry := SummaryEntry{Name: descriptor.Name, Status: r.Status(descriptor.Name)}
			if err == nil && handle != nil {
				entry.Origin = handle.Origin
			}

			entries[i] = entry
			if tracker != nil {
				tracker.Increment(1)
			}

			return nil
		})
	}

	_ = group.Wait()

	summary := Summary{Entries: entries}
	for _, entry := range entries {
		if entry.Status == StatusReady {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	return summary
}

func (r *Resolver) stateLocked(name string) *resolutionState {
	state, ok := r.states[name]
	if !ok {
		state = &resolutionState{status: StatusUnresolved}
		r.states[name] = state
	}

	return state
}

func (r *Resolver) resolveDescriptor(ctx context.Context, descriptor *Descriptor) *EngineHandle {
	r.runPreconfigure(descriptor)

	if descriptor.EmbeddedResolve != nil {
		if handle := descriptor.EmbeddedResolve(); handle != nil && descriptor.IsReady(handle) {
			return r.markReady(descriptor, handle)
		}
	}

	for _, source := range descriptor.Sources {
		bundle, err := r.loadSource(ctx, source)
		if err != nil {
			r.log.Debug().
				Str("engine", descriptor.Name).
				Str("kind", string(source.Kind)).
				Str("locator", source.Locator).
				Err(err).
				Msg("engine source unavailable")
			continue
		}

		candidate := NewHandle(descriptor.Name)
		candidate.Origin = source.Kind
		candidate.Bundle = bundle

		if r.awaitReady(ctx, descriptor, candidate) {
			return r.markReady(descriptor, candidate)
		}

		r.log.Debug().
			Str("engine", descriptor.Name).
			Str("kind", string(source.Kind)).
			Msg("engine loaded but never became ready")
	}

	return r.markFailed(descriptor)
}

func (r *Resolver) runPreconfigure(descriptor *Descriptor) {
	if descriptor.Preconfigure == nil {
		return
	}

	r.mu.Lock()
	once, ok := r.preconfigure[descriptor.Name]
	if !ok {
		once = &sync.Once{}
		r.preconfigure[descriptor.Name] = once
	}
	r.mu.Unlock()

	once.Do(func() {
		if err := descriptor.Preconfigure(); err != nil {
			r.log.Warn().
				Str("engine", descriptor.Name).
				Err(err).
				Msg("engine preconfigure failed")
		}
	})
}

func (r *Resolver) loadSource(ctx context.Context, source Source) ([]byte, error) {
	switch source.Kind {
	case SourceEmbedded:
		return bundledAssets.ReadFile("assets/" + source.Locator)
	case SourceDirectLoad:
		bundle, err := os.ReadFile(source.Locator)
		if err != nil {
			return nil, oops.
				Code("ENGINE_UNAVAILABLE").
				With("path", source.Locator).
				Wrapf(err, "reading local engine bundle")
		}
		return bundle, nil
	case SourceRemotePrimary, SourceRemoteAlternate:
		return r.client.Fetch(ctx, source.Locator)
	default:
		return nil, oops.
			Code("ENGINE_UNAVAILABLE").
			With("kind", string(source.Kind)).
			Errorf("unknown source kind")
	}
}

// awaitReady polls the readiness predicate with bounded retries. A
// load finishing does not mean the engine finished initializing, so a
// single load-complete signal is never trusted.
func (r *Resolver) awaitReady(ctx context.Context, descriptor *Descriptor, handle *EngineHandle) bool {
	for attempt := 0; attempt < r.pollAttempts; attempt++ {
		if descriptor.IsReady(handle) {
			return true
		}

		timer := time.NewTimer(r.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	return descriptor.IsReady(handle)
}

func (r *Resolver) markReady(descriptor *Descriptor, handle *EngineHandle) *EngineHandle {
	if descriptor.Bind != nil {
		descriptor.Bind(handle)
	}

	EnsureCapabilities(handle, descriptor.Capabilities)

	r.mu.Lock()
	state := r.stateLocked(descriptor.Name)
	if state.status != StatusReady {
		state.status = StatusReady
		state.handle = handle
	}
	ready := state.handle
	r.mu.Unlock()

	r.log.Info().
		Str("engine", descriptor.Name).
		Str("origin", string(handle.Origin)).
		Msg("engine ready")

	return ready
}

func (r *Resolver) markFailed(descriptor *Descriptor) *EngineHandle {
	sentinel := NewHandle(descriptor.Name)
	sentinel.Unavailable = true
	EnsureCapabilities(sentinel, descriptor.Capabilities)

	r.mu.Lock()
	state := r.stateLocked(descriptor.Name)
	state.status = StatusFailed
	state.handle = sentinel
	r.mu.Unlock()

	r.log.Warn().
		Str("engine", descriptor.Name).
		Msg("engine unavailable from every source")

	return sentinel
}
