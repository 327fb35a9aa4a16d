package compile

import (
	"sync"

	"github.com/markvista/markvista/internal/notation"
)

// Status is the lifecycle of one placeholder within a render pass.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRendering Status = "rendering"
	StatusRendered  Status = "rendered"
	StatusError     Status = "error"
)

// statusRank orders statuses so transitions can only move forward.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusRendering: 1,
	StatusRendered:  2,
	StatusError:     2,
}

// Placeholder is a typed, positioned marker standing in for deferred
// content. It lives for exactly one render pass; a newer pass creates
// fresh placeholders with no identity carried over.
type Placeholder struct {
	ID             string
	NotationType   notation.Notation
	EncodedPayload string

	// Token is the exact markup element the compiler emitted, used by
	// the orchestrator to substitute the final content in place.
	Token string

	mu     sync.Mutex
	status Status
	result string
}

// Status returns the current lifecycle state.
func (p *Placeholder) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status
}

// Advance moves the placeholder forward. Backward transitions are
// rejected, which also guarantees a placeholder is never rendered
// twice within one pass.
func (p *Placeholder) Advance(to Status) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if statusRank[to] <= statusRank[p.status] {
		return false
	}

	p.status = to
	return true
}

// SetResult records the final content or error block for the
// placeholder and moves it to the terminal status.
func (p *Placeholder) SetResult(status Status, result string) bool {
	if status != StatusRendered && status != StatusError {
		return false
	}

	if !p.Advance(status) {
		return false
	}

	p.mu.Lock()
	p.result = result
	p.mu.Unlock()

	return true
}

// Result returns the substituted content once the placeholder reached
// a terminal status.
func (p *Placeholder) Result() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.result
}
