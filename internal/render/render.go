// Package render drives the two-phase document pipeline: a synchronous
// compile followed by asynchronous, independently contained resolution
// of each placeholder.
package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync/atomic"

	"github.com/markvista/markvista/internal/compile"
	"github.com/markvista/markvista/internal/notation"
	"github.com/markvista/markvista/internal/payload"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded reports that a newer pass started before this one
// settled; the stale result was discarded, not applied.
var ErrSuperseded = errors.New("render pass superseded by a newer pass")

const defaultMaxParallel = 4

// Options tunes renderer behavior.
type Options struct {
	Log         zerolog.Logger
	MaxParallel int
}

// Renderer owns render passes for one logical document. The host
// application is expected to debounce edits; the renderer itself only
// guarantees that a stale pass never overwrites a newer one.
type Renderer struct {
	compiler    *compile.Compiler
	adapters    *notation.Set
	log         zerolog.Logger
	maxParallel int

	passSeq atomic.Uint64
}

// New creates a Renderer from a compiler and adapter set.
func New(compiler *compile.Compiler, adapters *notation.Set, opts Options) *Renderer {
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	return &Renderer{
		compiler:    compiler,
		adapters:    adapters,
		log:         opts.Log,
		maxParallel: maxParallel,
	}
}

// Pass is one compile+post-process cycle for a document snapshot. It
// is ephemeral: a newer pass invalidates any older in-flight pass.
type Pass struct {
	Seq          uint64
	Input        string
	Markup       string
	Placeholders []*compile.Placeholder
}

// Process runs one full render pass and returns the final markup.
// Every placeholder failure is contained to its own error block; no
// adapter error or panic crosses this boundary. If a newer Process
// call starts before this one finishes, the stale result is dropped
// and ErrSuperseded is returned. In-flight adapter calls are not
// aborted on supersession, only ignored.
func (r *Renderer) Process(ctx context.Context, text string) (string, error) {
	seq := r.passSeq.Add(1)
	result := r.compiler.Compile(ctx, text)
	pass := &Pass{
		Seq:          seq,
		Input:        text,
		Markup:       result.Markup,
		Placeholders: result.Placeholders,
	}

	if len(pass.Placeholders) == 0 {
		if r.superseded(pass.Seq) {
			return "", ErrSuperseded
		}

		return pass.Markup, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.maxParallel)

	// Placeholders start in document order; completion order is
	// unspecified because adapters may be arbitrarily slow.
	for _, placeholder := range pass.Placeholders {
		group.Go(func() error {
			if r.superseded(pass.Seq) {
				return nil
			}

			r.renderPlaceholder(groupCtx, placeholder)
			return nil
		})
	}

	_ = group.Wait()

	if r.superseded(pass.Seq) {
		r.log.Debug().Uint64("pass", pass.Seq).Msg("discarding superseded render pass")
		return "", ErrSuperseded
	}

	markup := pass.Markup
	for _, placeholder := range pass.Placeholders {
		if placeholder.Status() == compile.StatusRendered || placeholder.Status() == compile.StatusError {
			markup = strings.Replace(markup, placeholder.Token, placeholder.Result(), 1)
		}
	}

	return markup, nil
}

func (r *Renderer) superseded(pass uint64) bool {
	return r.passSeq.Load() != pass
}

func (r *Renderer) renderPlaceholder(ctx context.Context, placeholder *compile.Placeholder) {
	if !placeholder.Advance(compile.StatusRendering) {
		return
	}

	source, err := payload.Decode(placeholder.EncodedPayload)
	if err != nil {
		placeholder.SetResult(compile.StatusError, errorBlock(placeholder.NotationType, "placeholder payload is corrupted", ""))
		return
	}

	adapter, ok := r.adapters.For(placeholder.NotationType)
	if !ok {
		placeholder.SetResult(compile.StatusError, errorBlock(placeholder.NotationType, "no renderer registered for this notation", source))
		return
	}

	content, renderErr := safeRender(ctx, adapter, source)
	if renderErr != nil {
		r.log.Debug().
			Str("notation", string(placeholder.NotationType)).
			Str("code", renderErr.Code).
			Str("id", placeholder.ID).
			Msg("placeholder failed")

		placeholder.SetResult(compile.StatusError, errorBlock(placeholder.NotationType, renderErr.Message, source))
		return
	}

	placeholder.SetResult(compile.StatusRendered, content)
}

// safeRender wraps one adapter invocation so that even a panic becomes
// a structured per-block failure.
func safeRender(ctx context.Context, adapter notation.Adapter, source string) (content string, renderErr *notation.RenderError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			content = ""
			renderErr = &notation.RenderError{
				Code:    "RENDER_PANIC",
				Message: fmt.Sprintf("renderer crashed: %v", recovered),
				Payload: source,
			}
		}
	}()

	return adapter.Render(ctx, source)
}

// errorBlock builds the contained failure panel: message plus the
// original source for diagnosis. It carries no interactive control, so
// the same markup stays safe for read-only export contexts.
func errorBlock(notationType notation.Notation, message, source string) string {
	var out strings.Builder

	fmt.Fprintf(&out, `<div class="markvista-block-error" data-notation=%q>`, string(notationType))
	fmt.Fprintf(&out, `<p class="markvista-block-error-message">%s</p>`, html.EscapeString(message))
	if source != "" {
		fmt.Fprintf(
			&out,
			`<pre class="markvista-block-error-source markvista-collapsed"><code>%s</code></pre>`,
			html.EscapeString(source),
		)
	}
	out.WriteString("</div>")

	return out.String()
}
