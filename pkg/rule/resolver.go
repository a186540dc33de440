package rule

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/macropower/dictamen/pkg/expr"
)

// Renderer renders a template against a context.
type Renderer interface {
	Render(template string, ctx expr.Context) (string, error)
}

// RendererFunc adapts a function to the [Renderer] interface.
type RendererFunc func(template string, ctx expr.Context) (string, error)

// Render calls f(template, ctx).
func (f RendererFunc) Render(template string, ctx expr.Context) (string, error) {
	return f(template, ctx)
}

// Resolver selects the first matching rule of a block and renders it.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	renderer  Renderer
	evaluator *expr.Evaluator
}

// ResolverOpt configures a [Resolver].
type ResolverOpt func(*Resolver)

// WithEvaluator sets the evaluator used to compile conditions that were not
// compiled ahead of time. Pass one configured with [expr.WithCache] to share
// parsed conditions across resolutions.
func WithEvaluator(ev *expr.Evaluator) ResolverOpt {
	return func(r *Resolver) {
		r.evaluator = ev
	}
}

// NewResolver creates a new [Resolver] that renders templates with renderer.
func NewResolver(renderer Renderer, opts ...ResolverOpt) *Resolver {
	r := &Resolver{renderer: renderer}
	for _, opt := range opts {
		opt(r)
	}

	if r.evaluator == nil {
		r.evaluator = expr.NewEvaluator()
	}

	return r
}

// Select returns the index of the first rule in b whose condition holds for
// ctx. Rules after the match are neither parsed nor evaluated. It returns an
// [*UnresolvedBlockError] when no rule matches.
func (r *Resolver) Select(b *Block, ctx expr.Context) (int, error) {
	for i, rl := range b.Rules {
		cond := rl.Condition()
		if cond == nil {
			var err error

			cond, err = r.evaluator.Compile(rl.When)
			if err != nil {
				return -1, fmt.Errorf("block %q: rule %d: %w", b.ID, i, err)
			}
		}

		if cond.Eval(ctx) {
			return i, nil
		}
	}

	return -1, &UnresolvedBlockError{BlockID: b.ID}
}

// ResolveBlock renders the first matching rule of b and trims the result.
//
// Condition errors and [*UnresolvedBlockError] are returned as-is. When the
// selected template fails to render, ResolveBlock returns an empty string and
// a [*RenderError]; callers may treat that error as a diagnostic.
func (r *Resolver) ResolveBlock(b *Block, ctx expr.Context) (string, error) {
	i, err := r.Select(b, ctx)
	if err != nil {
		return "", err
	}

	out, err := r.renderer.Render(b.Rules[i].Template, ctx)
	if err != nil {
		return "", &RenderError{BlockID: b.ID, Rule: i, Err: err}
	}

	return strings.TrimSpace(out), nil
}

// Resolution is the result of [Resolver.ResolveAll].
type Resolution struct {
	// Text maps block IDs to resolved text.
	Text map[string]string
	// RenderErrors holds the blocks that resolved to an empty string because
	// their template failed to render, in block order.
	RenderErrors []*RenderError
}

// Err joins all render errors, or returns nil if there were none.
func (r *Resolution) Err() error {
	errs := make([]error, len(r.RenderErrors))
	for i, err := range r.RenderErrors {
		errs[i] = err
	}

	return errors.Join(errs...)
}

// ResolveAll resolves each block independently against the same context.
// Render failures are recorded in the [Resolution] and do not stop the other
// blocks; any other error aborts the pass.
func (r *Resolver) ResolveAll(blocks []*Block, ctx expr.Context) (*Resolution, error) {
	res := &Resolution{Text: make(map[string]string, len(blocks))}

	for _, b := range blocks {
		text, err := r.ResolveBlock(b, ctx)

		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			slog.Warn("template render failed",
				slog.String("block", b.ID),
				slog.Int("rule", renderErr.Rule),
				slog.Any("err", renderErr.Err),
			)

			res.RenderErrors = append(res.RenderErrors, renderErr)
		} else if err != nil {
			return nil, err
		}

		res.Text[b.ID] = text
	}

	return res, nil
}
