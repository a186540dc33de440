package expr

import (
	"fmt"
)

// Evaluator parses and evaluates conditions, optionally through a [Cache].
// The zero value parses on every call.
type Evaluator struct {
	cache *Cache
}

// EvaluatorOpt configures an [Evaluator].
type EvaluatorOpt func(*Evaluator)

// WithCache shares a parse cache between evaluations.
func WithCache(c *Cache) EvaluatorOpt {
	return func(e *Evaluator) {
		e.cache = c
	}
}

// NewEvaluator creates a new [Evaluator].
func NewEvaluator(opts ...EvaluatorOpt) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Compile parses s, using the cache when one is configured.
func (e *Evaluator) Compile(s string) (*Expression, error) {
	if e.cache != nil {
		return e.cache.Parse(s)
	}

	return Parse(s)
}

// Evaluate parses s and evaluates it against ctx. Only parsing can fail.
func (e *Evaluator) Evaluate(s string, ctx Context) (bool, error) {
	x, err := e.Compile(s)
	if err != nil {
		return false, err
	}

	return x.Eval(ctx), nil
}

// Any reports whether at least one condition holds. Conditions after the first
// match are not parsed.
func (e *Evaluator) Any(conditions []string, ctx Context) (bool, error) {
	for i, c := range conditions {
		ok, err := e.Evaluate(c, ctx)
		if err != nil {
			return false, fmt.Errorf("condition %d: %w", i, err)
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

// All reports whether every condition holds. Conditions after the first
// failure are not parsed.
func (e *Evaluator) All(conditions []string, ctx Context) (bool, error) {
	for i, c := range conditions {
		ok, err := e.Evaluate(c, ctx)
		if err != nil {
			return false, fmt.Errorf("condition %d: %w", i, err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// Evaluate parses s and evaluates it against ctx without caching.
func Evaluate(s string, ctx Context) (bool, error) {
	return NewEvaluator().Evaluate(s, ctx)
}

// Variables parses s and returns the sorted, distinct names it references.
func Variables(s string) ([]string, error) {
	x, err := Parse(s)
	if err != nil {
		return nil, err
	}

	return x.Variables(), nil
}
