package instance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/rule"
)

// Separator joins the text of consecutive instances.
const Separator = "\n\n"

// BlockResolver resolves a single block. It is implemented by
// [*rule.Resolver].
type BlockResolver interface {
	ResolveBlock(b *rule.Block, ctx expr.Context) (string, error)
}

// Expander resolves a block once per instance.
type Expander struct {
	resolver BlockResolver
	maxCount int
}

// ExpanderOpt configures an [Expander].
type ExpanderOpt func(*Expander)

// WithMaxCount rejects expansions of more than n instances.
// Zero, the default, means no limit.
func WithMaxCount(n int) ExpanderOpt {
	return func(e *Expander) {
		e.maxCount = n
	}
}

// NewExpander creates a new [Expander].
func NewExpander(resolver BlockResolver, opts ...ExpanderOpt) *Expander {
	e := &Expander{resolver: resolver}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Expansion is the result of an expansion.
type Expansion struct {
	// Text is the instance texts joined with [Separator].
	Text string
	// Instances holds the resolved text of each instance, in order. Instances
	// whose template failed to render are empty.
	Instances []string
	// RenderErrors holds the template failures, in instance order.
	RenderErrors []*InstanceError
}

// InstanceError is a template failure of a single instance.
type InstanceError struct {
	*rule.RenderError

	Instance int // One-based.
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %d: %v", e.Instance, e.RenderError)
}

func (e *InstanceError) Unwrap() error {
	return e.RenderError
}

// Expand resolves b once for each instance, layering that instance's
// overrides onto shared. No instances means a single instance with no
// overrides. Neither shared nor instances are modified.
func (e *Expander) Expand(b *rule.Block, shared expr.Context, instances Instances) (*Expansion, error) {
	n, err := checkCount("", len(instances), e.maxCount)
	if err != nil {
		return nil, fmt.Errorf("block %q: %w", b.ID, err)
	}

	exp := &Expansion{Instances: make([]string, n)}

	for i := range n {
		text, err := e.resolver.ResolveBlock(b, instances.Context(shared, i))

		var renderErr *rule.RenderError
		if errors.As(err, &renderErr) {
			exp.RenderErrors = append(exp.RenderErrors, &InstanceError{RenderError: renderErr, Instance: i + 1})
		} else if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i+1, err)
		}

		exp.Instances[i] = text
	}

	exp.Text = strings.Join(exp.Instances, Separator)

	return exp, nil
}

// Config describes where an expansion reads its instances from.
type Config struct {
	// CountField names the context field holding the instance count.
	// When empty, Count is used instead.
	CountField string
	// Prefix selects instance keys of the form Prefix_i__field.
	Prefix string
	// Count is the instance count when CountField is empty.
	Count int
}

// ExpandInstances reads the instance count and prefixed instance keys from
// base and expands b. See [ReadCount] and [FromPrefixed].
func (e *Expander) ExpandInstances(b *rule.Block, base expr.Context, cfg Config) (*Expansion, error) {
	var (
		n   int
		err error
	)

	if cfg.CountField != "" {
		n, err = ReadCount(base, cfg.CountField, e.maxCount)
	} else {
		n, err = checkCount("", cfg.Count, e.maxCount)
	}

	if err != nil {
		return nil, fmt.Errorf("block %q: %w", b.ID, err)
	}

	shared, instances := FromPrefixed(base, cfg.Prefix, n)

	return e.Expand(b, shared, instances)
}
