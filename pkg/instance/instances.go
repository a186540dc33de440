package instance

import (
	"maps"
	"strconv"
	"strings"

	"github.com/macropower/dictamen/pkg/expr"
)

// Instances holds per-instance field overrides. Element i applies to
// instance i+1.
type Instances []map[string]any

// Context returns a copy of shared with the overrides of instance i
// (zero-based) applied. An index without overrides yields a plain copy.
func (in Instances) Context(shared expr.Context, i int) expr.Context {
	var overrides map[string]any
	if i >= 0 && i < len(in) {
		overrides = in[i]
	}

	ctx := make(expr.Context, len(shared)+len(overrides))
	maps.Copy(ctx, shared)
	maps.Copy(ctx, overrides)

	return ctx
}

// FromPrefixed splits flat form data into a shared context and n instances.
// A key prefix_i__field with 1 <= i <= n becomes field in instance i. Keys
// of that form are never shared, so instances beyond n and indices below 1
// are dropped. All other keys are shared unchanged. The input context is
// not modified.
func FromPrefixed(ctx expr.Context, prefix string, n int) (expr.Context, Instances) {
	n = max(n, 1)
	shared := make(expr.Context, len(ctx))
	instances := make(Instances, n)

	for i := range instances {
		instances[i] = map[string]any{}
	}

	for k, v := range ctx {
		i, field, ok := parseKey(k, prefix)
		if !ok {
			shared[k] = v

			continue
		}

		if i >= 1 && i <= n {
			instances[i-1][field] = v
		}
	}

	return shared, instances
}

// parseKey splits prefix_i__field into i and field.
func parseKey(key, prefix string) (int, string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+"_")
	if !ok {
		return 0, "", false
	}

	idx, field, ok := strings.Cut(rest, "__")
	if !ok || field == "" {
		return 0, "", false
	}

	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", false
	}

	return i, field, true
}
