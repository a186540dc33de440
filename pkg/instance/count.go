package instance

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/macropower/dictamen/pkg/expr"
)

// ErrCountOutOfRange matches any [*CountOutOfRangeError].
var ErrCountOutOfRange = errors.New("instance count out of range")

// CountOutOfRangeError reports an instance count above the configured maximum.
type CountOutOfRangeError struct {
	Field string
	Count int
	Max   int
}

func (e *CountOutOfRangeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %d exceeds maximum %d", ErrCountOutOfRange, e.Count, e.Max)
	}

	return fmt.Sprintf("%v: %s=%d exceeds maximum %d", ErrCountOutOfRange, e.Field, e.Count, e.Max)
}

// Is reports whether target is [ErrCountOutOfRange].
func (e *CountOutOfRangeError) Is(target error) bool {
	return target == ErrCountOutOfRange
}

// ReadCount reads an instance count from ctx[field]. Missing, non-positive
// and unparseable values count as 1. A count above maxCount is an error;
// maxCount <= 0 means no limit.
func ReadCount(ctx expr.Context, field string, maxCount int) (int, error) {
	n, ok := toInt(ctx[field])
	if !ok {
		if v, present := ctx[field]; present && v != nil {
			slog.Debug("instance count is not a number, using 1",
				slog.String("field", field),
				slog.Any("value", v),
			)
		}

		n = 1
	}

	return checkCount(field, n, maxCount)
}

func checkCount(field string, n, maxCount int) (int, error) {
	if n < 1 {
		return 1, nil
	}

	if maxCount > 0 && n > maxCount {
		return 0, &CountOutOfRangeError{Field: field, Count: n, Max: maxCount}
	}

	return n, nil
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(min(v, math.MaxInt)), true //nolint:gosec // Clamped.
	case uint64:
		return int(min(v, math.MaxInt)), true //nolint:gosec // Clamped.
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}

		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))

		return n, err == nil
	}

	return 0, false
}
