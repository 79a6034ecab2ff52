package sim

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a broken engine or policy invariant. A run that
// hits one stops immediately: it indicates a defect in the active policy or
// protocol, not a runtime condition.
var ErrInvariantViolation = errors.New("invariant violation")

func invariantf(clock int64, format string, args ...any) error {
	return fmt.Errorf("%w: tick %d: %s", ErrInvariantViolation, clock, fmt.Sprintf(format, args...))
}
