package game

import (
	"fmt"

	"github.com/wondersforge/wonders-server-go/internal/game/rules"
)

// InvalidActionError is returned by the engine when an action fails
// validation. The state passed in is left untouched.
type InvalidActionError struct {
	Err *rules.ValidationError
}

func (e *InvalidActionError) Error() string {
	return "invalid action: " + e.Err.Reason
}

// Unwrap exposes the underlying validation failure.
func (e *InvalidActionError) Unwrap() error {
	return e.Err
}

// Reason is the validator message.
func (e *InvalidActionError) Reason() string {
	return e.Err.Reason
}

// InvariantViolation means the reducer produced a state no valid action
// could lead to. The game should be abandoned.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

// Invariant names reported by the engine.
const (
	InvariantUniqueTableau   = "unique_tableau"
	InvariantNonNegativeCoin = "non_negative_coins"
	InvariantVersion         = "version_increases"
	InvariantSeats           = "fixed_seats"
)
