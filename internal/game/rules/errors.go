package rules

import (
	"fmt"

	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// ValidationError is an action rejected against the current state. The
// state is unchanged.
type ValidationError struct {
	Action   state.ActionType
	PlayerID string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.PlayerID == "" {
		return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("%s by %s rejected: %s", e.Action, e.PlayerID, e.Reason)
}
