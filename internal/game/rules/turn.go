package rules

import (
	"sync"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// TurnsPerAge is the number of played turns in every age. The seventh card
// of each hand is discarded when the age ends.
const TurnsPerAge = 6

// TurnManager tracks which players acted in the current turn and answers
// questions about turn and age boundaries. One manager belongs to one game.
type TurnManager struct {
	mu     sync.Mutex
	acted  map[string]struct{}
	lookup cards.Lookup
}

// NewTurnManager creates a manager for a game reading wonder data from
// lookup.
func NewTurnManager(lookup cards.Lookup) *TurnManager {
	return &TurnManager{
		acted:  make(map[string]struct{}),
		lookup: lookup,
	}
}

// RecordAction marks playerID as having acted this turn.
func (tm *TurnManager) RecordAction(playerID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.acted[playerID] = struct{}{}
}

// HasActed reports whether playerID already acted this turn.
func (tm *TurnManager) HasActed(playerID string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.acted[playerID]
	return ok
}

// ActedCount returns how many players acted this turn.
func (tm *TurnManager) ActedCount() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.acted)
}

// AllPlayersActed reports whether every seat of s acted this turn.
func (tm *TurnManager) AllPlayersActed(s *state.GameState) bool {
	return tm.ActedCount() == len(s.Players)
}

// Reset starts a new turn.
func (tm *TurnManager) Reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.acted = make(map[string]struct{})
}

// TurnsInAge returns the number of turns in the current age of s.
// TODO: return 7 in Age III once playing the seventh card is an action.
func (tm *TurnManager) TurnsInAge(s *state.GameState) int {
	return TurnsPerAge
}

// IsLastTurnOfAge reports whether s is on or past the final turn of its age.
func (tm *TurnManager) IsLastTurnOfAge(s *state.GameState) bool {
	return s.Turn >= tm.TurnsInAge(s)
}

// IsDiscardTurn reports whether the hands are down to their last card in
// Age I or II with no seat able to play it.
func (tm *TurnManager) IsDiscardTurn(s *state.GameState) bool {
	if s.Age == cards.AgeIII || len(s.Players) == 0 {
		return false
	}
	if len(s.Players[0].Hand) != 1 {
		return false
	}
	for i := range s.Players {
		if tm.HasPlaySeventhCard(&s.Players[i]) {
			return false
		}
	}
	return true
}

// HasPlaySeventhCard reports whether a built stage of the player's wonder
// grants playing the last card of an age.
func (tm *TurnManager) HasPlaySeventhCard(player *state.PlayerState) bool {
	board, found := tm.lookup.Board(player.WonderID, player.WonderSide)
	if !found {
		return false
	}
	for _, stage := range board.BuiltStages(player.WonderStages) {
		for _, e := range stage.Effects {
			if _, ok := e.(cards.PlaySeventhCard); ok {
				return true
			}
		}
	}
	return false
}

// PassDirection returns the direction hands travel in age.
func (tm *TurnManager) PassDirection(age cards.Age) state.Direction {
	return state.DirectionForAge(age)
}
