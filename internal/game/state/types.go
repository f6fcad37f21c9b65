package state

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

// Phase gates which actions a game accepts.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseMilitary Phase = "military"
	PhaseFinished Phase = "finished"
)

// Direction is the way hands travel around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	Counterclockwise Direction = "counterclockwise"
)

// Table constants.
const (
	MinPlayers       = 3
	MaxPlayers       = 7
	HandSize         = 7
	StartingCoins    = 3
	DiscardCoins     = 3
	DefaultTradeCost = 2
)

// TradeCost is the per-unit coin price of buying from one neighbor.
type TradeCost struct {
	Raw          int `json:"raw"`
	Manufactured int `json:"manufactured"`
}

// For returns the price of one unit of rt.
func (tc TradeCost) For(rt cards.ResourceType) int {
	if rt.IsManufactured() {
		return tc.Manufactured
	}
	return tc.Raw
}

// PlayerState is one seat at the table.
type PlayerState struct {
	ID              string                      `json:"id"`
	WonderID        string                      `json:"wonderId"`
	WonderSide      cards.WonderSide            `json:"wonderSide"`
	Hand            []string                    `json:"hand"`
	Tableau         []string                    `json:"tableau"`
	Coins           int                         `json:"coins"`
	MilitaryShields int                         `json:"militaryShields"`
	VictoryTokens   int                         `json:"victoryTokens"`
	DefeatTokens    int                         `json:"defeatTokens"`
	Science         map[cards.ScienceSymbol]int `json:"science"`
	WonderStages    int                         `json:"wonderStages"`
	LeftTradeCost   TradeCost                   `json:"leftTradeCost"`
	RightTradeCost  TradeCost                   `json:"rightTradeCost"`
}

// NewPlayerState creates a seat with starting coins and default trade costs.
func NewPlayerState(id, wonderID string, side cards.WonderSide) PlayerState {
	science := make(map[cards.ScienceSymbol]int, len(cards.ScienceSymbols))
	for _, sym := range cards.ScienceSymbols {
		science[sym] = 0
	}
	return PlayerState{
		ID:             id,
		WonderID:       wonderID,
		WonderSide:     side,
		Hand:           []string{},
		Tableau:        []string{},
		Coins:          StartingCoins,
		Science:        science,
		LeftTradeCost:  TradeCost{Raw: DefaultTradeCost, Manufactured: DefaultTradeCost},
		RightTradeCost: TradeCost{Raw: DefaultTradeCost, Manufactured: DefaultTradeCost},
	}
}

// HasInHand reports whether the instance id is in the player's hand.
func (p *PlayerState) HasInHand(instanceID string) bool {
	return indexOf(p.Hand, instanceID) >= 0
}

// clone returns a deep copy of p.
func (p PlayerState) clone() PlayerState {
	out := p
	out.Hand = cloneIDs(p.Hand)
	out.Tableau = cloneIDs(p.Tableau)
	out.Science = make(map[cards.ScienceSymbol]int, len(p.Science))
	for k, v := range p.Science {
		out.Science[k] = v
	}
	return out
}

// GameState is an immutable snapshot of a game. Transitions return a new
// value and never modify the receiver.
type GameState struct {
	ID          string        `json:"id"`
	Players     []PlayerState `json:"players"`
	Age         cards.Age     `json:"age"`
	Turn        int           `json:"turn"`
	CurrentDeck []string      `json:"currentDeck"`
	DiscardPile []string      `json:"discardPile"`
	Direction   Direction     `json:"direction"`
	Version     int           `json:"version"`
	Phase       Phase         `json:"phase"`
}

// Clone returns a deep copy of s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]PlayerState, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	out.CurrentDeck = cloneIDs(s.CurrentDeck)
	out.DiscardPile = cloneIDs(s.DiscardPile)
	return &out
}

// PlayerIndex returns the seat of playerID, or -1.
func (s *GameState) PlayerIndex(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// Player returns the seat for playerID.
func (s *GameState) Player(playerID string) (*PlayerState, bool) {
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return nil, false
	}
	return &s.Players[idx], true
}

// LeftIndex is the seat to the left of i in a table of n.
func LeftIndex(i, n int) int { return (i - 1 + n) % n }

// RightIndex is the seat to the right of i in a table of n.
func RightIndex(i, n int) int { return (i + 1) % n }

// Neighbors returns the left and right neighbors of seat i.
func (s *GameState) Neighbors(i int) (left, right *PlayerState) {
	n := len(s.Players)
	return &s.Players[LeftIndex(i, n)], &s.Players[RightIndex(i, n)]
}

// IsOver reports whether the game has finished.
func (s *GameState) IsOver() bool {
	return s != nil && s.Phase == PhaseFinished
}

// DirectionForAge returns the pass direction of an age: clockwise in I and
// III, counterclockwise in II.
func DirectionForAge(age cards.Age) Direction {
	if age == cards.AgeII {
		return Counterclockwise
	}
	return Clockwise
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append(make([]string, 0, len(ids)), ids...)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, idx int) []string {
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:idx]...)
	return append(out, ids[idx+1:]...)
}
