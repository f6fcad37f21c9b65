package state

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

// ActionType discriminates actions on the wire.
type ActionType string

const (
	ActionPlayCard        ActionType = "PLAY_CARD"
	ActionDiscardCard     ActionType = "DISCARD_CARD"
	ActionBuildWonder     ActionType = "BUILD_WONDER"
	ActionPassCards       ActionType = "PASS_CARDS"
	ActionResolveMilitary ActionType = "RESOLVE_MILITARY"
	ActionNextAge         ActionType = "NEXT_AGE"
	ActionInitGame        ActionType = "INIT_GAME"
	ActionDealHands       ActionType = "DEAL_HANDS"
)

// IsSystem reports whether actions of this type are issued by the engine
// rather than a player.
func (t ActionType) IsSystem() bool {
	switch t {
	case ActionPassCards, ActionResolveMilitary, ActionNextAge, ActionInitGame, ActionDealHands:
		return true
	default:
		return false
	}
}

// Payment settles the cost of one card or wonder stage.
type Payment struct {
	Coins              int             `json:"coins"`
	LeftNeighborCoins  int             `json:"leftNeighborCoins"`
	RightNeighborCoins int             `json:"rightNeighborCoins"`
	Resources          cards.Resources `json:"resources,omitempty"`
	Chain              string          `json:"chain,omitempty"`
}

// Action is the closed set of game actions.
type Action interface {
	Type() ActionType
	// Actor is the acting player, empty for INIT_GAME and DEAL_HANDS.
	Actor() string
	action()
}

type PlayCard struct {
	PlayerID       string
	CardInstanceID string
	Payment        Payment
}

type DiscardCard struct {
	PlayerID       string
	CardInstanceID string
}

type BuildWonder struct {
	PlayerID       string
	CardInstanceID string
	Payment        Payment
	StageIndex     int
}

type PassCards struct {
	PlayerID string
}

type ResolveMilitary struct {
	PlayerID string
}

type NextAge struct {
	PlayerID string
}

// WonderAssignment is the board handed to one player.
type WonderAssignment struct {
	WonderID string           `json:"wonderId"`
	Side     cards.WonderSide `json:"side"`
}

// InitGame seats the players. GameID may be empty.
type InitGame struct {
	GameID            string
	PlayerIDs         []string
	WonderAssignments map[string]WonderAssignment
}

// DealHands hands out a fresh deal for an age. Hands[i] goes to seat i.
type DealHands struct {
	Age   cards.Age
	Deck  []string
	Hands [][]string
}

func (PlayCard) Type() ActionType        { return ActionPlayCard }
func (DiscardCard) Type() ActionType     { return ActionDiscardCard }
func (BuildWonder) Type() ActionType     { return ActionBuildWonder }
func (PassCards) Type() ActionType       { return ActionPassCards }
func (ResolveMilitary) Type() ActionType { return ActionResolveMilitary }
func (NextAge) Type() ActionType         { return ActionNextAge }
func (InitGame) Type() ActionType        { return ActionInitGame }
func (DealHands) Type() ActionType       { return ActionDealHands }

func (a PlayCard) Actor() string        { return a.PlayerID }
func (a DiscardCard) Actor() string     { return a.PlayerID }
func (a BuildWonder) Actor() string     { return a.PlayerID }
func (a PassCards) Actor() string       { return a.PlayerID }
func (a ResolveMilitary) Actor() string { return a.PlayerID }
func (a NextAge) Actor() string         { return a.PlayerID }
func (InitGame) Actor() string          { return "" }
func (DealHands) Actor() string         { return "" }

func (PlayCard) action()        {}
func (DiscardCard) action()     {}
func (BuildWonder) action()     {}
func (PassCards) action()       {}
func (ResolveMilitary) action() {}
func (NextAge) action()         {}
func (InitGame) action()        {}
func (DealHands) action()       {}
