package state

import (
	"encoding/json"
	"fmt"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

// wireAction is the JSON envelope for every action, discriminated by type.
type wireAction struct {
	Type              ActionType                  `json:"type"`
	PlayerID          string                      `json:"playerId,omitempty"`
	CardInstanceID    string                      `json:"cardInstanceId,omitempty"`
	Payment           *Payment                    `json:"payment,omitempty"`
	StageIndex        *int                        `json:"stageIndex,omitempty"`
	GameID            string                      `json:"gameId,omitempty"`
	PlayerIDs         []string                    `json:"playerIds,omitempty"`
	WonderAssignments map[string]WonderAssignment `json:"wonderAssignments,omitempty"`
	Age               cards.Age                   `json:"age,omitempty"`
	Deck              []string                    `json:"deck,omitempty"`
	Hands             [][]string                  `json:"hands,omitempty"`
}

// MarshalAction encodes a as its JSON wire shape.
func MarshalAction(a Action) ([]byte, error) {
	w := wireAction{Type: a.Type(), PlayerID: a.Actor()}
	switch act := a.(type) {
	case PlayCard:
		w.CardInstanceID = act.CardInstanceID
		w.Payment = &act.Payment
	case DiscardCard:
		w.CardInstanceID = act.CardInstanceID
	case BuildWonder:
		w.CardInstanceID = act.CardInstanceID
		w.Payment = &act.Payment
		idx := act.StageIndex
		w.StageIndex = &idx
	case PassCards, ResolveMilitary, NextAge:
	case InitGame:
		w.GameID = act.GameID
		w.PlayerIDs = act.PlayerIDs
		w.WonderAssignments = act.WonderAssignments
	case DealHands:
		w.Age = act.Age
		w.Deck = act.Deck
		w.Hands = act.Hands
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
	return json.Marshal(w)
}

// UnmarshalAction decodes an action from its JSON wire shape.
func UnmarshalAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	payment := func() Payment {
		if w.Payment == nil {
			return Payment{}
		}
		return *w.Payment
	}

	switch w.Type {
	case ActionPlayCard:
		return PlayCard{PlayerID: w.PlayerID, CardInstanceID: w.CardInstanceID, Payment: payment()}, nil
	case ActionDiscardCard:
		return DiscardCard{PlayerID: w.PlayerID, CardInstanceID: w.CardInstanceID}, nil
	case ActionBuildWonder:
		if w.StageIndex == nil {
			return nil, fmt.Errorf("BUILD_WONDER requires stageIndex")
		}
		return BuildWonder{
			PlayerID:       w.PlayerID,
			CardInstanceID: w.CardInstanceID,
			Payment:        payment(),
			StageIndex:     *w.StageIndex,
		}, nil
	case ActionPassCards:
		return PassCards{PlayerID: w.PlayerID}, nil
	case ActionResolveMilitary:
		return ResolveMilitary{PlayerID: w.PlayerID}, nil
	case ActionNextAge:
		return NextAge{PlayerID: w.PlayerID}, nil
	case ActionInitGame:
		return InitGame{GameID: w.GameID, PlayerIDs: w.PlayerIDs, WonderAssignments: w.WonderAssignments}, nil
	case ActionDealHands:
		return DealHands{Age: w.Age, Deck: w.Deck, Hands: w.Hands}, nil
	case "":
		return nil, fmt.Errorf("action type is required")
	default:
		return nil, fmt.Errorf("unknown action type %q", w.Type)
	}
}
