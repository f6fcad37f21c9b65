package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wondersforge/wonders-server-go/internal/game/scoring"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

// Message bodies travel as google.protobuf.Struct holding the JSON shapes
// below, so clients need no generated stubs.

type seatRequest struct {
	ID       string `json:"id"`
	WonderID string `json:"wonderId"`
	Side     string `json:"side"`
}

type createGameRequest struct {
	GameID  string        `json:"gameId"`
	Players []seatRequest `json:"players"`
}

type gameRequest struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId,omitempty"`
}

// GameView is the client-facing shape of a table.Snapshot.
type GameView struct {
	GameID   string           `json:"gameId"`
	Status   string           `json:"status"`
	Version  int              `json:"version"`
	Checksum string           `json:"checksum"`
	Failure  string           `json:"failure,omitempty"`
	State    *state.GameState `json:"state"`
}

type scoresView struct {
	Scores map[string]scoring.ScoreBreakdown `json:"scores"`
	Winner string                            `json:"winner,omitempty"`
	Final  bool                              `json:"final"`
}

func viewOf(snap table.Snapshot) GameView {
	v := GameView{
		GameID:   snap.ID,
		Status:   snap.Status.String(),
		Checksum: snap.Checksum,
		Failure:  snap.Failure,
		State:    snap.State,
	}
	if snap.State != nil {
		v.Version = snap.State.Version
	}
	return v
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return structpb.NewStruct(fields)
}

// fromStruct decodes s into dst through its JSON form.
func fromStruct(s *structpb.Struct, dst any) error {
	data, err := structJSON(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}

func structJSON(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return data, nil
}

// actionFrom decodes the "action" field of s.
func actionFrom(s *structpb.Struct) (state.Action, error) {
	field, ok := s.GetFields()["action"]
	if !ok || field.GetStructValue() == nil {
		return nil, fmt.Errorf("action is required")
	}
	data, err := structJSON(field.GetStructValue())
	if err != nil {
		return nil, err
	}
	return state.UnmarshalAction(data)
}

// expectedVersionFrom reads "expectedVersion", defaulting to any version.
func expectedVersionFrom(s *structpb.Struct) int {
	field, ok := s.GetFields()["expectedVersion"]
	if !ok {
		return table.AnyVersion
	}
	if _, isNull := field.GetKind().(*structpb.Value_NullValue); isNull {
		return table.AnyVersion
	}
	return int(field.GetNumberValue())
}

func encodeActions(actions []state.Action) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(actions))
	for _, a := range actions {
		data, err := state.MarshalAction(a)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
