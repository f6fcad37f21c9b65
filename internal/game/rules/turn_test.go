package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

func TestTurnManagerTracksActions(t *testing.T) {
	s, lookup := newTable(t)
	tm := NewTurnManager(lookup)

	tm.RecordAction("p0")
	tm.RecordAction("p0")
	tm.RecordAction("p1")
	assert.Equal(t, 2, tm.ActedCount())
	assert.True(t, tm.HasActed("p0"))
	assert.False(t, tm.HasActed("p2"))
	assert.False(t, tm.AllPlayersActed(s))

	tm.RecordAction("p2")
	assert.True(t, tm.AllPlayersActed(s))

	tm.Reset()
	assert.Equal(t, 0, tm.ActedCount())
	assert.False(t, tm.HasActed("p0"))
}

func TestTurnManagerAgeBoundaries(t *testing.T) {
	s, lookup := newTable(t)
	tm := NewTurnManager(lookup)

	assert.Equal(t, 6, tm.TurnsInAge(s))
	s.Turn = 5
	assert.False(t, tm.IsLastTurnOfAge(s))
	s.Turn = 6
	assert.True(t, tm.IsLastTurnOfAge(s))
	s.Age = cards.AgeIII
	assert.Equal(t, 6, tm.TurnsInAge(s))
}

func TestTurnManagerDiscardTurn(t *testing.T) {
	s, lookup := newTable(t)
	tm := NewTurnManager(lookup)

	assert.False(t, tm.IsDiscardTurn(s))

	s.Players[0].Hand = []string{"altar_1"}
	assert.True(t, tm.IsDiscardTurn(s))

	s.Age = cards.AgeIII
	assert.False(t, tm.IsDiscardTurn(s))
}

func TestTurnManagerPlaySeventhCard(t *testing.T) {
	catalog := cards.NewMemoryCatalog()
	catalog.AddWonder(&cards.Wonder{ID: "babylon", SideB: cards.WonderBoard{Stages: []cards.WonderStage{
		{},
		{Effects: []cards.Effect{cards.PlaySeventhCard{}}},
	}}})
	tm := NewTurnManager(cards.Lookup{Catalog: catalog, Instances: cards.NewInstanceStore()})

	player := state.NewPlayerState("p0", "babylon", cards.SideB)
	player.WonderStages = 1
	assert.False(t, tm.HasPlaySeventhCard(&player))
	player.WonderStages = 2
	assert.True(t, tm.HasPlaySeventhCard(&player))

	s := &state.GameState{Age: cards.AgeI, Players: []state.PlayerState{player}}
	s.Players[0].Hand = []string{"x_1"}
	assert.False(t, tm.IsDiscardTurn(s))
	// the extra turn is not granted yet
	assert.Equal(t, 6, tm.TurnsInAge(s))
}

func TestTurnManagerPassDirection(t *testing.T) {
	_, lookup := newTable(t)
	tm := NewTurnManager(lookup)

	assert.Equal(t, state.Clockwise, tm.PassDirection(cards.AgeI))
	assert.Equal(t, state.Counterclockwise, tm.PassDirection(cards.AgeII))
	assert.Equal(t, state.Clockwise, tm.PassDirection(cards.AgeIII))
}
