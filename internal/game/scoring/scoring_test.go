package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

func TestScienceScore(t *testing.T) {
	assert.Equal(t, 26, ScienceScore(2, 2, 2))
	assert.Equal(t, 0, ScienceScore(0, 0, 0))
	assert.Equal(t, 17, ScienceScore(4, 1, 0))
}

func TestBestScienceUsesWildcards(t *testing.T) {
	symbols := map[cards.ScienceSymbol]int{cards.Tablet: 2, cards.Compass: 2, cards.Gear: 1}
	// completing the set beats stacking tablets: 2*7+4+4+4 vs 1*7+9+4+1
	assert.Equal(t, 26, bestScience(symbols, 1))
	assert.Equal(t, ScienceScore(2, 2, 1), bestScience(symbols, 0))
	assert.Equal(t, 4, bestScience(map[cards.ScienceSymbol]int{}, 2))
}

type board struct {
	catalog *cards.MemoryCatalog
	store   *cards.InstanceStore
}

func newBoard() *board {
	b := &board{catalog: cards.NewMemoryCatalog(), store: cards.NewInstanceStore()}
	b.catalog.AddWonder(&cards.Wonder{ID: "giza", SideA: cards.WonderBoard{Stages: []cards.WonderStage{
		{VictoryPoints: 3},
		{},
		{VictoryPoints: 7, Effects: []cards.Effect{cards.ScienceChoice{}}},
	}}})
	return b
}

// card registers a template with one effect and returns instance n.
func (b *board) card(id string, ct cards.CardType, n int, effects ...cards.Effect) string {
	tmpl, ok := b.catalog.CardTemplate(id)
	if !ok {
		tmpl = &cards.CardTemplate{ID: id, Name: id, Type: ct, Effects: effects}
		b.catalog.AddTemplate(tmpl)
	}
	inst := cards.NewInstance(tmpl, n)
	b.store.Put(inst)
	return inst.InstanceID
}

func (b *board) lookup() cards.Lookup {
	return cards.Lookup{Catalog: b.catalog, Instances: b.store}
}

func seats() *state.GameState {
	return &state.GameState{Players: []state.PlayerState{
		state.NewPlayerState("p0", "giza", cards.SideA),
		state.NewPlayerState("p1", "giza", cards.SideA),
		state.NewPlayerState("p2", "giza", cards.SideA),
	}}
}

func TestCalculateScoresCategories(t *testing.T) {
	b := newBoard()
	s := seats()
	p0 := &s.Players[0]
	p0.Coins = 10
	p0.VictoryTokens = 6
	p0.DefeatTokens = 1
	p0.WonderStages = 3
	p0.Science[cards.Tablet] = 2
	p0.Science[cards.Compass] = 2
	p0.Science[cards.Gear] = 1
	p0.Tableau = []string{
		b.card("palace", cards.Blue, 1, cards.VictoryPoints{Amount: 8}),
		b.card("haven", cards.Yellow, 1, cards.VictoryPerCard{CardType: cards.Brown, Scope: cards.ScopeSelf, Amount: 1}),
		b.card("lumber_yard", cards.Brown, 1),
		b.card("ore_vein", cards.Brown, 1),
		b.card("workers_guild", cards.Purple, 1,
			cards.VictoryPerCardType{CardType: cards.Brown, Scope: cards.ScopeNeighbors, Points: 1}),
	}
	s.Players[1].Tableau = []string{b.card("lumber_yard", cards.Brown, 2)}
	s.Players[2].Tableau = []string{b.card("ore_vein", cards.Brown, 2), b.card("clay_pool", cards.Brown, 1)}

	scores := CalculateScores(s, b.lookup())
	require.Len(t, scores, 3)

	got := scores["p0"]
	assert.Equal(t, 5, got.Military)
	assert.Equal(t, 3, got.Coins)
	assert.Equal(t, 10, got.Wonder)
	assert.Equal(t, 8, got.Civic)
	assert.Equal(t, 2, got.Commercial)
	assert.Equal(t, 3, got.Guilds)
	assert.Equal(t, 26, got.Science) // the wonder wildcard completes a set
	assert.Equal(t, 10, got.Treasury)
	assert.Equal(t, 5+3+10+8+2+3+26, got.Total)

	assert.Equal(t, ScoreBreakdown{Coins: 1, Total: 1, Treasury: 3}, scores["p1"])
}

func TestGuildScopes(t *testing.T) {
	b := newBoard()
	s := seats()
	s.Players[0].WonderStages = 1
	s.Players[1].WonderStages = 2
	s.Players[2].WonderStages = 1
	s.Players[0].DefeatTokens = 2
	s.Players[1].DefeatTokens = 3
	s.Players[0].VictoryTokens = 4
	s.Players[0].Tableau = []string{
		b.card("builders_guild", cards.Purple, 1, cards.VictoryPerWonderStage{Scope: cards.ScopeAll, Points: 1}),
		b.card("strategists_guild", cards.Purple, 1, cards.VictoryPerDefeat{Points: 1}),
		b.card("shipowners_guild", cards.Purple, 1, cards.VictoryPerResourceCard{Scope: cards.ScopeSelf, Points: 1}),
		b.card("heroes_guild", cards.Purple, 1, cards.VictoryPerVictoryToken{Points: 1}),
		b.card("press", cards.Grey, 1),
	}

	got := CalculateScores(s, b.lookup())["p0"]
	// stages 4, own defeats 2, one grey card, four victory tokens
	assert.Equal(t, 4+2+1+4, got.Guilds)
}

func TestWonderScoreIgnoresUnbuiltAndUnknown(t *testing.T) {
	b := newBoard()
	s := seats()
	s.Players[0].WonderStages = 1
	s.Players[1].WonderID = "atlantis"
	s.Players[1].WonderStages = 2

	scores := CalculateScores(s, b.lookup())
	assert.Equal(t, 3, scores["p0"].Wonder)
	assert.Equal(t, 0, scores["p1"].Wonder)
}

func TestDetermineWinner(t *testing.T) {
	s := seats()

	assert.Equal(t, "p1", DetermineWinner(s, map[string]ScoreBreakdown{
		"p0": {Total: 40}, "p1": {Total: 52}, "p2": {Total: 48},
	}))
	assert.Equal(t, "p2", DetermineWinner(s, map[string]ScoreBreakdown{
		"p0": {Total: 50, Treasury: 2}, "p1": {Total: 49, Treasury: 9}, "p2": {Total: 50, Treasury: 5},
	}))
	assert.Equal(t, "p0", DetermineWinner(s, map[string]ScoreBreakdown{
		"p0": {Total: 50, Treasury: 4}, "p1": {Total: 50, Treasury: 4}, "p2": {Total: 1},
	}))
	assert.Equal(t, "", DetermineWinner(s, nil))
}
