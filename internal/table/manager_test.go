package table

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wondersforge/wonders-server-go/internal/catalog"
	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

var players = []string{"ada", "brook", "cyd"}

var assignments = map[string]state.WonderAssignment{
	"ada":   {WonderID: "giza", Side: cards.SideA},
	"brook": {WonderID: "rhodes", Side: cards.SideA},
	"cyd":   {WonderID: "olympia", Side: cards.SideB},
}

func newManager(t *testing.T, opts game.EngineOptions) (*Manager, *cards.MemoryCatalog) {
	t.Helper()
	cat, err := catalog.Embedded()
	require.NoError(t, err)
	return NewManager(cat, catalog.NewDeckBuilder(cat, catalog.DealerOptions{Shuffle: true, Seed: 3}), opts, zap.NewNop()), cat
}

// discardRound has every seat discard its first card.
func discardRound(t *testing.T, m *Manager, gameID string) Snapshot {
	t.Helper()
	var snap Snapshot
	for _, id := range players {
		current, err := m.State(gameID)
		require.NoError(t, err)
		p, ok := current.State.Player(id)
		require.True(t, ok)
		snap, err = m.Submit(gameID, current.State.Version, state.DiscardCard{PlayerID: id, CardInstanceID: p.Hand[0]})
		require.NoError(t, err)
	}
	return snap
}

func TestCreateGame(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})

	snap, err := m.Create("table-1", players, assignments)
	require.NoError(t, err)
	assert.Equal(t, "table-1", snap.ID)
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.NotEmpty(t, snap.Checksum)
	assert.Equal(t, state.PhasePlaying, snap.State.Phase)

	got, err := m.State("table-1")
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, got.Checksum)
	assert.Equal(t, 1, m.ActiveCount())

	_, err = m.Create("table-1", players, assignments)
	assert.ErrorIs(t, err, ErrGameExists)
}

func TestCreateGameGeneratesID(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})

	snap, err := m.Create("", players, assignments)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Len(t, m.Games(), 1)
}

func TestCreateGameRejectsBadSetup(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})

	_, err := m.Create("bad", []string{"ada", "brook"}, assignments)
	var invalid *game.InvalidActionError
	require.ErrorAs(t, err, &invalid)

	_, err = m.State("bad")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSubmitChecksVersion(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})
	snap, err := m.Create("g", players, assignments)
	require.NoError(t, err)
	card := snap.State.Players[0].Hand[0]

	_, err = m.Submit("g", snap.State.Version-1, state.DiscardCard{PlayerID: "ada", CardInstanceID: card})
	assert.ErrorIs(t, err, ErrStaleVersion)

	next, err := m.Submit("g", snap.State.Version, state.DiscardCard{PlayerID: "ada", CardInstanceID: card})
	require.NoError(t, err)
	assert.Equal(t, snap.State.Version+1, next.State.Version)
	assert.NotEqual(t, snap.Checksum, next.Checksum)

	p, _ := next.State.Player("brook")
	_, err = m.Submit("g", AnyVersion, state.DiscardCard{PlayerID: "brook", CardInstanceID: p.Hand[0]})
	require.NoError(t, err)
}

func TestSubmitRejectsInvalidActions(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})
	snap, err := m.Create("g", players, assignments)
	require.NoError(t, err)

	_, err = m.Submit("g", AnyVersion, state.DiscardCard{PlayerID: "ada", CardInstanceID: "missing_1"})
	var invalid *game.InvalidActionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Card missing_1 not in hand", invalid.Reason())

	_, err = m.Submit("g", AnyVersion, state.PassCards{PlayerID: "ada"})
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason(), "issued by the engine")

	after, err := m.State("g")
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, after.Checksum)

	_, err = m.Submit("nope", AnyVersion, state.PassCards{})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestLegalActions(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})
	_, err := m.Create("g", players, assignments)
	require.NoError(t, err)

	actions, err := m.LegalActions("g", "ada")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(actions), state.HandSize)

	_, err = m.LegalActions("g", "zed")
	assert.ErrorIs(t, err, ErrNotSeated)
}

type failingDealer struct {
	game.Dealer
	failAt cards.Age
}

func (d failingDealer) Deal(age cards.Age, n int) (game.Deal, error) {
	if age == d.failAt {
		return game.Deal{}, &cards.DataIntegrityError{Kind: cards.IntegrityDeckSize, ID: "test", Detail: "no cards"}
	}
	return d.Dealer.Deal(age, n)
}

func TestDataIntegrityFailsGame(t *testing.T) {
	cat, err := catalog.Embedded()
	require.NoError(t, err)
	dealer := failingDealer{Dealer: catalog.NewDeckBuilder(cat, catalog.DealerOptions{}), failAt: cards.AgeII}
	m := NewManager(cat, dealer, game.EngineOptions{}, nil)

	var statuses []Status
	m.OnUpdate(func(s Snapshot) { statuses = append(statuses, s.Status) })

	_, err = m.Create("g", players, assignments)
	require.NoError(t, err)
	for turn := 1; turn < 6; turn++ {
		discardRound(t, m, "g")
	}

	current, err := m.State("g")
	require.NoError(t, err)
	for i, id := range players {
		p, _ := current.State.Player(id)
		current, err = m.Submit("g", AnyVersion, state.DiscardCard{PlayerID: id, CardInstanceID: p.Hand[0]})
		if i < len(players)-1 {
			require.NoError(t, err)
		}
	}
	require.ErrorIs(t, err, ErrGameFailed)
	var integrity *cards.DataIntegrityError
	assert.ErrorAs(t, err, &integrity)

	snap, err := m.State("g")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.NotEmpty(t, snap.Failure)
	assert.NotNil(t, snap.EndTime)
	assert.Equal(t, StatusFailed, statuses[len(statuses)-1])

	_, err = m.Submit("g", AnyVersion, state.DiscardCard{PlayerID: "ada"})
	assert.ErrorIs(t, err, ErrGameFailed)
	_, err = m.LegalActions("g", "ada")
	assert.ErrorIs(t, err, ErrGameFailed)
}

func TestFullGameSavesReplay(t *testing.T) {
	dir := t.TempDir()
	recorder := game.NewReplayRecorder(zap.NewNop(), dir)
	m, _ := newManager(t, game.EngineOptions{Recorder: recorder})

	_, err := m.Create("g", players, assignments)
	require.NoError(t, err)

	_, winner, err := m.Scores("g")
	require.NoError(t, err)
	assert.Empty(t, winner)

	var snap Snapshot
	for turn := 0; turn < 18; turn++ {
		snap = discardRound(t, m, "g")
	}
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, state.PhaseFinished, snap.State.Phase)
	assert.Zero(t, m.ActiveCount())

	scores, winner, err := m.Scores("g")
	require.NoError(t, err)
	assert.Len(t, scores, 3)
	assert.Equal(t, "ada", winner)

	_, err = m.Submit("g", AnyVersion, state.DiscardCard{PlayerID: "ada"})
	assert.ErrorIs(t, err, ErrGameFinished)

	replay, err := game.LoadReplayFromFile(dir, "g")
	require.NoError(t, err)
	assert.Equal(t, snap.State.Version, replay.Last().Version)
	// every version from INIT_GAME onwards
	assert.Equal(t, snap.State.Version, replay.Size())
}

func TestRemove(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})
	_, err := m.Create("g", players, assignments)
	require.NoError(t, err)

	m.Remove("g")
	_, err = m.State("g")
	assert.True(t, errors.Is(err, ErrGameNotFound))
	m.Remove("g")
}

func TestConcurrentGamesAreIsolated(t *testing.T) {
	m, _ := newManager(t, game.EngineOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := m.Create(id, players, assignments); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			for turn := 0; turn < 6; turn++ {
				for _, pid := range players {
					snap, err := m.State(id)
					if err != nil {
						t.Errorf("state %s: %v", id, err)
						return
					}
					p, _ := snap.State.Player(pid)
					if _, err := m.Submit(id, snap.State.Version, state.DiscardCard{PlayerID: pid, CardInstanceID: p.Hand[0]}); err != nil {
						t.Errorf("submit %s: %v", id, err)
						return
					}
				}
			}
		}(fmt.Sprintf("game-%d", i))
	}
	wg.Wait()

	for _, snap := range m.Games() {
		assert.Equal(t, cards.AgeII, snap.State.Age, snap.ID)
	}
}
