// Package table hosts many concurrent games. Each game gets its own engine
// and card instance store; submissions to one game are serialized and
// checked against the version the client last saw.
package table

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/rules"
	"github.com/wondersforge/wonders-server-go/internal/game/scoring"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrStaleVersion = errors.New("stale state version")
	ErrGameFailed   = errors.New("game failed")
	ErrGameFinished = errors.New("game has ended")
	ErrNotSeated    = errors.New("player not seated")
)

// AnyVersion skips the optimistic version check on Submit.
const AnyVersion = -1

// Status is the lifecycle of a hosted game.
type Status int

const (
	StatusPlaying Status = iota
	StatusFinished
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "PLAYING"
	case StatusFinished:
		return "FINISHED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a consistent view of one game.
type Snapshot struct {
	ID         string
	Status     Status
	State      *state.GameState
	Checksum   string
	Failure    string
	CreateTime time.Time
	EndTime    *time.Time
}

// Table is one hosted game.
type Table struct {
	ID         string
	engine     *game.Engine
	state      *state.GameState
	status     Status
	failure    error
	createTime time.Time
	endTime    *time.Time
	mu         sync.Mutex
}

func (t *Table) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         t.ID,
		Status:     t.status,
		State:      t.state,
		CreateTime: t.createTime,
		EndTime:    cloneTime(t.endTime),
	}
	if t.failure != nil {
		snap.Failure = t.failure.Error()
	}
	if t.state != nil {
		// a state that cannot be hashed is not worth failing a read for
		snap.Checksum, _ = game.Checksum(t.state)
	}
	return snap
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// UpdateFunc is told about every state a game reaches.
type UpdateFunc func(Snapshot)

// Manager owns the hosted games.
type Manager struct {
	catalog cards.Catalog
	dealer  game.Dealer
	opts    game.EngineOptions
	logger  *zap.Logger

	tables map[string]*Table
	mu     sync.RWMutex

	listenersMu sync.RWMutex
	listeners   []UpdateFunc
}

// NewManager creates a manager whose games read from catalog and draw
// cards from dealer.
func NewManager(catalog cards.Catalog, dealer game.Dealer, opts game.EngineOptions, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		catalog: catalog,
		dealer:  dealer,
		opts:    opts,
		logger:  logger,
		tables:  make(map[string]*Table),
	}
}

// OnUpdate registers fn to receive every new game state.
func (m *Manager) OnUpdate(fn UpdateFunc) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) publish(snap Snapshot) {
	m.listenersMu.RLock()
	listeners := append([]UpdateFunc(nil), m.listeners...)
	m.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Create starts a game. An empty gameID is replaced with a random one.
func (m *Manager) Create(gameID string, playerIDs []string, assignments map[string]state.WonderAssignment) (Snapshot, error) {
	if gameID == "" {
		gameID = uuid.NewString()
	}

	m.mu.Lock()
	if _, exists := m.tables[gameID]; exists {
		m.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}
	t := &Table{
		ID:         gameID,
		engine:     game.NewEngine(m.catalog, m.dealer, m.opts, m.logger),
		createTime: time.Now(),
	}
	// reserve the id while dealing
	t.mu.Lock()
	m.tables[gameID] = t
	m.mu.Unlock()

	s, err := t.engine.InitializeGame(gameID, playerIDs, assignments)
	if err != nil {
		t.mu.Unlock()
		m.mu.Lock()
		delete(m.tables, gameID)
		m.mu.Unlock()
		if m.opts.Recorder != nil {
			m.opts.Recorder.ClearReplay(gameID)
		}
		m.logger.Warn("failed to create game",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return Snapshot{}, fmt.Errorf("failed to create game: %w", err)
	}
	t.state = s
	snap := t.snapshotLocked()
	t.mu.Unlock()

	m.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.Strings("players", playerIDs),
	)
	m.publish(snap)
	return snap, nil
}

// lockTable returns gameID with its lock held. The caller unlocks it.
func (m *Manager) lockTable(gameID string) (*Table, error) {
	m.mu.RLock()
	t, ok := m.tables[gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	t.mu.Lock()
	// creation failed while we waited
	if t.state == nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return t, nil
}

// Submit applies a player action to gameID. expectedVersion must match the
// current state version unless it is AnyVersion.
func (m *Manager) Submit(gameID string, expectedVersion int, a state.Action) (Snapshot, error) {
	t, err := m.lockTable(gameID)
	if err != nil {
		return Snapshot{}, err
	}

	switch t.status {
	case StatusFailed:
		failure := t.failure
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %w", ErrGameFailed, failure)
	case StatusFinished:
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrGameFinished, gameID)
	}
	if a.Type().IsSystem() {
		t.mu.Unlock()
		return Snapshot{}, &game.InvalidActionError{Err: &rules.ValidationError{
			Action:   a.Type(),
			PlayerID: a.Actor(),
			Reason:   fmt.Sprintf("Action %s is issued by the engine", a.Type()),
		}}
	}
	if expectedVersion != AnyVersion && expectedVersion != t.state.Version {
		current := t.state.Version
		t.mu.Unlock()
		m.logger.Warn("rejected stale submission",
			zap.String("game_id", gameID),
			zap.String("player_id", a.Actor()),
			zap.Int("expected_version", expectedVersion),
			zap.Int("version", current),
		)
		return Snapshot{}, fmt.Errorf("%w: expected %d, current %d", ErrStaleVersion, expectedVersion, current)
	}

	next, err := t.engine.ApplyAction(t.state, a)
	if err != nil {
		var invalid *game.InvalidActionError
		if errors.As(err, &invalid) {
			t.mu.Unlock()
			m.logger.Warn("rejected action",
				zap.String("game_id", gameID),
				zap.String("player_id", a.Actor()),
				zap.String("action", string(a.Type())),
				zap.String("reason", invalid.Reason()),
			)
			return Snapshot{}, err
		}

		t.status = StatusFailed
		t.failure = err
		now := time.Now()
		t.endTime = &now
		snap := t.snapshotLocked()
		t.mu.Unlock()

		m.logger.Error("game failed",
			zap.String("game_id", gameID),
			zap.String("action", string(a.Type())),
			zap.Error(err),
		)
		m.publish(snap)
		return Snapshot{}, fmt.Errorf("%w: %w", ErrGameFailed, err)
	}

	t.state = next
	finished := t.engine.IsGameOver(next)
	if finished {
		t.status = StatusFinished
		now := time.Now()
		t.endTime = &now
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if finished {
		m.finish(gameID)
	}
	m.publish(snap)
	return snap, nil
}

func (m *Manager) finish(gameID string) {
	m.logger.Info("game finished", zap.String("game_id", gameID))
	if m.opts.Recorder == nil {
		return
	}
	if err := m.opts.Recorder.SaveReplay(gameID); err != nil {
		m.logger.Warn("failed to save replay",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
	}
}

// State returns the current snapshot of gameID.
func (m *Manager) State(gameID string) (Snapshot, error) {
	t, err := m.lockTable(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	defer t.mu.Unlock()
	return t.snapshotLocked(), nil
}

// LegalActions lists what playerID may do next in gameID.
func (m *Manager) LegalActions(gameID, playerID string) ([]state.Action, error) {
	t, err := m.lockTable(gameID)
	if err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	if t.status == StatusFailed {
		return nil, fmt.Errorf("%w: %w", ErrGameFailed, t.failure)
	}
	if _, ok := t.state.Player(playerID); !ok {
		return nil, fmt.Errorf("%w: %s in game %s", ErrNotSeated, playerID, gameID)
	}
	return t.engine.LegalActions(t.state, playerID), nil
}

// Scores scores gameID and names the winner. Scores of a game in progress
// are provisional and carry no winner.
func (m *Manager) Scores(gameID string) (map[string]scoring.ScoreBreakdown, string, error) {
	t, err := m.lockTable(gameID)
	if err != nil {
		return nil, "", err
	}
	defer t.mu.Unlock()

	scores := t.engine.CalculateScores(t.state)
	if t.status != StatusFinished {
		return scores, "", nil
	}
	return scores, t.engine.DetermineWinner(t.state, scores), nil
}

// Remove drops gameID and releases its engine.
func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	t, ok := m.tables[gameID]
	delete(m.tables, gameID)
	m.mu.Unlock()

	if !ok {
		return
	}
	t.mu.Lock()
	t.engine.Reset()
	t.mu.Unlock()
	if m.opts.Recorder != nil {
		m.opts.Recorder.ClearReplay(gameID)
	}

	m.logger.Info("game removed", zap.String("game_id", gameID))
}

// Games returns a snapshot of every hosted game.
func (m *Manager) Games() []Snapshot {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(tables))
	for _, t := range tables {
		t.mu.Lock()
		if t.state != nil {
			snaps = append(snaps, t.snapshotLocked())
		}
		t.mu.Unlock()
	}
	return snaps
}

// ActiveCount returns the number of games still being played.
func (m *Manager) ActiveCount() int {
	count := 0
	for _, snap := range m.Games() {
		if snap.Status == StatusPlaying {
			count++
		}
	}
	return count
}
