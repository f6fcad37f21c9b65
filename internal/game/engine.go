package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/rules"
	"github.com/wondersforge/wonders-server-go/internal/game/scoring"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// Deal is one age worth of cards: the ordered deck and its partition into
// hands, Hands[i] going to seat i.
type Deal struct {
	Cards []*cards.CardInstance
	Hands [][]string
}

// Dealer produces the cards of an age for a table size.
type Dealer interface {
	Deal(age cards.Age, playerCount int) (Deal, error)
}

// EngineOptions tunes an engine.
type EngineOptions struct {
	// EnumerateTrades makes LegalActions include trading payments.
	EnumerateTrades bool
	// Recorder, when set, receives every state the engine produces.
	Recorder *ReplayRecorder
}

// Notification describes a state change for listeners such as websocket
// clients.
type Notification struct {
	Type      string
	GameID    string
	Version   int
	Timestamp time.Time
	State     *state.GameState
}

// Notification types.
const (
	NotificationGameStarted  = "GAME_STARTED"
	NotificationStateChanged = "STATE_CHANGED"
	NotificationGameFinished = "GAME_FINISHED"
)

// NotificationHandler receives engine notifications.
type NotificationHandler func(Notification)

// Engine runs one game. It owns the card instance store and the per-turn
// action tracker; game state itself is passed in and returned by value.
// Calls must be serialized by the caller.
type Engine struct {
	logger    *zap.Logger
	catalog   cards.Catalog
	dealer    Dealer
	instances *cards.InstanceStore
	lookup    cards.Lookup
	validator *rules.ActionValidator
	turns     *rules.TurnManager
	recorder  *ReplayRecorder

	mu                  sync.RWMutex
	notificationHandler NotificationHandler
}

// NewEngine creates an engine reading static data from catalog and cards
// from dealer. A nil logger disables logging.
func NewEngine(catalog cards.Catalog, dealer Dealer, opts EngineOptions, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	instances := cards.NewInstanceStore()
	lookup := cards.Lookup{Catalog: catalog, Instances: instances}
	return &Engine{
		logger:    logger,
		catalog:   catalog,
		dealer:    dealer,
		instances: instances,
		lookup:    lookup,
		validator: rules.NewActionValidator(lookup, rules.ValidatorOptions{EnumerateTrades: opts.EnumerateTrades}),
		turns:     rules.NewTurnManager(lookup),
		recorder:  opts.Recorder,
	}
}

// SetNotificationHandler registers a handler called synchronously after
// each produced state.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

func (e *Engine) emit(kind string, s *state.GameState) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()

	if handler == nil {
		return
	}
	handler(Notification{
		Type:      kind,
		GameID:    s.ID,
		Version:   s.Version,
		Timestamp: time.Now(),
		State:     s,
	})
}

// Lookup returns the data context shared by the engine's components.
func (e *Engine) Lookup() cards.Lookup {
	return e.lookup
}

// Instances returns the card instance store of the current game.
func (e *Engine) Instances() *cards.InstanceStore {
	return e.instances
}

// InitializeGame seats the players, deals Age I and returns a state in the
// playing phase. An empty gameID is replaced with a random one.
func (e *Engine) InitializeGame(gameID string, playerIDs []string, assignments map[string]state.WonderAssignment) (*state.GameState, error) {
	if err := e.checkSetup(playerIDs, assignments); err != nil {
		var integrity *cards.DataIntegrityError
		if errors.As(err, &integrity) {
			e.logger.Error("cannot start game", zap.String("game_id", gameID), zap.Error(err))
		}
		return nil, err
	}
	if gameID == "" {
		gameID = uuid.NewString()
	}

	e.instances.Reset()
	e.turns.Reset()
	if e.recorder != nil {
		e.recorder.StartRecording(gameID)
	}

	s := state.Reduce(nil, state.InitGame{
		GameID:            gameID,
		PlayerIDs:         playerIDs,
		WonderAssignments: assignments,
	}, e.lookup)
	e.record(s)

	s, err := e.dealAge(s, cards.AgeI)
	if err != nil {
		return nil, err
	}

	e.logger.Info("started game",
		zap.String("game_id", gameID),
		zap.Strings("players", playerIDs),
	)
	e.emit(NotificationGameStarted, s)
	return s, nil
}

func (e *Engine) checkSetup(playerIDs []string, assignments map[string]state.WonderAssignment) error {
	reject := func(format string, args ...any) error {
		return &InvalidActionError{Err: &rules.ValidationError{
			Action: state.ActionInitGame,
			Reason: fmt.Sprintf(format, args...),
		}}
	}

	if len(playerIDs) < state.MinPlayers || len(playerIDs) > state.MaxPlayers {
		return reject("Game requires %d to %d players, got %d", state.MinPlayers, state.MaxPlayers, len(playerIDs))
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" {
			return reject("Player id must not be empty")
		}
		if seen[id] {
			return reject("Duplicate player %s", id)
		}
		seen[id] = true

		assignment, ok := assignments[id]
		if !ok {
			return reject("Player %s has no wonder assignment", id)
		}
		if !assignment.Side.Valid() {
			return reject("Invalid wonder side %q for player %s", assignment.Side, id)
		}
		if _, ok := e.catalog.Wonder(assignment.WonderID); !ok {
			return cards.MissingWonder(assignment.WonderID)
		}
	}
	return nil
}

// dealAge asks the dealer for the cards of age and dispatches DEAL_HANDS.
func (e *Engine) dealAge(s *state.GameState, age cards.Age) (*state.GameState, error) {
	deal, err := e.dealer.Deal(age, len(s.Players))
	if err != nil {
		e.logger.Error("failed to deal",
			zap.String("game_id", s.ID),
			zap.Stringer("age", age),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to deal age %s: %w", age, err)
	}
	if err := checkDeal(deal, len(s.Players)); err != nil {
		e.logger.Error("rejected deal",
			zap.String("game_id", s.ID),
			zap.Stringer("age", age),
			zap.Error(err),
		)
		return nil, err
	}

	deck := make([]string, 0, len(deal.Cards))
	for _, inst := range deal.Cards {
		e.instances.Put(inst)
		deck = append(deck, inst.InstanceID)
	}

	next, err := e.step(s, state.DealHands{Age: age, Deck: deck, Hands: deal.Hands})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("dealt hands",
		zap.String("game_id", next.ID),
		zap.Stringer("age", age),
		zap.Int("cards", len(deck)),
	)
	return next, nil
}

func checkDeal(deal Deal, playerCount int) error {
	want := playerCount * state.HandSize
	if len(deal.Cards) != want {
		return &cards.DataIntegrityError{
			Kind:   cards.IntegrityDeckSize,
			ID:     fmt.Sprintf("%d players", playerCount),
			Detail: fmt.Sprintf("expected %d cards, got %d", want, len(deal.Cards)),
		}
	}
	if len(deal.Hands) != playerCount {
		return &cards.DataIntegrityError{
			Kind:   cards.IntegrityDeckSize,
			ID:     fmt.Sprintf("%d players", playerCount),
			Detail: fmt.Sprintf("expected %d hands, got %d", playerCount, len(deal.Hands)),
		}
	}

	dealt := make(map[string]bool, len(deal.Cards))
	for _, inst := range deal.Cards {
		if dealt[inst.InstanceID] {
			return &cards.DataIntegrityError{Kind: cards.IntegrityCardInstance, ID: inst.InstanceID, Detail: "dealt twice"}
		}
		dealt[inst.InstanceID] = true
	}
	for i, hand := range deal.Hands {
		if len(hand) != state.HandSize {
			return &cards.DataIntegrityError{
				Kind:   cards.IntegrityDeckSize,
				ID:     fmt.Sprintf("hand %d", i),
				Detail: fmt.Sprintf("expected %d cards, got %d", state.HandSize, len(hand)),
			}
		}
		for _, id := range hand {
			if !dealt[id] {
				return &cards.DataIntegrityError{Kind: cards.IntegrityCardInstance, ID: id, Detail: "not in the deck"}
			}
		}
	}
	return nil
}

// ApplyAction validates a against s, applies it and runs the end of turn
// flow once every player has acted. A rejected action returns an
// *InvalidActionError and s is unchanged.
func (e *Engine) ApplyAction(s *state.GameState, a state.Action) (*state.GameState, error) {
	if !a.Type().IsSystem() && s != nil && e.turns.HasActed(a.Actor()) {
		return nil, &InvalidActionError{Err: &rules.ValidationError{
			Action:   a.Type(),
			PlayerID: a.Actor(),
			Reason:   fmt.Sprintf("Player %s already acted this turn", a.Actor()),
		}}
	}
	if res := e.validator.Validate(s, a); !res.Valid {
		e.logger.Debug("rejected action",
			zap.String("game_id", gameID(s)),
			zap.String("player_id", a.Actor()),
			zap.String("action", string(a.Type())),
			zap.String("reason", res.Error),
		)
		return nil, &InvalidActionError{Err: res.Err(a).(*rules.ValidationError)}
	}

	next, err := e.step(s, a)
	if err != nil {
		return nil, err
	}
	if a.Type().IsSystem() {
		return next, nil
	}

	e.turns.RecordAction(a.Actor())
	if !e.turns.AllPlayersActed(next) {
		return next, nil
	}
	return e.endTurn(next)
}

// endTurn runs once every seat has acted: pass hands, or close the age.
func (e *Engine) endTurn(s *state.GameState) (*state.GameState, error) {
	e.turns.Reset()

	if !e.turns.IsLastTurnOfAge(s) {
		return e.step(s, state.PassCards{})
	}

	next, err := e.step(s, state.ResolveMilitary{})
	if err != nil {
		return nil, err
	}
	age := next.Age
	if next, err = e.step(next, state.NextAge{}); err != nil {
		return nil, err
	}
	if next.IsOver() {
		e.logger.Info("game finished",
			zap.String("game_id", next.ID),
			zap.Int("version", next.Version),
		)
		e.emit(NotificationGameFinished, next)
		return next, nil
	}
	e.logger.Debug("age ended",
		zap.String("game_id", next.ID),
		zap.Stringer("age", age),
	)
	return e.dealAge(next, next.Age)
}

// step reduces one action and checks the result.
func (e *Engine) step(s *state.GameState, a state.Action) (*state.GameState, error) {
	next := state.Reduce(s, a, e.lookup)
	if err := e.checkInvariants(s, next); err != nil {
		e.logger.Error("invariant violated",
			zap.String("game_id", gameID(s)),
			zap.String("action", string(a.Type())),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", a.Type(), err)
	}

	e.logger.Debug("applied action",
		zap.String("game_id", next.ID),
		zap.String("player_id", a.Actor()),
		zap.String("action", string(a.Type())),
		zap.Int("version", next.Version),
	)
	e.record(next)
	e.emit(NotificationStateChanged, next)
	return next, nil
}

func (e *Engine) record(s *state.GameState) {
	if e.recorder != nil {
		e.recorder.RecordState(s)
	}
}

func (e *Engine) checkInvariants(prev, next *state.GameState) error {
	if next == nil {
		return &InvariantViolation{Invariant: InvariantVersion, Detail: "no state produced"}
	}
	if prev != nil {
		if next.Version <= prev.Version {
			return &InvariantViolation{
				Invariant: InvariantVersion,
				Detail:    fmt.Sprintf("version %d after %d", next.Version, prev.Version),
			}
		}
		if len(next.Players) != len(prev.Players) {
			return &InvariantViolation{
				Invariant: InvariantSeats,
				Detail:    fmt.Sprintf("%d seats after %d", len(next.Players), len(prev.Players)),
			}
		}
	}
	for _, p := range next.Players {
		if p.Coins < 0 {
			return &InvariantViolation{
				Invariant: InvariantNonNegativeCoin,
				Detail:    fmt.Sprintf("player %s has %d coins", p.ID, p.Coins),
			}
		}
	}
	return e.checkTableau(next)
}

// checkTableau reports a duplicate template on any tableau of s.
func (e *Engine) checkTableau(s *state.GameState) error {
	for _, p := range s.Players {
		seen := make(map[string]bool, len(p.Tableau))
		for _, id := range p.Tableau {
			inst, ok := e.lookup.Instance(id)
			if !ok {
				continue
			}
			if seen[inst.TemplateID] {
				return &InvariantViolation{
					Invariant: InvariantUniqueTableau,
					Detail:    fmt.Sprintf("player %s holds %s twice", p.ID, inst.TemplateID),
				}
			}
			seen[inst.TemplateID] = true
		}
	}
	return nil
}

// IsGameOver reports whether s is finished.
func (e *Engine) IsGameOver(s *state.GameState) bool {
	return s.IsOver()
}

// LegalActions lists what playerID may do in s. A player who already acted
// this turn has no options.
func (e *Engine) LegalActions(s *state.GameState, playerID string) []state.Action {
	if e.turns.HasActed(playerID) {
		return nil
	}
	return e.validator.LegalActions(s, playerID)
}

// HasActed reports whether playerID has acted in the current turn.
func (e *Engine) HasActed(playerID string) bool {
	return e.turns.HasActed(playerID)
}

// CalculateScores scores every player of s.
func (e *Engine) CalculateScores(s *state.GameState) map[string]scoring.ScoreBreakdown {
	return scoring.CalculateScores(s, e.lookup)
}

// DetermineWinner picks the winner among scores.
func (e *Engine) DetermineWinner(s *state.GameState, scores map[string]scoring.ScoreBreakdown) string {
	return scoring.DetermineWinner(s, scores)
}

// Reset clears the instance store and the turn tracker so the engine can
// host another game.
func (e *Engine) Reset() {
	e.instances.Reset()
	e.turns.Reset()
}

func gameID(s *state.GameState) string {
	if s == nil {
		return ""
	}
	return s.ID
}
