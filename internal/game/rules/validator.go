package rules

import (
	"fmt"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/payment"
	"github.com/wondersforge/wonders-server-go/internal/game/resources"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// Result is the outcome of validating one action.
type Result struct {
	Valid bool
	Error string
}

func legal() Result { return Result{Valid: true} }

func illegal(format string, args ...any) Result {
	return Result{Valid: false, Error: fmt.Sprintf(format, args...)}
}

// Err converts a failed result for a into a *ValidationError, or nil.
func (r Result) Err(a state.Action) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Action: a.Type(), PlayerID: a.Actor(), Reason: r.Error}
}

// ValidatorOptions tunes legal action enumeration.
type ValidatorOptions struct {
	// EnumerateTrades adds payments that buy resources from neighbors.
	EnumerateTrades bool
}

// ActionValidator checks actions against a game state. It never modifies
// the state it inspects.
type ActionValidator struct {
	lookup cards.Lookup
	opts   ValidatorOptions
}

// NewActionValidator creates a validator reading static data from lookup.
func NewActionValidator(lookup cards.Lookup, opts ValidatorOptions) *ActionValidator {
	return &ActionValidator{lookup: lookup, opts: opts}
}

// Validate checks a against s. Engine issued actions are always valid.
func (v *ActionValidator) Validate(s *state.GameState, a state.Action) Result {
	if a.Type().IsSystem() {
		return legal()
	}
	if s == nil {
		return illegal("Game not initialized")
	}
	if s.Phase != state.PhasePlaying {
		return illegal("Cannot perform action: game is %s", s.Phase)
	}
	player, found := s.Player(a.Actor())
	if !found {
		return illegal("Player %s not found", a.Actor())
	}

	switch act := a.(type) {
	case state.PlayCard:
		return v.validatePlayCard(s, player, act)
	case state.DiscardCard:
		return v.validateDiscard(player, act)
	case state.BuildWonder:
		return v.validateBuildWonder(s, player, act)
	default:
		return illegal("Unknown action type: %s", a.Type())
	}
}

func (v *ActionValidator) validatePlayCard(s *state.GameState, player *state.PlayerState, a state.PlayCard) Result {
	if !player.HasInHand(a.CardInstanceID) {
		return illegal("Card %s not in hand", a.CardInstanceID)
	}
	inst, found := v.lookup.Instance(a.CardInstanceID)
	if !found {
		return illegal("Card instance %s not found", a.CardInstanceID)
	}
	template, found := v.lookup.Template(inst.TemplateID)
	if !found {
		return illegal("Card template %s not found", inst.TemplateID)
	}
	if v.alreadyBuilt(player, inst.TemplateID) {
		return illegal("Card %s already played", template.Name)
	}
	if res := payment.ValidateCardPayment(s, player.ID, template, a.Payment, v.lookup); !res.Valid {
		return illegal("Invalid payment for %s: %s", template.Name, res.Reason)
	}
	return legal()
}

func (v *ActionValidator) validateDiscard(player *state.PlayerState, a state.DiscardCard) Result {
	if !player.HasInHand(a.CardInstanceID) {
		return illegal("Card %s not in hand", a.CardInstanceID)
	}
	return legal()
}

func (v *ActionValidator) validateBuildWonder(s *state.GameState, player *state.PlayerState, a state.BuildWonder) Result {
	if !player.HasInHand(a.CardInstanceID) {
		return illegal("Card %s not in hand", a.CardInstanceID)
	}
	board, found := v.lookup.Board(player.WonderID, player.WonderSide)
	if !found {
		return illegal("Wonder %s not found", player.WonderID)
	}
	if a.StageIndex < 0 || a.StageIndex >= len(board.Stages) {
		return illegal("Invalid stage index %d", a.StageIndex)
	}
	if a.StageIndex != player.WonderStages {
		return illegal("Wonder stages must be built in order: stage %d is next", player.WonderStages)
	}
	if res := payment.ValidateWonderPayment(s, player.ID, a.StageIndex, a.Payment, v.lookup); !res.Valid {
		return illegal("Invalid payment for wonder stage %d: %s", a.StageIndex+1, res.Reason)
	}
	return legal()
}

func (v *ActionValidator) alreadyBuilt(player *state.PlayerState, templateID string) bool {
	for _, id := range player.Tableau {
		if inst, found := v.lookup.Instance(id); found && inst.TemplateID == templateID {
			return true
		}
	}
	return false
}

// LegalActions lists the actions playerID may take in s: a discard for every
// card in hand, every affordable way to play it and every affordable way to
// build the next wonder stage with it.
func (v *ActionValidator) LegalActions(s *state.GameState, playerID string) []state.Action {
	if s == nil || s.Phase != state.PhasePlaying {
		return nil
	}
	player, found := s.Player(playerID)
	if !found {
		return nil
	}

	wonderPayments := v.wonderPayments(s, player)
	var actions []state.Action
	for _, cardID := range player.Hand {
		actions = append(actions, state.DiscardCard{PlayerID: playerID, CardInstanceID: cardID})

		if template, found := v.lookup.InstanceTemplate(cardID); found {
			for _, p := range v.cardPayments(s, player, template) {
				play := state.PlayCard{PlayerID: playerID, CardInstanceID: cardID, Payment: p}
				if v.validatePlayCard(s, player, play).Valid {
					actions = append(actions, play)
				}
			}
		}

		for _, p := range wonderPayments {
			build := state.BuildWonder{PlayerID: playerID, CardInstanceID: cardID, StageIndex: player.WonderStages, Payment: p}
			if v.validateBuildWonder(s, player, build).Valid {
				actions = append(actions, build)
			}
		}
	}
	return actions
}

func (v *ActionValidator) cardPayments(s *state.GameState, player *state.PlayerState, template *cards.CardTemplate) []state.Payment {
	var out paymentSet
	for _, from := range template.ChainFrom {
		if v.alreadyBuilt(player, from) {
			out.add(state.Payment{Chain: from})
			break
		}
	}
	v.costPayments(&out, s, player, template.Cost)
	return out.list
}

func (v *ActionValidator) wonderPayments(s *state.GameState, player *state.PlayerState) []state.Payment {
	board, found := v.lookup.Board(player.WonderID, player.WonderSide)
	if !found || player.WonderStages >= len(board.Stages) {
		return nil
	}
	var out paymentSet
	v.costPayments(&out, s, player, board.Stages[player.WonderStages].Cost)
	return out.list
}

func (v *ActionValidator) costPayments(out *paymentSet, s *state.GameState, player *state.PlayerState, cost cards.Cost) {
	if cost.Resources.IsEmpty() {
		out.add(state.Payment{Coins: cost.Coins})
		return
	}
	if resources.CanSatisfy(resources.Calculate(player, v.lookup), cost.Resources) {
		out.add(state.Payment{Coins: cost.Coins})
	}
	if !v.opts.EnumerateTrades {
		return
	}
	for _, q := range payment.TradeOptions(s, player.ID, cost.Resources, v.lookup) {
		out.add(state.Payment{
			Coins:              cost.Coins + q.Total(),
			LeftNeighborCoins:  q.Left,
			RightNeighborCoins: q.Right,
		})
	}
}

// paymentSet keeps payments unique in insertion order.
type paymentSet struct {
	seen map[string]bool
	list []state.Payment
}

func (ps *paymentSet) add(p state.Payment) {
	key := fmt.Sprintf("%d/%d/%d/%s", p.Coins, p.LeftNeighborCoins, p.RightNeighborCoins, p.Chain)
	if ps.seen == nil {
		ps.seen = map[string]bool{}
	}
	if ps.seen[key] {
		return
	}
	ps.seen[key] = true
	ps.list = append(ps.list, p)
}
