package payment

import (
	"fmt"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// Result is the outcome of a payment check.
type Result struct {
	Valid  bool
	Reason string
}

func ok() Result { return Result{Valid: true} }

func invalid(format string, args ...any) Result {
	return Result{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// ValidateCardPayment checks that p settles the cost of template for
// playerID: either by a chain from a tableau card or by coins and
// resources, buying any shortfall from the neighbors at exactly the
// cheapest price.
func ValidateCardPayment(s *state.GameState, playerID string, template *cards.CardTemplate, p state.Payment, lookup cards.Lookup) Result {
	player, found := s.Player(playerID)
	if !found {
		return invalid("player %s not found", playerID)
	}
	if template == nil {
		return invalid("card template not found")
	}

	if p.Chain != "" {
		if !template.CanChainFrom(p.Chain) {
			return invalid("%s cannot be chained from %s", template.Name, p.Chain)
		}
		if !ownsTemplate(player, p.Chain, lookup) {
			return invalid("chain card %s is not on the tableau", p.Chain)
		}
		return reconcile(player, 0, []TradeQuote{{Feasible: true}}, p)
	}

	return validateCost(s, player, template.Cost, p, lookup)
}

// ValidateWonderPayment checks that p settles the next wonder stage of
// playerID. stageIndex must be the next unbuilt stage.
func ValidateWonderPayment(s *state.GameState, playerID string, stageIndex int, p state.Payment, lookup cards.Lookup) Result {
	player, found := s.Player(playerID)
	if !found {
		return invalid("player %s not found", playerID)
	}
	board, found := lookup.Board(player.WonderID, player.WonderSide)
	if !found {
		return invalid("wonder %s not found", player.WonderID)
	}
	if stageIndex < 0 || stageIndex >= len(board.Stages) {
		return invalid("invalid stage index %d", stageIndex)
	}
	if stageIndex != player.WonderStages {
		return invalid("wonder stages must be built in order: stage %d is next", player.WonderStages)
	}

	return validateCost(s, player, board.Stages[stageIndex].Cost, p, lookup)
}

func validateCost(s *state.GameState, player *state.PlayerState, cost cards.Cost, p state.Payment, lookup cards.Lookup) Result {
	if cost.Resources.IsEmpty() {
		return reconcile(player, cost.Coins, []TradeQuote{{Feasible: true}}, p)
	}
	candidates := TradeOptions(s, player.ID, cost.Resources, lookup)
	if len(candidates) == 0 {
		return invalid("cannot source %s from own production or neighbors", cost.Resources)
	}
	return reconcile(player, cost.Coins, candidates, p)
}

// reconcile checks the declared neighbor coins against the candidate quotes
// and the total against the coin cost plus trade.
func reconcile(player *state.PlayerState, coinCost int, candidates []TradeQuote, p state.Payment) Result {
	if p.Coins < 0 || p.LeftNeighborCoins < 0 || p.RightNeighborCoins < 0 {
		return invalid("payment amounts must not be negative")
	}

	matched := false
	for _, q := range candidates {
		if q.Left == p.LeftNeighborCoins && q.Right == p.RightNeighborCoins {
			matched = true
			break
		}
	}
	if !matched {
		q := candidates[0]
		return invalid("trade must pay %d to the left and %d to the right neighbor, got %d and %d",
			q.Left, q.Right, p.LeftNeighborCoins, p.RightNeighborCoins)
	}

	want := coinCost + p.LeftNeighborCoins + p.RightNeighborCoins
	if p.Coins != want {
		return invalid("payment must total %d coins, got %d", want, p.Coins)
	}
	if player.Coins < p.Coins {
		return invalid("player has %d coins, needs %d", player.Coins, p.Coins)
	}
	return ok()
}

func ownsTemplate(player *state.PlayerState, templateID string, lookup cards.Lookup) bool {
	for _, id := range player.Tableau {
		if inst, found := lookup.Instance(id); found && inst.TemplateID == templateID {
			return true
		}
	}
	return false
}
