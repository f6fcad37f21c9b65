package payment

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/resources"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// TradeQuote is the coin cost of buying a residual requirement from the
// neighbors.
type TradeQuote struct {
	Feasible bool
	Left     int
	Right    int
	// Bought is what the player buys after spending its own production.
	Bought cards.Resources
}

// Total returns the coins paid to both neighbors.
func (q TradeQuote) Total() int { return q.Left + q.Right }

// QuoteTrade returns the cheapest way for playerID to cover requirement
// with its own production plus purchases from its neighbors. Ties go to the
// first assignment of choice production found. Feasible is false when some
// unit cannot be bought.
func QuoteTrade(s *state.GameState, playerID string, requirement cards.Resources, lookup cards.Lookup) TradeQuote {
	best := TradeOptions(s, playerID, requirement, lookup)
	if len(best) == 0 {
		return TradeQuote{}
	}
	return best[0]
}

// TradeOptions returns every feasible quote with the minimum total, in
// discovery order. Quotes differ in how the coins split between neighbors.
func TradeOptions(s *state.GameState, playerID string, requirement cards.Resources, lookup cards.Lookup) []TradeQuote {
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return nil
	}
	player := &s.Players[idx]
	left, right := s.Neighbors(idx)
	leftPool := resources.Calculate(left, lookup)
	rightPool := resources.Calculate(right, lookup)

	var best []TradeQuote
	for _, residual := range resources.Residuals(resources.Calculate(player, lookup), requirement) {
		q := buy(player, leftPool, rightPool, residual)
		if !q.Feasible {
			continue
		}
		switch {
		case len(best) == 0 || q.Total() < best[0].Total():
			best = []TradeQuote{q}
		case q.Total() == best[0].Total():
			best = append(best, q)
		}
	}
	return best
}

// buy sources each residual unit from the left neighbor's fixed production
// first and then from the right neighbor's.
func buy(player *state.PlayerState, leftPool, rightPool *resources.Pool, residual cards.Resources) TradeQuote {
	q := TradeQuote{Feasible: true, Bought: residual}
	leftStock := leftPool.Fixed.Clone()
	rightStock := rightPool.Fixed.Clone()

	for _, kind := range cards.AllResources {
		for unit := 0; unit < residual[kind]; unit++ {
			switch {
			case leftStock[kind] > 0:
				leftStock[kind]--
				q.Left += player.LeftTradeCost.For(kind)
			case rightStock[kind] > 0:
				rightStock[kind]--
				q.Right += player.RightTradeCost.For(kind)
			default:
				return TradeQuote{}
			}
		}
	}
	return q
}
