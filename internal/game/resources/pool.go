package resources

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// Pool is the production a player can draw on when paying a cost.
type Pool struct {
	// Fixed production is always available.
	Fixed cards.Resources
	// Each choice grants one of its listed kinds, never several.
	Choices []cards.Resources
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{Fixed: cards.Resources{}}
}

// AddFixed adds amount units of rt to the fixed production.
func (p *Pool) AddFixed(rt cards.ResourceType, amount int) {
	if amount <= 0 {
		return
	}
	if p.Fixed == nil {
		p.Fixed = cards.Resources{}
	}
	p.Fixed[rt] += amount
}

// AddChoice appends a one-of-many production entry.
func (p *Pool) AddChoice(choice cards.Resources) {
	if choice.IsEmpty() {
		return
	}
	p.Choices = append(p.Choices, choice.Clone())
}

// FixedAmount returns the unconditional units of rt.
func (p *Pool) FixedAmount(rt cards.ResourceType) int {
	if p == nil {
		return 0
	}
	return p.Fixed[rt]
}

// Copy returns an independent copy of the pool.
func (p *Pool) Copy() *Pool {
	out := &Pool{Fixed: p.Fixed.Clone()}
	for _, c := range p.Choices {
		out.Choices = append(out.Choices, c.Clone())
	}
	return out
}

// AddProduction folds a production effect into the pool.
func (p *Pool) AddProduction(effect cards.ResourceProduction) {
	for _, entry := range effect.Resources {
		kinds := entry.Kinds()
		switch len(kinds) {
		case 0:
		case 1:
			p.AddFixed(kinds[0], entry[kinds[0]])
		default:
			p.AddChoice(entry)
		}
	}
}

func (p *Pool) addEffects(effects []cards.Effect) {
	for _, e := range effects {
		if prod, ok := e.(cards.ResourceProduction); ok {
			p.AddProduction(prod)
		}
	}
}

// Calculate builds the pool for player from its wonder starting resource,
// the production on its tableau and the production of its built stages.
// Unknown instances and wonders contribute nothing.
func Calculate(player *state.PlayerState, lookup cards.Lookup) *Pool {
	pool := NewPool()
	if player == nil {
		return pool
	}

	board, hasBoard := lookup.Board(player.WonderID, player.WonderSide)
	if hasBoard && board.StartingResource != "" {
		pool.AddFixed(board.StartingResource, 1)
	}

	for _, id := range player.Tableau {
		inst, ok := lookup.Instance(id)
		if !ok {
			continue
		}
		pool.addEffects(lookup.Effects(inst))
	}

	if hasBoard {
		for _, stage := range board.BuiltStages(player.WonderStages) {
			pool.addEffects(stage.Effects)
		}
	}
	return pool
}
