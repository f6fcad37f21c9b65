package state

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

// MilitaryPoints maps an age to the victory points of one won conflict.
var MilitaryPoints = map[cards.Age]int{
	cards.AgeI:   1,
	cards.AgeII:  3,
	cards.AgeIII: 5,
}

// Reduce applies a to s and returns the next state. It assumes a was
// validated. When the acting player or card cannot be found it returns s
// unchanged. Every produced state has a higher version than s, except
// INIT_GAME which always produces version 1.
func Reduce(s *GameState, a Action, lookup cards.Lookup) *GameState {
	if init, ok := a.(InitGame); ok {
		return reduceInit(init)
	}
	if s == nil {
		return nil
	}

	var next *GameState
	switch act := a.(type) {
	case PlayCard:
		next = reducePlayCard(s, act, lookup)
	case DiscardCard:
		next = reduceDiscard(s, act)
	case BuildWonder:
		next = reduceBuildWonder(s, act, lookup)
	case PassCards:
		next = reducePassCards(s)
	case ResolveMilitary:
		next = reduceResolveMilitary(s)
	case NextAge:
		next = reduceNextAge(s)
	case DealHands:
		next = reduceDealHands(s, act)
	}
	if next == nil {
		return s
	}
	next.Version = s.Version + 1
	return next
}

func reduceInit(a InitGame) *GameState {
	players := make([]PlayerState, 0, len(a.PlayerIDs))
	for _, id := range a.PlayerIDs {
		assignment := a.WonderAssignments[id]
		players = append(players, NewPlayerState(id, assignment.WonderID, assignment.Side))
	}
	return &GameState{
		ID:          a.GameID,
		Players:     players,
		Age:         cards.AgeI,
		Turn:        1,
		CurrentDeck: []string{},
		DiscardPile: []string{},
		Direction:   Clockwise,
		Version:     1,
		Phase:       PhaseSetup,
	}
}

// takeFromHand clones s and removes cardID from the actor's hand. It returns
// nil when the player or card is missing.
func takeFromHand(s *GameState, playerID, cardID string) (*GameState, int) {
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return nil, -1
	}
	pos := indexOf(s.Players[idx].Hand, cardID)
	if pos < 0 {
		return nil, -1
	}
	next := s.Clone()
	next.Players[idx].Hand = without(next.Players[idx].Hand, pos)
	return next, idx
}

// settle moves coins from the payer to its neighbors.
func settle(s *GameState, idx int, p Payment) {
	n := len(s.Players)
	s.Players[idx].Coins -= p.Coins
	s.Players[LeftIndex(idx, n)].Coins += p.LeftNeighborCoins
	s.Players[RightIndex(idx, n)].Coins += p.RightNeighborCoins
}

func reducePlayCard(s *GameState, a PlayCard, lookup cards.Lookup) *GameState {
	next, idx := takeFromHand(s, a.PlayerID, a.CardInstanceID)
	if next == nil {
		return nil
	}
	player := &next.Players[idx]
	player.Tableau = append(player.Tableau, a.CardInstanceID)
	settle(next, idx, a.Payment)

	if inst, ok := lookup.Instance(a.CardInstanceID); ok {
		applyEffects(next, idx, lookup.Effects(inst), lookup)
	}
	return next
}

func reduceDiscard(s *GameState, a DiscardCard) *GameState {
	next, idx := takeFromHand(s, a.PlayerID, a.CardInstanceID)
	if next == nil {
		return nil
	}
	next.Players[idx].Coins += DiscardCoins
	next.DiscardPile = append(next.DiscardPile, a.CardInstanceID)
	return next
}

func reduceBuildWonder(s *GameState, a BuildWonder, lookup cards.Lookup) *GameState {
	next, idx := takeFromHand(s, a.PlayerID, a.CardInstanceID)
	if next == nil {
		return nil
	}
	player := &next.Players[idx]
	player.WonderStages++
	settle(next, idx, a.Payment)

	if board, ok := lookup.Board(player.WonderID, player.WonderSide); ok {
		if a.StageIndex >= 0 && a.StageIndex < len(board.Stages) {
			applyEffects(next, idx, board.Stages[a.StageIndex].Effects, lookup)
		}
	}
	return next
}

// applyEffects applies the immediate effects of a played card or built
// stage in listed order. End-game effects are left to scoring.
func applyEffects(s *GameState, idx int, effects []cards.Effect, lookup cards.Lookup) {
	player := &s.Players[idx]
	for _, e := range effects {
		switch eff := e.(type) {
		case cards.Coins:
			player.Coins += eff.Amount
		case cards.Military:
			player.MilitaryShields += eff.Shields
		case cards.Science:
			player.Science[eff.Symbol]++
		case cards.Trading:
			if eff.Side.AppliesLeft() {
				player.LeftTradeCost = reduceTradeCost(player.LeftTradeCost, eff)
			}
			if eff.Side.AppliesRight() {
				player.RightTradeCost = reduceTradeCost(player.RightTradeCost, eff)
			}
		case cards.CoinPerCard:
			player.Coins += eff.Amount * countCards(s, idx, eff.CardType, eff.Scope, lookup)
		}
	}
}

func reduceTradeCost(tc TradeCost, eff cards.Trading) TradeCost {
	if eff.CoversRaw() {
		tc.Raw = min(tc.Raw, eff.Cost)
	}
	if eff.CoversManufactured() {
		tc.Manufactured = min(tc.Manufactured, eff.Cost)
	}
	return tc
}

// countCards counts tableau cards of type ct across the boards in scope.
func countCards(s *GameState, idx int, ct cards.CardType, scope cards.Scope, lookup cards.Lookup) int {
	count := 0
	tally := func(p *PlayerState) {
		for _, id := range p.Tableau {
			if lookup.CardType(id) == ct {
				count++
			}
		}
	}
	if scope.IncludesSelf() {
		tally(&s.Players[idx])
	}
	if scope.IncludesNeighbors() {
		left, right := s.Neighbors(idx)
		tally(left)
		tally(right)
	}
	return count
}

func reducePassCards(s *GameState) *GameState {
	next := s.Clone()
	n := len(s.Players)
	for i := range next.Players {
		src := LeftIndex(i, n)
		if s.Direction == Counterclockwise {
			src = RightIndex(i, n)
		}
		next.Players[i].Hand = append([]string{}, s.Players[src].Hand...)
	}
	next.Turn++
	return next
}

func reduceResolveMilitary(s *GameState) *GameState {
	next := s.Clone()
	points := MilitaryPoints[s.Age]
	for i := range s.Players {
		left, right := s.Neighbors(i)
		own := s.Players[i].MilitaryShields
		for _, neighbor := range []*PlayerState{left, right} {
			switch {
			case own > neighbor.MilitaryShields:
				next.Players[i].VictoryTokens += points
			case own < neighbor.MilitaryShields:
				next.Players[i].DefeatTokens++
			}
		}
	}
	next.Phase = PhaseMilitary
	return next
}

func reduceNextAge(s *GameState) *GameState {
	next := s.Clone()
	if s.Age >= cards.AgeIII {
		next.Phase = PhaseFinished
		return next
	}
	next.Age = s.Age + 1
	next.Direction = DirectionForAge(next.Age)
	next.Turn = 1
	next.Phase = PhasePlaying
	return next
}

func reduceDealHands(s *GameState, a DealHands) *GameState {
	if len(a.Hands) != len(s.Players) {
		return nil
	}
	next := s.Clone()
	for i := range next.Players {
		next.DiscardPile = append(next.DiscardPile, next.Players[i].Hand...)
		next.Players[i].Hand = append([]string{}, a.Hands[i]...)
	}
	if a.Age.Valid() {
		next.Age = a.Age
	}
	next.CurrentDeck = append([]string{}, a.Deck...)
	next.Turn = 1
	next.Phase = PhasePlaying
	return next
}
