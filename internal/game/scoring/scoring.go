package scoring

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// ScoreBreakdown is one player's end-game score by category.
type ScoreBreakdown struct {
	Military   int `json:"military"`
	Coins      int `json:"coins"`
	Wonder     int `json:"wonder"`
	Civic      int `json:"civic"`
	Commercial int `json:"commercial"`
	Guilds     int `json:"guilds"`
	Science    int `json:"science"`
	Total      int `json:"total"`
	// Treasury is the coin count, used to break ties.
	Treasury int `json:"treasury"`
}

// CalculateScores scores every player of s.
func CalculateScores(s *state.GameState, lookup cards.Lookup) map[string]ScoreBreakdown {
	scores := make(map[string]ScoreBreakdown, len(s.Players))
	for i := range s.Players {
		scores[s.Players[i].ID] = scorePlayer(s, i, lookup)
	}
	return scores
}

// DetermineWinner returns the player with the highest total. Ties go to the
// richer player, then to the earlier seat.
func DetermineWinner(s *state.GameState, scores map[string]ScoreBreakdown) string {
	winner := ""
	var best ScoreBreakdown
	for _, p := range s.Players {
		score, ok := scores[p.ID]
		if !ok {
			continue
		}
		if winner == "" || score.Total > best.Total ||
			(score.Total == best.Total && score.Treasury > best.Treasury) {
			winner = p.ID
			best = score
		}
	}
	return winner
}

func scorePlayer(s *state.GameState, idx int, lookup cards.Lookup) ScoreBreakdown {
	player := &s.Players[idx]
	b := ScoreBreakdown{
		Military: player.VictoryTokens - player.DefeatTokens,
		Coins:    player.Coins / 3,
		Treasury: player.Coins,
	}

	wildcards := 0
	board, hasBoard := lookup.Board(player.WonderID, player.WonderSide)
	if hasBoard {
		for _, stage := range board.BuiltStages(player.WonderStages) {
			b.Wonder += stage.VictoryPoints
			wildcards += countWildcards(stage.Effects)
		}
	}

	for _, id := range player.Tableau {
		inst, ok := lookup.Instance(id)
		if !ok {
			continue
		}
		effects := lookup.Effects(inst)
		wildcards += countWildcards(effects)

		points := 0
		for _, e := range effects {
			points += effectPoints(s, idx, e, lookup)
		}
		switch inst.Type {
		case cards.Blue:
			b.Civic += points
		case cards.Yellow:
			b.Commercial += points
		case cards.Purple:
			b.Guilds += points
		}
	}

	b.Science = bestScience(player.Science, wildcards)
	b.Total = b.Military + b.Coins + b.Wonder + b.Civic + b.Commercial + b.Guilds + b.Science
	return b
}

// effectPoints returns the victory points one effect is worth to seat idx.
func effectPoints(s *state.GameState, idx int, e cards.Effect, lookup cards.Lookup) int {
	switch eff := e.(type) {
	case cards.VictoryPoints:
		return eff.Amount
	case cards.VictoryPerCard:
		return eff.Amount * countCards(s, idx, eff.Scope, lookup, eff.CardType)
	case cards.VictoryPerCardType:
		return eff.Points * countCards(s, idx, eff.Scope, lookup, eff.CardType)
	case cards.VictoryPerResourceCard:
		return eff.Points * countCards(s, idx, eff.Scope, lookup, cards.Brown, cards.Grey)
	case cards.VictoryPerWonderStage:
		return eff.Points * sumSeats(s, idx, eff.Scope, func(p *state.PlayerState) int { return p.WonderStages })
	case cards.VictoryPerDefeat:
		return eff.Points * sumSeats(s, idx, eff.Scope, func(p *state.PlayerState) int { return p.DefeatTokens })
	case cards.VictoryPerVictoryToken:
		return eff.Points * s.Players[idx].VictoryTokens
	}
	return 0
}

// sumSeats adds f over the boards in scope.
func sumSeats(s *state.GameState, idx int, scope cards.Scope, f func(*state.PlayerState) int) int {
	total := 0
	if scope.IncludesSelf() {
		total += f(&s.Players[idx])
	}
	if scope.IncludesNeighbors() {
		left, right := s.Neighbors(idx)
		total += f(left) + f(right)
	}
	return total
}

func countCards(s *state.GameState, idx int, scope cards.Scope, lookup cards.Lookup, types ...cards.CardType) int {
	return sumSeats(s, idx, scope, func(p *state.PlayerState) int {
		n := 0
		for _, id := range p.Tableau {
			ct := lookup.CardType(id)
			for _, want := range types {
				if ct == want {
					n++
					break
				}
			}
		}
		return n
	})
}

func countWildcards(effects []cards.Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(cards.ScienceChoice); ok {
			n++
		}
	}
	return n
}

// ScienceScore is seven points per complete set plus the square of each
// symbol count.
func ScienceScore(tablet, compass, gear int) int {
	return min(tablet, compass, gear)*7 + tablet*tablet + compass*compass + gear*gear
}

// bestScience assigns each wildcard to the symbol that maximises the score.
func bestScience(symbols map[cards.ScienceSymbol]int, wildcards int) int {
	var best int
	var assign func(tablet, compass, gear, left int)
	assign = func(tablet, compass, gear, left int) {
		if left == 0 {
			best = max(best, ScienceScore(tablet, compass, gear))
			return
		}
		assign(tablet+1, compass, gear, left-1)
		assign(tablet, compass+1, gear, left-1)
		assign(tablet, compass, gear+1, left-1)
	}
	assign(symbols[cards.Tablet], symbols[cards.Compass], symbols[cards.Gear], wildcards)
	return best
}
