package resources

import (
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

// CanSatisfy reports whether pool covers requirement on its own.
func CanSatisfy(pool *Pool, requirement cards.Resources) bool {
	remaining := subtractFixed(pool, requirement)
	if remaining.IsEmpty() {
		return true
	}
	var choices []cards.Resources
	if pool != nil {
		choices = pool.Choices
	}
	return satisfyWithChoices(choices, remaining)
}

// Shortfall returns what pool cannot cover of requirement, using fixed
// production only.
func Shortfall(pool *Pool, requirement cards.Resources) cards.Resources {
	return subtractFixed(pool, requirement)
}

// Residuals lists every distinct requirement left over after pool spends its
// fixed production and some assignment of its choices. The first entry is
// the residual with no choices used. A residual that is empty means the pool
// pays alone.
func Residuals(pool *Pool, requirement cards.Resources) []cards.Resources {
	remaining := subtractFixed(pool, requirement)
	seen := map[string]bool{}
	var out []cards.Resources

	var walk func(choices []cards.Resources, need cards.Resources)
	walk = func(choices []cards.Resources, need cards.Resources) {
		if len(choices) == 0 || need.IsEmpty() {
			key := need.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, need)
			}
			return
		}
		walk(choices[1:], need)
		for _, kind := range choices[0].Kinds() {
			if need[kind] <= 0 {
				continue
			}
			walk(choices[1:], spend(need, kind, choiceUnits(choices[0], kind)))
		}
	}

	var choices []cards.Resources
	if pool != nil {
		choices = pool.Choices
	}
	walk(choices, remaining)
	return out
}

func subtractFixed(pool *Pool, requirement cards.Resources) cards.Resources {
	remaining := cards.Resources{}
	for kind, need := range requirement {
		if need <= 0 {
			continue
		}
		left := need - pool.FixedAmount(kind)
		if left > 0 {
			remaining[kind] = left
		}
	}
	return remaining
}

func satisfyWithChoices(choices []cards.Resources, need cards.Resources) bool {
	if need.IsEmpty() {
		return true
	}
	if len(choices) == 0 {
		return false
	}
	for _, kind := range choices[0].Kinds() {
		if need[kind] <= 0 {
			continue
		}
		if satisfyWithChoices(choices[1:], spend(need, kind, choiceUnits(choices[0], kind))) {
			return true
		}
	}
	return satisfyWithChoices(choices[1:], need)
}

// choiceUnits is how many units a choice yields when used for kind.
func choiceUnits(choice cards.Resources, kind cards.ResourceType) int {
	if n := choice[kind]; n > 0 {
		return n
	}
	return 1
}

// spend returns a copy of need with up to units of kind removed.
func spend(need cards.Resources, kind cards.ResourceType, units int) cards.Resources {
	out := need.Clone()
	out[kind] -= units
	if out[kind] <= 0 {
		delete(out, kind)
	}
	return out
}
