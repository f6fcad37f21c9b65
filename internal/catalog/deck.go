package catalog

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
)

// TemplateSource lists every template of a catalog.
type TemplateSource interface {
	Templates() []*cards.CardTemplate
}

// DealerOptions controls shuffling.
type DealerOptions struct {
	Shuffle bool
	// Seed fixes the shuffle. Zero seeds from the clock.
	Seed int64
}

// DeckBuilder builds and deals the deck of each age. It is safe for
// concurrent use.
type DeckBuilder struct {
	source  TemplateSource
	shuffle bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDeckBuilder creates a builder over source.
func NewDeckBuilder(source TemplateSource, opts DealerOptions) *DeckBuilder {
	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &DeckBuilder{
		source:  source,
		shuffle: opts.Shuffle,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Build returns the shuffled deck of age for playerCount players. Age III
// adds playerCount+2 guilds drawn at random.
func (b *DeckBuilder) Build(age cards.Age, playerCount int) ([]*cards.CardInstance, error) {
	if playerCount < state.MinPlayers || playerCount > state.MaxPlayers {
		return nil, fmt.Errorf("unsupported player count %d", playerCount)
	}
	if !age.Valid() {
		return nil, fmt.Errorf("invalid age %d", age)
	}

	var deck []*cards.CardInstance
	var guilds []*cards.CardTemplate
	for _, t := range b.source.Templates() {
		if t.Age != age {
			continue
		}
		if t.Type == cards.Purple {
			guilds = append(guilds, t)
			continue
		}
		for n := 1; n <= t.Copies[playerCount]; n++ {
			deck = append(deck, cards.NewInstance(t, n))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if age == cards.AgeIII {
		want := playerCount + 2
		if len(guilds) < want {
			return nil, &cards.DataIntegrityError{
				Kind:   cards.IntegrityDeckSize,
				ID:     fmt.Sprintf("age %s guilds", age),
				Detail: fmt.Sprintf("need %d guilds, catalog has %d", want, len(guilds)),
			}
		}
		if b.shuffle {
			b.rng.Shuffle(len(guilds), func(i, j int) { guilds[i], guilds[j] = guilds[j], guilds[i] })
		}
		for _, g := range guilds[:want] {
			deck = append(deck, cards.NewInstance(g, 1))
		}
	}

	if want := playerCount * state.HandSize; len(deck) != want {
		return nil, &cards.DataIntegrityError{
			Kind:   cards.IntegrityDeckSize,
			ID:     fmt.Sprintf("age %s, %d players", age, playerCount),
			Detail: fmt.Sprintf("expected %d cards, got %d", want, len(deck)),
		}
	}

	if b.shuffle {
		b.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	}
	return deck, nil
}

// Deal builds the deck of age and hands card i to seat i mod playerCount.
func (b *DeckBuilder) Deal(age cards.Age, playerCount int) (game.Deal, error) {
	deck, err := b.Build(age, playerCount)
	if err != nil {
		return game.Deal{}, err
	}
	hands := make([][]string, playerCount)
	for i, inst := range deck {
		seat := i % playerCount
		hands[seat] = append(hands[seat], inst.InstanceID)
	}
	return game.Deal{Cards: deck, Hands: hands}, nil
}
