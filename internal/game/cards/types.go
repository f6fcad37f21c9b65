package cards

import (
	"fmt"
	"sort"
	"strings"
)

// ResourceType represents a kind of resource a structure can produce or cost.
type ResourceType string

const (
	Wood    ResourceType = "WOOD"
	Clay    ResourceType = "CLAY"
	Ore     ResourceType = "ORE"
	Stone   ResourceType = "STONE"
	Glass   ResourceType = "GLASS"
	Cloth   ResourceType = "CLOTH"
	Papyrus ResourceType = "PAPYRUS"
)

// AllResources lists every resource kind, raw materials first.
var AllResources = []ResourceType{Wood, Clay, Ore, Stone, Glass, Cloth, Papyrus}

// IsRaw reports whether rt is a raw material (traded at the raw rate).
func (rt ResourceType) IsRaw() bool {
	switch rt {
	case Wood, Stone, Ore, Clay:
		return true
	default:
		return false
	}
}

// IsManufactured reports whether rt is a manufactured good.
func (rt ResourceType) IsManufactured() bool {
	switch rt {
	case Glass, Cloth, Papyrus:
		return true
	default:
		return false
	}
}

// Valid reports whether rt is a known resource kind.
func (rt ResourceType) Valid() bool {
	return rt.IsRaw() || rt.IsManufactured()
}

// Resources maps a resource kind to a count.
type Resources map[ResourceType]int

// Clone returns an independent copy of r.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Total returns the number of units across all kinds.
func (r Resources) Total() int {
	total := 0
	for _, v := range r {
		total += v
	}
	return total
}

// Kinds returns the kinds with a positive count in a stable order.
func (r Resources) Kinds() []ResourceType {
	kinds := make([]ResourceType, 0, len(r))
	for _, rt := range AllResources {
		if r[rt] > 0 {
			kinds = append(kinds, rt)
		}
	}
	return kinds
}

// IsEmpty reports whether no kind has a positive count.
func (r Resources) IsEmpty() bool {
	for _, v := range r {
		if v > 0 {
			return false
		}
	}
	return true
}

// String renders r deterministically, e.g. "CLAY:1 WOOD:2".
func (r Resources) String() string {
	keys := make([]string, 0, len(r))
	for k, v := range r {
		if v > 0 {
			keys = append(keys, fmt.Sprintf("%s:%d", k, v))
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, " ")
}

// CardType is the colour family of a structure.
type CardType string

const (
	Brown  CardType = "BROWN"  // raw materials
	Grey   CardType = "GREY"   // manufactured goods
	Blue   CardType = "BLUE"   // civic
	Yellow CardType = "YELLOW" // commercial
	Red    CardType = "RED"    // military
	Green  CardType = "GREEN"  // scientific
	Purple CardType = "PURPLE" // guilds
)

// ScienceSymbol is one of the three science symbols.
type ScienceSymbol string

const (
	Compass ScienceSymbol = "COMPASS"
	Gear    ScienceSymbol = "GEAR"
	Tablet  ScienceSymbol = "TABLET"
)

// ScienceSymbols lists the three symbols.
var ScienceSymbols = []ScienceSymbol{Tablet, Compass, Gear}

// Age is one of the three sequential rounds.
type Age int

const (
	AgeI   Age = 1
	AgeII  Age = 2
	AgeIII Age = 3
)

var ageNames = map[Age]string{
	AgeI:   "I",
	AgeII:  "II",
	AgeIII: "III",
}

func (a Age) String() string {
	if name, ok := ageNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AGE_%d", int(a))
}

// Valid reports whether a is I, II or III.
func (a Age) Valid() bool {
	_, ok := ageNames[a]
	return ok
}

// Cost is the price of a structure or wonder stage. A zero Cost is free.
type Cost struct {
	Coins     int
	Resources Resources
}

// IsFree reports whether c requires neither coins nor resources.
func (c Cost) IsFree() bool {
	return c.Coins == 0 && c.Resources.IsEmpty()
}

// CardTemplate is the immutable definition of a structure.
type CardTemplate struct {
	ID        string
	Name      string
	Type      CardType
	Age       Age
	Copies    map[int]int // player count -> copies in the deck
	Cost      Cost
	Effects   []Effect
	ChainFrom []string // templates that allow building this one for free
	ChainTo   []string
}

// CanChainFrom reports whether templateID is listed in t.ChainFrom.
func (t *CardTemplate) CanChainFrom(templateID string) bool {
	for _, id := range t.ChainFrom {
		if id == templateID {
			return true
		}
	}
	return false
}

// CardInstance is a stamped copy of a template dealt into a game.
type CardInstance struct {
	TemplateID string
	InstanceID string
	Name       string
	Type       CardType
	Age        Age
	Cost       Cost
	Effects    []Effect
	ChainTo    []string
}

// NewInstance stamps copy number n of t. Instance ids take the form
// "<template>_<n>".
func NewInstance(t *CardTemplate, n int) *CardInstance {
	return &CardInstance{
		TemplateID: t.ID,
		InstanceID: fmt.Sprintf("%s_%d", t.ID, n),
		Name:       t.Name,
		Type:       t.Type,
		Age:        t.Age,
		Cost:       t.Cost,
		Effects:    t.Effects,
		ChainTo:    t.ChainTo,
	}
}

// WonderSide names a side of a wonder board.
type WonderSide string

const (
	SideA WonderSide = "A"
	SideB WonderSide = "B"
)

// Valid reports whether s is A or B.
func (s WonderSide) Valid() bool {
	return s == SideA || s == SideB
}

// WonderStage is one buildable upgrade on a wonder side.
type WonderStage struct {
	Cost          Cost
	Effects       []Effect
	VictoryPoints int
}

// WonderBoard is one side of a wonder.
type WonderBoard struct {
	StartingResource ResourceType // empty when the side grants none
	Stages           []WonderStage
}

// Wonder is a complete two-sided wonder definition.
type Wonder struct {
	ID    string
	Name  string
	SideA WonderBoard
	SideB WonderBoard
}

// Side returns the board for s.
func (w *Wonder) Side(s WonderSide) *WonderBoard {
	if s == SideB {
		return &w.SideB
	}
	return &w.SideA
}
