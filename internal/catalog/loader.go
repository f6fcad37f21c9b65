// Package catalog loads the static card and wonder content and builds the
// decks dealt at the start of each age.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

//go:embed data/*.yaml
var content embed.FS

// Document is the on-disk shape of a catalog file. A file may carry cards,
// wonders or both.
type Document struct {
	Cards   []CardDoc   `yaml:"cards"`
	Wonders []WonderDoc `yaml:"wonders"`
}

// CardDoc describes one card template.
type CardDoc struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Type      string      `yaml:"type"`
	Age       int         `yaml:"age"`
	Copies    map[int]int `yaml:"copies"`
	Cost      CostDoc     `yaml:"cost"`
	Effects   []EffectDoc `yaml:"effects"`
	ChainFrom []string    `yaml:"chainFrom,omitempty"`
	ChainTo   []string    `yaml:"chainTo,omitempty"`
}

// CostDoc describes a card or stage cost.
type CostDoc struct {
	Coins     int            `yaml:"coins,omitempty"`
	Resources map[string]int `yaml:"resources,omitempty"`
}

// EffectDoc is the flat encoding of every effect kind. Type selects which
// of the other fields are read.
type EffectDoc struct {
	Type      string           `yaml:"type"`
	Resources []map[string]int `yaml:"resources,omitempty"`
	Kinds     []string         `yaml:"kinds,omitempty"`
	Neighbors string           `yaml:"neighbors,omitempty"`
	Cost      int              `yaml:"cost,omitempty"`
	Amount    int              `yaml:"amount,omitempty"`
	Shields   int              `yaml:"shields,omitempty"`
	Symbol    string           `yaml:"symbol,omitempty"`
	CardType  string           `yaml:"cardType,omitempty"`
	Points    int              `yaml:"points,omitempty"`
}

// WonderDoc describes a wonder and its two boards, keyed "A" and "B".
type WonderDoc struct {
	ID    string              `yaml:"id"`
	Name  string              `yaml:"name"`
	Sides map[string]BoardDoc `yaml:"sides"`
}

// BoardDoc is one side of a wonder.
type BoardDoc struct {
	StartingResource string     `yaml:"startingResource"`
	Stages           []StageDoc `yaml:"stages"`
}

// StageDoc is one wonder stage.
type StageDoc struct {
	Cost          CostDoc     `yaml:"cost"`
	Effects       []EffectDoc `yaml:"effects"`
	VictoryPoints int         `yaml:"victoryPoints,omitempty"`
}

// Embedded loads the catalog compiled into the binary.
func Embedded() (*cards.MemoryCatalog, error) {
	return LoadFS(content, "data/*.yaml")
}

// EmbeddedDocuments returns the decoded files compiled into the binary.
func EmbeddedDocuments() ([]Document, error) {
	return ReadDocuments(content, "data/*.yaml")
}

// LoadFS loads every file matching pattern in fsys, in lexical order.
func LoadFS(fsys fs.FS, pattern string) (*cards.MemoryCatalog, error) {
	docs, err := ReadDocuments(fsys, pattern)
	if err != nil {
		return nil, err
	}
	return Build(docs...)
}

// ReadDocuments decodes every file matching pattern in fsys.
func ReadDocuments(fsys fs.FS, pattern string) ([]Document, error) {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files match %s", pattern)
	}

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Build converts docs into a catalog and checks chain references.
func Build(docs ...Document) (*cards.MemoryCatalog, error) {
	catalog := cards.NewMemoryCatalog()
	for _, doc := range docs {
		if err := doc.AddTo(catalog); err != nil {
			return nil, err
		}
	}
	if err := CheckReferences(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Parse decodes one YAML document and adds its content to catalog.
func Parse(data []byte, catalog *cards.MemoryCatalog) error {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	return doc.AddTo(catalog)
}

// AddTo converts the document and adds it to catalog.
func (d Document) AddTo(catalog *cards.MemoryCatalog) error {
	for _, c := range d.Cards {
		tmpl, err := c.Template()
		if err != nil {
			return err
		}
		if _, dup := catalog.CardTemplate(tmpl.ID); dup {
			return &cards.DataIntegrityError{Kind: cards.IntegrityCardTemplate, ID: tmpl.ID, Detail: "defined twice"}
		}
		catalog.AddTemplate(tmpl)
	}
	for _, w := range d.Wonders {
		wonder, err := w.Wonder()
		if err != nil {
			return err
		}
		if _, dup := catalog.Wonder(wonder.ID); dup {
			return &cards.DataIntegrityError{Kind: cards.IntegrityWonder, ID: wonder.ID, Detail: "defined twice"}
		}
		catalog.AddWonder(wonder)
	}
	return nil
}

// CheckReferences verifies that every chain names a known template.
func CheckReferences(catalog *cards.MemoryCatalog) error {
	for _, t := range catalog.Templates() {
		for _, ref := range append(append([]string{}, t.ChainFrom...), t.ChainTo...) {
			if _, ok := catalog.CardTemplate(ref); !ok {
				return &cards.DataIntegrityError{
					Kind:   cards.IntegrityCardTemplate,
					ID:     t.ID,
					Detail: fmt.Sprintf("chains with unknown template %q", ref),
				}
			}
		}
	}
	return nil
}

var cardTypes = map[string]cards.CardType{
	string(cards.Brown):  cards.Brown,
	string(cards.Grey):   cards.Grey,
	string(cards.Blue):   cards.Blue,
	string(cards.Yellow): cards.Yellow,
	string(cards.Red):    cards.Red,
	string(cards.Green):  cards.Green,
	string(cards.Purple): cards.Purple,
}

// Template converts the document into a card template.
func (c CardDoc) Template() (*cards.CardTemplate, error) {
	bad := func(format string, args ...any) error {
		return &cards.DataIntegrityError{Kind: cards.IntegrityCardTemplate, ID: c.ID, Detail: fmt.Sprintf(format, args...)}
	}

	if c.ID == "" {
		return nil, bad("missing id")
	}
	ct, ok := cardTypes[c.Type]
	if !ok {
		return nil, bad("unknown card type %q", c.Type)
	}
	age := cards.Age(c.Age)
	if !age.Valid() {
		return nil, bad("invalid age %d", c.Age)
	}
	cost, err := c.Cost.cost()
	if err != nil {
		return nil, bad("%v", err)
	}
	effects, err := convertEffects(c.Effects)
	if err != nil {
		return nil, bad("%v", err)
	}

	return &cards.CardTemplate{
		ID:        c.ID,
		Name:      c.Name,
		Type:      ct,
		Age:       age,
		Copies:    c.Copies,
		Cost:      cost,
		Effects:   effects,
		ChainFrom: c.ChainFrom,
		ChainTo:   c.ChainTo,
	}, nil
}

// Wonder converts the document into a wonder with both boards.
func (w WonderDoc) Wonder() (*cards.Wonder, error) {
	bad := func(format string, args ...any) error {
		return &cards.DataIntegrityError{Kind: cards.IntegrityWonder, ID: w.ID, Detail: fmt.Sprintf(format, args...)}
	}

	if w.ID == "" {
		return nil, bad("missing id")
	}
	wonder := &cards.Wonder{ID: w.ID, Name: w.Name}
	for _, side := range []cards.WonderSide{cards.SideA, cards.SideB} {
		doc, ok := w.Sides[string(side)]
		if !ok {
			return nil, bad("missing side %s", side)
		}
		board, err := doc.board()
		if err != nil {
			return nil, bad("side %s: %v", side, err)
		}
		if side == cards.SideA {
			wonder.SideA = board
		} else {
			wonder.SideB = board
		}
	}
	return wonder, nil
}

func (b BoardDoc) board() (cards.WonderBoard, error) {
	start := cards.ResourceType(b.StartingResource)
	if !start.Valid() {
		return cards.WonderBoard{}, fmt.Errorf("unknown starting resource %q", b.StartingResource)
	}
	board := cards.WonderBoard{StartingResource: start}
	for i, s := range b.Stages {
		cost, err := s.Cost.cost()
		if err != nil {
			return cards.WonderBoard{}, fmt.Errorf("stage %d: %w", i+1, err)
		}
		effects, err := convertEffects(s.Effects)
		if err != nil {
			return cards.WonderBoard{}, fmt.Errorf("stage %d: %w", i+1, err)
		}
		board.Stages = append(board.Stages, cards.WonderStage{
			Cost:          cost,
			Effects:       effects,
			VictoryPoints: s.VictoryPoints,
		})
	}
	return board, nil
}

func (c CostDoc) cost() (cards.Cost, error) {
	if c.Coins < 0 {
		return cards.Cost{}, fmt.Errorf("negative coin cost %d", c.Coins)
	}
	res, err := convertResources(c.Resources)
	if err != nil {
		return cards.Cost{}, err
	}
	return cards.Cost{Coins: c.Coins, Resources: res}, nil
}

func convertResources(in map[string]int) (cards.Resources, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(cards.Resources, len(in))
	for k, n := range in {
		rt := cards.ResourceType(k)
		if !rt.Valid() {
			return nil, fmt.Errorf("unknown resource %q", k)
		}
		if n <= 0 {
			return nil, fmt.Errorf("resource %s amount must be positive, got %d", k, n)
		}
		out[rt] = n
	}
	return out, nil
}

func convertEffects(docs []EffectDoc) ([]cards.Effect, error) {
	effects := make([]cards.Effect, 0, len(docs))
	for _, d := range docs {
		e, err := d.Effect()
		if err != nil {
			return nil, err
		}
		effects = append(effects, e)
	}
	return effects, nil
}

// Effect converts the document into its effect variant.
func (d EffectDoc) Effect() (cards.Effect, error) {
	switch cards.EffectKind(d.Type) {
	case cards.KindResourceProduction:
		if len(d.Resources) == 0 {
			return nil, fmt.Errorf("resource_production without resources")
		}
		out := cards.ResourceProduction{}
		for _, entry := range d.Resources {
			res, err := convertResources(entry)
			if err != nil {
				return nil, err
			}
			out.Resources = append(out.Resources, res)
		}
		return out, nil
	case cards.KindCoins:
		return cards.Coins{Amount: d.Amount}, nil
	case cards.KindTrading:
		side := cards.TradeSide(d.Neighbors)
		if side != cards.TradeLeft && side != cards.TradeRight && side != cards.TradeBoth {
			return nil, fmt.Errorf("trading with unknown neighbors %q", d.Neighbors)
		}
		kinds := make([]cards.ResourceType, 0, len(d.Kinds))
		for _, k := range d.Kinds {
			rt := cards.ResourceType(k)
			if !rt.Valid() {
				return nil, fmt.Errorf("trading unknown resource %q", k)
			}
			kinds = append(kinds, rt)
		}
		return cards.Trading{Kinds: kinds, Side: side, Cost: d.Cost}, nil
	case cards.KindMilitary:
		return cards.Military{Shields: d.Shields}, nil
	case cards.KindScience:
		sym := cards.ScienceSymbol(d.Symbol)
		if sym != cards.Compass && sym != cards.Gear && sym != cards.Tablet {
			return nil, fmt.Errorf("unknown science symbol %q", d.Symbol)
		}
		return cards.Science{Symbol: sym}, nil
	case cards.KindVictoryPoints:
		return cards.VictoryPoints{Amount: d.Amount}, nil
	case cards.KindCoinPerCard:
		ct, scope, err := d.counting()
		if err != nil {
			return nil, err
		}
		return cards.CoinPerCard{CardType: ct, Scope: scope, Amount: d.Amount}, nil
	case cards.KindVictoryPerCard:
		ct, scope, err := d.counting()
		if err != nil {
			return nil, err
		}
		return cards.VictoryPerCard{CardType: ct, Scope: scope, Amount: d.Amount}, nil
	case cards.KindVictoryPerCardType:
		ct, scope, err := d.counting()
		if err != nil {
			return nil, err
		}
		return cards.VictoryPerCardType{CardType: ct, Scope: scope, Points: d.Points}, nil
	case cards.KindVictoryPerWonderStage:
		scope, err := parseScope(d.Neighbors)
		if err != nil {
			return nil, err
		}
		return cards.VictoryPerWonderStage{Scope: scope, Points: d.Points}, nil
	case cards.KindVictoryPerDefeat:
		scope, err := parseScope(d.Neighbors)
		if err != nil {
			return nil, err
		}
		return cards.VictoryPerDefeat{Scope: scope, Points: d.Points}, nil
	case cards.KindVictoryPerResourceCard:
		scope, err := parseScope(d.Neighbors)
		if err != nil {
			return nil, err
		}
		return cards.VictoryPerResourceCard{Scope: scope, Points: d.Points}, nil
	case cards.KindVictoryPerVictoryToken:
		return cards.VictoryPerVictoryToken{Points: d.Points}, nil
	case cards.KindScienceChoice:
		return cards.ScienceChoice{}, nil
	case cards.KindCopyGuild:
		return cards.CopyGuild{}, nil
	case cards.KindPlaySeventhCard:
		return cards.PlaySeventhCard{}, nil
	case cards.KindFreeBuildFromDiscard:
		return cards.FreeBuildFromDiscard{}, nil
	case cards.KindFreeBuildOncePerAge:
		return cards.FreeBuildOncePerAge{}, nil
	}
	return nil, fmt.Errorf("unknown effect type %q", d.Type)
}

func (d EffectDoc) counting() (cards.CardType, cards.Scope, error) {
	ct, ok := cardTypes[d.CardType]
	if !ok {
		return "", "", fmt.Errorf("%s with unknown card type %q", d.Type, d.CardType)
	}
	scope, err := parseScope(d.Neighbors)
	return ct, scope, err
}

func parseScope(s string) (cards.Scope, error) {
	switch scope := cards.Scope(s); scope {
	case "", cards.ScopeSelf, cards.ScopeNeighbors, cards.ScopeAll:
		return scope, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}
