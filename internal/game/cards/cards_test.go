package cards

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceCategories(t *testing.T) {
	for _, rt := range []ResourceType{Wood, Stone, Ore, Clay} {
		assert.True(t, rt.IsRaw(), rt)
		assert.False(t, rt.IsManufactured(), rt)
	}
	for _, rt := range []ResourceType{Glass, Cloth, Papyrus} {
		assert.True(t, rt.IsManufactured(), rt)
		assert.False(t, rt.IsRaw(), rt)
	}
	assert.False(t, ResourceType("GOLD").Valid())
}

func TestResourcesHelpers(t *testing.T) {
	r := Resources{Wood: 2, Clay: 1, Glass: 0}
	assert.Equal(t, 3, r.Total())
	assert.Equal(t, []ResourceType{Wood, Clay}, r.Kinds())
	assert.Equal(t, "CLAY:1 WOOD:2", r.String())
	assert.False(t, r.IsEmpty())
	assert.True(t, Resources{Ore: 0}.IsEmpty())

	clone := r.Clone()
	clone[Wood] = 9
	assert.Equal(t, 2, r[Wood])
}

func TestCostIsFree(t *testing.T) {
	assert.True(t, Cost{}.IsFree())
	assert.False(t, Cost{Coins: 1}.IsFree())
	assert.False(t, Cost{Resources: Resources{Stone: 1}}.IsFree())
}

func TestNewInstanceID(t *testing.T) {
	tmpl := &CardTemplate{ID: "altar", Name: "Altar", Type: Blue, Age: AgeI,
		Effects: []Effect{VictoryPoints{Amount: 2}}}

	inst := NewInstance(tmpl, 3)
	assert.Equal(t, "altar_3", inst.InstanceID)
	assert.Equal(t, "altar", inst.TemplateID)
	assert.Equal(t, Blue, inst.Type)
	assert.Len(t, inst.Effects, 1)
}

func TestCanChainFrom(t *testing.T) {
	tmpl := &CardTemplate{ID: "statue", ChainFrom: []string{"theater"}}
	assert.True(t, tmpl.CanChainFrom("theater"))
	assert.False(t, tmpl.CanChainFrom("altar"))
}

func TestScopeCoverage(t *testing.T) {
	assert.True(t, ScopeSelf.IncludesSelf())
	assert.False(t, ScopeSelf.IncludesNeighbors())
	assert.False(t, ScopeNeighbors.IncludesSelf())
	assert.True(t, ScopeNeighbors.IncludesNeighbors())
	assert.True(t, ScopeAll.IncludesSelf())
	assert.True(t, ScopeAll.IncludesNeighbors())
	assert.True(t, Scope("").IncludesSelf())
}

func TestTradingCoverage(t *testing.T) {
	raw := Trading{Kinds: []ResourceType{Wood, Clay}, Side: TradeLeft, Cost: 1}
	assert.True(t, raw.CoversRaw())
	assert.False(t, raw.CoversManufactured())
	assert.True(t, raw.Side.AppliesLeft())
	assert.False(t, raw.Side.AppliesRight())
	assert.True(t, TradeBoth.AppliesRight())
}

func TestLookupEffectsFallsBackToTemplate(t *testing.T) {
	catalog := NewMemoryCatalog()
	tmpl := &CardTemplate{ID: "barracks", Type: Red, Effects: []Effect{Military{Shields: 1}}}
	catalog.AddTemplate(tmpl)

	store := NewInstanceStore()
	bare := &CardInstance{TemplateID: "barracks", InstanceID: "barracks_1", Type: Red}
	store.Put(bare)

	lookup := Lookup{Catalog: catalog, Instances: store}
	effects := lookup.Effects(bare)
	require.Len(t, effects, 1)
	assert.Equal(t, Military{Shields: 1}, effects[0])

	got, ok := lookup.InstanceTemplate("barracks_1")
	require.True(t, ok)
	assert.Same(t, tmpl, got)
	assert.Equal(t, Red, lookup.CardType("barracks_1"))
	assert.Equal(t, CardType(""), lookup.CardType("missing"))
}

func TestMemoryCatalogKeepsOrder(t *testing.T) {
	catalog := NewMemoryCatalog()
	catalog.AddTemplate(&CardTemplate{ID: "b"})
	catalog.AddTemplate(&CardTemplate{ID: "a"})
	catalog.AddTemplate(&CardTemplate{ID: "b", Name: "replaced"})

	templates := catalog.Templates()
	require.Len(t, templates, 2)
	assert.Equal(t, "b", templates[0].ID)
	assert.Equal(t, "replaced", templates[0].Name)
	assert.Equal(t, "a", templates[1].ID)
}

func TestInstanceStoreReset(t *testing.T) {
	store := NewInstanceStore()
	store.Put(&CardInstance{InstanceID: "x_1"})
	store.Put(&CardInstance{InstanceID: "a_1"})
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"a_1", "x_1"}, store.IDs())

	store.Reset()
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get("x_1")
	assert.False(t, ok)
}

func TestWonderBoardBuiltStages(t *testing.T) {
	w := &Wonder{ID: "giza", SideB: WonderBoard{Stages: make([]WonderStage, 4)}}
	board := w.Side(SideB)
	assert.Len(t, board.BuiltStages(2), 2)
	assert.Len(t, board.BuiltStages(9), 4)
	assert.Len(t, w.Side(SideA).BuiltStages(1), 0)
}

func TestDataIntegrityError(t *testing.T) {
	var err error = MissingWonder("atlantis")
	assert.Equal(t, `data integrity: wonder "atlantis" not found`, err.Error())

	var die *DataIntegrityError
	require.True(t, errors.As(err, &die))
	assert.Equal(t, IntegrityWonder, die.Kind)

	sized := &DataIntegrityError{Kind: IntegrityDeckSize, ID: "age_2", Detail: "expected 21 cards, got 20"}
	assert.Contains(t, sized.Error(), "expected 21 cards")
}
