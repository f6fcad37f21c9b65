package cards

// EffectKind identifies an effect variant.
type EffectKind string

const (
	KindResourceProduction     EffectKind = "resource_production"
	KindCoins                  EffectKind = "coins"
	KindTrading                EffectKind = "trading"
	KindMilitary               EffectKind = "military"
	KindScience                EffectKind = "science"
	KindVictoryPoints          EffectKind = "victory_points"
	KindCoinPerCard            EffectKind = "coin_per_card"
	KindVictoryPerCard         EffectKind = "victory_per_card"
	KindVictoryPerWonderStage  EffectKind = "victory_per_wonder_stage"
	KindVictoryPerCardType     EffectKind = "victory_per_card_type"
	KindVictoryPerDefeat       EffectKind = "victory_per_defeat"
	KindVictoryPerResourceCard EffectKind = "victory_per_resource_card"
	KindVictoryPerVictoryToken EffectKind = "victory_per_victory_token"
	KindScienceChoice          EffectKind = "science_choice"
	KindCopyGuild              EffectKind = "copy_guild"
	KindPlaySeventhCard        EffectKind = "play_seventh_card"
	KindFreeBuildFromDiscard   EffectKind = "free_build_from_discard"
	KindFreeBuildOncePerAge    EffectKind = "free_build_once_per_age"
)

// Effect is a closed set of card and wonder-stage effects. Consumers type
// switch over the variants they care about and ignore the rest.
type Effect interface {
	Kind() EffectKind
	effect()
}

// TradeSide selects which neighbor a trading effect applies to.
type TradeSide string

const (
	TradeLeft  TradeSide = "left"
	TradeRight TradeSide = "right"
	TradeBoth  TradeSide = "both"
)

// AppliesLeft reports whether the side covers the left neighbor.
func (s TradeSide) AppliesLeft() bool { return s == TradeLeft || s == TradeBoth }

// AppliesRight reports whether the side covers the right neighbor.
func (s TradeSide) AppliesRight() bool { return s == TradeRight || s == TradeBoth }

// Scope selects whose boards a counting effect inspects.
type Scope string

const (
	ScopeSelf      Scope = "self"
	ScopeNeighbors Scope = "neighbors"
	ScopeAll       Scope = "all" // self and both neighbors
)

// IncludesSelf reports whether the acting player's own board is counted.
// An empty scope counts the player alone.
func (s Scope) IncludesSelf() bool { return s == ScopeSelf || s == ScopeAll || s == "" }

// IncludesNeighbors reports whether both neighbors' boards are counted.
func (s Scope) IncludesNeighbors() bool { return s == ScopeNeighbors || s == ScopeAll }

// ResourceProduction grants resources. Each entry with a single kind is
// fixed production; an entry naming several kinds grants exactly one of them.
type ResourceProduction struct {
	Resources []Resources
}

// Coins grants coins immediately.
type Coins struct {
	Amount int
}

// Trading lowers the per-unit price of the listed kinds bought from the
// chosen neighbors.
type Trading struct {
	Kinds []ResourceType
	Side  TradeSide
	Cost  int
}

// CoversRaw reports whether any listed kind is a raw material.
func (t Trading) CoversRaw() bool {
	for _, k := range t.Kinds {
		if k.IsRaw() {
			return true
		}
	}
	return false
}

// CoversManufactured reports whether any listed kind is a manufactured good.
func (t Trading) CoversManufactured() bool {
	for _, k := range t.Kinds {
		if k.IsManufactured() {
			return true
		}
	}
	return false
}

// Military adds shields.
type Military struct {
	Shields int
}

// Science adds one symbol.
type Science struct {
	Symbol ScienceSymbol
}

// VictoryPoints is a flat end-game award.
type VictoryPoints struct {
	Amount int
}

// CoinPerCard pays coins once when played, per matching card in scope.
type CoinPerCard struct {
	CardType CardType
	Scope    Scope
	Amount   int
}

// VictoryPerCard awards points per matching card in scope.
type VictoryPerCard struct {
	CardType CardType
	Scope    Scope
	Amount   int
}

// VictoryPerWonderStage awards points per built stage in scope.
type VictoryPerWonderStage struct {
	Scope  Scope
	Points int
}

// VictoryPerCardType is the guild flavour of VictoryPerCard.
type VictoryPerCardType struct {
	CardType CardType
	Scope    Scope
	Points   int
}

// VictoryPerDefeat awards points per defeat token in scope.
type VictoryPerDefeat struct {
	Scope  Scope
	Points int
}

// VictoryPerResourceCard awards points per brown and grey card in scope.
type VictoryPerResourceCard struct {
	Scope  Scope
	Points int
}

// VictoryPerVictoryToken awards points per military victory token.
type VictoryPerVictoryToken struct {
	Points int
}

// ScienceChoice is a wildcard science symbol chosen at scoring time.
type ScienceChoice struct{}

// CopyGuild copies a neighbor's guild at the end of the game.
type CopyGuild struct{}

// PlaySeventhCard lets the owner play the last card of an age.
type PlaySeventhCard struct{}

// FreeBuildFromDiscard builds one discarded card for free.
type FreeBuildFromDiscard struct{}

// FreeBuildOncePerAge builds one structure per age for free.
type FreeBuildOncePerAge struct{}

func (ResourceProduction) Kind() EffectKind     { return KindResourceProduction }
func (Coins) Kind() EffectKind                  { return KindCoins }
func (Trading) Kind() EffectKind                { return KindTrading }
func (Military) Kind() EffectKind               { return KindMilitary }
func (Science) Kind() EffectKind                { return KindScience }
func (VictoryPoints) Kind() EffectKind          { return KindVictoryPoints }
func (CoinPerCard) Kind() EffectKind            { return KindCoinPerCard }
func (VictoryPerCard) Kind() EffectKind         { return KindVictoryPerCard }
func (VictoryPerWonderStage) Kind() EffectKind  { return KindVictoryPerWonderStage }
func (VictoryPerCardType) Kind() EffectKind     { return KindVictoryPerCardType }
func (VictoryPerDefeat) Kind() EffectKind       { return KindVictoryPerDefeat }
func (VictoryPerResourceCard) Kind() EffectKind { return KindVictoryPerResourceCard }
func (VictoryPerVictoryToken) Kind() EffectKind { return KindVictoryPerVictoryToken }
func (ScienceChoice) Kind() EffectKind          { return KindScienceChoice }
func (CopyGuild) Kind() EffectKind              { return KindCopyGuild }
func (PlaySeventhCard) Kind() EffectKind        { return KindPlaySeventhCard }
func (FreeBuildFromDiscard) Kind() EffectKind   { return KindFreeBuildFromDiscard }
func (FreeBuildOncePerAge) Kind() EffectKind    { return KindFreeBuildOncePerAge }

func (ResourceProduction) effect()     {}
func (Coins) effect()                  {}
func (Trading) effect()                {}
func (Military) effect()               {}
func (Science) effect()                {}
func (VictoryPoints) effect()          {}
func (CoinPerCard) effect()            {}
func (VictoryPerCard) effect()         {}
func (VictoryPerWonderStage) effect()  {}
func (VictoryPerCardType) effect()     {}
func (VictoryPerDefeat) effect()       {}
func (VictoryPerResourceCard) effect() {}
func (VictoryPerVictoryToken) effect() {}
func (ScienceChoice) effect()          {}
func (CopyGuild) effect()              {}
func (PlaySeventhCard) effect()        {}
func (FreeBuildFromDiscard) effect()   {}
func (FreeBuildOncePerAge) effect()    {}
