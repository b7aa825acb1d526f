package domain

// Modos de sizing soportados.
const (
	SizingFixedDollar  = "fixed_dollar"
	SizingFixedShares  = "fixed_shares"
	SizingProportional = "proportional"
	SizingMatch        = "match"
	SizingConviction   = "conviction"
)

// Policy es la política efectiva de guardrails para una wallet: el merge
// total de los defaults globales con los overrides por wallet. Cada campo
// tiene siempre un valor bien definido, aunque la wallet nunca se haya
// configurado.
type Policy struct {
	CopyBuys  bool
	CopySells bool

	MinPrice      float64
	MaxPrice      float64
	MinSourceSize float64

	SizingMode      string
	FixedDollar     float64
	FixedShares     float64
	CopyRatio       float64 // proportional: fracción del size original
	ConvictionRatio float64

	MaxCostPerTrade float64
	MaxExposure     float64
	MaxTradesPerRun int
	MaxRunSpend     float64

	AllowOverdraft bool
}

// GuardrailOverrides son los overrides opcionales por wallet. Un puntero nil
// significa "usar el default global".
type GuardrailOverrides struct {
	CopyBuys        *bool    `yaml:"copy_buys,omitempty" json:"copy_buys,omitempty"`
	CopySells       *bool    `yaml:"copy_sells,omitempty" json:"copy_sells,omitempty"`
	MinPrice        *float64 `yaml:"min_price,omitempty" json:"min_price,omitempty"`
	MaxPrice        *float64 `yaml:"max_price,omitempty" json:"max_price,omitempty"`
	MinSourceSize   *float64 `yaml:"min_source_size,omitempty" json:"min_source_size,omitempty"`
	SizingMode      *string  `yaml:"sizing_mode,omitempty" json:"sizing_mode,omitempty"`
	FixedDollar     *float64 `yaml:"fixed_dollar,omitempty" json:"fixed_dollar,omitempty"`
	FixedShares     *float64 `yaml:"fixed_shares,omitempty" json:"fixed_shares,omitempty"`
	CopyRatio       *float64 `yaml:"copy_ratio,omitempty" json:"copy_ratio,omitempty"`
	ConvictionRatio *float64 `yaml:"conviction_ratio,omitempty" json:"conviction_ratio,omitempty"`
	MaxCostPerTrade *float64 `yaml:"max_cost_per_trade,omitempty" json:"max_cost_per_trade,omitempty"`
	MaxExposure     *float64 `yaml:"max_exposure,omitempty" json:"max_exposure,omitempty"`
	AllowOverdraft  *bool    `yaml:"allow_overdraft,omitempty" json:"allow_overdraft,omitempty"`
}

// Merge aplica los overrides sobre los defaults y devuelve la política
// efectiva. El merge es total: cualquier campo sin override conserva el
// default.
func (o GuardrailOverrides) Merge(defaults Policy) Policy {
	p := defaults
	if o.CopyBuys != nil {
		p.CopyBuys = *o.CopyBuys
	}
	if o.CopySells != nil {
		p.CopySells = *o.CopySells
	}
	if o.MinPrice != nil {
		p.MinPrice = *o.MinPrice
	}
	if o.MaxPrice != nil {
		p.MaxPrice = *o.MaxPrice
	}
	if o.MinSourceSize != nil {
		p.MinSourceSize = *o.MinSourceSize
	}
	if o.SizingMode != nil {
		p.SizingMode = *o.SizingMode
	}
	if o.FixedDollar != nil {
		p.FixedDollar = *o.FixedDollar
	}
	if o.FixedShares != nil {
		p.FixedShares = *o.FixedShares
	}
	if o.CopyRatio != nil {
		p.CopyRatio = *o.CopyRatio
	}
	if o.ConvictionRatio != nil {
		p.ConvictionRatio = *o.ConvictionRatio
	}
	if o.MaxCostPerTrade != nil {
		p.MaxCostPerTrade = *o.MaxCostPerTrade
	}
	if o.MaxExposure != nil {
		p.MaxExposure = *o.MaxExposure
	}
	if o.AllowOverdraft != nil {
		p.AllowOverdraft = *o.AllowOverdraft
	}
	return p
}
