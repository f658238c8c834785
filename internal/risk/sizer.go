package risk

// SizerConfig bounds the notional sizing.
type SizerConfig struct {
	BaseSizeUSD       float64 `toml:"base_size_usd"`
	MinSizeUSD        float64 `toml:"min_size_usd"`
	MaxSizeUSD        float64 `toml:"max_size_usd"`
	LiquidityFraction float64 `toml:"liquidity_fraction"`
	HighProbability   float64 `toml:"high_probability"`
	HighProbDerate    float64 `toml:"high_prob_derate"`
}

func DefaultSizerConfig() SizerConfig {
	return SizerConfig{
		BaseSizeUSD:       100,
		MinSizeUSD:        50,
		MaxSizeUSD:        500,
		LiquidityFraction: 0.05,
		HighProbability:   0.7,
		HighProbDerate:    0.8,
	}
}

// Sizer turns confidence, strength and liquidity into a bounded notional.
// The output is always positive, finite and inside [MinSizeUSD, MaxSizeUSD].
type Sizer struct {
	cfg SizerConfig
}

func NewSizer(cfg SizerConfig) *Sizer {
	def := DefaultSizerConfig()
	if cfg.BaseSizeUSD <= 0 {
		cfg.BaseSizeUSD = def.BaseSizeUSD
	}
	if cfg.MinSizeUSD <= 0 {
		cfg.MinSizeUSD = def.MinSizeUSD
	}
	if cfg.MaxSizeUSD <= cfg.MinSizeUSD {
		cfg.MaxSizeUSD = def.MaxSizeUSD
	}
	if cfg.LiquidityFraction <= 0 || cfg.LiquidityFraction > 1 {
		cfg.LiquidityFraction = def.LiquidityFraction
	}
	if cfg.HighProbability <= 0 || cfg.HighProbability >= 1 {
		cfg.HighProbability = def.HighProbability
	}
	if cfg.HighProbDerate <= 0 || cfg.HighProbDerate > 1 {
		cfg.HighProbDerate = def.HighProbDerate
	}
	return &Sizer{cfg: cfg}
}

// Size computes base * confidence * strength, derated when the chosen
// outcome is already priced rich, capped against outcome liquidity, and
// clamped into the configured floor/ceiling.
func (s *Sizer) Size(confidence, strength, outcomeProbability, liquidityUSD float64) float64 {
	size := s.cfg.BaseSizeUSD * confidence * strength
	if outcomeProbability > s.cfg.HighProbability {
		size *= s.cfg.HighProbDerate
	}
	if liquidityUSD > 0 {
		if limit := liquidityUSD * s.cfg.LiquidityFraction; size > limit {
			size = limit
		}
	}
	if size < s.cfg.MinSizeUSD {
		size = s.cfg.MinSizeUSD
	}
	if size > s.cfg.MaxSizeUSD {
		size = s.cfg.MaxSizeUSD
	}
	return size
}

// MinLiquidityUSD is the smallest outcome liquidity for which the 5% cap
// still clears the sizing floor; instruments under it are screened out.
func (s *Sizer) MinLiquidityUSD() float64 {
	return s.cfg.MinSizeUSD / s.cfg.LiquidityFraction
}
