package signal

import (
	"fmt"
	"math"

	"polyquant/internal/factor"
	"polyquant/internal/market"
)

// Signal is a gated directional trade recommendation.
type Signal struct {
	InstrumentID       string         `json:"instrument_id"`
	Direction          market.Outcome `json:"direction"`
	Probability        float64        `json:"probability"`
	Confidence         float64        `json:"confidence"`
	Strength           float64        `json:"strength"`
	RecommendedSizeUSD float64        `json:"recommended_size_usd"`
	Reasons            []string       `json:"reasons"`
}

// Config carries the combiner weights and gating thresholds.
type Config struct {
	MomentumWeight    float64 `toml:"momentum_weight"`
	PricingWeight     float64 `toml:"pricing_weight"`
	TimeWeight        float64 `toml:"time_weight"`
	VolumeWeight      float64 `toml:"volume_weight"`
	MomentumThreshold float64 `toml:"momentum_threshold"`
	PricingThreshold  float64 `toml:"pricing_threshold"`
	TimeThreshold     float64 `toml:"time_threshold"`
	MinStrength       float64 `toml:"min_strength"`
	MinConfidence     float64 `toml:"min_confidence"`
}

func DefaultConfig() Config {
	return Config{
		MomentumWeight:    0.4,
		PricingWeight:     0.3,
		TimeWeight:        0.2,
		VolumeWeight:      0.1,
		MomentumThreshold: 0.002,
		PricingThreshold:  0.05,
		TimeThreshold:     0.01,
		MinStrength:       0.1,
		MinConfidence:     0.3,
	}
}

// Combiner folds a factor set into a directional signal. Deterministic,
// no I/O; identical inputs always yield identical output.
type Combiner struct {
	cfg Config
}

func NewCombiner(cfg Config) *Combiner {
	def := DefaultConfig()
	if cfg.MomentumWeight <= 0 {
		cfg.MomentumWeight = def.MomentumWeight
	}
	if cfg.PricingWeight <= 0 {
		cfg.PricingWeight = def.PricingWeight
	}
	if cfg.TimeWeight <= 0 {
		cfg.TimeWeight = def.TimeWeight
	}
	if cfg.VolumeWeight <= 0 {
		cfg.VolumeWeight = def.VolumeWeight
	}
	if cfg.MomentumThreshold <= 0 {
		cfg.MomentumThreshold = def.MomentumThreshold
	}
	if cfg.PricingThreshold <= 0 {
		cfg.PricingThreshold = def.PricingThreshold
	}
	if cfg.TimeThreshold <= 0 {
		cfg.TimeThreshold = def.TimeThreshold
	}
	if cfg.MinStrength <= 0 {
		cfg.MinStrength = def.MinStrength
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	return &Combiner{cfg: cfg}
}

// MinConfidence exposes the configured confidence floor for the caller-side
// rejection step.
func (c *Combiner) MinConfidence() float64 { return c.cfg.MinConfidence }

// Combine merges the factors into a signal, or nil when the combined
// strength stays below the configured minimum. The caller still has to
// reject signals whose confidence is under MinConfidence.
func (c *Combiner) Combine(instrumentID string, factors factor.Set, quotes market.QuotePair) *Signal {
	cfg := c.cfg
	var reasons []string

	volBoost := 1.0
	if factors.Volatility > 0.5 {
		volBoost = 1.2
	}

	var momentumTerm float64
	if math.Abs(factors.Momentum) > cfg.MomentumThreshold {
		momentumTerm = factors.Momentum * cfg.MomentumWeight * volBoost
		reasons = append(reasons, fmt.Sprintf("momentum %+.4f (boost %.1f)", factors.Momentum, volBoost))
	}

	var pricingScore float64
	if math.Abs(factors.PricingDeviation) > cfg.PricingThreshold {
		// Underpricing the UP outcome (negative deviation) is bullish.
		pricingScore = -factors.PricingDeviation
		side := "underpriced"
		if factors.PricingDeviation > 0 {
			side = "overpriced"
		}
		reasons = append(reasons, fmt.Sprintf("pricing deviation %+.4f (%s)", factors.PricingDeviation, side))
	}

	var volumeAdjustment float64
	if factors.VolumeAnomaly > 0.5 {
		volumeAdjustment = factors.Momentum * 0.3
		reasons = append(reasons, fmt.Sprintf("volume anomaly %.2f amplifies momentum", factors.VolumeAnomaly))
	}

	timeTerm := factors.TimeFactor * cfg.TimeWeight
	if math.Abs(factors.TimeFactor) > cfg.TimeThreshold {
		reasons = append(reasons, fmt.Sprintf("early-market trend %+.4f", factors.TimeFactor))
	}

	score := momentumTerm + pricingScore*cfg.PricingWeight + timeTerm + volumeAdjustment*cfg.VolumeWeight

	strength := math.Min(1, math.Abs(score))
	if strength < cfg.MinStrength {
		return nil
	}

	direction := market.OutcomeUp
	if score <= 0 {
		direction = market.OutcomeDown
	}

	confidence := strength + c.agreementBonus(factors, score)
	if factors.Volatility > 0.6 && math.Abs(factors.Momentum) > 0.002 {
		confidence += 0.1
		reasons = append(reasons, "volatility-backed momentum")
	}
	if math.Abs(factors.PricingDeviation) > 0.1 {
		confidence += 0.1
		reasons = append(reasons, "large pricing deviation")
	}
	confidence = math.Min(1, confidence)

	quote := quotes.ForOutcome(direction)
	return &Signal{
		InstrumentID: instrumentID,
		Direction:    direction,
		Probability:  quote.Probability,
		Confidence:   confidence,
		Strength:     strength,
		Reasons:      reasons,
	}
}

// agreementBonus rewards factors that cleared their own thresholds and point
// the same way as the combined score. Weights: momentum 0.3, pricing 0.3,
// time 0.2, scaled by 0.2.
func (c *Combiner) agreementBonus(factors factor.Set, score float64) float64 {
	cfg := c.cfg
	sign := 1.0
	if score <= 0 {
		sign = -1.0
	}
	var bonus float64
	if math.Abs(factors.Momentum) > cfg.MomentumThreshold && factors.Momentum*sign > 0 {
		bonus += 0.3
	}
	// Pricing contributes as -deviation, so agreement flips the sign.
	if math.Abs(factors.PricingDeviation) > cfg.PricingThreshold && -factors.PricingDeviation*sign > 0 {
		bonus += 0.3
	}
	if math.Abs(factors.TimeFactor) > cfg.TimeThreshold && factors.TimeFactor*sign > 0 {
		bonus += 0.2
	}
	return bonus * 0.2
}
