package factor

import (
	"time"

	"polyquant/internal/market"

	talib "github.com/markcheno/go-talib"
)

// Set holds the five bounded factors. Missing inputs yield the neutral 0.
type Set struct {
	Momentum         float64 `json:"momentum"`          // [-1,1]
	Volatility       float64 `json:"volatility"`        // [0,1]
	PricingDeviation float64 `json:"pricing_deviation"` // [-1,1]
	VolumeAnomaly    float64 `json:"volume_anomaly"`    // [0,1]
	TimeFactor       float64 `json:"time_factor"`       // [-1,1]
}

// Config fixes the lookback windows and scaling of every factor.
type Config struct {
	MomentumPeriods        []int         `toml:"momentum_periods"`
	MomentumWeights        []float64     `toml:"momentum_weights"`
	MomentumScale          float64       `toml:"momentum_scale"`
	VolatilityWindow       int           `toml:"volatility_window"`
	HighVolatilityRatio    float64       `toml:"high_volatility_ratio"`
	TrendWindow            int           `toml:"trend_window"`
	DeviationScale         float64       `toml:"deviation_scale"`
	VolumeWindow           int           `toml:"volume_window"`
	VolumeAnomalyThreshold float64       `toml:"volume_anomaly_threshold"`
	EarlyWindow            time.Duration `toml:"early_window"`
	EarlyTrendBars         int           `toml:"early_trend_bars"`
	EarlyScale             float64       `toml:"early_scale"`
	EarlyWeight            float64       `toml:"early_weight"`
	BarInterval            time.Duration `toml:"bar_interval"`
}

// DefaultConfig mirrors the tuning the live deployment runs with.
func DefaultConfig() Config {
	return Config{
		MomentumPeriods:        []int{3, 5},
		MomentumWeights:        []float64{0.6, 0.4},
		MomentumScale:          10,
		VolatilityWindow:       10,
		HighVolatilityRatio:    0.05,
		TrendWindow:            5,
		DeviationScale:         2,
		VolumeWindow:           10,
		VolumeAnomalyThreshold: 2.0,
		EarlyWindow:            5 * time.Minute,
		EarlyTrendBars:         3,
		EarlyScale:             10,
		EarlyWeight:            0.5,
		BarInterval:            15 * time.Minute,
	}
}

// Inputs gathers everything one extraction needs. Now is injected so the
// time factor stays a pure function.
type Inputs struct {
	Candles          []market.Candle
	Reference        *market.ReferencePrice
	QuoteProbability float64
	Volume24hUSD     float64
	MarketStart      *time.Time
	Now              time.Time
}

// Extractor computes the factor set. It has no side effects and does no I/O;
// every factor is also exposed on its own for direct testing.
type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if len(cfg.MomentumPeriods) == 0 || len(cfg.MomentumPeriods) != len(cfg.MomentumWeights) {
		cfg.MomentumPeriods = def.MomentumPeriods
		cfg.MomentumWeights = def.MomentumWeights
	}
	if cfg.MomentumScale <= 0 {
		cfg.MomentumScale = def.MomentumScale
	}
	if cfg.VolatilityWindow <= 0 {
		cfg.VolatilityWindow = def.VolatilityWindow
	}
	if cfg.HighVolatilityRatio <= 0 {
		cfg.HighVolatilityRatio = def.HighVolatilityRatio
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = def.TrendWindow
	}
	if cfg.DeviationScale <= 0 {
		cfg.DeviationScale = def.DeviationScale
	}
	if cfg.VolumeWindow <= 0 {
		cfg.VolumeWindow = def.VolumeWindow
	}
	if cfg.VolumeAnomalyThreshold <= 0 {
		cfg.VolumeAnomalyThreshold = def.VolumeAnomalyThreshold
	}
	if cfg.EarlyWindow <= 0 {
		cfg.EarlyWindow = def.EarlyWindow
	}
	if cfg.EarlyTrendBars <= 0 {
		cfg.EarlyTrendBars = def.EarlyTrendBars
	}
	if cfg.EarlyScale <= 0 {
		cfg.EarlyScale = def.EarlyScale
	}
	if cfg.EarlyWeight <= 0 || cfg.EarlyWeight >= 1 {
		cfg.EarlyWeight = def.EarlyWeight
	}
	if cfg.BarInterval <= 0 {
		cfg.BarInterval = def.BarInterval
	}
	return &Extractor{cfg: cfg}
}

// Extract computes all five factors from one snapshot of inputs.
func (e *Extractor) Extract(in Inputs) Set {
	return Set{
		Momentum:         e.Momentum(in.Candles),
		Volatility:       e.Volatility(in.Candles),
		PricingDeviation: e.PricingDeviation(in.Candles, in.Reference, in.QuoteProbability),
		VolumeAnomaly:    e.VolumeAnomaly(in.Candles, in.Volume24hUSD),
		TimeFactor:       e.TimeFactor(in.Candles, in.MarketStart, in.Now),
	}
}

// Momentum blends the lookback returns with short-period-heavy weights,
// scales, and clamps to [-1,1]. Fewer than five candles yields 0.
func (e *Extractor) Momentum(candles []market.Candle) float64 {
	maxPeriod := 0
	for _, p := range e.cfg.MomentumPeriods {
		if p > maxPeriod {
			maxPeriod = p
		}
	}
	if len(candles) < maxPeriod {
		return 0
	}
	var weighted, weightSum float64
	for i, p := range e.cfg.MomentumPeriods {
		if p <= 0 || len(candles) < p {
			continue
		}
		base := candles[len(candles)-p].Close
		if base == 0 {
			continue
		}
		ret := (candles[len(candles)-1].Close - base) / base
		w := e.cfg.MomentumWeights[i]
		weighted += ret * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return clamp(weighted/weightSum*e.cfg.MomentumScale, -1, 1)
}

// Volatility is the ATR over the configured window normalized by the average
// close, then mapped onto [0,1] against the high-volatility ratio.
func (e *Extractor) Volatility(candles []market.Candle) float64 {
	w := e.cfg.VolatilityWindow
	if len(candles) < w+1 {
		return 0
	}
	tail := candles[len(candles)-(w+1):]
	highs := make([]float64, len(tail))
	lows := make([]float64, len(tail))
	closes := make([]float64, len(tail))
	for i, c := range tail {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}
	atr := talib.Atr(highs, lows, closes, w)
	avgTR := atr[len(atr)-1]
	var closeSum float64
	for _, c := range closes[1:] {
		closeSum += c
	}
	avgClose := closeSum / float64(w)
	if avgClose <= 0 {
		return 0
	}
	return clamp(avgTR/avgClose/e.cfg.HighVolatilityRatio, 0, 1)
}

// PricingDeviation compares the quoted UP probability against a probability
// implied by the recent trend. Negative means the quote underprices UP.
// Returns 0 when no reference price is available.
func (e *Extractor) PricingDeviation(candles []market.Candle, ref *market.ReferencePrice, quoteProbability float64) float64 {
	if ref == nil || ref.Price <= 0 {
		return 0
	}
	w := e.cfg.TrendWindow
	if len(candles) < w {
		return 0
	}
	base := candles[len(candles)-w].Close
	if base == 0 {
		return 0
	}
	trend := (candles[len(candles)-1].Close - base) / base
	estimated := clamp(0.5+trend*10, 0.3, 0.7)
	return clamp((quoteProbability-estimated)*e.cfg.DeviationScale, -1, 1)
}

// VolumeAnomaly compares the 24h quote volume, normalized to one bar's
// granularity, against the average bar volume. Bars without volume are
// excluded; no usable bar volume yields 0.
func (e *Extractor) VolumeAnomaly(candles []market.Candle, volume24hUSD float64) float64 {
	w := e.cfg.VolumeWindow
	tail := candles
	if len(tail) > w {
		tail = tail[len(tail)-w:]
	}
	var volSum float64
	var volCount int
	for _, c := range tail {
		if c.Volume > 0 {
			volSum += c.Volume
			volCount++
		}
	}
	if volCount == 0 || volume24hUSD <= 0 {
		return 0
	}
	avgBarVolume := volSum / float64(volCount)
	barsPerDay := float64(24*time.Hour) / float64(e.cfg.BarInterval)
	perBar := volume24hUSD / barsPerDay
	return clamp(perBar/avgBarVolume/e.cfg.VolumeAnomalyThreshold, 0, 1)
}

// TimeFactor is only active inside the early window after market start; it
// scales the short trend and weights it down, since early prints are thin.
func (e *Extractor) TimeFactor(candles []market.Candle, marketStart *time.Time, now time.Time) float64 {
	if marketStart == nil {
		return 0
	}
	elapsed := now.Sub(*marketStart)
	if elapsed < 0 || elapsed >= e.cfg.EarlyWindow {
		return 0
	}
	w := e.cfg.EarlyTrendBars
	if len(candles) < w {
		return 0
	}
	base := candles[len(candles)-w].Close
	if base == 0 {
		return 0
	}
	trend := (candles[len(candles)-1].Close - base) / base
	return clamp(trend*e.cfg.EarlyScale, -1, 1) * e.cfg.EarlyWeight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
