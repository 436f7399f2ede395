package detector

import (
	"time"

	"crypto-manipulation-monitor/internal/calculate"
	"crypto-manipulation-monitor/models"
)

// priceThresholds are the effective price-change thresholds for this cycle.
// With adaptive thresholds enabled they widen with realized volatility so a
// routinely noisy market does not trip the price signal.
type priceThresholds struct {
	change15m float64
	change5m  float64
}

func (d *Detector) priceThresholds(points []models.HistoricalPoint) priceThresholds {
	thr := priceThresholds{
		change15m: d.cfg.PriceChange15mThreshold,
		change5m:  d.cfg.PriceChange5mThreshold,
	}
	if !d.cfg.AdaptiveThresholds {
		return thr
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	thr.change15m = calculate.AdaptiveThreshold(prices, thr.change15m)
	thr.change5m = calculate.AdaptiveThreshold(prices, thr.change5m)
	return thr
}

// computeMetrics derives the manipulation metrics from the rolling window.
// The newest point is the current snapshot; every percentage computation
// guards its denominator so a zero reference short-circuits to "no change".
func (d *Detector) computeMetrics(points []models.HistoricalPoint, now time.Time) models.ManipulationMetrics {
	current := points[len(points)-1]

	m := models.ManipulationMetrics{
		CurrentPrice:  current.Price,
		CurrentVolume: current.Volume,
		CurrentOI:     current.OpenInterest,
	}

	m.OIChange15mPct, m.OIChange15mAbs = oiChange(points, now, window15m, current.OpenInterest)
	m.OIChange1hPct, m.OIChange1hAbs = oiChange(points, now, window1h, current.OpenInterest)

	m.VolumeSpikeRatio = volumeSpikeRatio(points, now, current.Volume)

	m.PriceChange15mPct = priceChange(points, now, window15m, current.Price)
	m.PriceChange5mPct = priceChange(points, now, window5m, current.Price)

	m.DivergenceDetected, m.DivergenceStrength = d.divergence(m.OIChange15mPct, m.PriceChange15mPct)

	m.ZScores = zScores(points, current)

	return m
}

// earliestInWindow returns the oldest point whose timestamp falls inside the
// trailing window, or false when the window is empty
func earliestInWindow(points []models.HistoricalPoint, now time.Time, window time.Duration) (models.HistoricalPoint, bool) {
	cutoff := now.Add(-window).Unix()
	for _, p := range points {
		if p.Timestamp >= cutoff {
			return p, true
		}
	}
	return models.HistoricalPoint{}, false
}

// oiChange computes the percentage and absolute open-interest change against
// the earliest point in the window. A missing window or zero reference OI
// yields zero change, not an error.
func oiChange(points []models.HistoricalPoint, now time.Time, window time.Duration, currentOI float64) (pct, abs float64) {
	ref, ok := earliestInWindow(points, now, window)
	if !ok || ref.OpenInterest <= 0 {
		return 0, 0
	}
	return (currentOI - ref.OpenInterest) / ref.OpenInterest, currentOI - ref.OpenInterest
}

// volumeSpikeRatio divides current volume by the trailing 15-minute average.
// At least 2 points and a positive mean are required; otherwise 0.
func volumeSpikeRatio(points []models.HistoricalPoint, now time.Time, currentVolume float64) float64 {
	cutoff := now.Add(-window15m).Unix()
	var volumes []float64
	for _, p := range points {
		if p.Timestamp >= cutoff {
			volumes = append(volumes, p.Volume)
		}
	}
	if len(volumes) < 2 {
		return 0
	}
	mean := calculate.Mean(volumes)
	if mean <= 0 {
		return 0
	}
	return currentVolume / mean
}

// priceChange computes the percentage price change against the earliest point
// in the window, zero when the window is empty or the reference price is zero
func priceChange(points []models.HistoricalPoint, now time.Time, window time.Duration, currentPrice float64) float64 {
	ref, ok := earliestInWindow(points, now, window)
	if !ok || ref.Price <= 0 {
		return 0
	}
	return (currentPrice - ref.Price) / ref.Price
}

// divergence flags open interest and price moving in economically
// inconsistent directions beyond the configured magnitudes. Strength is the
// combined magnitude of both moves when flagged.
func (d *Detector) divergence(oiChangePct, priceChangePct float64) (bool, float64) {
	oiUp := oiChangePct > d.cfg.DivergenceOIThreshold
	oiDown := oiChangePct < -d.cfg.DivergenceOIThreshold
	priceUp := priceChangePct > d.cfg.DivergencePriceThreshold
	priceDown := priceChangePct < -d.cfg.DivergencePriceThreshold

	if (oiUp && priceDown) || (oiDown && priceUp) {
		strength := abs(oiChangePct) + abs(priceChangePct)
		return true, strength
	}
	return false, 0
}

// zScores computes auxiliary outlier scores for the current volume and OI
// against their window history. Keys are only present when the sample is
// large enough and non-flat, so the map may legitimately be empty.
func zScores(points []models.HistoricalPoint, current models.HistoricalPoint) map[string]float64 {
	zs := make(map[string]float64)

	// exclude the current point from its own baseline
	prior := points[:len(points)-1]

	var volumes, ois []float64
	for _, p := range prior {
		volumes = append(volumes, p.Volume)
		if p.OpenInterest > 0 {
			ois = append(ois, p.OpenInterest)
		}
	}

	if z, ok := calculate.ZScore(volumes, current.Volume); ok {
		zs["volume"] = z
	}
	if z, ok := calculate.ZScore(ois, current.OpenInterest); ok && current.OpenInterest > 0 {
		zs["open_interest"] = z
	}
	return zs
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
