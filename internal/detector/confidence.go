package detector

import (
	"crypto-manipulation-monitor/internal/calculate"
	"crypto-manipulation-monitor/models"
)

// divergenceReference normalizes divergence strength: a combined 2% move
// counts as a full-strength divergence
const divergenceReference = 0.02

// confidenceScore folds the four sub-signals into a weighted score in [0, 1].
// Every sub-score is a non-decreasing function of its driving magnitude, so a
// larger excursion can never lower the total.
func (d *Detector) confidenceScore(m models.ManipulationMetrics, thr priceThresholds) float64 {
	w := d.cfg.Weights

	var oiScore float64
	if abs(m.OIChange15mPct) > d.cfg.OIChange15mThreshold {
		oiScore += 0.5
	}
	if abs(m.OIChange1hPct) > d.cfg.OIChange1hThreshold {
		oiScore += 0.5
	}

	var volumeScore float64
	if t := d.cfg.VolumeSpikeThreshold; m.VolumeSpikeRatio > t && t > 0 {
		volumeScore = calculate.Clamp((m.VolumeSpikeRatio-t)/t, 0, 1)
	}

	var priceScore float64
	if abs(m.PriceChange15mPct) > thr.change15m {
		priceScore += 0.5
	}
	if abs(m.PriceChange5mPct) > thr.change5m {
		priceScore += 0.5
	}

	var divergenceScore float64
	if m.DivergenceDetected {
		divergenceScore = calculate.Clamp(m.DivergenceStrength/divergenceReference, 0, 1)
	}

	total := oiScore*w.OIChange +
		volumeScore*w.VolumeSpike +
		priceScore*w.PriceMovement +
		divergenceScore*w.Divergence

	return calculate.Clamp(total, 0, 1)
}
