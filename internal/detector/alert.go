package detector

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crypto-manipulation-monitor/models"
)

// outlierZScore marks a z-score large enough to call out as an outlier
const outlierZScore = 3.0

// buildAlert assembles the alert emitted for a qualifying confidence score
func (d *Detector) buildAlert(symbol string, m models.ManipulationMetrics, thr priceThresholds, score float64, now time.Time) models.ManipulationAlert {
	return models.ManipulationAlert{
		ID:               uuid.NewString(),
		Symbol:           symbol,
		Timestamp:        now.Unix(),
		ManipulationType: d.manipulationType(m, thr),
		ConfidenceScore:  score,
		Metrics:          m,
		Description:      d.describe(m, thr),
		Severity:         d.severity(score),
	}
}

// manipulationType labels each sub-signal that individually exceeded its raw
// threshold, independent of the score weighting. UNKNOWN covers a qualifying
// score with no single signal over its line.
func (d *Detector) manipulationType(m models.ManipulationMetrics, thr priceThresholds) string {
	var types []string

	if abs(m.OIChange15mPct) > d.cfg.OIChange15mThreshold ||
		abs(m.OIChange1hPct) > d.cfg.OIChange1hThreshold ||
		abs(m.OIChange15mAbs) >= d.cfg.OIAbsoluteThreshold {
		types = append(types, models.TypeOISpike)
	}
	if m.VolumeSpikeRatio > d.cfg.VolumeSpikeThreshold {
		types = append(types, models.TypeVolumeSpike)
	}
	if abs(m.PriceChange15mPct) > thr.change15m || abs(m.PriceChange5mPct) > thr.change5m {
		types = append(types, models.TypePriceMove)
	}
	if m.DivergenceDetected {
		types = append(types, models.TypeDivergence)
	}

	if len(types) == 0 {
		return models.TypeUnknown
	}
	return strings.Join(types, models.TypeJoinSep)
}

// severity classifies the confidence score into the four alert levels
func (d *Detector) severity(score float64) string {
	switch {
	case score >= d.cfg.CriticalConfidenceThreshold:
		return models.SeverityCritical
	case score >= d.cfg.HighConfidenceThreshold:
		return models.SeverityHigh
	case score >= 0.75:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// describe builds the human-readable summary of the contributing signals
func (d *Detector) describe(m models.ManipulationMetrics, thr priceThresholds) string {
	var parts []string

	if abs(m.OIChange15mPct) > d.cfg.OIChange15mThreshold ||
		abs(m.OIChange15mAbs) >= d.cfg.OIAbsoluteThreshold {
		parts = append(parts, fmt.Sprintf("OI 15m change %+.2f%%", m.OIChange15mPct*100))
	}
	if abs(m.OIChange1hPct) > d.cfg.OIChange1hThreshold {
		parts = append(parts, fmt.Sprintf("OI 1h change %+.2f%%", m.OIChange1hPct*100))
	}
	if m.VolumeSpikeRatio > d.cfg.VolumeSpikeThreshold {
		parts = append(parts, fmt.Sprintf("volume %.1fx the 15m average", m.VolumeSpikeRatio))
	}
	if abs(m.PriceChange15mPct) > thr.change15m {
		parts = append(parts, fmt.Sprintf("price 15m change %+.2f%%", m.PriceChange15mPct*100))
	}
	if abs(m.PriceChange5mPct) > thr.change5m {
		parts = append(parts, fmt.Sprintf("price 5m change %+.2f%%", m.PriceChange5mPct*100))
	}
	if m.DivergenceDetected {
		parts = append(parts, fmt.Sprintf("OI/price divergence (strength %.2f%%)", m.DivergenceStrength*100))
	}
	if len(parts) == 0 {
		parts = append(parts, "combined signals above confidence threshold")
	}

	// Summarize the single largest-magnitude z-score, if any exist at all.
	// The map may be empty for flat or sparse windows; never reduce over it
	// without checking.
	if len(m.ZScores) > 0 {
		var topName string
		var topZ float64
		for name, z := range m.ZScores {
			if topName == "" || abs(z) > abs(topZ) {
				topName, topZ = name, z
			}
		}
		note := fmt.Sprintf("%s z-score %.1f", topName, topZ)
		if abs(topZ) > outlierZScore {
			note += " (outlier)"
		}
		parts = append(parts, note)
	}

	return strings.Join(parts, "; ")
}
