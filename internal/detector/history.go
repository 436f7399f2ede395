package detector

import (
	"sort"
	"time"

	"crypto-manipulation-monitor/models"
)

// GetStats returns a snapshot of the aggregate counters
func (d *Detector) GetStats() models.DetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// GetManipulationHistory returns the persisted alerts for one symbol. The
// returned slice is a copy safe for external consumption.
func (d *Detector) GetManipulationHistory(symbol string) []models.ManipulationAlert {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyAlerts(d.history[symbol])
}

// GetFullHistory returns a copy of the whole symbol-to-alerts mapping
func (d *Detector) GetFullHistory() map[string][]models.ManipulationAlert {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string][]models.ManipulationAlert, len(d.history))
	for symbol, alerts := range d.history {
		out[symbol] = copyAlerts(alerts)
	}
	return out
}

// GetRecentAlerts returns the persisted alerts at or after since, newest
// first, truncated to limit, reshaped for the external API. Both sides of
// the time comparison use Unix seconds.
func (d *Detector) GetRecentAlerts(since time.Time, limit int) []models.AlertView {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := since.Unix()
	var views []models.AlertView
	for _, alerts := range d.history {
		for _, a := range alerts {
			if a.Timestamp >= cutoff {
				views = append(views, toView(a))
			}
		}
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Timestamp > views[j].Timestamp
	})

	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}

func toView(a models.ManipulationAlert) models.AlertView {
	return models.AlertView{
		ID:            a.ID,
		Timestamp:     a.Timestamp,
		Symbol:        a.Symbol,
		Type:          a.ManipulationType,
		Severity:      a.Severity,
		Confidence:    a.ConfidenceScore,
		Description:   a.Description,
		Metrics:       a.Metrics.Clone(),
		PriceImpact:   a.Metrics.PriceChange15mPct,
		VolumeAnomaly: a.Metrics.VolumeSpikeRatio,
	}
}

func copyAlerts(alerts []models.ManipulationAlert) []models.ManipulationAlert {
	if alerts == nil {
		return nil
	}
	out := make([]models.ManipulationAlert, len(alerts))
	for i, a := range alerts {
		a.Metrics = a.Metrics.Clone()
		out[i] = a
	}
	return out
}
