// Package detector implements the manipulation detection engine: a stateful
// per-symbol time-series accumulator plus a four-signal scoring pipeline
// (open-interest change, volume spike, price movement, OI/price divergence)
// that emits confidence-scored alerts under a per-symbol cooldown.
package detector

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crypto-manipulation-monitor/config"
	"crypto-manipulation-monitor/models"
)

// Named lookback windows used when slicing a symbol's rolling history
const (
	window5m  = 5 * time.Minute
	window15m = 15 * time.Minute
	window1h  = time.Hour

	// retention is the rolling-window horizon; older points are pruned
	retention = 2 * time.Hour

	// maxHistoryPerSymbol caps the in-memory alert history per symbol;
	// the long-term archive lives in external storage
	maxHistoryPerSymbol = 200
)

// Detector analyzes per-symbol market-data snapshots for possible
// manipulation patterns.
//
// Calls for distinct symbols may run concurrently; the internal mutex keeps
// the maps consistent. Calls for the same symbol must be serialized by the
// caller — two simultaneous analyses of one symbol could both pass the
// cooldown check and emit twice.
type Detector struct {
	cfg    config.DetectionConfig
	logger zerolog.Logger

	mu         sync.Mutex
	historical map[string][]models.HistoricalPoint
	lastAlerts map[string]int64 // symbol -> last alert Unix time
	history    map[string][]models.ManipulationAlert
	stats      models.DetectorStats

	// now is swappable in tests
	now func() time.Time
}

// New creates a detector with the given detection configuration
func New(cfg config.DetectionConfig, logger zerolog.Logger) *Detector {
	return &Detector{
		cfg:        cfg,
		logger:     logger.With().Str("component", "manipulation_detector").Logger(),
		historical: make(map[string][]models.HistoricalPoint),
		lastAlerts: make(map[string]int64),
		history:    make(map[string][]models.ManipulationAlert),
		now:        time.Now,
	}
}

// Analyze ingests one market-data snapshot for symbol and returns an alert
// when the weighted confidence score crosses the alert threshold, nil
// otherwise. Malformed or sparse input yields nil, never an error: the
// polling loop must survive any single symbol's bad cycle.
func (d *Detector) Analyze(symbol string, data models.MarketData) (alert *models.ManipulationAlert) {
	if !d.cfg.Enabled {
		return nil
	}

	// Numeric edge cases are prevented by guards below; this net only covers
	// genuinely unexpected faults so one symbol cannot kill the polling loop.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("symbol", symbol).Interface("panic", r).
				Msg("analysis panicked, treating as no alert")
			alert = nil
		}
	}()

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Cooldown gate comes before the history update; a symbol inside its
	// cooldown window contributes nothing this cycle.
	if last, ok := d.lastAlerts[symbol]; ok {
		if now.Unix()-last < int64(d.cfg.Cooldown/time.Second) {
			return nil
		}
	}

	if data.Ticker == nil || data.Ticker.Last == 0 {
		d.logger.Debug().Str("symbol", symbol).Msg("snapshot has no usable ticker, skipping")
		return nil
	}

	d.appendPoint(symbol, data, now)

	points := d.historical[symbol]
	if len(points) < d.cfg.MinDataPoints {
		return nil
	}

	metrics := d.computeMetrics(points, now)
	thr := d.priceThresholds(points)
	score := d.confidenceScore(metrics, thr)

	d.stats.TotalAnalyses++
	n := float64(d.stats.TotalAnalyses)
	d.stats.AverageConfidence += (score - d.stats.AverageConfidence) / n

	if score < d.cfg.AlertConfidenceThreshold {
		return nil
	}

	a := d.buildAlert(symbol, metrics, thr, score, now)
	d.lastAlerts[symbol] = now.Unix()
	d.stats.AlertsGenerated++
	if score >= 0.8 {
		d.stats.ManipulationDetected++
	}
	d.recordAlert(symbol, a)

	d.logger.Warn().
		Str("symbol", symbol).
		Str("type", a.ManipulationType).
		Str("severity", a.Severity).
		Float64("confidence", a.ConfidenceScore).
		Msg(a.Description)

	out := a
	out.Metrics = a.Metrics.Clone()
	return &out
}

// appendPoint adds the snapshot to the symbol's rolling window and prunes
// points older than the retention horizon
func (d *Detector) appendPoint(symbol string, data models.MarketData, now time.Time) {
	point := models.HistoricalPoint{
		Timestamp: now.Unix(),
		Price:     data.Ticker.Last,
		Volume:    data.Ticker.BaseVolume,
	}
	if data.Funding != nil {
		point.OpenInterest = data.Funding.OpenInterest
	}

	points := append(d.historical[symbol], point)

	cutoff := now.Add(-retention).Unix()
	start := 0
	for start < len(points) && points[start].Timestamp < cutoff {
		start++
	}
	d.historical[symbol] = points[start:]
}

// recordAlert appends a snapshot copy to the per-symbol history, evicting the
// oldest entries beyond the cap
func (d *Detector) recordAlert(symbol string, a models.ManipulationAlert) {
	a.Metrics = a.Metrics.Clone()
	h := append(d.history[symbol], a)
	if len(h) > maxHistoryPerSymbol {
		h = h[len(h)-maxHistoryPerSymbol:]
	}
	d.history[symbol] = h
}

// ClearHistoricalData drops the rolling-window data for one symbol, or for
// every symbol when symbol is empty. Persisted alert history is unaffected.
func (d *Detector) ClearHistoricalData(symbol string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if symbol == "" {
		d.historical = make(map[string][]models.HistoricalPoint)
		return
	}
	delete(d.historical, symbol)
}
