// Package monitor drives the polling cycle: fetch a snapshot per symbol,
// run it through the analyzer, and fan emitted alerts out to the sinks.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crypto-manipulation-monitor/models"
)

// Analyzer is the detection call contract
type Analyzer interface {
	Analyze(symbol string, data models.MarketData) *models.ManipulationAlert
}

// Source produces market-data snapshots
type Source interface {
	Snapshot(ctx context.Context, symbol string) (models.MarketData, error)
}

// Sink receives emitted alerts (Telegram, Postgres archive, ...)
type Sink interface {
	Publish(ctx context.Context, a *models.ManipulationAlert) error
}

// Monitor polls a fixed symbol set on an interval. Symbols are analyzed
// sequentially within a cycle, which satisfies the analyzer's per-symbol
// serialization precondition.
type Monitor struct {
	source   Source
	analyzer Analyzer
	sinks    []Sink
	symbols  []string
	interval time.Duration
	logger   zerolog.Logger
}

// New assembles a monitor
func New(source Source, analyzer Analyzer, sinks []Sink, symbols []string, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		source:   source,
		analyzer: analyzer,
		sinks:    sinks,
		symbols:  symbols,
		interval: interval,
		logger:   logger.With().Str("component", "monitor").Logger(),
	}
}

// Run polls until the context is canceled. The first cycle starts
// immediately.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// cycle analyzes every symbol once. A failed symbol never aborts the cycle.
func (m *Monitor) cycle(ctx context.Context) {
	for _, symbol := range m.symbols {
		if ctx.Err() != nil {
			return
		}

		data, err := m.source.Snapshot(ctx, symbol)
		if err != nil {
			m.logger.Warn().Err(err).Str("symbol", symbol).Msg("snapshot failed, skipping symbol this cycle")
			continue
		}

		alert := m.analyzer.Analyze(symbol, data)
		if alert == nil {
			continue
		}

		for _, sink := range m.sinks {
			if err := sink.Publish(ctx, alert); err != nil {
				m.logger.Error().Err(err).Str("symbol", symbol).Msg("alert delivery failed")
			}
		}
	}
}
