package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crypto-manipulation-monitor/models"
)

// Analyzer is the call contract shared with the detector
type Analyzer interface {
	Analyze(symbol string, data models.MarketData) *models.ManipulationAlert
}

// cachedResult wraps an analysis outcome so a cached "no alert" is
// distinguishable from a cache miss
type cachedResult struct {
	Alert *models.ManipulationAlert `json:"alert"`
}

// CachingAnalyzer wraps an inner analyzer with a short-TTL result cache.
// Repeated analyses of a symbol within the TTL are served from the cache
// without touching the inner detector. Cache failures degrade to a direct
// inner call; caching is an optimization, never a correctness dependency.
type CachingAnalyzer struct {
	inner  Analyzer
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachingAnalyzer composes the wrapper at construction time
func NewCachingAnalyzer(inner Analyzer, store Store, ttl time.Duration, logger zerolog.Logger) *CachingAnalyzer {
	return &CachingAnalyzer{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "caching_analyzer").Logger(),
	}
}

// Analyze serves a cached result when one is fresh, otherwise delegates to
// the inner analyzer and caches the outcome
func (c *CachingAnalyzer) Analyze(symbol string, data models.MarketData) *models.ManipulationAlert {
	ctx := context.Background()
	key := fmt.Sprintf("analysis:%s", symbol)

	var cached cachedResult
	err := c.store.Get(ctx, key, &cached)
	if err == nil {
		return cached.Alert
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("cache read failed, analyzing directly")
	}

	alert := c.inner.Analyze(symbol, data)

	if err := c.store.Set(ctx, key, cachedResult{Alert: alert}, c.ttl); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("cache write failed")
	}
	return alert
}
