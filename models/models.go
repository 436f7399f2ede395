package models

// Ticker is the price/volume slice of a market-data snapshot
type Ticker struct {
	Last       float64 `json:"last"`
	BaseVolume float64 `json:"baseVolume"`
}

// Funding holds derivative-specific fields; absent for spot symbols
type Funding struct {
	OpenInterest float64 `json:"openInterest"`
}

// MarketData is one per-symbol snapshot handed to the detector each polling cycle
type MarketData struct {
	Ticker  *Ticker  `json:"ticker"`
	Funding *Funding `json:"funding,omitempty"`
}

// HistoricalPoint is one observed tick inside a symbol's rolling window
type HistoricalPoint struct {
	Timestamp    int64   `json:"timestamp"` // Unix seconds
	Price        float64 `json:"price"`
	Volume       float64 `json:"volume"`
	OpenInterest float64 `json:"open_interest"` // 0 when unavailable
}

// ManipulationMetrics holds the derived metrics computed from a symbol's
// rolling window at analysis time. Recomputed fresh per call, never persisted
// except as a snapshot copy inside an alert.
type ManipulationMetrics struct {
	CurrentPrice  float64 `json:"current_price"`
	CurrentVolume float64 `json:"current_volume"`
	CurrentOI     float64 `json:"current_oi"`

	OIChange15mPct float64 `json:"oi_change_15m_pct"`
	OIChange15mAbs float64 `json:"oi_change_15m_abs"`
	OIChange1hPct  float64 `json:"oi_change_1h_pct"`
	OIChange1hAbs  float64 `json:"oi_change_1h_abs"`

	VolumeSpikeRatio float64 `json:"volume_spike_ratio"`

	PriceChange15mPct float64 `json:"price_change_15m_pct"`
	PriceChange5mPct  float64 `json:"price_change_5m_pct"`

	DivergenceDetected bool    `json:"divergence_detected"`
	DivergenceStrength float64 `json:"divergence_strength"`

	ZScores map[string]float64 `json:"z_scores,omitempty"`
}

// Clone returns a copy of the metrics whose z-score map is independent of the
// receiver, so mutating the live metrics never corrupts a persisted snapshot.
func (m ManipulationMetrics) Clone() ManipulationMetrics {
	out := m
	if m.ZScores != nil {
		out.ZScores = make(map[string]float64, len(m.ZScores))
		for k, v := range m.ZScores {
			out.ZScores[k] = v
		}
	}
	return out
}

// Manipulation type labels, joined with "+" when several signals fire at once
const (
	TypeOISpike     = "OI_SPIKE"
	TypeVolumeSpike = "VOLUME_SPIKE"
	TypePriceMove   = "PRICE_MOVEMENT"
	TypeDivergence  = "OI_PRICE_DIVERGENCE"
	TypeUnknown     = "UNKNOWN"
	TypeJoinSep     = "+"
)

// Alert severity levels
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ManipulationAlert is emitted by the detector when the confidence score
// crosses the alert threshold for a symbol outside its cooldown window
type ManipulationAlert struct {
	ID               string              `json:"id"`
	Symbol           string              `json:"symbol"`
	Timestamp        int64               `json:"timestamp"` // Unix seconds
	ManipulationType string              `json:"manipulation_type"`
	ConfidenceScore  float64             `json:"confidence_score"`
	Metrics          ManipulationMetrics `json:"metrics"`
	Description      string              `json:"description"`
	Severity         string              `json:"severity"`
}

// AlertView is the API-facing shape of a persisted alert, as served to the
// dashboard layer by GetRecentAlerts
type AlertView struct {
	ID            string              `json:"id"`
	Timestamp     int64               `json:"timestamp"`
	Symbol        string              `json:"symbol"`
	Type          string              `json:"type"`
	Severity      string              `json:"severity"`
	Confidence    float64             `json:"confidence"`
	Description   string              `json:"description"`
	Metrics       ManipulationMetrics `json:"metrics"`
	PriceImpact   float64             `json:"price_impact,omitempty"`
	VolumeAnomaly float64             `json:"volume_anomaly,omitempty"`
}

// DetectorStats are the aggregate counters kept across analyses, directly
// serializable for a health/stats endpoint
type DetectorStats struct {
	TotalAnalyses        int     `json:"total_analyses"`
	AlertsGenerated      int     `json:"alerts_generated"`
	ManipulationDetected int     `json:"manipulation_detected"`
	FalsePositives       int     `json:"false_positives"`
	AverageConfidence    float64 `json:"average_confidence"`
}
