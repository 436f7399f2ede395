package detector

import (
	"strings"
	"testing"
	"time"

	"crypto-manipulation-monitor/models"
)

func TestSeverity(t *testing.T) {
	d, _ := newTestDetector(testDetectionConfig())

	tests := []struct {
		score float64
		want  string
	}{
		{0.70, models.SeverityLow},
		{0.74, models.SeverityLow},
		{0.75, models.SeverityMedium},
		{0.84, models.SeverityMedium},
		{0.85, models.SeverityHigh},
		{0.94, models.SeverityHigh},
		{0.95, models.SeverityCritical},
		{1.00, models.SeverityCritical},
	}

	for _, tt := range tests {
		if got := d.severity(tt.score); got != tt.want {
			t.Errorf("severity(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestManipulationType(t *testing.T) {
	d, _ := newTestDetector(testDetectionConfig())
	thr := priceThresholds{change15m: 0.01, change5m: 0.005}

	tests := []struct {
		name    string
		metrics models.ManipulationMetrics
		want    string
	}{
		{
			name:    "no signal over its line",
			metrics: models.ManipulationMetrics{},
			want:    models.TypeUnknown,
		},
		{
			name:    "OI percentage spike",
			metrics: models.ManipulationMetrics{OIChange15mPct: 0.04},
			want:    models.TypeOISpike,
		},
		{
			name:    "OI absolute spike below percentage line",
			metrics: models.ManipulationMetrics{OIChange15mPct: 0.001, OIChange15mAbs: 2_000_000},
			want:    models.TypeOISpike,
		},
		{
			name:    "volume spike",
			metrics: models.ManipulationMetrics{VolumeSpikeRatio: 3.5},
			want:    models.TypeVolumeSpike,
		},
		{
			name:    "price movement",
			metrics: models.ManipulationMetrics{PriceChange15mPct: -0.02},
			want:    models.TypePriceMove,
		},
		{
			name: "compound label",
			metrics: models.ManipulationMetrics{
				OIChange15mPct:     0.04,
				VolumeSpikeRatio:   3.5,
				DivergenceDetected: true,
			},
			want: "OI_SPIKE+VOLUME_SPIKE+OI_PRICE_DIVERGENCE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.manipulationType(tt.metrics, thr); got != tt.want {
				t.Errorf("manipulationType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeZScoreGuard(t *testing.T) {
	d, _ := newTestDetector(testDetectionConfig())
	thr := priceThresholds{change15m: 0.01, change5m: 0.005}

	tests := []struct {
		name        string
		zscores     map[string]float64
		wantZScore  bool
		wantOutlier bool
	}{
		{"nil map", nil, false, false},
		{"empty map", map[string]float64{}, false, false},
		{"modest z-score", map[string]float64{"volume": 1.2}, true, false},
		{"outlier z-score", map[string]float64{"volume": 1.2, "open_interest": -4.1}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := models.ManipulationMetrics{OIChange15mPct: 0.04, ZScores: tt.zscores}
			got := d.describe(m, thr)

			if strings.Contains(got, "z-score") != tt.wantZScore {
				t.Errorf("describe() = %q, z-score presence want %v", got, tt.wantZScore)
			}
			if strings.Contains(got, "outlier") != tt.wantOutlier {
				t.Errorf("describe() = %q, outlier presence want %v", got, tt.wantOutlier)
			}
		})
	}
}

func TestDescribePicksLargestMagnitude(t *testing.T) {
	d, _ := newTestDetector(testDetectionConfig())
	thr := priceThresholds{change15m: 0.01, change5m: 0.005}

	m := models.ManipulationMetrics{
		OIChange15mPct: 0.04,
		ZScores:        map[string]float64{"volume": 2.0, "open_interest": -3.5},
	}
	got := d.describe(m, thr)
	if !strings.Contains(got, "open_interest z-score -3.5") {
		t.Errorf("describe() = %q, want the open_interest z-score summarized", got)
	}
}

func TestBuildAlertPopulatesAllFields(t *testing.T) {
	d, _ := newTestDetector(testDetectionConfig())
	thr := priceThresholds{change15m: 0.01, change5m: 0.005}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m := models.ManipulationMetrics{OIChange15mPct: 0.04, CurrentPrice: 65000}
	a := d.buildAlert("BTCUSDT", m, thr, 0.9, now)

	if a.ID == "" {
		t.Error("alert ID is empty")
	}
	if a.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", a.Symbol)
	}
	if a.Timestamp != now.Unix() {
		t.Errorf("timestamp = %d, want %d", a.Timestamp, now.Unix())
	}
	if a.ManipulationType != models.TypeOISpike {
		t.Errorf("type = %q", a.ManipulationType)
	}
	if a.Severity != models.SeverityHigh {
		t.Errorf("severity = %q", a.Severity)
	}
	if a.Description == "" {
		t.Error("description is empty")
	}
	if a.Metrics.CurrentPrice != 65000 {
		t.Error("metrics snapshot missing")
	}
}
