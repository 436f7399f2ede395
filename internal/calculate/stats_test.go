package calculate

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{1, 2, 3, 4}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Mean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single value has no spread", []float64{5}, 0},
		{"flat", []float64{3, 3, 3, 3}, 0},
		{"known sample", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.138089935},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StdDev(tt.values); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("StdDev() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZScore(t *testing.T) {
	values := []float64{10, 12, 14, 16, 18}

	z, ok := ZScore(values, 30)
	if !ok {
		t.Fatal("expected a z-score for a spread sample")
	}
	if z <= 0 {
		t.Errorf("z = %v, want positive for a value above the mean", z)
	}

	if _, ok := ZScore([]float64{5}, 10); ok {
		t.Error("single-value sample should not produce a z-score")
	}
	if _, ok := ZScore([]float64{5, 5, 5}, 10); ok {
		t.Error("flat sample should not produce a z-score")
	}
}

func TestReturnsFiltersNonPositivePrices(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   int
	}{
		{"too short", []float64{100}, 0},
		{"clean series", []float64{100, 101, 102}, 2},
		{"zero price dropped as denominator", []float64{100, 0, 102}, 1},
		{"negative price dropped as denominator", []float64{-1, 100, 101}, 1},
		{"all zero", []float64{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Returns(tt.prices); len(got) != tt.want {
				t.Errorf("Returns() produced %d values, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	base := 0.01

	t.Run("too few valid returns falls back to base", func(t *testing.T) {
		if got := AdaptiveThreshold([]float64{0, 0, 100}, base); got != base {
			t.Errorf("AdaptiveThreshold() = %v, want base %v", got, base)
		}
	})

	t.Run("calm series keeps base", func(t *testing.T) {
		if got := AdaptiveThreshold([]float64{100, 100, 100, 100}, base); got != base {
			t.Errorf("AdaptiveThreshold() = %v, want base %v", got, base)
		}
	})

	t.Run("volatile series widens threshold", func(t *testing.T) {
		prices := []float64{100, 110, 95, 112, 90, 115}
		got := AdaptiveThreshold(prices, base)
		if got <= base {
			t.Errorf("AdaptiveThreshold() = %v, want above base %v", got, base)
		}
	})
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-0.5, 0, 1, 0},
		{1.5, 0, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
