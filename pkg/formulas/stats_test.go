package formulas

import (
	"math"
	"testing"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected []float64
	}{
		{
			name:     "empty prices",
			prices:   []float64{},
			expected: []float64{},
		},
		{
			name:     "single price",
			prices:   []float64{100},
			expected: []float64{},
		},
		{
			name:     "steady gain",
			prices:   []float64{100, 110, 121},
			expected: []float64{0.1, 0.1},
		},
		{
			name:     "gain then loss",
			prices:   []float64{100, 120, 90},
			expected: []float64{0.2, -0.25},
		},
		{
			name:     "zero prior price skipped",
			prices:   []float64{0, 100, 110},
			expected: []float64{0, 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d returns, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if math.Abs(got[i]-tt.expected[i]) > 1e-9 {
					t.Errorf("return[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	tests := []struct {
		name      string
		returns   []float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "empty returns",
			returns:   []float64{},
			expected:  0,
			tolerance: 0,
		},
		{
			name:      "constant returns have zero volatility",
			returns:   []float64{0.01, 0.01, 0.01, 0.01},
			expected:  0,
			tolerance: 1e-9,
		},
		{
			name:      "alternating returns",
			returns:   []float64{0.01, -0.01, 0.01, -0.01},
			expected:  math.Sqrt(0.0004/3) * math.Sqrt(365),
			tolerance: 1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizedVolatility(tt.returns)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("AnnualizedVolatility() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFiniteMean(t *testing.T) {
	got, ok := FiniteMean([]float64{1, math.NaN(), 3, math.Inf(1)})
	if !ok {
		t.Fatal("expected a finite mean")
	}
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("FiniteMean() = %v, want 2", got)
	}

	if _, ok := FiniteMean([]float64{math.NaN(), math.Inf(-1)}); ok {
		t.Error("expected no finite mean for all-non-finite input")
	}
}
