package formulas

import (
	"math"
	"testing"
)

func TestStdDev(t *testing.T) {
	data := []float64{0.01, -0.01, 0.02, -0.02}

	tests := []struct {
		name      string
		data      []float64
		method    StdDevMethod
		expected  float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "sample ddof=1",
			data:      data,
			method:    SampleStdDev,
			expected:  0.018257, // sqrt(sum(sq)/3)
			tolerance: 0.0001,
		},
		{
			name:      "population ddof=0",
			data:      data,
			method:    PopulationStdDev,
			expected:  0.015811, // sqrt(sum(sq)/4)
			tolerance: 0.0001,
		},
		{
			name:      "empty data",
			data:      []float64{},
			method:    SampleStdDev,
			expected:  0,
			tolerance: 0,
		},
		{
			name:    "unknown method",
			data:    data,
			method:  StdDevMethod("bayesian"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := StdDev(tt.data, tt.method)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("StdDev() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("StdDev() unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("StdDev(%q) = %v, want %v (±%v)", tt.method, result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestCorrelation(t *testing.T) {
	x := []float64{0.01, 0.02, -0.01, 0.03, 0.00}
	monotone := []float64{0.1, 0.2, -0.1, 0.3, 0.0} // rank-identical to x

	tests := []struct {
		name      string
		x, y      []float64
		method    CorrMethod
		expected  float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "pearson identical series",
			x:         x,
			y:         x,
			method:    Pearson,
			expected:  1.0,
			tolerance: 1e-9,
		},
		{
			name:      "pearson inverted series",
			x:         x,
			y:         negate(x),
			method:    Pearson,
			expected:  -1.0,
			tolerance: 1e-9,
		},
		{
			name:      "spearman monotone transform",
			x:         x,
			y:         monotone,
			method:    Spearman,
			expected:  1.0,
			tolerance: 1e-9,
		},
		{
			name:      "kendall identical series",
			x:         x,
			y:         x,
			method:    Kendall,
			expected:  1.0,
			tolerance: 1e-9,
		},
		{
			name:    "mismatched lengths",
			x:       x,
			y:       x[:3],
			method:  Pearson,
			wantErr: true,
		},
		{
			name:    "too few observations",
			x:       []float64{0.01},
			y:       []float64{0.02},
			method:  Pearson,
			wantErr: true,
		},
		{
			name:    "unknown method",
			x:       x,
			y:       x,
			method:  CorrMethod("cosine"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Correlation(tt.x, tt.y, tt.method)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Correlation() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Correlation() unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("Correlation(%q) = %v, want %v (±%v)", tt.method, result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestRanksAveragesTies(t *testing.T) {
	got := ranks([]float64{0.02, 0.01, 0.02, 0.03})
	want := []float64{2.5, 1, 2.5, 4}

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("ranks()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func negate(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = -v
	}
	return out
}
