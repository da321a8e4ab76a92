package formulas

import (
	"math"
	"testing"
)

func TestCompounder(t *testing.T) {
	returns := []float64{0.05, -0.02, 0.03}

	tests := []struct {
		name      string
		method    CompoundMethod
		expected  float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "geometric",
			method:    Geometric,
			expected:  0.05987, // 1.05 * 0.98 * 1.03 - 1
			tolerance: 0.0001,
		},
		{
			name:      "arithmetic",
			method:    Arithmetic,
			expected:  0.06,
			tolerance: 0.000001,
		},
		{
			name:      "continuous",
			method:    Continuous,
			expected:  0.061837, // exp(0.06) - 1
			tolerance: 0.0001,
		},
		{
			name:    "unknown method",
			method:  CompoundMethod("quadratic"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Compounder(tt.method)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Compounder(%q) expected error, got nil", tt.method)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compounder(%q) unexpected error: %v", tt.method, err)
			}

			result := fn(returns)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("compound(%q) = %v, want %v (±%v)", tt.method, result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestCompoundEdgeCases(t *testing.T) {
	// A single return compounds to itself under every method except
	// continuous, which maps through exp.
	single := []float64{0.05}

	if got := CompoundGeometric(single); math.Abs(got-0.05) > 1e-12 {
		t.Errorf("CompoundGeometric([0.05]) = %v, want 0.05", got)
	}
	if got := CompoundArithmetic(single); math.Abs(got-0.05) > 1e-12 {
		t.Errorf("CompoundArithmetic([0.05]) = %v, want 0.05", got)
	}
	if got := CompoundContinuous(single); math.Abs(got-(math.Exp(0.05)-1)) > 1e-12 {
		t.Errorf("CompoundContinuous([0.05]) = %v, want %v", got, math.Exp(0.05)-1)
	}

	// Total loss floors geometric compounding at -1
	if got := CompoundGeometric([]float64{-1.0, 0.10}); math.Abs(got-(-1.0)) > 1e-12 {
		t.Errorf("CompoundGeometric total loss = %v, want -1", got)
	}
}

func TestAnnualize(t *testing.T) {
	tests := []struct {
		name      string
		total     float64
		years     float64
		method    CompoundMethod
		expected  float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "geometric one year is identity",
			total:     0.08,
			years:     1,
			method:    Geometric,
			expected:  0.08,
			tolerance: 1e-12,
		},
		{
			name:      "geometric two years",
			total:     0.21,             // (1.1)^2 - 1
			years:     2,
			method:    Geometric,
			expected:  0.10,
			tolerance: 1e-9,
		},
		{
			name:      "arithmetic half year doubles",
			total:     0.03,
			years:     0.5,
			method:    Arithmetic,
			expected:  0.06,
			tolerance: 1e-12,
		},
		{
			name:      "continuous one year",
			total:     math.Exp(0.05) - 1,
			years:     1,
			method:    Continuous,
			expected:  0.05,
			tolerance: 1e-9,
		},
		{
			name:    "zero years",
			total:   0.05,
			years:   0,
			method:  Geometric,
			wantErr: true,
		},
		{
			name:    "unknown method",
			total:   0.05,
			years:   1,
			method:  CompoundMethod("simple"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Annualize(tt.total, tt.years, tt.method)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Annualize() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Annualize() unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("Annualize() = %v, want %v (±%v)", result, tt.expected, tt.tolerance)
			}
		})
	}
}
