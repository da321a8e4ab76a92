package formulas

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StdDevMethod selects the degrees-of-freedom convention for standard
// deviation.
type StdDevMethod string

const (
	// SampleStdDev divides by n-1 (ddof=1)
	SampleStdDev StdDevMethod = "sample"
	// PopulationStdDev divides by n (ddof=0)
	PopulationStdDev StdDevMethod = "population"
)

// CorrMethod selects the pairwise correlation statistic.
type CorrMethod string

const (
	Pearson  CorrMethod = "pearson"
	Kendall  CorrMethod = "kendall"
	Spearman CorrMethod = "spearman"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of data under the given
// degrees-of-freedom convention.
func StdDev(data []float64, method StdDevMethod) (float64, error) {
	switch method {
	case SampleStdDev, PopulationStdDev:
	default:
		return 0, fmt.Errorf("unknown standard deviation method: %q (want sample or population)", method)
	}

	if len(data) == 0 {
		return 0, nil
	}
	if method == PopulationStdDev {
		return stat.PopStdDev(data, nil), nil
	}
	return stat.StdDev(data, nil), nil
}

// Correlation calculates the pairwise correlation between two equal-length
// datasets using the given method.
func Correlation(x, y []float64, method CorrMethod) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("correlation inputs have mismatched lengths: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("correlation needs at least two paired observations, got %d", len(x))
	}

	switch method {
	case Pearson:
		return stat.Correlation(x, y, nil), nil
	case Kendall:
		return stat.Kendall(x, y, nil), nil
	case Spearman:
		return stat.Correlation(ranks(x), ranks(y), nil), nil
	default:
		return 0, fmt.Errorf("unknown correlation method: %q (want pearson, kendall or spearman)", method)
	}
}

// ranks returns the 1-based ranks of data, averaging ties, which turns a
// Pearson coefficient on the ranks into Spearman's rho.
func ranks(data []float64) []float64 {
	idx := make([]int, len(data))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	out := make([]float64, len(data))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && data[idx[j+1]] == data[idx[i]] {
			j++
		}
		// average rank across the tie run [i, j]
		rank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = rank
		}
		i = j + 1
	}
	return out
}
