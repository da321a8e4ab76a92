package formulas

import (
	"fmt"
	"math"
)

// CompoundMethod selects how a sequence of periodic returns is collapsed
// into a single return over the combined period.
type CompoundMethod string

const (
	// Arithmetic compounding: r1 + r2 + ... + rn
	Arithmetic CompoundMethod = "arithmetic"
	// Geometric compounding: (1+r1)*(1+r2)*...*(1+rn) - 1
	Geometric CompoundMethod = "geometric"
	// Continuous compounding: exp(r1+r2+...+rn) - 1
	Continuous CompoundMethod = "continuous"
)

// CompoundFunc reduces an ordered sequence of decimal returns
// (3% expressed as 0.03) to one total return.
type CompoundFunc func(returns []float64) float64

var compoundFuncs = map[CompoundMethod]CompoundFunc{
	Arithmetic: CompoundArithmetic,
	Geometric:  CompoundGeometric,
	Continuous: CompoundContinuous,
}

// Compounder resolves a compounding method by its string key.
// Unknown keys are rejected here, at the boundary, so callers validate
// once instead of per bucket.
func Compounder(method CompoundMethod) (CompoundFunc, error) {
	fn, ok := compoundFuncs[method]
	if !ok {
		return nil, fmt.Errorf("unknown compound method: %q (want arithmetic, geometric or continuous)", method)
	}
	return fn, nil
}

// CompoundGeometric performs geometric compounding: (1+r1)*(1+r2)*...*(1+rn) - 1
func CompoundGeometric(returns []float64) float64 {
	product := 1.0
	for _, r := range returns {
		product *= 1 + r
	}
	return product - 1
}

// CompoundArithmetic performs arithmetic compounding: r1 + r2 + ... + rn
func CompoundArithmetic(returns []float64) float64 {
	var sum float64
	for _, r := range returns {
		sum += r
	}
	return sum
}

// CompoundContinuous performs continuous compounding: exp(r1+...+rn) - 1
func CompoundContinuous(returns []float64) float64 {
	return math.Exp(CompoundArithmetic(returns)) - 1
}

// DaysPerYear converts elapsed calendar days to years. 365.25 absorbs
// leap years without consulting the calendar.
const DaysPerYear = 365.25

// Annualize converts a total return over `years` into an annual rate,
// using the same method the total return was compounded with.
//
// Geometric:  (1+r)^(1/years) - 1
// Arithmetic: r / years
// Continuous: ln(1+r) / years
func Annualize(totalReturn float64, years float64, method CompoundMethod) (float64, error) {
	if years <= 0 {
		return 0, fmt.Errorf("cannot annualize over a zero-length period")
	}

	switch method {
	case Geometric:
		return math.Pow(1+totalReturn, 1/years) - 1, nil
	case Arithmetic:
		return totalReturn / years, nil
	case Continuous:
		return math.Log(1+totalReturn) / years, nil
	default:
		return 0, fmt.Errorf("unknown compound method: %q (want arithmetic, geometric or continuous)", method)
	}
}
