package performance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/timeseries"
	"github.com/aristath/perform/pkg/formulas"
)

// ReturnSeries is a return series (decimals: 3% is 0.03) together with
// the named benchmarks and risk-free sources it is measured against.
//
// Registries are append-only: entries are stored full-range and every
// computation clones then clips its own copy, so the stored series stay
// reusable across calls. Callers are expected to configure benchmarks
// first and query metrics afterwards; registry mutation is not
// synchronized against concurrent reads.
type ReturnSeries struct {
	series *timeseries.Series

	benchmarks     map[string]*timeseries.Series
	benchmarkOrder []string
	riskFree       map[string]*timeseries.Series

	log zerolog.Logger
}

// NewReturnSeries wraps a validated time series for metric computation.
func NewReturnSeries(series *timeseries.Series, log zerolog.Logger) *ReturnSeries {
	return &ReturnSeries{
		series:     series,
		benchmarks: make(map[string]*timeseries.Series),
		riskFree:   make(map[string]*timeseries.Series),
		log:        log.With().Str("component", "performance").Str("series", series.Name()).Logger(),
	}
}

// Series returns the underlying time series.
func (r *ReturnSeries) Series() *timeseries.Series { return r.series }

// AddBenchmark registers a benchmark under name, defaulting to the
// benchmark's own column name. Registration order is the output order
// of every metric's benchmark rows. Re-registering a name replaces the
// stored series but keeps its original position.
func (r *ReturnSeries) AddBenchmark(benchmark *timeseries.Series, name string) {
	if name == "" {
		name = benchmark.Name()
	}

	if _, exists := r.benchmarks[name]; !exists {
		r.benchmarkOrder = append(r.benchmarkOrder, name)
	}
	r.benchmarks[name] = benchmark

	r.log.Info().Str("benchmark", name).Msg("Added benchmark")
}

// AddRiskFree registers a risk-free return series under key, for use by
// the Sharpe ratio. The key defaults to the series' own name.
func (r *ReturnSeries) AddRiskFree(series *timeseries.Series, key string) {
	if key == "" {
		key = series.Name()
	}
	r.riskFree[key] = series

	r.log.Info().Str("risk_free", key).Msg("Added risk-free source")
}

// BenchmarkNames returns registered benchmark names in insertion order.
func (r *ReturnSeries) BenchmarkNames() []string {
	out := make([]string, len(r.benchmarkOrder))
	copy(out, r.benchmarkOrder)
	return out
}

// normalizeDateRange clones a stored series and clips the clone to this
// series' [start, end] window. Clipping before any resample matters: a
// resample first could fold out-of-range source points into a boundary
// bucket.
func (r *ReturnSeries) normalizeDateRange(series *timeseries.Series) (*timeseries.Series, error) {
	clone := series.Clone()
	start, end := r.series.Start(), r.series.End()
	if err := clone.SetDateRange(&start, &end); err != nil {
		return nil, fmt.Errorf("failed to align to [%s, %s]: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}
	return clone, nil
}

// ToPeriod converts the return series to a coarser frequency, reducing
// each calendar bucket with the chosen compounding method.
func (r *ReturnSeries) ToPeriod(freq timeseries.Frequency, method formulas.CompoundMethod) (*timeseries.Series, error) {
	return toPeriod(r.series, freq, method)
}

// ToWeek converts the return series to weekly frequency.
func (r *ReturnSeries) ToWeek() (*timeseries.Series, error) {
	return r.ToPeriod(timeseries.Weekly, formulas.Geometric)
}

// ToMonth converts the return series to monthly frequency.
func (r *ReturnSeries) ToMonth() (*timeseries.Series, error) {
	return r.ToPeriod(timeseries.Monthly, formulas.Geometric)
}

// ToQuarter converts the return series to quarterly frequency.
func (r *ReturnSeries) ToQuarter() (*timeseries.Series, error) {
	return r.ToPeriod(timeseries.Quarterly, formulas.Geometric)
}

// ToYear converts the return series to annual frequency.
func (r *ReturnSeries) ToYear() (*timeseries.Series, error) {
	return r.ToPeriod(timeseries.Yearly, formulas.Geometric)
}

func toPeriod(s *timeseries.Series, freq timeseries.Frequency, method formulas.CompoundMethod) (*timeseries.Series, error) {
	compound, err := formulas.Compounder(method)
	if err != nil {
		return nil, err
	}
	return timeseries.Resample(s, freq, timeseries.ReduceFunc(compound))
}
