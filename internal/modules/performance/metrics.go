package performance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/perform/internal/timeseries"
	"github.com/aristath/perform/pkg/formulas"
)

// Field names used in result rows.
const (
	FieldTotalReturn          = "total return"
	FieldAnnualizedReturn     = "annualized return"
	FieldAnnualizedVolatility = "annualized volatility"
	FieldCorrelation          = "correlation"
	FieldSharpeRatio          = "sharpe ratio"
)

// ErrNoBenchmark is returned by metrics that cannot be computed without
// at least one registered benchmark.
var ErrNoBenchmark = errors.New("correlation needs at least one benchmark")

// Row is one (subject, field, value) entry of a metric result.
type Row struct {
	Name  string  `json:"name"`
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Meta  *Meta   `json:"meta,omitempty"`
}

// Meta enriches a row with how and over which window it was computed.
type Meta struct {
	Freq     string    `json:"freq,omitempty"`
	Method   string    `json:"method,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	RiskFree *float64  `json:"risk_free,omitempty"`
	Total    int       `json:"total,omitempty"`
	Skipped  *int      `json:"skipped,omitempty"`
}

// Skip records a benchmark excluded from one metric call and why. A
// failing benchmark never aborts the computation; it is logged, skipped
// and reported here.
type Skip struct {
	Name   string `json:"name"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the tabular output of a metric: the primary subject's row
// first, then one row per surviving benchmark in registration order.
type Result struct {
	Rows    []Row  `json:"rows"`
	Skipped []Skip `json:"skipped,omitempty"`
}

// TotalReturnOptions configures TotalReturn.
type TotalReturnOptions struct {
	Method            formulas.CompoundMethod
	IncludeBenchmarks bool
	Meta              bool
}

// DefaultTotalReturnOptions mirrors the conventional defaults:
// geometric compounding, benchmarks included.
func DefaultTotalReturnOptions() TotalReturnOptions {
	return TotalReturnOptions{Method: formulas.Geometric, IncludeBenchmarks: true}
}

// TotalReturn compounds the full return sequence into one total return,
// for the primary series and each aligned benchmark.
func (r *ReturnSeries) TotalReturn(opts TotalReturnOptions) (*Result, error) {
	compound, err := formulas.Compounder(opts.Method)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	result.Rows = append(result.Rows, Row{
		Name:  r.series.Name(),
		Field: FieldTotalReturn,
		Value: compound(r.series.Values()),
		Meta: &Meta{
			Method: string(opts.Method),
			Start:  r.series.Start(),
			End:    r.series.End(),
		},
	})

	if opts.IncludeBenchmarks {
		for _, name := range r.benchmarkOrder {
			aligned, err := r.normalizeDateRange(r.benchmarks[name])
			if err != nil {
				r.skip(result, name, FieldTotalReturn, err)
				continue
			}

			result.Rows = append(result.Rows, Row{
				Name:  name,
				Field: FieldTotalReturn,
				Value: compound(aligned.Values()),
				Meta: &Meta{
					Method: string(opts.Method),
					Start:  aligned.Start(),
					End:    aligned.End(),
				},
			})
		}
	}

	if !opts.Meta {
		stripMeta(result)
	}
	return result, nil
}

// AnnualizedReturnOptions configures AnnualizedReturn.
type AnnualizedReturnOptions struct {
	Method            formulas.CompoundMethod
	IncludeBenchmarks bool
	Meta              bool
}

// DefaultAnnualizedReturnOptions returns the conventional defaults.
func DefaultAnnualizedReturnOptions() AnnualizedReturnOptions {
	return AnnualizedReturnOptions{Method: formulas.Geometric, IncludeBenchmarks: true}
}

// AnnualizedReturn converts each subject's total return to an annual
// rate. Years are derived from actual elapsed calendar days (365.25 per
// year), never from a period count, so primary and benchmarks annualize
// consistently even when their aligned windows differ.
func (r *ReturnSeries) AnnualizedReturn(opts AnnualizedReturnOptions) (*Result, error) {
	total, err := r.TotalReturn(TotalReturnOptions{
		Method:            opts.Method,
		IncludeBenchmarks: opts.IncludeBenchmarks,
		Meta:              true,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Skipped: retagSkips(total.Skipped, FieldAnnualizedReturn)}
	for i, row := range total.Rows {
		years := elapsedYears(row.Meta.Start, row.Meta.End)

		annualized, err := formulas.Annualize(row.Value, years, opts.Method)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to annualize %s: %w", row.Name, err)
			}
			r.skip(result, row.Name, FieldAnnualizedReturn, err)
			continue
		}

		row.Field = FieldAnnualizedReturn
		row.Value = annualized
		result.Rows = append(result.Rows, row)
	}

	if !opts.Meta {
		stripMeta(result)
	}
	return result, nil
}

// VolatilityOptions configures AnnualizedVolatility.
type VolatilityOptions struct {
	Freq              timeseries.Frequency
	StdMethod         formulas.StdDevMethod
	CompoundMethod    formulas.CompoundMethod
	IncludeBenchmarks bool
	Meta              bool
}

// DefaultVolatilityOptions returns the conventional defaults: monthly
// resampling, sample standard deviation, geometric compounding.
func DefaultVolatilityOptions() VolatilityOptions {
	return VolatilityOptions{
		Freq:              timeseries.Monthly,
		StdMethod:         formulas.SampleStdDev,
		CompoundMethod:    formulas.Geometric,
		IncludeBenchmarks: true,
	}
}

// AnnualizedVolatility resamples each subject to the requested frequency,
// takes the standard deviation of the resampled returns and scales it by
// sqrt(samples per year). Samples per year come from the subject's own
// elapsed calendar time, not a fixed constant, so irregular sampling
// annualizes correctly.
func (r *ReturnSeries) AnnualizedVolatility(opts VolatilityOptions) (*Result, error) {
	// Validate both method parameters once, up front.
	if _, err := formulas.Compounder(opts.CompoundMethod); err != nil {
		return nil, err
	}
	if _, err := formulas.StdDev(nil, opts.StdMethod); err != nil {
		return nil, err
	}

	result := &Result{}

	vol, err := annualizedVol(r.series, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute annualized volatility: %w", err)
	}
	result.Rows = append(result.Rows, Row{
		Name:  r.series.Name(),
		Field: FieldAnnualizedVolatility,
		Value: vol,
		Meta: &Meta{
			Freq:   string(opts.Freq),
			Method: string(opts.StdMethod),
			Start:  r.series.Start(),
			End:    r.series.End(),
		},
	})

	if opts.IncludeBenchmarks {
		for _, name := range r.benchmarkOrder {
			aligned, err := r.normalizeDateRange(r.benchmarks[name])
			if err != nil {
				r.skip(result, name, FieldAnnualizedVolatility, err)
				continue
			}

			bmVol, err := annualizedVol(aligned, opts)
			if err != nil {
				r.skip(result, name, FieldAnnualizedVolatility, err)
				continue
			}

			result.Rows = append(result.Rows, Row{
				Name:  name,
				Field: FieldAnnualizedVolatility,
				Value: bmVol,
				Meta: &Meta{
					Freq:   string(opts.Freq),
					Method: string(opts.StdMethod),
					Start:  aligned.Start(),
					End:    aligned.End(),
				},
			})
		}
	}

	if !opts.Meta {
		stripMeta(result)
	}
	return result, nil
}

func annualizedVol(s *timeseries.Series, opts VolatilityOptions) (float64, error) {
	resampled, err := toPeriod(s, opts.Freq, opts.CompoundMethod)
	if err != nil {
		return 0, err
	}

	years := elapsedYears(s.Start(), s.End())
	if years <= 0 {
		return 0, fmt.Errorf("cannot annualize over a zero-length period")
	}
	samplesPerYear := float64(resampled.Len()) / years

	sd, err := formulas.StdDev(resampled.Values(), opts.StdMethod)
	if err != nil {
		return 0, err
	}
	return sd * math.Sqrt(samplesPerYear), nil
}

// CorrelationOptions configures Correlation.
type CorrelationOptions struct {
	Freq           timeseries.Frequency
	CorrMethod     formulas.CorrMethod
	CompoundMethod formulas.CompoundMethod
	Meta           bool
}

// DefaultCorrelationOptions returns the conventional defaults: monthly
// resampling, Pearson coefficient, geometric compounding.
func DefaultCorrelationOptions() CorrelationOptions {
	return CorrelationOptions{
		Freq:           timeseries.Monthly,
		CorrMethod:     formulas.Pearson,
		CompoundMethod: formulas.Geometric,
	}
}

// Correlation computes the pairwise correlation between the primary
// series and each benchmark, after aligning the benchmark to the
// primary's window and resampling both to a common frequency. Resampled
// rows present on only one side are dropped from the join; the skipped
// count in meta is how many primary rows found no partner.
func (r *ReturnSeries) Correlation(opts CorrelationOptions) (*Result, error) {
	if len(r.benchmarkOrder) == 0 {
		return nil, ErrNoBenchmark
	}

	primary, err := r.ToPeriod(opts.Freq, opts.CompoundMethod)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, name := range r.benchmarkOrder {
		aligned, err := r.normalizeDateRange(r.benchmarks[name])
		if err != nil {
			r.skip(result, name, FieldCorrelation, err)
			continue
		}

		// Resample strictly after the range clip: the other order would
		// let out-of-range points leak into boundary buckets.
		bm, err := toPeriod(aligned, opts.Freq, opts.CompoundMethod)
		if err != nil {
			r.skip(result, name, FieldCorrelation, err)
			continue
		}

		x, y := innerJoin(primary, bm)
		value, err := formulas.Correlation(x, y, opts.CorrMethod)
		if err != nil {
			r.skip(result, name, FieldCorrelation, err)
			continue
		}

		skipped := primary.Len() - len(x)
		result.Rows = append(result.Rows, Row{
			Name:  name,
			Field: FieldCorrelation,
			Value: value,
			Meta: &Meta{
				Freq:    string(opts.Freq),
				Method:  string(opts.CorrMethod),
				Start:   aligned.Start(),
				End:     aligned.End(),
				Total:   primary.Len(),
				Skipped: &skipped,
			},
		})
	}

	if !opts.Meta {
		stripMeta(result)
	}
	return result, nil
}

// innerJoin pairs values of a and b that share a timestamp, in index order.
func innerJoin(a, b *timeseries.Series) ([]float64, []float64) {
	lookup := make(map[time.Time]float64, b.Len())
	for _, p := range b.Points() {
		lookup[p.Time] = p.Value
	}

	var x, y []float64
	for _, p := range a.Points() {
		if v, ok := lookup[p.Time]; ok {
			x = append(x, p.Value)
			y = append(y, v)
		}
	}
	return x, y
}

// SharpeOptions configures SharpeRatio. RiskFree is either a numeric
// annual rate (float64 or int, used as-is for every subject) or a string
// key into the risk-free registry, resolved per subject over that
// subject's aligned window.
type SharpeOptions struct {
	Freq              timeseries.Frequency
	RiskFree          any
	CompoundMethod    formulas.CompoundMethod
	IncludeBenchmarks bool
	Meta              bool
}

// DefaultSharpeOptions returns the conventional defaults: monthly
// resampling, zero risk-free rate, geometric compounding.
func DefaultSharpeOptions() SharpeOptions {
	return SharpeOptions{
		Freq:              timeseries.Monthly,
		RiskFree:          0.0,
		CompoundMethod:    formulas.Geometric,
		IncludeBenchmarks: true,
	}
}

// SharpeRatio computes (annualized return - risk-free) / annualized
// volatility per subject, row-aligned by subject name.
func (r *ReturnSeries) SharpeRatio(opts SharpeOptions) (*Result, error) {
	riskFree, err := r.riskFreeResolver(opts.RiskFree, opts.CompoundMethod)
	if err != nil {
		return nil, err
	}

	returns, err := r.AnnualizedReturn(AnnualizedReturnOptions{
		Method:            opts.CompoundMethod,
		IncludeBenchmarks: opts.IncludeBenchmarks,
		Meta:              true,
	})
	if err != nil {
		return nil, err
	}

	vols, err := r.AnnualizedVolatility(VolatilityOptions{
		Freq:              opts.Freq,
		StdMethod:         formulas.SampleStdDev,
		CompoundMethod:    opts.CompoundMethod,
		IncludeBenchmarks: opts.IncludeBenchmarks,
		Meta:              true,
	})
	if err != nil {
		return nil, err
	}

	volByName := make(map[string]Row, len(vols.Rows))
	for _, row := range vols.Rows {
		volByName[row.Name] = row
	}

	result := &Result{
		Skipped: append(returns.Skipped, vols.Skipped...),
	}

	for i, row := range returns.Rows {
		vol, ok := volByName[row.Name]
		if !ok {
			// Volatility already skipped this subject; its reason is in
			// result.Skipped.
			continue
		}

		rf, err := riskFree(row.Meta.Start, row.Meta.End)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to resolve risk-free rate for %s: %w", row.Name, err)
			}
			r.skip(result, row.Name, FieldSharpeRatio, err)
			continue
		}

		if vol.Value == 0 {
			err := fmt.Errorf("zero volatility")
			if i == 0 {
				return nil, fmt.Errorf("cannot compute sharpe ratio for %s: %w", row.Name, err)
			}
			r.skip(result, row.Name, FieldSharpeRatio, err)
			continue
		}

		result.Rows = append(result.Rows, Row{
			Name:  row.Name,
			Field: FieldSharpeRatio,
			Value: (row.Value - rf) / vol.Value,
			Meta: &Meta{
				Freq:     string(opts.Freq),
				RiskFree: &rf,
				Start:    row.Meta.Start,
				End:      row.Meta.End,
			},
		})
	}

	if !opts.Meta {
		stripMeta(result)
	}
	return result, nil
}

// riskFreeResolver turns the polymorphic risk-free option into a
// per-subject-window rate function. A registered series is cloned,
// clipped to the subject's window and annualized there, rather than
// resolved once against the primary range.
func (r *ReturnSeries) riskFreeResolver(riskFree any, method formulas.CompoundMethod) (func(start, end time.Time) (float64, error), error) {
	switch v := riskFree.(type) {
	case nil:
		return func(time.Time, time.Time) (float64, error) { return 0, nil }, nil
	case float64:
		return func(time.Time, time.Time) (float64, error) { return v, nil }, nil
	case int:
		return func(time.Time, time.Time) (float64, error) { return float64(v), nil }, nil
	case string:
		series, ok := r.riskFree[v]
		if !ok {
			return nil, fmt.Errorf("risk free rate is not set: risk_free=%s", v)
		}
		return func(start, end time.Time) (float64, error) {
			clone := series.Clone()
			if err := clone.SetDateRange(&start, &end); err != nil {
				return 0, fmt.Errorf("risk free %s: %w", v, err)
			}

			compound, err := formulas.Compounder(method)
			if err != nil {
				return 0, err
			}
			total := compound(clone.Values())

			years := elapsedYears(clone.Start(), clone.End())
			return formulas.Annualize(total, years, method)
		}, nil
	default:
		return nil, fmt.Errorf("risk free must be a number or a registered key, got %T", riskFree)
	}
}

// skip logs a per-benchmark failure and records it in the result.
func (r *ReturnSeries) skip(result *Result, name, field string, err error) {
	r.log.Error().Err(err).Str("benchmark", name).Str("field", field).Msg("Skipping benchmark")
	result.Skipped = append(result.Skipped, Skip{Name: name, Field: field, Reason: err.Error()})
}

func retagSkips(skips []Skip, field string) []Skip {
	out := make([]Skip, len(skips))
	for i, s := range skips {
		s.Field = field
		out[i] = s
	}
	return out
}

func stripMeta(result *Result) {
	for i := range result.Rows {
		result.Rows[i].Meta = nil
	}
}

func elapsedYears(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / formulas.DaysPerYear
}
