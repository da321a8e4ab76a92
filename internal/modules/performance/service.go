package performance

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/timeseries"
	"github.com/aristath/perform/pkg/formulas"
)

// Service coordinates series storage with metric computation. It is the
// layer HTTP handlers and scheduled jobs talk to; everything below it is
// pure computation over in-memory series.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new performance service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "performance").Logger(),
	}
}

// CreateSeries validates and stores a new return series.
func (s *Service) CreateSeries(name string, points []timeseries.Point) (*timeseries.Series, error) {
	series, err := timeseries.New(name, points)
	if err != nil {
		return nil, fmt.Errorf("invalid series %s: %w", name, err)
	}
	if err := s.repo.SaveSeries(series); err != nil {
		return nil, err
	}
	return series, nil
}

// GetSeries loads a stored series by name.
func (s *Service) GetSeries(name string) (*timeseries.Series, error) {
	return s.repo.GetSeries(name)
}

// ListSeries returns the names of all stored series.
func (s *Service) ListSeries() ([]string, error) {
	return s.repo.ListSeries()
}

// DeleteSeries removes a stored series and its links.
func (s *Service) DeleteSeries(name string) error {
	return s.repo.DeleteSeries(name)
}

// AttachBenchmark links a stored series as a benchmark of another. Both
// series must already exist.
func (s *Service) AttachBenchmark(seriesName, benchmarkName string) error {
	if _, err := s.repo.GetSeries(seriesName); err != nil {
		return err
	}
	if _, err := s.repo.GetSeries(benchmarkName); err != nil {
		return err
	}
	return s.repo.LinkBenchmark(seriesName, benchmarkName)
}

// AttachRiskFree links a stored series as a risk-free source of another
// under the given key. The key defaults to the source series' name.
func (s *Service) AttachRiskFree(seriesName, key, sourceName string) error {
	if _, err := s.repo.GetSeries(seriesName); err != nil {
		return err
	}
	if _, err := s.repo.GetSeries(sourceName); err != nil {
		return err
	}
	if key == "" {
		key = sourceName
	}
	return s.repo.LinkRiskFree(seriesName, key, sourceName)
}

// Load assembles a ReturnSeries for computation: the stored primary
// series plus every linked benchmark and risk-free source.
func (s *Service) Load(name string) (*ReturnSeries, error) {
	primary, err := s.repo.GetSeries(name)
	if err != nil {
		return nil, err
	}

	r := NewReturnSeries(primary, s.log)

	benchmarks, err := s.repo.Benchmarks(name)
	if err != nil {
		return nil, err
	}
	for _, bmName := range benchmarks {
		bm, err := s.repo.GetSeries(bmName)
		if err != nil {
			return nil, fmt.Errorf("failed to load benchmark %s: %w", bmName, err)
		}
		r.AddBenchmark(bm, bmName)
	}

	riskFree, err := s.repo.RiskFreeSources(name)
	if err != nil {
		return nil, err
	}
	for _, link := range riskFree {
		source, err := s.repo.GetSeries(link.SourceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load risk-free source %s: %w", link.SourceName, err)
		}
		r.AddRiskFree(source, link.Key)
	}

	return r, nil
}

// MetricRequest names a metric and carries its parameters. Zero values
// mean "use the metric's default".
type MetricRequest struct {
	Field             string
	Method            formulas.CompoundMethod
	Freq              timeseries.Frequency
	StdMethod         formulas.StdDevMethod
	CorrMethod        formulas.CorrMethod
	RiskFree          any
	IncludeBenchmarks bool
	Meta              bool
}

// Metric loads a stored series and computes the requested metric.
func (s *Service) Metric(name string, req MetricRequest) (*Result, error) {
	r, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	switch req.Field {
	case "total_return":
		opts := DefaultTotalReturnOptions()
		if req.Method != "" {
			opts.Method = req.Method
		}
		opts.IncludeBenchmarks = req.IncludeBenchmarks
		opts.Meta = req.Meta
		return r.TotalReturn(opts)

	case "annualized_return":
		opts := DefaultAnnualizedReturnOptions()
		if req.Method != "" {
			opts.Method = req.Method
		}
		opts.IncludeBenchmarks = req.IncludeBenchmarks
		opts.Meta = req.Meta
		return r.AnnualizedReturn(opts)

	case "annualized_volatility":
		opts := DefaultVolatilityOptions()
		if req.Freq != "" {
			opts.Freq = req.Freq
		}
		if req.StdMethod != "" {
			opts.StdMethod = req.StdMethod
		}
		if req.Method != "" {
			opts.CompoundMethod = req.Method
		}
		opts.IncludeBenchmarks = req.IncludeBenchmarks
		opts.Meta = req.Meta
		return r.AnnualizedVolatility(opts)

	case "correlation":
		opts := DefaultCorrelationOptions()
		if req.Freq != "" {
			opts.Freq = req.Freq
		}
		if req.CorrMethod != "" {
			opts.CorrMethod = req.CorrMethod
		}
		if req.Method != "" {
			opts.CompoundMethod = req.Method
		}
		opts.Meta = req.Meta
		return r.Correlation(opts)

	case "sharpe_ratio":
		opts := DefaultSharpeOptions()
		if req.Freq != "" {
			opts.Freq = req.Freq
		}
		if req.Method != "" {
			opts.CompoundMethod = req.Method
		}
		if req.RiskFree != nil {
			opts.RiskFree = req.RiskFree
		}
		opts.IncludeBenchmarks = req.IncludeBenchmarks
		opts.Meta = req.Meta
		return r.SharpeRatio(opts)

	default:
		return nil, fmt.Errorf("unknown metric: %s", req.Field)
	}
}
