package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/clients/fred"
	"github.com/aristath/perform/internal/modules/performance"
)

// RiskFreeSyncJob periodically refreshes a risk-free rate series from
// FRED and stores it as per-period returns, ready to be linked as a
// risk-free source.
type RiskFreeSyncJob struct {
	client  *fred.Client
	service *performance.Service
	symbol  string
	name    string
	log     zerolog.Logger
}

// NewRiskFreeSyncJob creates a job that syncs the FRED series symbol
// into the store under name.
func NewRiskFreeSyncJob(client *fred.Client, service *performance.Service, symbol, name string, log zerolog.Logger) *RiskFreeSyncJob {
	return &RiskFreeSyncJob{
		client:  client,
		service: service,
		symbol:  symbol,
		name:    name,
		log:     log.With().Str("job", "riskfree_sync").Logger(),
	}
}

// Name returns the job name
func (j *RiskFreeSyncJob) Name() string {
	return "riskfree_sync"
}

// Run fetches the rate series and upserts it into storage.
func (j *RiskFreeSyncJob) Run() error {
	series, err := j.client.GetRateSeries(j.symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", j.symbol, err)
	}

	if _, err := j.service.CreateSeries(j.name, series.Points()); err != nil {
		return fmt.Errorf("failed to store %s: %w", j.name, err)
	}

	j.log.Info().
		Str("symbol", j.symbol).
		Str("series", j.name).
		Int("rows", series.Len()).
		Msg("Risk-free series synced")

	return nil
}
