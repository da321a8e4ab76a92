package performance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/timeseries"
)

// Repository persists return series and their benchmark and risk-free
// links. Dates are stored as YYYY-MM-DD strings, which sort correctly
// and match the CSV sources the series come from.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

const dateLayout = "2006-01-02"

// NewRepository creates a new series repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "performance").Logger(),
	}
}

// SaveSeries upserts every observation of a series in one transaction.
func (r *Repository) SaveSeries(series *timeseries.Series) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO return_series (name, date, value) VALUES (?, ?, ?)
		ON CONFLICT (name, date) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range series.Points() {
		if _, err := stmt.Exec(series.Name(), p.Time.Format(dateLayout), p.Value); err != nil {
			return fmt.Errorf("failed to upsert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series: %w", err)
	}

	r.log.Info().Str("series", series.Name()).Int("rows", series.Len()).Msg("Saved series")
	return nil
}

// GetSeries loads a stored series by name.
func (r *Repository) GetSeries(name string) (*timeseries.Series, error) {
	rows, err := r.db.Query(`
		SELECT date, value FROM return_series
		WHERE name = ?
		ORDER BY date ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var points []timeseries.Point
	for rows.Next() {
		var date string
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		ts, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q in series %s: %w", date, name, err)
		}
		points = append(points, timeseries.Point{Time: ts, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("series not found: %s", name)
	}
	return timeseries.New(name, points)
}

// ListSeries returns the names of all stored series.
func (r *Repository) ListSeries() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT name FROM return_series ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteSeries removes a series and any links that reference it.
func (r *Repository) DeleteSeries(name string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM return_series WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM benchmark_links WHERE series_name = ? OR benchmark_name = ?`, name, name); err != nil {
		return fmt.Errorf("failed to delete benchmark links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM risk_free_links WHERE series_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete risk-free links: %w", err)
	}

	return tx.Commit()
}

// LinkBenchmark attaches a stored benchmark series to a primary series.
// Position is assigned at link time and preserved on re-link, so the
// order benchmarks were attached in survives restarts.
func (r *Repository) LinkBenchmark(seriesName, benchmarkName string) error {
	_, err := r.db.Exec(`
		INSERT INTO benchmark_links (series_name, benchmark_name, position)
		VALUES (?, ?, (
			SELECT COALESCE(MAX(position), 0) + 1 FROM benchmark_links WHERE series_name = ?
		))
		ON CONFLICT (series_name, benchmark_name) DO NOTHING
	`, seriesName, benchmarkName, seriesName)
	if err != nil {
		return fmt.Errorf("failed to link benchmark: %w", err)
	}
	return nil
}

// Benchmarks returns the benchmark names linked to a series, in the
// order they were attached.
func (r *Repository) Benchmarks(seriesName string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT benchmark_name FROM benchmark_links
		WHERE series_name = ?
		ORDER BY position ASC
	`, seriesName)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LinkRiskFree registers a stored series as a risk-free source for a
// primary series under the given key.
func (r *Repository) LinkRiskFree(seriesName, key, sourceName string) error {
	_, err := r.db.Exec(`
		INSERT INTO risk_free_links (series_name, key, source_name)
		VALUES (?, ?, ?)
		ON CONFLICT (series_name, key) DO UPDATE SET source_name = excluded.source_name
	`, seriesName, key, sourceName)
	if err != nil {
		return fmt.Errorf("failed to link risk-free source: %w", err)
	}
	return nil
}

// RiskFreeLink is one (key, source series) risk-free registration.
type RiskFreeLink struct {
	Key        string
	SourceName string
}

// RiskFreeSources returns the risk-free registrations for a series.
func (r *Repository) RiskFreeSources(seriesName string) ([]RiskFreeLink, error) {
	rows, err := r.db.Query(`
		SELECT key, source_name FROM risk_free_links
		WHERE series_name = ?
		ORDER BY key ASC
	`, seriesName)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk-free sources: %w", err)
	}
	defer rows.Close()

	var links []RiskFreeLink
	for rows.Next() {
		var link RiskFreeLink
		if err := rows.Scan(&link.Key, &link.SourceName); err != nil {
			return nil, fmt.Errorf("failed to scan risk-free link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
