package fred

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/timeseries"
	"github.com/aristath/perform/pkg/formulas"
)

// DefaultBaseURL is the FRED CSV download endpoint.
const DefaultBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

// Client downloads economic data series from FRED. The CSV endpoint
// needs no API key; missing observations arrive as "." and are dropped
// by the CSV parser.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new FRED client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		log:     log.With().Str("client", "fred").Logger(),
	}
}

// GetSeries fetches one FRED series by its symbol (e.g. USD1MTD156N for
// 1-month LIBOR). The returned series carries FRED's values unchanged.
func (c *Client) GetSeries(symbol string) (*timeseries.Series, error) {
	params := url.Values{}
	params.Add("id", symbol)
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("FRED returned status %d: %s", resp.StatusCode, string(body))
	}

	series, err := timeseries.ParseCSV(resp.Body, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FRED csv for %s: %w", symbol, err)
	}

	c.log.Info().
		Str("symbol", symbol).
		Int("count", series.Len()).
		Str("freq", string(series.Freq())).
		Msg("Fetched FRED series")

	return series, nil
}

// GetRateSeries fetches a FRED interest-rate series quoted in annualized
// percent (LIBOR, treasury yields) and converts each observation to a
// per-period decimal return, so the result can be registered directly as
// a risk-free return series.
//
// The de-annualization solves (1 + periodRate)^spy = 1 + annualRate for
// periodRate, where spy is the series' own observations per year.
func (c *Client) GetRateSeries(symbol string) (*timeseries.Series, error) {
	series, err := c.GetSeries(symbol)
	if err != nil {
		return nil, err
	}
	return deannualize(series)
}

func deannualize(series *timeseries.Series) (*timeseries.Series, error) {
	years := series.End().Sub(series.Start()).Hours() / 24 / formulas.DaysPerYear
	if years <= 0 {
		return nil, fmt.Errorf("rate series %s spans no time", series.Name())
	}
	spy := float64(series.Len()) / years

	points := series.Points()
	for i := range points {
		annual := points[i].Value / 100
		points[i].Value = math.Pow(1+annual, 1/spy) - 1
	}

	return timeseries.NewWithFrequency(series.Name(), points, series.Freq())
}
