package performance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/perform/internal/timeseries"
	"github.com/aristath/perform/pkg/formulas"
)

// Handler handles performance HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

// Routes returns the router for the performance module, mounted by the
// server under /api/series.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleListSeries)
	r.Post("/", h.HandleCreateSeries)

	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", h.HandleGetSeries)
		r.Delete("/", h.HandleDeleteSeries)
		r.Post("/benchmarks", h.HandleAttachBenchmark)
		r.Post("/risk-free", h.HandleAttachRiskFree)
		r.Get("/metrics/{metric}", h.HandleMetric)
	})

	return r
}

type seriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type createSeriesRequest struct {
	Name   string        `json:"name"`
	Points []seriesPoint `json:"points"`
}

type seriesResponse struct {
	Name  string        `json:"name"`
	Freq  string        `json:"freq"`
	Start string        `json:"start"`
	End   string        `json:"end"`
	Count int           `json:"count"`
	Rows  []seriesPoint `json:"rows,omitempty"`
}

// HandleListSeries handles GET / - list stored series names
func (h *Handler) HandleListSeries(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListSeries()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list series")
		http.Error(w, "Failed to list series", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"series": names})
}

// HandleCreateSeries handles POST / - store a new return series
func (h *Handler) HandleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	points := make([]timeseries.Point, 0, len(req.Points))
	for _, p := range req.Points {
		ts, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			http.Error(w, "Invalid date: "+p.Date+" (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		points = append(points, timeseries.Point{Time: ts, Value: p.Value})
	}

	series, err := h.service.CreateSeries(req.Name, points)
	if err != nil {
		h.log.Error().Err(err).Str("series", req.Name).Msg("Failed to create series")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, summarize(series, false))
}

// HandleGetSeries handles GET /{name} - fetch a stored series
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	series, err := h.service.GetSeries(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	includeRows := r.URL.Query().Get("rows") == "true"
	h.writeJSON(w, http.StatusOK, summarize(series, includeRows))
}

// HandleDeleteSeries handles DELETE /{name}
func (h *Handler) HandleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.DeleteSeries(name); err != nil {
		h.log.Error().Err(err).Str("series", name).Msg("Failed to delete series")
		http.Error(w, "Failed to delete series", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "series": name})
}

// HandleAttachBenchmark handles POST /{name}/benchmarks
func (h *Handler) HandleAttachBenchmark(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req struct {
		Benchmark string `json:"benchmark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Benchmark == "" {
		http.Error(w, "benchmark is required", http.StatusBadRequest)
		return
	}

	if err := h.service.AttachBenchmark(name, req.Benchmark); err != nil {
		h.log.Error().Err(err).Str("series", name).Str("benchmark", req.Benchmark).Msg("Failed to attach benchmark")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "linked", "benchmark": req.Benchmark})
}

// HandleAttachRiskFree handles POST /{name}/risk-free
func (h *Handler) HandleAttachRiskFree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req struct {
		Key    string `json:"key"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" {
		http.Error(w, "source is required", http.StatusBadRequest)
		return
	}

	if err := h.service.AttachRiskFree(name, req.Key, req.Source); err != nil {
		h.log.Error().Err(err).Str("series", name).Str("source", req.Source).Msg("Failed to attach risk-free source")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "linked", "source": req.Source})
}

// HandleMetric handles GET /{name}/metrics/{metric}
//
// Query parameters:
//   - method:          arithmetic | geometric | continuous
//     (compound_method is accepted as an alias for the resampled metrics)
//   - freq:            H | D | B | W | M | Q | Y
//   - std_method:      sample | population
//   - corr_method:     pearson | kendall | spearman
//   - risk_free:       a number, or the key of an attached source
//   - include_bm:      true | false (default true)
//   - meta:            true | false (default false)
func (h *Handler) HandleMetric(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	method := q.Get("method")
	if method == "" {
		method = q.Get("compound_method")
	}

	req := MetricRequest{
		Field:             chi.URLParam(r, "metric"),
		Method:            formulas.CompoundMethod(method),
		Freq:              timeseries.Frequency(q.Get("freq")),
		StdMethod:         formulas.StdDevMethod(q.Get("std_method")),
		CorrMethod:        formulas.CorrMethod(q.Get("corr_method")),
		IncludeBenchmarks: q.Get("include_bm") != "false",
		Meta:              q.Get("meta") == "true",
	}

	if raw := q.Get("risk_free"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			req.RiskFree = v
		} else {
			req.RiskFree = raw
		}
	}

	result, err := h.service.Metric(name, req)
	if err != nil {
		h.log.Error().Err(err).Str("series", name).Str("metric", req.Field).Msg("Metric computation failed")
		http.Error(w, err.Error(), metricErrorStatus(err))
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func metricErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "unknown"), strings.Contains(msg, "risk free"),
		strings.Contains(msg, "benchmark"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func summarize(series *timeseries.Series, includeRows bool) seriesResponse {
	resp := seriesResponse{
		Name:  series.Name(),
		Freq:  string(series.Freq()),
		Start: series.Start().Format("2006-01-02"),
		End:   series.End().Format("2006-01-02"),
		Count: series.Len(),
	}
	if includeRows {
		for _, p := range series.Points() {
			resp.Rows = append(resp.Rows, seriesPoint{
				Date:  p.Time.Format("2006-01-02"),
				Value: p.Value,
			})
		}
	}
	return resp
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
