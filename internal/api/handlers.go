package api

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/services"
)

// QueryReader is the slice of the query service the HTTP layer depends on.
type QueryReader interface {
	Status() (services.Status, error)
	Overview() (services.Overview, error)
	NationalSummary() (models.AggregateView, models.DistributionStats, error)
	StateRankings(subject string) ([]models.AggregateView, error)
	DistrictRankings(state string) ([]models.AggregateView, error)
	DistrictDetail(state, district string) (models.DistrictDetail, error)
	Correlations() (models.CorrelationMatrix, error)
	Recommendations() ([]models.RecommendationItem, error)
	Tiers() ([]models.TierAssignment, error)
	Trends(state string) ([]models.AggregateView, error)
	Diagnostics() (models.DiagnosticsReport, error)
	Reload(ctx context.Context) error
}

// Handler exposes the analytics query surface over HTTP.
type Handler struct {
	service QueryReader
	logger  *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(service QueryReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With(slog.String("component", "api")),
	}
}

// Routes builds the router for the query API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/summary/national", h.GetNationalSummary)
		r.Get("/summary/overview", h.GetOverview)
		r.Get("/rankings/states", h.GetStateRankings)
		r.Get("/rankings/districts", h.GetDistrictRankings)
		r.Get("/districts/{district}", h.GetDistrictDetail)
		r.Get("/correlations", h.GetCorrelations)
		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/tiers", h.GetTiers)
		r.Get("/trends", h.GetTrends)
		r.Get("/diagnostics", h.GetDiagnostics)
		r.Post("/reload", h.PostReload)
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// GetStatus returns snapshot identity and pipeline latency.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

// GetNationalSummary returns the national aggregate and score distribution.
func (h *Handler) GetNationalSummary(w http.ResponseWriter, r *http.Request) {
	national, dist, err := h.service.NationalSummary()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"national":     roundView(national),
		"distribution": roundDistribution(dist),
	})
}

// GetOverview returns headline record and survey-coverage counts.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, ov)
}

// GetStateRankings returns ranked states, per subject when ?subject= is set.
func (h *Handler) GetStateRankings(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.StateRankings(r.URL.Query().Get("subject"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"rankings": roundViews(views)})
}

// GetDistrictRankings returns ranked districts, filtered by ?state= when set.
func (h *Handler) GetDistrictRankings(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.DistrictRankings(r.URL.Query().Get("state"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"rankings": roundViews(views)})
}

// GetDistrictDetail returns one district's record, aggregate context and tier.
func (h *Handler) GetDistrictDetail(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")
	detail, err := h.service.DistrictDetail(r.URL.Query().Get("state"), district)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	detail.Record = roundRecord(detail.Record)
	detail.Aggregate = roundView(detail.Aggregate)
	detail.StateAggregate = roundView(detail.StateAggregate)
	render.JSON(w, r, detail)
}

// GetCorrelations returns the subject correlation matrix.
func (h *Handler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.service.Correlations()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, roundMatrix(matrix))
}

// GetRecommendations returns intervention candidates.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Recommendations()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	for i := range items {
		items[i].Value = round2(items[i].Value)
	}
	render.JSON(w, r, map[string]any{"recommendations": items})
}

// GetTiers returns quartile tier assignments.
func (h *Handler) GetTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.Tiers()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	for i := range tiers {
		tiers[i].Mean = round2(tiers[i].Mean)
	}
	render.JSON(w, r, map[string]any{"tiers": tiers})
}

// GetTrends returns year-over-year aggregates, filtered by ?state= when set.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Trends(r.URL.Query().Get("state"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"trends": roundViews(views)})
}

// GetDiagnostics returns the data-quality report.
func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Diagnostics()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// PostReload forces a cache invalidation and pipeline re-run.
func (h *Handler) PostReload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		h.logger.Error("reload failed", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "reload failed"})
		return
	}
	status, err := h.service.Status()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoSnapshot):
		render.Status(r, http.StatusServiceUnavailable)
	case errors.Is(err, services.ErrNotFound):
		render.Status(r, http.StatusNotFound)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
	}
	render.JSON(w, r, map[string]string{"error": err.Error()})
}

// Scores are rounded to two decimals at the response boundary only so the
// aggregation math stays full precision internally.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundView(v models.AggregateView) models.AggregateView {
	v.Mean = round2(v.Mean)
	v.StdDev = round2(v.StdDev)
	v.Min = round2(v.Min)
	v.Max = round2(v.Max)
	return v
}

func roundViews(views []models.AggregateView) []models.AggregateView {
	out := make([]models.AggregateView, len(views))
	for i, v := range views {
		out[i] = roundView(v)
	}
	return out
}

func roundRecord(rec models.PerformanceRecord) models.PerformanceRecord {
	scores := make(map[models.Subject]float64, len(rec.SubjectScores))
	for s, v := range rec.SubjectScores {
		scores[s] = round2(v)
	}
	rec.SubjectScores = scores
	rec.PerformanceScore = round2(rec.PerformanceScore)
	return rec
}

func roundDistribution(d models.DistributionStats) models.DistributionStats {
	d.Mean = round2(d.Mean)
	d.Median = round2(d.Median)
	d.StdDev = round2(d.StdDev)
	d.Min = round2(d.Min)
	d.Max = round2(d.Max)
	return d
}

func roundMatrix(m models.CorrelationMatrix) models.CorrelationMatrix {
	values := make([][]float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			values[i][j] = round2(v)
		}
	}
	m.Values = values
	return m
}
