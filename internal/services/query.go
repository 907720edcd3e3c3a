package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/metrics"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/utils"
)

var (
	// ErrNoSnapshot is returned when no pipeline run has completed yet.
	ErrNoSnapshot = errors.New("no snapshot available")
	// ErrNotFound is returned when a requested entity is absent from the snapshot.
	ErrNotFound = errors.New("not found")
)

// SnapshotRunner produces a fresh result snapshot from the configured dataset.
type SnapshotRunner interface {
	Run(ctx context.Context) (*models.ResultSet, error)
	Invalidate()
}

// Status describes the currently served snapshot.
type Status struct {
	SnapshotID  string               `json:"snapshot_id"`
	SourcePath  string               `json:"source_path"`
	Fingerprint string               `json:"fingerprint"`
	ProducedAt  time.Time            `json:"produced_at"`
	Records     int                  `json:"records"`
	Issues      int                  `json:"issues"`
	RunLatency  utils.LatencySummary `json:"run_latency"`
}

// Overview carries the headline counts for the landing view.
type Overview struct {
	Records          int `json:"records"`
	States           int `json:"states"`
	Districts        int `json:"districts"`
	SchoolsSurveyed  int `json:"schools_surveyed"`
	StudentsSurveyed int `json:"students_surveyed"`
}

// QueryService serves read-only views over the latest successful pipeline run.
// Refresh swaps snapshots atomically; readers always see a complete result set.
type QueryService struct {
	logger  *slog.Logger
	runner  SnapshotRunner
	latency *utils.LatencyTracker

	mu      sync.RWMutex
	current *models.ResultSet
}

// NewQueryService wires a query service on top of a snapshot runner.
func NewQueryService(logger *slog.Logger, runner SnapshotRunner) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		logger:  logger,
		runner:  runner,
		latency: utils.NewLatencyTracker(128),
	}
}

// Refresh executes the pipeline and publishes the new snapshot on success.
// On failure the previously published snapshot keeps serving.
func (s *QueryService) Refresh(ctx context.Context) error {
	start := time.Now()
	result, err := s.runner.Run(ctx)
	elapsed := time.Since(start)
	s.latency.Observe(elapsed)

	if err != nil {
		metrics.ObservePipelineRun(elapsed, metrics.OutcomeError)
		s.logger.Error("pipeline run failed, keeping previous snapshot", "error", err)
		return utils.NewAppError("query.refresh", "pipeline run failed", err)
	}
	metrics.ObservePipelineRun(elapsed, metrics.OutcomeSuccess)

	s.mu.Lock()
	s.current = result
	s.mu.Unlock()

	s.logger.Info("snapshot published",
		"snapshot_id", result.SnapshotID,
		"records", len(result.Records),
		"issues", result.Diagnostics.Count(),
		"elapsed", elapsed)
	return nil
}

// Reload invalidates the loader cache and refreshes the snapshot.
func (s *QueryService) Reload(ctx context.Context) error {
	s.runner.Invalidate()
	return s.Refresh(ctx)
}

func (s *QueryService) snapshot() (*models.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// Status reports snapshot identity and run latency.
func (s *QueryService) Status() (Status, error) {
	rs, err := s.snapshot()
	if err != nil {
		return Status{}, err
	}
	return Status{
		SnapshotID:  rs.SnapshotID,
		SourcePath:  rs.SourcePath,
		Fingerprint: fmt.Sprintf("%016x", rs.Fingerprint),
		ProducedAt:  rs.ProducedAt,
		Records:     len(rs.Records),
		Issues:      rs.Diagnostics.Count(),
		RunLatency:  s.latency.Summary(),
	}, nil
}

// Overview returns record, state and district counts plus survey coverage
// totals for the current snapshot.
func (s *QueryService) Overview() (Overview, error) {
	rs, err := s.snapshot()
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Records: len(rs.Records)}
	for _, v := range rs.States {
		if !v.Empty() {
			ov.States++
		}
	}
	for _, v := range rs.Districts {
		if !v.Empty() {
			ov.Districts++
		}
	}
	for _, rec := range rs.Records {
		ov.SchoolsSurveyed += rec.SchoolsSurveyed
		ov.StudentsSurveyed += rec.StudentsSurveyed
	}
	return ov, nil
}

// NationalSummary returns the national aggregate and score distribution.
func (s *QueryService) NationalSummary() (models.AggregateView, models.DistributionStats, error) {
	rs, err := s.snapshot()
	if err != nil {
		return models.AggregateView{}, models.DistributionStats{}, err
	}
	return rs.National, rs.Distribution, nil
}

// StateRankings returns states ordered by rank. With a subject it returns the
// per-subject state ranking instead of the composite one.
func (s *QueryService) StateRankings(subject string) ([]models.AggregateView, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return rs.States, nil
	}
	subj := models.Subject(strings.ToLower(subject))
	if !models.ValidSubject(subj) {
		return nil, fmt.Errorf("%w: subject %q", ErrNotFound, subject)
	}
	out := make([]models.AggregateView, 0, len(rs.StateSubjects))
	for _, v := range rs.StateSubjects {
		if v.Subject == subj {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

// DistrictRankings returns district aggregates, optionally filtered to one state.
func (s *QueryService) DistrictRankings(state string) ([]models.AggregateView, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if state == "" {
		return rs.Districts, nil
	}
	out := make([]models.AggregateView, 0, 16)
	for _, v := range rs.Districts {
		if strings.EqualFold(v.State, state) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: state %q", ErrNotFound, state)
	}
	return out, nil
}

// DistrictDetail returns the full profile for one district. District names
// repeat across states, so the state qualifier is required when ambiguous.
func (s *QueryService) DistrictDetail(state, district string) (models.DistrictDetail, error) {
	rs, err := s.snapshot()
	if err != nil {
		return models.DistrictDetail{}, err
	}

	var agg *models.AggregateView
	for i := range rs.Districts {
		v := &rs.Districts[i]
		if !strings.EqualFold(v.District, district) {
			continue
		}
		if state != "" && !strings.EqualFold(v.State, state) {
			continue
		}
		if agg != nil {
			return models.DistrictDetail{}, fmt.Errorf("%w: district %q exists in multiple states, qualify with state", ErrNotFound, district)
		}
		agg = v
	}
	if agg == nil {
		return models.DistrictDetail{}, fmt.Errorf("%w: district %q", ErrNotFound, district)
	}

	detail := models.DistrictDetail{Aggregate: *agg}

	// Latest-year record carries the per-subject breakdown.
	found := false
	for i := range rs.Records {
		r := rs.Records[i]
		if r.District != agg.District || r.State != agg.State {
			continue
		}
		if !found || r.Year > detail.Record.Year {
			detail.Record = r
			found = true
		}
	}

	for _, v := range rs.States {
		if v.State == agg.State {
			detail.StateAggregate = v
			break
		}
	}
	for i := range rs.Tiers {
		t := rs.Tiers[i]
		if t.District == agg.District && t.State == agg.State {
			detail.Tier = &t
			break
		}
	}
	return detail, nil
}

// Correlations returns the pairwise subject correlation matrix.
func (s *QueryService) Correlations() (models.CorrelationMatrix, error) {
	rs, err := s.snapshot()
	if err != nil {
		return models.CorrelationMatrix{}, err
	}
	return rs.Correlations, nil
}

// Recommendations returns flagged intervention candidates.
func (s *QueryService) Recommendations() ([]models.RecommendationItem, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rs.Recommendations, nil
}

// Tiers returns quartile tier assignments for all districts.
func (s *QueryService) Tiers() ([]models.TierAssignment, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return rs.Tiers, nil
}

// Trends returns year-over-year state aggregates, optionally for one state.
func (s *QueryService) Trends(state string) ([]models.AggregateView, error) {
	rs, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if state == "" {
		return rs.ByYear, nil
	}
	out := make([]models.AggregateView, 0, 8)
	for _, v := range rs.ByYear {
		if strings.EqualFold(v.State, state) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: state %q", ErrNotFound, state)
	}
	return out, nil
}

// Diagnostics returns the data-quality report for the current snapshot.
func (s *QueryService) Diagnostics() (models.DiagnosticsReport, error) {
	rs, err := s.snapshot()
	if err != nil {
		return models.DiagnosticsReport{}, err
	}
	return rs.Diagnostics, nil
}
