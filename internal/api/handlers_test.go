package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/services"
)

type fakeQuery struct {
	status    services.Status
	err       error
	reloads   int
	reloadErr error
}

func (f *fakeQuery) Status() (services.Status, error) {
	return f.status, f.err
}

func (f *fakeQuery) Overview() (services.Overview, error) {
	if f.err != nil {
		return services.Overview{}, f.err
	}
	return services.Overview{Records: 2, States: 1, Districts: 2, SchoolsSurveyed: 40, StudentsSurveyed: 1200}, nil
}

func (f *fakeQuery) NationalSummary() (models.AggregateView, models.DistributionStats, error) {
	if f.err != nil {
		return models.AggregateView{}, models.DistributionStats{}, f.err
	}
	return models.AggregateView{Key: "national", Count: 2, Mean: 72.123456, Rank: 1},
		models.DistributionStats{Count: 2, Mean: 72.123456, Median: 72.5}, nil
}

func (f *fakeQuery) StateRankings(subject string) ([]models.AggregateView, error) {
	if f.err != nil {
		return nil, f.err
	}
	if subject == "astrology" {
		return nil, fmt.Errorf("%w: subject %q", services.ErrNotFound, subject)
	}
	return []models.AggregateView{{Key: "Kerala", State: "Kerala", Count: 2, Mean: 77.5, Rank: 1}}, nil
}

func (f *fakeQuery) DistrictRankings(state string) ([]models.AggregateView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.AggregateView{{Key: "Kerala/Ernakulam", District: "Ernakulam", Count: 2, Mean: 77.5, Rank: 1}}, nil
}

func (f *fakeQuery) DistrictDetail(state, district string) (models.DistrictDetail, error) {
	if f.err != nil {
		return models.DistrictDetail{}, f.err
	}
	if district != "Ernakulam" {
		return models.DistrictDetail{}, fmt.Errorf("%w: district %q", services.ErrNotFound, district)
	}
	return models.DistrictDetail{
		Record: models.PerformanceRecord{
			State: "Kerala", District: "Ernakulam", Year: 2021,
			PerformanceScore: 85.118,
			SubjectScores:    map[models.Subject]float64{models.SubjectMathematics: 85.118},
		},
		Aggregate: models.AggregateView{Key: "Kerala/Ernakulam", Count: 2, Mean: 77.5, Rank: 1},
	}, nil
}

func (f *fakeQuery) Correlations() (models.CorrelationMatrix, error) {
	if f.err != nil {
		return models.CorrelationMatrix{}, f.err
	}
	return models.CorrelationMatrix{
		Subjects: []models.Subject{models.SubjectMathematics, models.SubjectScience},
		Values:   [][]float64{{1, 0.876543}, {0.876543, 1}},
	}, nil
}

func (f *fakeQuery) Recommendations() ([]models.RecommendationItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.RecommendationItem{{Scope: "state", Key: "Bihar", Finding: models.FindingBelowNationalMean, Severity: models.SeverityHigh, Value: 51.3}}, nil
}

func (f *fakeQuery) Tiers() ([]models.TierAssignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.TierAssignment{{District: "Ernakulam", State: "Kerala", Region: "South", Tier: 1, Mean: 77.5}}, nil
}

func (f *fakeQuery) Trends(state string) ([]models.AggregateView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.AggregateView{{Key: "2021|Kerala", State: "Kerala", Year: 2021, Count: 1, Mean: 85, Rank: 1}}, nil
}

func (f *fakeQuery) Diagnostics() (models.DiagnosticsReport, error) {
	if f.err != nil {
		return models.DiagnosticsReport{}, f.err
	}
	return models.DiagnosticsReport{RunID: "run-1"}, nil
}

func (f *fakeQuery) Reload(ctx context.Context) error {
	f.reloads++
	return f.reloadErr
}

func doRequest(t *testing.T, h *Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestNationalSummaryRoundsScores(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/summary/national")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		National struct {
			Mean float64 `json:"mean"`
		} `json:"national"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.National.Mean != 72.12 {
		t.Fatalf("mean = %v, want 72.12 after boundary rounding", body.National.Mean)
	}
}

func TestOverview(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/summary/overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body services.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Records != 2 || body.StudentsSurveyed != 1200 {
		t.Fatalf("overview = %+v", body)
	}
}

func TestStateRankings(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/rankings/states")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Rankings []models.AggregateView `json:"rankings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Rankings) != 1 || body.Rankings[0].Rank != 1 {
		t.Fatalf("rankings = %+v", body.Rankings)
	}
}

func TestStateRankingsUnknownSubject(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/rankings/states?subject=astrology")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDistrictDetail(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/districts/Ernakulam")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail models.DistrictDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if detail.Record.PerformanceScore != 85.12 {
		t.Fatalf("score = %v, want 85.12 after boundary rounding", detail.Record.PerformanceScore)
	}
}

func TestDistrictDetailNotFound(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/districts/Shangri-La")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("404 response should carry an error message")
	}
}

func TestCorrelationsRounded(t *testing.T) {
	rec := doRequest(t, NewHandler(&fakeQuery{}, nil), http.MethodGet, "/api/v1/correlations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var matrix models.CorrelationMatrix
	if err := json.Unmarshal(rec.Body.Bytes(), &matrix); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if matrix.Values[0][1] != 0.88 {
		t.Fatalf("coefficient = %v, want 0.88 after rounding", matrix.Values[0][1])
	}
}

func TestNoSnapshotIs503(t *testing.T) {
	h := NewHandler(&fakeQuery{err: services.ErrNoSnapshot}, nil)
	for _, path := range []string{
		"/api/v1/summary/national",
		"/api/v1/summary/overview",
		"/api/v1/rankings/states",
		"/api/v1/correlations",
		"/api/v1/recommendations",
		"/api/v1/tiers",
		"/api/v1/trends",
		"/api/v1/diagnostics",
	} {
		rec := doRequest(t, h, http.MethodGet, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestReload(t *testing.T) {
	fake := &fakeQuery{status: services.Status{SnapshotID: "snap-2"}}
	rec := doRequest(t, NewHandler(fake, nil), http.MethodPost, "/api/v1/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", fake.reloads)
	}

	var status services.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.SnapshotID != "snap-2" {
		t.Fatalf("snapshot = %q, want snap-2", status.SnapshotID)
	}
}

func TestReloadFailure(t *testing.T) {
	fake := &fakeQuery{reloadErr: fmt.Errorf("dataset unreadable")}
	rec := doRequest(t, NewHandler(fake, nil), http.MethodPost, "/api/v1/reload")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
