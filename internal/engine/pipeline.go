package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/config"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/extractors"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/metrics"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/schema"
)

// TableLoader defines the loader behaviour the pipeline depends on.
type TableLoader interface {
	Load(path string) (*models.RawTable, error)
	Invalidate(path string)
}

// Pipeline runs the full transform flow: load, normalize, extract, score,
// aggregate, correlate, bucketize. Each stage consumes the immutable
// output of the previous one; the pipeline never mutates a prior stage's
// view in place.
type Pipeline struct {
	logger      *slog.Logger
	loader      TableLoader
	normalizer  *schema.Normalizer
	calculator  *Calculator
	recommender *Recommender
	bucketizer  *Bucketizer
	cfg         PipelineConfig
}

// PipelineConfig carries the per-run policy knobs.
type PipelineConfig struct {
	DatasetPath string
	RequireYear bool
	MinYear     int
	MaxYear     int
}

// NewPipeline wires the stages together.
func NewPipeline(
	logger *slog.Logger,
	loader TableLoader,
	calculator *Calculator,
	recommender *Recommender,
	bucketizer *Bucketizer,
	cfg PipelineConfig,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if calculator == nil {
		calculator = NewCalculator(config.PolicySubjectMean)
	}
	if recommender == nil {
		recommender = NewRecommender(0, 0)
	}
	return &Pipeline{
		logger:      logger,
		loader:      loader,
		normalizer:  schema.New(extractors.IsScoreColumn),
		calculator:  calculator,
		recommender: recommender,
		bucketizer:  bucketizer,
		cfg:         cfg,
	}
}

// Run executes one full pipeline pass and returns an immutable result
// snapshot. Fatal load/schema problems abort the run; data-quality issues
// land in the snapshot's diagnostics instead.
func (p *Pipeline) Run(ctx context.Context) (*models.ResultSet, error) {
	if p.loader == nil {
		return nil, fmt.Errorf("loader not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diags := models.DiagnosticsReport{
		RunID:      uuid.NewString(),
		SourcePath: p.cfg.DatasetPath,
		StartedAt:  time.Now().UTC(),
	}

	table, err := p.loader.Load(p.cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	normalized, err := p.normalizer.Normalize(table, &diags)
	if err != nil {
		return nil, err
	}

	records := p.buildRecords(normalized, &diags)

	states := Aggregate(records, models.GranularityState)
	districts := Aggregate(records, models.GranularityDistrict)
	stateSubjects := Aggregate(records, models.GranularityStateSubject)
	national := Aggregate(records, models.GranularityNational)[0]
	byYear := AggregateByYear(records)

	matrix := Correlate(records, &diags)
	recommendations := p.recommender.Flag(national, states, districts, stateSubjects, matrix)

	var tiers []models.TierAssignment
	if p.bucketizer != nil {
		tiers = p.bucketizer.Bucketize(districts)
	}

	result := &models.ResultSet{
		SnapshotID:      uuid.NewString(),
		SourcePath:      table.SourcePath,
		Fingerprint:     table.Fingerprint,
		ProducedAt:      time.Now().UTC(),
		Records:         records,
		National:        national,
		States:          states,
		Districts:       districts,
		StateSubjects:   stateSubjects,
		ByYear:          byYear,
		Distribution:    Distribution(records),
		Correlations:    matrix,
		Recommendations: recommendations,
		Tiers:           tiers,
		Diagnostics:     diags,
	}

	p.logger.Info("pipeline run complete",
		slog.String("run_id", diags.RunID),
		slog.Int("records", len(records)),
		slog.Int("states", len(states)),
		slog.Int("districts", len(districts)),
		slog.Int("issues", diags.Count()))

	return result, nil
}

// Invalidate drops the loader's cached table so the next run re-parses.
func (p *Pipeline) Invalidate() {
	if p.loader != nil {
		p.loader.Invalidate(p.cfg.DatasetPath)
	}
}

// buildRecords runs feature extraction and scoring over every row,
// excluding records that cannot contribute to any aggregate.
func (p *Pipeline) buildRecords(table *models.NormalizedTable, diags *models.DiagnosticsReport) []models.PerformanceRecord {
	extractor := extractors.New(p.logger, p.cfg.MinYear, p.cfg.MaxYear)
	extractor.ClassifyColumns(table, diags)

	records := make([]models.PerformanceRecord, 0, len(table.Rows))
	seen := make(map[string]struct{}, len(table.Rows))

	for row := range table.Rows {
		features := extractor.Extract(table, row, diags)

		if features.District == "" || features.State == "" {
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueEmptyRecord,
				Row:    row + 1,
				Detail: "district or state identifier missing; record excluded",
			})
			metrics.ObserveExcluded(string(models.IssueEmptyRecord))
			continue
		}
		if p.cfg.RequireYear && !features.YearKnown {
			// The unparseable-year issue is already recorded; requireYear
			// upgrades the exclusion from year buckets to a full drop.
			metrics.ObserveExcluded(string(models.IssueUnparseableYear))
			continue
		}

		scores, composite, ok := p.calculator.Score(features.Observations)
		if !ok {
			diags.Add(models.Issue{
				Stage:  "score",
				Kind:   models.IssueEmptyRecord,
				Row:    row + 1,
				Detail: "no usable subject scores; record excluded from all aggregates",
			})
			metrics.ObserveExcluded(string(models.IssueEmptyRecord))
			continue
		}

		dupKey := fmt.Sprintf("%s/%s/%d", features.State, features.District, features.Year)
		if _, dup := seen[dupKey]; dup {
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueDuplicateRow,
				Row:    row + 1,
				Detail: fmt.Sprintf("duplicate of %s; later row excluded", dupKey),
			})
			metrics.ObserveExcluded(string(models.IssueDuplicateRow))
			continue
		}
		seen[dupKey] = struct{}{}

		records = append(records, models.PerformanceRecord{
			District:         features.District,
			State:            features.State,
			Year:             features.Year,
			SubjectScores:    scores,
			PerformanceScore: composite,
			SchoolsSurveyed:  features.SchoolsSurveyed,
			StudentsSurveyed: features.StudentsSurveyed,
		})
	}
	return records
}
