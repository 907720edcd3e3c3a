package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/xuri/excelize/v2"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/cache"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/metrics"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// LoadError reports a fatal problem with the source file: unreadable,
// empty, or structurally malformed. It aborts the pipeline run.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Source, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads the raw tabular source into memory and caches parsed tables
// by (path, content fingerprint). The cache is the only process-wide
// mutable state in the pipeline.
type Loader struct {
	logger    *slog.Logger
	cache     cache.Provider
	delimiter rune
}

// New constructs a Loader. A nil cache disables caching.
func New(logger *slog.Logger, provider cache.Provider, delimiter rune) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Loader{logger: logger, cache: provider, delimiter: delimiter}
}

// Load parses the source file into a RawTable. A repeated call with an
// unchanged content fingerprint returns the cached table without re-parsing.
func (l *Loader) Load(path string) (*models.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "unreadable source", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Source: path, Reason: "source is empty"}
	}

	fingerprint := xxhash.Sum64(data)
	if cached, cacheErr := l.cache.Get(path); cacheErr == nil {
		if cached.Fingerprint == fingerprint {
			metrics.ObserveCache(metrics.CacheHit)
			l.logger.Debug("loader cache hit", slog.String("path", path), slog.Uint64("fingerprint", fingerprint))
			return cached, nil
		}
		// Content changed under the same path; the stale entry is replaced below.
		l.logger.Info("source fingerprint changed, re-parsing",
			slog.String("path", path),
			slog.Uint64("old", cached.Fingerprint),
			slog.Uint64("new", fingerprint))
	} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
		l.logger.Warn("loader cache lookup failed", slog.Any("error", cacheErr))
	}
	metrics.ObserveCache(metrics.CacheMiss)

	var header []string
	var rows [][]string
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = parseXLSX(path, data)
	} else {
		header, rows, err = parseDelimited(path, data, l.delimiter)
	}
	if err != nil {
		return nil, err
	}

	table := &models.RawTable{
		SourcePath:  path,
		Fingerprint: fingerprint,
		Header:      header,
		Rows:        rows,
		LoadedAt:    time.Now().UTC(),
	}

	if err := l.cache.Set(path, table); err != nil {
		l.logger.Warn("loader cache store failed", slog.Any("error", err))
	}
	l.logger.Info("source loaded",
		slog.String("path", path),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)))

	return table, nil
}

// Invalidate drops any cached table for the path.
func (l *Loader) Invalidate(path string) {
	if err := l.cache.Del(path); err != nil {
		l.logger.Warn("loader cache invalidation failed", slog.Any("error", err))
	}
}

// Close tears the cache down; called at process end.
func (l *Loader) Close() error { return l.cache.Close() }

func parseDelimited(path string, data []byte, delimiter rune) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var header []string
	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &LoadError{Source: path, Reason: "malformed delimited data", Err: err}
		}
		if header == nil {
			if emptyRow(record) {
				return nil, nil, &LoadError{Source: path, Reason: "missing header row"}
			}
			header = record
			continue
		}
		if emptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, nil, &LoadError{Source: path, Reason: "missing header row"}
	}
	if len(rows) == 0 {
		return nil, nil, &LoadError{Source: path, Reason: "no data rows after header"}
	}
	return header, rows, nil
}

// parseXLSX extracts the first sheet that starts with a non-empty header
// row. Sheet probing follows the same header-first contract as the
// delimited path.
func parseXLSX(path string, data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &LoadError{Source: path, Reason: "malformed xlsx", Err: err}
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		all, rowsErr := f.GetRows(sheet)
		if rowsErr != nil || len(all) < 2 {
			continue
		}
		if emptyRow(all[0]) {
			continue
		}
		header := all[0]
		rows := make([][]string, 0, len(all)-1)
		for _, row := range all[1:] {
			if emptyRow(row) {
				continue
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}
		return header, rows, nil
	}
	return nil, nil, &LoadError{Source: path, Reason: "no sheet with a header row and data"}
}

func emptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
