package cache

import (
	"errors"
	"sync"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Provider defines the parsed-table cache operations the loader needs.
// The loader owns the lifecycle: entries are created on first load,
// replaced when a source's fingerprint changes, and dropped on Invalidate.
type Provider interface {
	Get(path string) (*models.RawTable, error)
	Set(path string, table *models.RawTable) error
	Del(path string) error
	Close() error
}

// ErrCacheMiss signals that no table is cached for the path.
var ErrCacheMiss = errors.New("cache miss")

// MemoryProvider keeps parsed tables in process memory, keyed by source
// path. It is the only process-wide mutable state in the pipeline.
type MemoryProvider struct {
	mu     sync.RWMutex
	tables map[string]*models.RawTable
}

// NewMemoryProvider creates an empty in-memory table cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{tables: make(map[string]*models.RawTable)}
}

// Get returns the cached table for the path or ErrCacheMiss.
func (p *MemoryProvider) Get(path string) (*models.RawTable, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	table, ok := p.tables[path]
	if !ok {
		return nil, ErrCacheMiss
	}
	return table, nil
}

// Set stores the table under its source path.
func (p *MemoryProvider) Set(path string, table *models.RawTable) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[path] = table
	return nil
}

// Del removes the entry for the path.
func (p *MemoryProvider) Del(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tables, path)
	return nil
}

// Close drops every cached table.
func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables = make(map[string]*models.RawTable)
	return nil
}

// NoopProvider implements Provider but never stores data; used when the
// loader cache is disabled in config.
type NoopProvider struct{}

// Get always returns ErrCacheMiss.
func (NoopProvider) Get(string) (*models.RawTable, error) { return nil, ErrCacheMiss }

// Set discards the table and returns nil.
func (NoopProvider) Set(string, *models.RawTable) error { return nil }

// Del is a no-op for the noop cache.
func (NoopProvider) Del(string) error { return nil }

// Close is a no-op.
func (NoopProvider) Close() error { return nil }
