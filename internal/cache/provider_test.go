package cache

import (
	"errors"
	"testing"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	p := NewMemoryProvider()
	defer p.Close()

	table := &models.RawTable{SourcePath: "nas.csv", Fingerprint: 42}
	if err := p.Set("nas.csv", table); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := p.Get("nas.csv")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Fingerprint != 42 {
		t.Fatalf("fingerprint = %d, want 42", got.Fingerprint)
	}
}

func TestMemoryProviderMiss(t *testing.T) {
	p := NewMemoryProvider()
	if _, err := p.Get("absent.csv"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryProviderDel(t *testing.T) {
	p := NewMemoryProvider()
	if err := p.Set("nas.csv", &models.RawTable{Fingerprint: 1}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := p.Del("nas.csv"); err != nil {
		t.Fatalf("Del returned error: %v", err)
	}
	if _, err := p.Get("nas.csv"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryProviderCloseClears(t *testing.T) {
	p := NewMemoryProvider()
	if err := p.Set("nas.csv", &models.RawTable{Fingerprint: 1}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := p.Get("nas.csv"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after close, got %v", err)
	}
}

func TestNoopProviderAlwaysMisses(t *testing.T) {
	p := NoopProvider{}
	if err := p.Set("nas.csv", &models.RawTable{}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := p.Get("nas.csv"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}
