package memorystore

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/lifeline/internal/infra/persistence"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Save(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Load = %q, want v1", got)
	}

	// Stored bytes are isolated from caller mutation.
	got[0] = 'X'
	again, _ := s.Load(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("expected stored copy untouched, got %q", again)
	}
}

func TestStore_MissingKey(t *testing.T) {
	s := New()
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, persistence.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Save(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, "k"); !errors.Is(err, persistence.ErrKeyNotFound) {
		t.Errorf("expected key gone, got %v", err)
	}
}
