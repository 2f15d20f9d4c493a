package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Save(ctx, "dev1", "k", []byte("v"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, "dev1", "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Expected v, got %s", got)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	s := NewMemory()

	got, err := s.Load(context.Background(), "dev1", "absent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing key, got %s", got)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Save(ctx, "dev1", "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	got, err := s.Load(ctx, "dev1", "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected expired key to read as absent, got %s", got)
	}
}

func TestMemoryStoreOwnerIsolation(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Save(ctx, "dev1", "k", []byte("one"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, "dev2", "k", []byte("two"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, "dev1", "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "one" {
		t.Errorf("Expected one, got %s", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Save(ctx, "dev1", "k", []byte("v"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, "dev1", "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Load(ctx, "dev1", "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected deleted key to read as absent, got %s", got)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemory()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := s.Load(context.Background(), "dev1", "k"); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := s.Save(context.Background(), "dev1", "k", []byte("v"), 0); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
