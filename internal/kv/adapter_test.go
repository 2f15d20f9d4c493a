package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingStore returns an error from every operation.
type failingStore struct{}

func (failingStore) Load(ctx context.Context, owner, key string) ([]byte, error) {
	return nil, errors.New("storage disabled")
}

func (failingStore) Save(ctx context.Context, owner, key string, value []byte, ttl time.Duration) error {
	return errors.New("quota exceeded")
}

func (failingStore) Delete(ctx context.Context, owner, key string) error {
	return errors.New("storage disabled")
}

func (failingStore) Close() error { return nil }

func TestAdapterJSONRoundTrip(t *testing.T) {
	adapter := NewAdapter(NewMemory())
	ctx := context.Background()

	type pref struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	adapter.SaveJSON(ctx, "dev1", "test-key", pref{Name: "a", N: 3}, 0)

	var got pref
	if !adapter.LoadJSON(ctx, "dev1", "test-key", &got) {
		t.Fatal("Expected LoadJSON to find the value")
	}
	if got.Name != "a" || got.N != 3 {
		t.Errorf("Unexpected value: %+v", got)
	}
}

func TestAdapterMissingKey(t *testing.T) {
	adapter := NewAdapter(NewMemory())

	var got map[string]string
	if adapter.LoadJSON(context.Background(), "dev1", "absent", &got) {
		t.Error("Expected LoadJSON to report absent")
	}
}

func TestAdapterCorruptedRecord(t *testing.T) {
	mem := NewMemory()
	adapter := NewAdapter(mem)
	ctx := context.Background()

	// Simulate a corrupted stored value: not JSON at all.
	if err := mem.Save(ctx, "dev1", "bad", []byte("not json"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got map[string]string
	if adapter.LoadJSON(ctx, "dev1", "bad", &got) {
		t.Error("Expected corrupted record to read as absent")
	}
}

func TestAdapterUnknownEnvelopeVersion(t *testing.T) {
	mem := NewMemory()
	adapter := NewAdapter(mem)
	ctx := context.Background()

	if err := mem.Save(ctx, "dev1", "future", []byte(`{"version":99,"payload":{}}`), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got map[string]string
	if adapter.LoadJSON(ctx, "dev1", "future", &got) {
		t.Error("Expected unknown-version record to read as absent")
	}
}

func TestAdapterAbsorbsDriverFailures(t *testing.T) {
	adapter := NewAdapter(failingStore{})
	ctx := context.Background()

	var got map[string]string
	if adapter.LoadJSON(ctx, "dev1", "k", &got) {
		t.Error("Expected load against failing store to report absent")
	}

	// Save and Delete must not panic or propagate.
	adapter.SaveJSON(ctx, "dev1", "k", map[string]string{"a": "b"}, 0)
	adapter.SaveString(ctx, "dev1", "k", "expanded", 0)
	adapter.Delete(ctx, "dev1", "k")

	if _, ok := adapter.LoadString(ctx, "dev1", "k"); ok {
		t.Error("Expected string load against failing store to report absent")
	}
}

func TestAdapterRawString(t *testing.T) {
	adapter := NewAdapter(NewMemory())
	ctx := context.Background()

	adapter.SaveString(ctx, "dev1", "agents-manager-chat-state", "expanded", 0)

	got, ok := adapter.LoadString(ctx, "dev1", "agents-manager-chat-state")
	if !ok {
		t.Fatal("Expected string value")
	}
	if got != "expanded" {
		t.Errorf("Expected expanded, got %q", got)
	}
}
