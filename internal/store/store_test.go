package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/storage"
)

type fakeBackend struct {
	data    map[string]string
	failPut bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string]string)}
}

func (f *fakeBackend) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return value, nil
}

func (f *fakeBackend) Put(ctx context.Context, key, value string) error {
	if f.failPut {
		return errors.New("backend down")
	}
	f.data[key] = value
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestLoadMissingKeyStartsEmpty(t *testing.T) {
	s := New(newFakeBackend(), "test", func(v string) string { return v }, testLogger())
	s.Load(context.Background())

	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", s.Len())
	}
}

func TestLoadCorruptPayloadStartsEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.data["test"] = `{not json`

	s := New(backend, "test", func(v string) string { return v }, testLogger())
	s.Load(context.Background())

	if s.Len() != 0 {
		t.Fatalf("expected empty store after corrupt payload, got %d records", s.Len())
	}
}

func TestRoundTripPreservesContentAndOrder(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	describe := func(v string) string { return v }

	s := New(backend, "test", describe, testLogger())
	if err := s.Append(ctx, "b"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "c"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Prepend(ctx, "a"); err != nil {
		t.Fatalf("prepend: %v", err)
	}
	if err := s.RemoveAt(ctx, 2); err != nil {
		t.Fatalf("removeAt: %v", err)
	}

	reloaded := New(backend, "test", describe, testLogger())
	reloaded.Load(ctx)

	want := []string{"a", "b"}
	got := reloaded.All()
	if len(got) != len(want) {
		t.Fatalf("expected %v after reload, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v after reload, got %v", want, got)
		}
	}
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	s := New(backend, "test", func(v string) string { return v }, testLogger())

	if err := s.Append(ctx, "keep"); err != nil {
		t.Fatalf("append: %v", err)
	}

	backend.failPut = true
	if err := s.Append(ctx, "lost"); err == nil {
		t.Fatal("expected append to report persistence failure")
	}
	if err := s.RemoveAt(ctx, 0); err == nil {
		t.Fatal("expected removeAt to report persistence failure")
	}

	got := s.All()
	if len(got) != 1 || got[0] != "keep" {
		t.Fatalf("expected prior state to survive failed persistence, got %v", got)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeBackend(), "test", func(v string) string { return v }, testLogger())
	if err := s.Append(ctx, "original"); err != nil {
		t.Fatalf("append: %v", err)
	}

	view := s.All()
	view[0] = "mutated"

	if s.All()[0] != "original" {
		t.Fatal("external mutation of All() result must not affect the store")
	}
}
