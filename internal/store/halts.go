package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/storage"
)

// HaltStore is a most-recent-first rolling log of observed trading halts.
type HaltStore struct {
	*Store[HaltRecord]
}

// NewHaltStore constructs the halt history store over backend.
func NewHaltStore(backend storage.Backend, logger zerolog.Logger) *HaltStore {
	return &HaltStore{
		Store: New(backend, KeyHalts, describeHalt, logger),
	}
}

func describeHalt(rec HaltRecord) string {
	return fmt.Sprintf("%s@%sT%s", rec.Symbol, rec.Date, rec.Time)
}

// MostRecent returns the head of the log, the last halt seen before shutdown.
// Used to seed dedup state at startup.
func (s *HaltStore) MostRecent() (HaltRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return HaltRecord{}, false
	}
	return s.records[0], true
}

// FindMatching scans for a recorded halt sharing the candidate's
// (symbol, timestamp) match key.
func (s *HaltStore) FindMatching(candidate HaltRecord) (HaltRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Matches(candidate) {
			return rec, true
		}
	}
	return HaltRecord{}, false
}

// Record prepends the latest halt, keeping the log newest-first.
func (s *HaltStore) Record(ctx context.Context, latest HaltRecord) error {
	rec, err := NewHaltRecord(latest)
	if err != nil {
		return err
	}
	return s.Prepend(ctx, rec)
}
