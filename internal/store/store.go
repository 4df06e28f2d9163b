package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/storage"
)

// Fixed backend keys, one per record kind.
const (
	KeySubscriptions = "subs"
	KeyHalts         = "halts"
	KeyVerifications = "verifications"
)

// Domain outcomes surfaced by the store specializations. These are expected
// user-facing conditions, never escalated.
var (
	ErrAlreadySubscribed     = errors.New("channel already subscribed")
	ErrNotFound              = errors.New("record not found")
	ErrAlreadyPending        = errors.New("verification already pending")
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrInvalidAnswer         = errors.New("invalid answer")
)

// Store is an ordered in-memory sequence of records mirrored into a durable
// key/value backend under a single fixed key. Every mutation persists the
// entire sequence before the in-memory view is swapped; on persistence failure
// the prior state stays visible and the error is returned. This bounds
// practical sequence size to hundreds of records, which matches the use.
type Store[T any] struct {
	mu       sync.Mutex
	backend  storage.Backend
	key      string
	describe func(T) string
	logger   zerolog.Logger
	records  []T
}

// New constructs a record store over backend, addressed by key. describe
// renders a record for log lines.
func New[T any](backend storage.Backend, key string, describe func(T) string, logger zerolog.Logger) *Store[T] {
	if key == "" {
		panic("store key must not be empty")
	}
	return &Store[T]{
		backend:  backend,
		key:      key,
		describe: describe,
		logger:   logger.With().Str("component", "store").Str("store", key).Logger(),
	}
}

// Key returns the fixed backend key of this store.
func (s *Store[T]) Key() string {
	return s.key
}

// Load replaces the in-memory sequence with the persisted value. A missing key
// or a corrupt payload yields an empty sequence and is logged, not raised.
func (s *Store[T]) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil

	raw, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		s.logger.Debug().Msg("no persisted value, starting empty")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed loading store")
		return
	}

	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Error().Err(err).Msg("corrupt store payload, starting empty")
		return
	}

	s.records = records
	s.logger.Info().Int("records", len(records)).Msg("store loaded")
}

// Append inserts a record at the tail.
func (s *Store[T]) Append(ctx context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ctx, record)
}

// Prepend inserts a record at the head, used for most-recent-first logs.
func (s *Store[T]) Prepend(ctx context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prependLocked(ctx, record)
}

// RemoveAt removes the record at index. An out-of-range index is a programming
// error and panics.
func (s *Store[T]) RemoveAt(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeAtLocked(ctx, index)
}

// All returns a copy of the current in-memory sequence. No I/O.
func (s *Store[T]) All() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Len returns the current sequence length.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush re-persists the current sequence unchanged.
func (s *Store[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, s.records)
}

func (s *Store[T]) appendLocked(ctx context.Context, record T) error {
	next := append(slices.Clone(s.records), record)
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.logger.Debug().Str("record", s.describe(record)).Msg("record appended")
	return nil
}

func (s *Store[T]) prependLocked(ctx context.Context, record T) error {
	next := append([]T{record}, s.records...)
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.logger.Debug().Str("record", s.describe(record)).Msg("record prepended")
	return nil
}

func (s *Store[T]) removeAtLocked(ctx context.Context, index int) error {
	record := s.records[index]
	next := slices.Delete(slices.Clone(s.records), index, index+1)
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.logger.Debug().Str("record", s.describe(record)).Msg("record removed")
	return nil
}

// persistLocked writes next to the backend and only then makes it the visible
// sequence. Callers must hold mu.
func (s *Store[T]) persistLocked(ctx context.Context, next []T) error {
	if next == nil {
		next = []T{}
	}

	payload, err := json.Marshal(next)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed encoding store payload")
		return fmt.Errorf("encode %s: %w", s.key, err)
	}

	if err := s.backend.Put(ctx, s.key, string(payload)); err != nil {
		s.logger.Error().Err(err).Msg("failed persisting store")
		return fmt.Errorf("persist %s: %w", s.key, err)
	}

	s.records = next
	return nil
}
