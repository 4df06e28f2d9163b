package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/storage"
)

// VerificationStore holds every pending human-verification challenge.
type VerificationStore struct {
	*Store[VerificationRecord]
}

// NewVerificationStore constructs the verification store over backend.
func NewVerificationStore(backend storage.Backend, logger zerolog.Logger) *VerificationStore {
	return &VerificationStore{
		Store: New(backend, KeyVerifications, describeVerification, logger),
	}
}

func describeVerification(rec VerificationRecord) string {
	return rec.Guild.Name + "#" + rec.Member.Name
}

// matchesGuild tolerates guild-identity drift: a record matches by guild id or
// by guild name.
func matchesGuild(rec VerificationRecord, guild Ref) bool {
	return rec.Guild.ID == guild.ID || rec.Guild.Name == guild.Name
}

// IsPending reports whether the member has a pending verification in the
// guild.
func (s *VerificationStore) IsPending(guild Ref, memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(guild, memberID) >= 0
}

// ForMember returns every pending verification for the member, across guilds.
func (s *VerificationStore) ForMember(memberID string) []VerificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []VerificationRecord
	for _, rec := range s.records {
		if rec.Member.ID == memberID {
			pending = append(pending, rec)
		}
	}
	return pending
}

// Fetch returns the member's pending verification in the guild, if any.
func (s *VerificationStore) Fetch(guild Ref, memberID string) (VerificationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(guild, memberID)
	if idx < 0 {
		return VerificationRecord{}, false
	}
	return s.records[idx], true
}

// Create registers a fresh verification for (guild, member). Returns
// ErrAlreadyPending if one exists.
func (s *VerificationStore) Create(ctx context.Context, guild, role, member Ref, now time.Time) (VerificationRecord, error) {
	rec, err := NewVerificationRecord(guild, role, member, now)
	if err != nil {
		return VerificationRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(guild, member.ID) >= 0 {
		return VerificationRecord{}, ErrAlreadyPending
	}
	if err := s.appendLocked(ctx, rec); err != nil {
		return VerificationRecord{}, err
	}
	return rec, nil
}

// UpdateMeta replaces the meta of the member's pending verification in the
// guild. Returns ErrNotFound if none is pending.
func (s *VerificationStore) UpdateMeta(ctx context.Context, guild Ref, memberID string, meta ChallengeMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(guild, memberID)
	if idx < 0 {
		return ErrNotFound
	}

	next := make([]VerificationRecord, len(s.records))
	copy(next, s.records)
	next[idx].Meta = meta
	return s.persistLocked(ctx, next)
}

// Validate checks answer against the member's pending verifications. On an
// exact numeric match the matching record is removed and returned. Returns
// ErrNoPendingVerification when nothing is pending, ErrInvalidAnswer when no
// pending record expects the answer.
func (s *VerificationStore) Validate(ctx context.Context, memberID string, answer int) (VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := -1
	pending := false
	for i, rec := range s.records {
		if rec.Member.ID != memberID {
			continue
		}
		pending = true
		if rec.Meta.Answer != AnswerUnset && rec.Meta.Answer == answer {
			matched = i
			break
		}
	}

	if !pending {
		return VerificationRecord{}, ErrNoPendingVerification
	}
	if matched < 0 {
		return VerificationRecord{}, ErrInvalidAnswer
	}

	rec := s.records[matched]
	if err := s.removeAtLocked(ctx, matched); err != nil {
		return VerificationRecord{}, err
	}
	return rec, nil
}

// Remove deletes the member's pending verification in the guild. Returns
// ErrNotFound if none is pending.
func (s *VerificationStore) Remove(ctx context.Context, guild Ref, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(guild, memberID)
	if idx < 0 {
		return ErrNotFound
	}
	return s.removeAtLocked(ctx, idx)
}

func (s *VerificationStore) indexOfLocked(guild Ref, memberID string) int {
	for i, rec := range s.records {
		if matchesGuild(rec, guild) && rec.Member.ID == memberID {
			return i
		}
	}
	return -1
}
