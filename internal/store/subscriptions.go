package store

import (
	"context"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/storage"
)

// SubscriptionStore holds every channel registered for halt broadcasts.
type SubscriptionStore struct {
	*Store[SubscriptionRecord]
}

// NewSubscriptionStore constructs the subscription store over backend.
func NewSubscriptionStore(backend storage.Backend, logger zerolog.Logger) *SubscriptionStore {
	return &SubscriptionStore{
		Store: New(backend, KeySubscriptions, describeSubscription, logger),
	}
}

func describeSubscription(rec SubscriptionRecord) string {
	return rec.Guild.Name + "#" + rec.Channel.Name
}

// IsSubscribed reports whether the channel already has a subscription.
func (s *SubscriptionStore) IsSubscribed(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(channelID) >= 0
}

// IndexOf returns the sequence index of the channel's subscription, or -1.
func (s *SubscriptionStore) IndexOf(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfLocked(channelID)
}

// Subscribe registers a channel. Returns ErrAlreadySubscribed if a
// subscription for the channel exists.
func (s *SubscriptionStore) Subscribe(ctx context.Context, guild, channel Ref) error {
	rec, err := NewSubscriptionRecord(guild, channel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(channel.ID) >= 0 {
		return ErrAlreadySubscribed
	}
	return s.appendLocked(ctx, rec)
}

// Unsubscribe removes a channel's subscription. Returns ErrNotFound if the
// channel is not subscribed.
func (s *SubscriptionStore) Unsubscribe(ctx context.Context, guild, channel Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(channel.ID)
	if idx < 0 {
		return ErrNotFound
	}
	return s.removeAtLocked(ctx, idx)
}

// ForGuild returns every subscription belonging to the guild.
func (s *SubscriptionStore) ForGuild(guildID string) []SubscriptionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []SubscriptionRecord
	for _, rec := range s.records {
		if rec.Guild.ID == guildID {
			subs = append(subs, rec)
		}
	}
	return subs
}

// RemoveAllForGuild removes every subscription for the guild, one record at a
// time. Used when the bot loses access to a guild.
func (s *SubscriptionStore) RemoveAllForGuild(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		idx := -1
		for i, rec := range s.records {
			if rec.Guild.ID == guildID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		if err := s.removeAtLocked(ctx, idx); err != nil {
			return err
		}
	}
}

func (s *SubscriptionStore) indexOfLocked(channelID string) int {
	for i, rec := range s.records {
		if rec.Channel.ID == channelID {
			return i
		}
	}
	return -1
}
