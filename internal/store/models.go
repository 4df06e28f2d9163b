package store

import (
	"fmt"
	"time"
)

// AnswerUnset marks a verification record between issuance and challenge
// generation: no expected answer exists yet.
const AnswerUnset = -1

// Ref identifies a chat-platform entity (guild, channel, role, or member).
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubscriptionRecord registers a channel for halt broadcasts. Unique per
// channel id regardless of guild.
type SubscriptionRecord struct {
	Guild   Ref `json:"guild"`
	Channel Ref `json:"channel"`
}

// NewSubscriptionRecord builds a validated subscription record.
func NewSubscriptionRecord(guild, channel Ref) (SubscriptionRecord, error) {
	if guild.ID == "" {
		return SubscriptionRecord{}, fmt.Errorf("subscription record: guild id required")
	}
	if channel.ID == "" {
		return SubscriptionRecord{}, fmt.Errorf("subscription record: channel id required")
	}
	return SubscriptionRecord{Guild: guild, Channel: channel}, nil
}

// HaltRecord is a single observed trading halt, parsed once at ingestion and
// immutable thereafter. Timestamp is epoch seconds derived from the halt date
// and time in the exchange timezone.
type HaltRecord struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Market     string `json:"market"`
	ReasonCode string `json:"reasonCode"`
	ReasonText string `json:"reasonText"`
	HaltedOn   string `json:"haltedOn"`
	ResumeOn   string `json:"resumeOn"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Timestamp  int64  `json:"timestamp"`
}

// NewHaltRecord builds a validated halt record.
func NewHaltRecord(rec HaltRecord) (HaltRecord, error) {
	if rec.Symbol == "" {
		return HaltRecord{}, fmt.Errorf("halt record: symbol required")
	}
	if rec.Timestamp <= 0 {
		return HaltRecord{}, fmt.Errorf("halt record: timestamp required")
	}
	return rec, nil
}

// Matches reports whether two halts describe the same event. The match key is
// (symbol, timestamp).
func (h HaltRecord) Matches(other HaltRecord) bool {
	return h.Symbol == other.Symbol && h.Timestamp == other.Timestamp
}

// ChallengeMeta tracks the attempt state of a pending verification. It is the
// only mutable part of a VerificationRecord.
type ChallengeMeta struct {
	LastAttempt   int64 `json:"lastAttempt"`
	TotalAttempts int   `json:"totalAttempts"`
	Answer        int   `json:"answer"`
}

// LastAttemptTime converts the epoch-millisecond stamp back to a time.Time.
func (m ChallengeMeta) LastAttemptTime() time.Time {
	return time.UnixMilli(m.LastAttempt)
}

// VerificationRecord is a pending human-verification challenge. Unique per
// (guild id, member id).
type VerificationRecord struct {
	Guild  Ref           `json:"guild"`
	Role   Ref           `json:"role"`
	Member Ref           `json:"member"`
	Meta   ChallengeMeta `json:"meta"`
}

// NewVerificationRecord builds a validated verification record with fresh meta.
func NewVerificationRecord(guild, role, member Ref, now time.Time) (VerificationRecord, error) {
	if guild.ID == "" {
		return VerificationRecord{}, fmt.Errorf("verification record: guild id required")
	}
	if role.ID == "" {
		return VerificationRecord{}, fmt.Errorf("verification record: role id required")
	}
	if member.ID == "" {
		return VerificationRecord{}, fmt.Errorf("verification record: member id required")
	}
	return VerificationRecord{
		Guild:  guild,
		Role:   role,
		Member: member,
		Meta: ChallengeMeta{
			LastAttempt:   now.UnixMilli(),
			TotalAttempts: 0,
			Answer:        AnswerUnset,
		},
	}, nil
}
