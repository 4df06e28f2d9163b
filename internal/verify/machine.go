// Package verify implements the human-verification challenge lifecycle: a
// reaction triggers a small arithmetic problem over DM, answered by a digit
// reaction, with an attempt count and cooldown policy per (guild, member).
package verify

import (
	"time"

	"trade-halt-alerts/internal/store"
)

// State is the explicit lifecycle position of a verification.
type State int

const (
	// StateAbsent means no record exists for the (guild, member) pair.
	StateAbsent State = iota
	// StateIssued means a challenge has been posted and an answer is awaited.
	StateIssued
	// StateLocked means the attempt budget is exhausted and the cooldown has
	// not yet elapsed.
	StateLocked
	// StateAnswered is terminal: the record is removed and the role granted.
	StateAnswered
)

// Event is an external stimulus applied to the machine.
type Event int

const (
	// EventTrigger is a new verification request (a member reacting).
	EventTrigger Event = iota
	// EventAnswerCorrect is a digit reaction matching the expected answer.
	EventAnswerCorrect
	// EventAnswerWrong is a digit reaction that matches no pending answer.
	EventAnswerWrong
)

// Effect is an action the caller must perform after a transition.
type Effect int

const (
	// EffectExpirePrompt invalidates any outstanding challenge message.
	EffectExpirePrompt Effect = iota
	// EffectIssueChallenge generates and posts a fresh problem.
	EffectIssueChallenge
	// EffectRejectCooldown tells the member the remaining wait time.
	EffectRejectCooldown
	// EffectGrantRole assigns the configured role to the member.
	EffectGrantRole
	// EffectNotifyFailure tells the member the answer was wrong.
	EffectNotifyFailure
)

// Policy bounds challenge attempts.
type Policy struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// DefaultPolicy is three attempts with a thirty-minute cooldown.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Cooldown: 30 * time.Minute}
}

// Result carries the post-transition state, the updated meta to persist, the
// effects to apply, and the remaining wait when the trigger was rejected.
type Result struct {
	State   State
	Meta    store.ChallengeMeta
	Effects []Effect
	Wait    time.Duration
}

// StateOf derives the lifecycle state of an existing record's meta.
func StateOf(meta store.ChallengeMeta, now time.Time, policy Policy) State {
	if meta.TotalAttempts >= policy.MaxAttempts &&
		now.Sub(meta.LastAttemptTime()) < policy.Cooldown {
		return StateLocked
	}
	return StateIssued
}

// Transition is the pure verification transition function. It never touches a
// store or a chat client; callers persist the returned meta and perform the
// effects.
func Transition(state State, meta store.ChallengeMeta, event Event, now time.Time, policy Policy) Result {
	switch event {
	case EventTrigger:
		return applyTrigger(meta, now, policy)
	case EventAnswerCorrect:
		return Result{
			State:   StateAnswered,
			Meta:    meta,
			Effects: []Effect{EffectGrantRole},
		}
	case EventAnswerWrong:
		// Record stays pending; the outstanding prompt is spent.
		return Result{
			State:   StateIssued,
			Meta:    meta,
			Effects: []Effect{EffectExpirePrompt, EffectNotifyFailure},
		}
	}
	return Result{State: state, Meta: meta}
}

func applyTrigger(meta store.ChallengeMeta, now time.Time, policy Policy) Result {
	if meta.TotalAttempts < policy.MaxAttempts {
		meta.TotalAttempts++
		meta.LastAttempt = now.UnixMilli()
		meta.Answer = store.AnswerUnset
		return Result{
			State:   StateIssued,
			Meta:    meta,
			Effects: []Effect{EffectExpirePrompt, EffectIssueChallenge},
		}
	}

	elapsed := now.Sub(meta.LastAttemptTime())
	if elapsed >= policy.Cooldown {
		// Cooldown release counts the releasing trigger as the first attempt
		// of the new window.
		meta.TotalAttempts = 1
		meta.LastAttempt = now.UnixMilli()
		meta.Answer = store.AnswerUnset
		return Result{
			State:   StateIssued,
			Meta:    meta,
			Effects: []Effect{EffectExpirePrompt, EffectIssueChallenge},
		}
	}

	return Result{
		State:   StateLocked,
		Meta:    meta,
		Effects: []Effect{EffectRejectCooldown},
		Wait:    policy.Cooldown - elapsed,
	}
}
