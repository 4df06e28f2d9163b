package verify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/store"
)

// Chat is the slice of the chat platform the challenger needs. The adapter
// owns message formatting details beyond the texts passed here.
type Chat interface {
	MemberHasRole(guildID, memberID, roleID string) (bool, error)
	SendChallenge(memberID, question string) error
	ExpireChallenges(memberID string) error
	GrantRole(guildID, memberID, roleID string) error
	SendNotice(memberID, text string) error
}

// Challenger drives the verification lifecycle against the store and the chat
// platform using the pure transition function.
type Challenger struct {
	verifications *store.VerificationStore
	chat          Chat
	policy        Policy
	rng           *rand.Rand
	now           func() time.Time
	logger        zerolog.Logger
}

// NewChallenger constructs a challenger with the given attempt policy.
func NewChallenger(verifications *store.VerificationStore, chat Chat, policy Policy, logger zerolog.Logger) *Challenger {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}
	return &Challenger{
		verifications: verifications,
		chat:          chat,
		policy:        policy,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:           time.Now,
		logger:        logger.With().Str("component", "challenger").Logger(),
	}
}

// Trigger handles a new verification request for (guild, member) against role.
func (c *Challenger) Trigger(ctx context.Context, guild, role, member store.Ref) error {
	held, err := c.chat.MemberHasRole(guild.ID, member.ID, role.ID)
	if err != nil {
		return fmt.Errorf("check member role: %w", err)
	}
	if held {
		c.logger.Debug().Str("member", member.Name).Str("guild", guild.Name).Msg("member already holds role, verification not required")
		return nil
	}

	if _, err := c.verifications.Create(ctx, guild, role, member, c.now()); err != nil && !errors.Is(err, store.ErrAlreadyPending) {
		return err
	}

	rec, ok := c.verifications.Fetch(guild, member.ID)
	if !ok {
		return store.ErrNoPendingVerification
	}

	now := c.now()
	result := Transition(StateOf(rec.Meta, now, c.policy), rec.Meta, EventTrigger, now, c.policy)

	for _, effect := range result.Effects {
		switch effect {
		case EffectExpirePrompt:
			if err := c.chat.ExpireChallenges(member.ID); err != nil {
				c.logger.Warn().Err(err).Str("member", member.Name).Msg("failed expiring previous challenges")
			}
		case EffectRejectCooldown:
			minutes := int(math.Ceil(result.Wait.Minutes()))
			text := fmt.Sprintf("You've used all your attempts. Try again in %d minute(s).", minutes)
			if err := c.chat.SendNotice(member.ID, text); err != nil {
				c.logger.Warn().Err(err).Str("member", member.Name).Msg("failed sending cooldown notice")
			}
			c.logger.Info().Str("member", member.Name).Dur("wait", result.Wait).Msg("verification rejected, cooldown active")
		case EffectIssueChallenge:
			if err := c.issue(ctx, guild, member, result.Meta); err != nil {
				return err
			}
		}
	}
	return nil
}

// issue generates a problem, persists its expected answer, and posts it.
func (c *Challenger) issue(ctx context.Context, guild, member store.Ref, meta store.ChallengeMeta) error {
	problem := NewProblem(c.rng)
	meta.Answer = problem.Answer

	if err := c.verifications.UpdateMeta(ctx, guild, member.ID, meta); err != nil {
		return fmt.Errorf("persist challenge answer: %w", err)
	}

	if err := c.chat.SendChallenge(member.ID, problem.Question()); err != nil {
		return fmt.Errorf("send challenge: %w", err)
	}

	c.logger.Info().
		Str("member", member.Name).
		Str("guild", guild.Name).
		Int("attempt", meta.TotalAttempts).
		Msg("challenge issued")
	return nil
}

// Answer handles a digit selection from the member. Domain outcomes
// (ErrNoPendingVerification, ErrInvalidAnswer) are reported to the member and
// returned to the caller.
func (c *Challenger) Answer(ctx context.Context, memberID string, digit int) error {
	rec, err := c.verifications.Validate(ctx, memberID, digit)
	if errors.Is(err, store.ErrNoPendingVerification) {
		return err
	}
	if errors.Is(err, store.ErrInvalidAnswer) {
		result := Transition(StateIssued, store.ChallengeMeta{}, EventAnswerWrong, c.now(), c.policy)
		for _, effect := range result.Effects {
			switch effect {
			case EffectExpirePrompt:
				if expireErr := c.chat.ExpireChallenges(memberID); expireErr != nil {
					c.logger.Warn().Err(expireErr).Str("member", memberID).Msg("failed expiring spent challenge")
				}
			case EffectNotifyFailure:
				if noticeErr := c.chat.SendNotice(memberID, "That's not the right answer. Remove your reaction and react again to retry."); noticeErr != nil {
					c.logger.Warn().Err(noticeErr).Str("member", memberID).Msg("failed sending failure notice")
				}
			}
		}
		return err
	}
	if err != nil {
		return err
	}

	result := Transition(StateIssued, rec.Meta, EventAnswerCorrect, c.now(), c.policy)
	for _, effect := range result.Effects {
		if effect != EffectGrantRole {
			continue
		}
		if err := c.chat.GrantRole(rec.Guild.ID, rec.Member.ID, rec.Role.ID); err != nil {
			return fmt.Errorf("grant role: %w", err)
		}
		if err := c.chat.SendNotice(rec.Member.ID, fmt.Sprintf("Correct! You've been given the %s role in %s. Welcome in.", rec.Role.Name, rec.Guild.Name)); err != nil {
			c.logger.Warn().Err(err).Str("member", rec.Member.Name).Msg("failed sending success notice")
		}
	}

	c.logger.Info().Str("member", rec.Member.Name).Str("guild", rec.Guild.Name).Msg("verification passed")
	return nil
}

// ReconcileStartup sweeps every pending verification found at process start:
// any previously posted challenge message is treated as expired.
func (c *Challenger) ReconcileStartup(ctx context.Context) {
	pending := c.verifications.All()
	for _, rec := range pending {
		if err := c.chat.ExpireChallenges(rec.Member.ID); err != nil {
			c.logger.Warn().Err(err).Str("member", rec.Member.Name).Msg("failed expiring orphaned challenge")
		}
	}
	if len(pending) > 0 {
		c.logger.Info().Int("pending", len(pending)).Msg("swept orphaned challenges")
	}
}
