package discord

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"

	"trade-halt-alerts/internal/store"
)

// digitEmojis are the keycap reactions for answers 0 through 9, index ==
// digit.
var digitEmojis = []string{
	"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣",
	"5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣",
}

func digitOf(emoji string) (int, bool) {
	for digit, candidate := range digitEmojis {
		if emoji == candidate {
			return digit, true
		}
	}
	return 0, false
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if b.challenger == nil || r.UserID == s.State.User.ID {
		return
	}

	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		b.logger.Warn().Err(err).Str("message", r.MessageID).Msg("failed resolving reacted message")
		return
	}
	if msg.Author == nil || msg.Author.ID != s.State.User.ID {
		return
	}

	switch {
	case strings.HasPrefix(msg.Content, challengeMarker):
		b.handleChallengeAnswer(r)
	case r.GuildID != "" && strings.Contains(msg.Content, bouncerMarker):
		b.handleVerificationTrigger(r, msg)
	}
}

// onReactionRemove exists only for visibility; retrying a challenge is
// remove-then-react, and the re-add carries the trigger.
func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.UserID == s.State.User.ID {
		return
	}
	b.logger.Debug().
		Str("user", r.UserID).
		Str("emoji", r.Emoji.Name).
		Msg("reaction removed")
}

// handleVerificationTrigger starts or advances verification for a member who
// reacted to a bouncer message.
func (b *Bot) handleVerificationTrigger(r *discordgo.MessageReactionAdd, msg *discordgo.Message) {
	roleID := bouncerRoleID(msg.Content)
	if roleID == "" {
		b.logger.Warn().Str("message", msg.ID).Msg("bouncer message carries no role mention")
		return
	}

	guild := b.guildRef(r.GuildID)
	role := b.roleRef(r.GuildID, roleID)
	member := store.Ref{ID: r.UserID}
	if m, err := b.session.GuildMember(r.GuildID, r.UserID); err == nil && m.User != nil {
		member.Name = m.User.Username
	}

	if err := b.challenger.Trigger(context.Background(), guild, role, member); err != nil {
		b.logger.Error().Err(err).Str("member", r.UserID).Msg("verification trigger failed")
	}
}

// handleChallengeAnswer maps a digit reaction on a challenge DM to an answer.
func (b *Bot) handleChallengeAnswer(r *discordgo.MessageReactionAdd) {
	digit, ok := digitOf(r.Emoji.Name)
	if !ok {
		return
	}

	err := b.challenger.Answer(context.Background(), r.UserID, digit)
	switch {
	case errors.Is(err, store.ErrNoPendingVerification):
		b.logger.Debug().Str("member", r.UserID).Msg("answer without pending verification")
	case errors.Is(err, store.ErrInvalidAnswer):
		b.logger.Info().Str("member", r.UserID).Int("digit", digit).Msg("wrong challenge answer")
	case err != nil:
		b.logger.Error().Err(err).Str("member", r.UserID).Msg("answer handling failed")
	}
}

// bouncerRoleID extracts the gated role id from a bouncer message's role
// mention.
func bouncerRoleID(content string) string {
	start := strings.Index(content, "<@&")
	if start < 0 {
		return ""
	}
	rest := content[start+3:]
	end := strings.IndexByte(rest, '>')
	if end <= 0 {
		return ""
	}
	return rest[:end]
}
