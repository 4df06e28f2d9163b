// Package discord adapts the chat platform: session lifecycle, command
// dispatch, reaction handling, and halt embed rendering. The core packages
// only ever see the narrow interfaces this bot implements.
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/broadcast"
	"trade-halt-alerts/internal/fetcher"
	"trade-halt-alerts/internal/store"
	"trade-halt-alerts/internal/verify"
)

// Message markers used to recognise the bot's own prompts later.
const (
	bouncerMarker   = "protected by a bouncer"
	challengeMarker = "🛡️ Verification question"
	expiredPrefix   = "~~expired~~ "
)

// Options parameterise the bot.
type Options struct {
	Token  string
	Prefix string
	Status string
}

// Bot wraps a discordgo session and routes its events into the stores and the
// verification challenger.
type Bot struct {
	session    *discordgo.Session
	subs       *store.SubscriptionStore
	halts      *store.HaltStore
	quotes     fetcher.QuoteService
	challenger *verify.Challenger
	prefix     string
	status     string
	logger     zerolog.Logger
}

// New constructs the bot and registers its event handlers. The session is not
// opened yet.
func New(opts Options, subs *store.SubscriptionStore, halts *store.HaltStore, quotes fetcher.QuoteService, logger zerolog.Logger) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("discord.token is required")
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsMessageContent

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "silk"
	}

	b := &Bot{
		session: session,
		subs:    subs,
		halts:   halts,
		quotes:  quotes,
		prefix:  prefix,
		status:  opts.Status,
		logger:  logger.With().Str("component", "discord").Logger(),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildDelete)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	session.AddHandler(b.onReactionRemove)

	return b, nil
}

// AttachChallenger wires the verification challenger in after construction
// (the challenger needs the bot as its Chat implementation).
func (b *Bot) AttachChallenger(c *verify.Challenger) {
	b.challenger = c
}

// Open creates the gateway session.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	guilds := make([]string, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		guilds = append(guilds, g.ID)
	}

	latest := "N/A"
	if rec, ok := b.halts.MostRecent(); ok {
		latest = fmt.Sprintf("%s@%sT%s", rec.Symbol, rec.Date, rec.Time)
	}

	b.logger.Info().
		Str("user", r.User.String()).
		Int("guilds", len(r.Guilds)).
		Int("subscriptions", b.subs.Len()).
		Str("latest_halt", latest).
		Strs("guild_ids", guilds).
		Msg("session ready")

	if b.status != "" {
		if err := s.UpdateWatchStatus(0, b.status); err != nil {
			b.logger.Warn().Err(err).Msg("failed updating presence")
		}
	}
}

// onGuildDelete sweeps every subscription of a guild the bot lost access to.
func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}

	b.logger.Info().Str("guild", g.ID).Msg("removed from guild, sweeping subscriptions")
	if err := b.subs.RemoveAllForGuild(context.Background(), g.ID); err != nil {
		b.logger.Error().Err(err).Str("guild", g.ID).Msg("failed sweeping guild subscriptions")
	}
}

// guildRef resolves a guild's id/name pair, preferring state cache.
func (b *Bot) guildRef(guildID string) store.Ref {
	ref := store.Ref{ID: guildID}
	if g, err := b.session.State.Guild(guildID); err == nil {
		ref.Name = g.Name
	} else if g, err := b.session.Guild(guildID); err == nil {
		ref.Name = g.Name
	}
	return ref
}

func (b *Bot) channelRef(channelID string) store.Ref {
	ref := store.Ref{ID: channelID}
	if ch, err := b.session.State.Channel(channelID); err == nil {
		ref.Name = ch.Name
	} else if ch, err := b.session.Channel(channelID); err == nil {
		ref.Name = ch.Name
	}
	return ref
}

func (b *Bot) roleRef(guildID, roleID string) store.Ref {
	ref := store.Ref{ID: roleID}
	if role, err := b.session.State.Role(guildID, roleID); err == nil {
		ref.Name = role.Name
	}
	return ref
}

func (b *Bot) reply(m *discordgo.Message, text string) {
	if _, err := b.session.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		b.logger.Warn().Err(err).Str("channel", m.ChannelID).Msg("failed sending reply")
	}
}

func (b *Bot) react(channelID, messageID, emoji string) {
	if err := b.session.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		b.logger.Warn().Err(err).Str("emoji", emoji).Msg("failed adding reaction")
	}
}

// Send implements broadcast.Sender.
func (b *Bot) Send(ctx context.Context, channelID string, notice broadcast.Notice) error {
	_, err := b.session.ChannelMessageSendEmbed(channelID, HaltEmbed(notice))
	return err
}

// MemberHasRole implements verify.Chat.
func (b *Bot) MemberHasRole(guildID, memberID, roleID string) (bool, error) {
	member, err := b.session.GuildMember(guildID, memberID)
	if err != nil {
		return false, err
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// SendChallenge implements verify.Chat: DMs the problem and seeds the digit
// reactions the member answers with.
func (b *Bot) SendChallenge(memberID, question string) error {
	channel, err := b.session.UserChannelCreate(memberID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}

	text := fmt.Sprintf("%s: what is `%s`?\nReact with the matching digit below.", challengeMarker, question)
	msg, err := b.session.ChannelMessageSend(channel.ID, text)
	if err != nil {
		return fmt.Errorf("send challenge dm: %w", err)
	}

	for _, emoji := range digitEmojis {
		if err := b.session.MessageReactionAdd(channel.ID, msg.ID, emoji); err != nil {
			b.logger.Warn().Err(err).Str("emoji", emoji).Msg("failed seeding digit reaction")
		}
	}
	return nil
}

// ExpireChallenges implements verify.Chat: marks any outstanding challenge
// DMs to the member as expired.
func (b *Bot) ExpireChallenges(memberID string) error {
	channel, err := b.session.UserChannelCreate(memberID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}

	messages, err := b.session.ChannelMessages(channel.ID, 25, "", "", "")
	if err != nil {
		return fmt.Errorf("list dm messages: %w", err)
	}

	for _, msg := range messages {
		if msg.Author == nil || msg.Author.ID != b.session.State.User.ID {
			continue
		}
		if !strings.HasPrefix(msg.Content, challengeMarker) {
			continue
		}
		if _, err := b.session.ChannelMessageEdit(channel.ID, msg.ID, expiredPrefix+msg.Content); err != nil {
			b.logger.Warn().Err(err).Str("message", msg.ID).Msg("failed marking challenge expired")
		}
	}
	return nil
}

// GrantRole implements verify.Chat.
func (b *Bot) GrantRole(guildID, memberID, roleID string) error {
	return b.session.GuildMemberRoleAdd(guildID, memberID, roleID)
}

// SendNotice implements verify.Chat.
func (b *Bot) SendNotice(memberID, text string) error {
	channel, err := b.session.UserChannelCreate(memberID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = b.session.ChannelMessageSend(channel.ID, text)
	return err
}

var (
	_ broadcast.Sender = (*Bot)(nil)
	_ verify.Chat      = (*Bot)(nil)
)
