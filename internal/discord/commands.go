package discord

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"trade-halt-alerts/internal/store"
)

var (
	quotePattern = regexp.MustCompile(`(?i)^q\s+\S`)
	moonPattern  = regexp.MustCompile(`(?i)mo{4,}n`)
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Content == "" {
		return
	}

	if quotePattern.MatchString(m.Content) {
		b.handleQuoteShortcut(m)
		return
	}

	if moonPattern.MatchString(m.Content) {
		b.handleMoon(m)
	}

	if !strings.HasPrefix(strings.ToLower(m.Content), strings.ToLower(b.prefix)) {
		return
	}

	fields := strings.Fields(strings.TrimSpace(m.Content[len(b.prefix):]))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "sub":
		b.handleSubscribe(m)
	case "unsub":
		b.handleUnsubscribe(m)
	case "bouncer":
		b.handleBouncer(m)
	case "autorole":
		b.handleAutorole(m, args)
	default:
		b.logger.Info().Str("command", command).Strs("args", args).Msg("unmapped command")
	}
}

func (b *Bot) handleSubscribe(m *discordgo.MessageCreate) {
	guild := b.guildRef(m.GuildID)
	channel := b.channelRef(m.ChannelID)

	err := b.subs.Subscribe(context.Background(), guild, channel)
	switch {
	case errors.Is(err, store.ErrAlreadySubscribed):
		b.reply(m.Message, "This channel is already subscribed")
	case err != nil:
		b.logger.Error().Err(err).Str("channel", channel.Name).Msg("subscribe failed")
		b.reply(m.Message, "Something went wrong, try again")
	default:
		b.logger.Info().Int("subscriptions", b.subs.Len()).Msg("channel subscribed")
		b.reply(m.Message, "Channel has been subscribed")
	}
}

func (b *Bot) handleUnsubscribe(m *discordgo.MessageCreate) {
	guild := b.guildRef(m.GuildID)
	channel := b.channelRef(m.ChannelID)

	err := b.subs.Unsubscribe(context.Background(), guild, channel)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.reply(m.Message, "This channel has no subscription")
	case err != nil:
		b.logger.Error().Err(err).Str("channel", channel.Name).Msg("unsubscribe failed")
		b.reply(m.Message, "Something went wrong, try again")
	default:
		b.logger.Info().Int("subscriptions", b.subs.Len()).Msg("channel unsubscribed")
		b.reply(m.Message, "Channel has been unsubscribed")
	}
}

// handleBouncer posts the verification gate message for the mentioned role and
// seeds the wave reaction members trigger verification with.
func (b *Bot) handleBouncer(m *discordgo.MessageCreate) {
	if len(m.MentionRoles) == 0 {
		b.reply(m.Message, "Mention the role to gate, e.g. `"+b.prefix+" bouncer @Member`")
		return
	}
	roleID := m.MentionRoles[0]

	if err := b.session.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.logger.Warn().Err(err).Msg("failed deleting bouncer command message")
	}

	text := fmt.Sprintf("This community is %s.\n"+
		"To join the conversation, first verify you're a person: react to this message and I'll DM you a question to answer.\n\n"+
		"Succeed and you'll be assigned <@&%s>. Fail three times and you'll have to wait a little while before trying again. "+
		"To retry, remove your reaction and react again.", bouncerMarker, roleID)

	broadcastMsg, err := b.session.ChannelMessageSend(m.ChannelID, text)
	if err != nil {
		b.logger.Error().Err(err).Str("channel", m.ChannelID).Msg("failed posting bouncer message")
		return
	}
	b.react(m.ChannelID, broadcastMsg.ID, "👋")

	b.logger.Info().
		Str("guild", m.GuildID).
		Str("role", roleID).
		Msg("bouncer configured")
}

// handleAutorole posts a self-assign role message and seeds the thumbs-up
// reaction.
func (b *Bot) handleAutorole(m *discordgo.MessageCreate, args []string) {
	if len(m.MentionRoles) == 0 || len(args) == 0 {
		b.reply(m.Message, "Mention a role and a message, e.g. `"+b.prefix+" autorole React for @News access`")
		return
	}

	if err := b.session.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.logger.Warn().Err(err).Msg("failed deleting autorole command message")
	}

	roleMsg, err := b.session.ChannelMessageSend(m.ChannelID, strings.Join(args, " "))
	if err != nil {
		b.logger.Error().Err(err).Str("channel", m.ChannelID).Msg("failed posting autorole message")
		return
	}
	b.react(m.ChannelID, roleMsg.ID, "👍")

	b.logger.Info().
		Str("guild", m.GuildID).
		Str("role", m.MentionRoles[0]).
		Msg("autorole configured")
}

// handleQuoteShortcut answers `q SYMB` messages with the latest quote.
func (b *Bot) handleQuoteShortcut(m *discordgo.MessageCreate) {
	symbol := strings.ToUpper(strings.TrimSpace(m.Content[1:]))

	quote, err := b.quotes.FetchQuote(context.Background(), symbol)
	if err != nil {
		b.logger.Info().Err(err).Str("symbol", symbol).Msg("quote shortcut failed")
		b.react(m.ChannelID, m.ID, "👎")
		return
	}
	b.react(m.ChannelID, m.ID, "👍")

	text := fmt.Sprintf("Latest quotes for `%s` ...\nOpen: `$%s`, Latest: `$%s`, Low: `$%s`, High: `$%s`\nChange since open: `%s%%`",
		symbol, quote.Open, quote.Last, quote.Low, quote.High, quote.ChangeOpen)

	reply, err := b.session.ChannelMessageSendReply(m.ChannelID, text, m.Reference())
	if err != nil {
		b.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed sending quote reply")
		return
	}

	switch quote.ChangeOpen.Sign() {
	case 1:
		b.react(m.ChannelID, reply.ID, "📈")
	case -1:
		b.react(m.ChannelID, reply.ID, "📉")
	}
}

// handleMoon is strictly load-bearing for morale.
func (b *Bot) handleMoon(m *discordgo.MessageCreate) {
	for _, emoji := range []string{"🐄", "🇲", "🇴", "🅾️"} {
		b.react(m.ChannelID, m.ID, emoji)
	}
}
