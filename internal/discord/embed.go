package discord

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"trade-halt-alerts/internal/broadcast"
	"trade-halt-alerts/internal/fetcher"
)

const (
	haltEmbedColor   = 0xff4242
	maxIssueNameLen  = 20
	quotePlaceholder = "$--.--"
)

var poweredBy = []string{
	"BRRRRRRRRRRRRRRRRR",
	"r/wallstreetbets",
	"YOUR AD HERE",
	"users like you",
	"trades like you",
	"JPOW",
	"the INTERNET",
	"millennials",
	"consumerism",
	"COFFEE",
	"late night shopping",
	"💰💰💰",
	"💸💸💸",
	"Dogecoin",
}

// HaltEmbed renders a halt notice. Missing enrichment becomes placeholders,
// never an omission of the halt itself.
func HaltEmbed(notice broadcast.Notice) *discordgo.MessageEmbed {
	halt := notice.Halt

	var supportDesc, resistDesc string
	if notice.Quote != nil && len(notice.Levels) > 0 {
		support, resist := splitLevels(notice.Levels, notice.Quote.Last)
		if len(support) > 0 {
			supportDesc = fmt.Sprintf("Support Levels:\n%s\n", joinLevels(support))
		}
		if len(resist) > 0 {
			resistDesc = fmt.Sprintf("Resist Levels:\n%s\n", joinLevels(resist))
		}
	}

	name := halt.Name
	if len(name) > maxIssueNameLen {
		name = name[:maxIssueNameLen]
	}

	description := fmt.Sprintf("**HALTED @%s**\n**RESUME @%s**\n--- --- ---\n%s\n%s\n[View on Robinhood »](https://robinhood.com/stocks/%s)",
		halt.HaltedOn, halt.ResumeOn, supportDesc, resistDesc, halt.Symbol)

	return &discordgo.MessageEmbed{
		Color:       haltEmbedColor,
		Title:       fmt.Sprintf("HALT - %s", halt.ReasonText),
		Author:      &discordgo.MessageEmbedAuthor{Name: fmt.Sprintf("(%s) - %s", halt.Symbol, name)},
		Description: description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Price", Value: priceField(notice.Quote, func(q fetcher.Quote) decimal.Decimal { return q.Last }), Inline: true},
			{Name: "Open", Value: priceField(notice.Quote, func(q fetcher.Quote) decimal.Decimal { return q.Open }), Inline: true},
			{Name: "Change", Value: changeField(notice.Quote), Inline: true},
			{Name: "Low", Value: priceField(notice.Quote, func(q fetcher.Quote) decimal.Decimal { return q.Low }), Inline: true},
			{Name: "High", Value: priceField(notice.Quote, func(q fetcher.Quote) decimal.Decimal { return q.High }), Inline: true},
			{Name: "​", Value: "​", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "powered by " + poweredBy[rand.IntN(len(poweredBy))],
		},
	}
}

func priceField(quote *fetcher.Quote, pick func(fetcher.Quote) decimal.Decimal) string {
	if quote == nil {
		return quotePlaceholder
	}
	return "$" + pick(*quote).StringFixed(2)
}

func changeField(quote *fetcher.Quote) string {
	if quote == nil {
		return quotePlaceholder
	}
	return quote.ChangeOpen.StringFixed(3) + "%"
}

// splitLevels partitions price levels around the last trade price.
func splitLevels(levels []decimal.Decimal, last decimal.Decimal) (support, resist []decimal.Decimal) {
	for _, level := range levels {
		if level.LessThan(last) {
			support = append(support, level)
		} else if level.GreaterThan(last) {
			resist = append(resist, level)
		}
	}
	return support, resist
}

func joinLevels(levels []decimal.Decimal) string {
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, level.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}
