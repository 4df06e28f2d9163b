// Package broadcast fans a halt notice out to subscribed channels with an
// explicit best-effort contract: every delivery is attempted and its outcome
// reported, a failed recipient never aborts the rest.
package broadcast

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"trade-halt-alerts/internal/fetcher"
	"trade-halt-alerts/internal/store"
)

// Notice is one halt broadcast with its optional enrichment. Quote and Levels
// may be nil/empty; renderers substitute placeholders.
type Notice struct {
	Halt   store.HaltRecord
	Quote  *fetcher.Quote
	Levels []decimal.Decimal
}

// Sender posts a notice to a single channel.
type Sender interface {
	Send(ctx context.Context, channelID string, notice Notice) error
}

// Delivery is the outcome of one recipient's delivery attempt.
type Delivery struct {
	Guild     string
	Channel   string
	ChannelID string
	Err       error
}

func (d Delivery) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s#%s: %v", d.Guild, d.Channel, d.Err)
	}
	return fmt.Sprintf("%s#%s: delivered", d.Guild, d.Channel)
}

// Fanout delivers notice to every subscription, independently. The returned
// slice holds one outcome per subscription, in order.
func Fanout(ctx context.Context, sender Sender, subs []store.SubscriptionRecord, notice Notice) []Delivery {
	deliveries := make([]Delivery, 0, len(subs))
	for _, sub := range subs {
		deliveries = append(deliveries, Delivery{
			Guild:     sub.Guild.Name,
			Channel:   sub.Channel.Name,
			ChannelID: sub.Channel.ID,
			Err:       sender.Send(ctx, sub.Channel.ID, notice),
		})
	}
	return deliveries
}

// Failed filters the deliveries that errored.
func Failed(deliveries []Delivery) []Delivery {
	var failed []Delivery
	for _, d := range deliveries {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}
