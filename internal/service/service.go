package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/broadcast"
	"trade-halt-alerts/internal/fetcher"
	"trade-halt-alerts/internal/market"
	"trade-halt-alerts/internal/scheduler"
	"trade-halt-alerts/internal/store"
)

// resumePlaceholder renders a halt whose trade resumption time has not been
// published yet.
const resumePlaceholder = "---"

// Pipeline polls the halt feed, deduplicates against the halt log, enriches
// new halts, and fans notices out to every subscribed channel.
type Pipeline struct {
	scheduler *scheduler.Scheduler
	feed      fetcher.HaltFeed
	quotes    fetcher.QuoteService
	halts     *store.HaltStore
	subs      *store.SubscriptionStore
	sender    broadcast.Sender
	logger    zerolog.Logger

	previous   *store.HaltRecord
	weekday    func(time.Time) bool
	marketOpen func(time.Time) bool
}

// New constructs the ingestion pipeline. Dedup state is seeded from the head
// of the halt log, so a restart does not rebroadcast the last halt.
func New(sched *scheduler.Scheduler, feed fetcher.HaltFeed, quotes fetcher.QuoteService, halts *store.HaltStore, subs *store.SubscriptionStore, sender broadcast.Sender, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		scheduler:  sched,
		feed:       feed,
		quotes:     quotes,
		halts:      halts,
		subs:       subs,
		sender:     sender,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		weekday:    market.IsWeekday,
		marketOpen: market.IsMarketOpen,
	}
	if latest, ok := halts.MostRecent(); ok {
		p.previous = &latest
		p.logger.Info().Str("symbol", latest.Symbol).Int64("timestamp", latest.Timestamp).Msg("seeded dedup state from halt log")
	}
	return p
}

// Run begins the polling loop.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return p.scheduler.Run(ctx, p.ProcessTick)
}

// ProcessTick executes one ingestion pass. Ticks outside weekday market hours
// are no-ops.
func (p *Pipeline) ProcessTick(ctx context.Context, now time.Time) error {
	if !p.weekday(now) || !p.marketOpen(now) {
		return nil
	}

	batch, err := p.feed.FetchLatestBatch(ctx)
	if err != nil {
		return fmt.Errorf("fetch halt batch: %w", err)
	}

	// Matches here are reconciliation candidates only; already-recorded items
	// are deliberately left untouched.
	for _, item := range batch {
		p.halts.FindMatching(item)
	}

	if err := p.halts.Flush(ctx); err != nil {
		p.logger.Error().Err(err).Msg("failed flushing halt log")
	}

	latest, err := p.feed.FetchLatest(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest halt: %w", err)
	}

	if prev := p.previous; prev != nil && prev.Symbol == latest.Symbol && prev.Timestamp >= latest.Timestamp {
		p.logger.Debug().Str("symbol", latest.Symbol).Msg("no new halt")
		return nil
	}

	if latest.ResumeOn == "" {
		latest.ResumeOn = resumePlaceholder
	}

	notice := broadcast.Notice{Halt: latest}
	if quote, err := p.quotes.FetchQuote(ctx, latest.Symbol); err != nil {
		p.logger.Warn().Err(err).Str("symbol", latest.Symbol).Msg("quote enrichment failed")
	} else {
		notice.Quote = &quote
	}
	if levels, err := p.quotes.FetchLevels(ctx, latest.Symbol); err != nil {
		p.logger.Warn().Err(err).Str("symbol", latest.Symbol).Msg("levels enrichment failed")
	} else {
		notice.Levels = levels
	}

	if err := p.halts.Record(ctx, latest); err != nil {
		return fmt.Errorf("record halt: %w", err)
	}
	p.previous = &latest

	p.logger.Info().
		Str("symbol", latest.Symbol).
		Str("reason", latest.ReasonCode).
		Msg("new halt recorded")

	deliveries := broadcast.Fanout(ctx, p.sender, p.subs.All(), notice)
	if failed := broadcast.Failed(deliveries); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		for _, d := range failed {
			lines = append(lines, d.String())
		}
		p.logger.Error().
			Int("failed", len(failed)).
			Str("deliveries", strings.Join(lines, "; ")).
			Msg("some halt deliveries failed")
	}
	p.logger.Info().
		Int("channels", len(deliveries)).
		Str("symbol", latest.Symbol).
		Msg("halt broadcast complete")

	return nil
}
