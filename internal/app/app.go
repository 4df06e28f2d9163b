package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/config"
	"trade-halt-alerts/internal/discord"
	"trade-halt-alerts/internal/fetcher"
	"trade-halt-alerts/internal/scheduler"
	"trade-halt-alerts/internal/service"
	"trade-halt-alerts/internal/storage"
	"trade-halt-alerts/internal/store"
	"trade-halt-alerts/internal/verify"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openBackend(ctx context.Context) (storage.Backend, func(), error) {
	switch a.Config.Storage.Backend {
	case "postgres":
		backend, err := storage.NewPostgres(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case "redis":
		backend, err := storage.NewRedis(a.Config.Redis)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", a.Config.Storage.Backend)
	}
}

func (a *App) newFetchers() (fetcher.HaltFeed, fetcher.QuoteService) {
	feed := fetcher.NewFeed(fetcher.FeedOptions{
		URL:       a.Config.Feed.URL,
		Timeout:   a.Config.Feed.RequestTimeout,
		BatchSize: a.Config.Feed.BatchSize,
	}, a.Logger)

	quotes := fetcher.NewFinnhub(fetcher.FinnhubOptions{
		BaseURL:    a.Config.Finnhub.BaseURL,
		APIKey:     a.Config.Finnhub.APIKey,
		Timeout:    a.Config.Finnhub.RequestTimeout,
		Resolution: a.Config.Finnhub.Resolution,
	}, a.Logger)

	return feed, quotes
}

// Run executes the long-running bot and ingestion service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, closeBackend, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend()

	subs := store.NewSubscriptionStore(backend, a.Logger)
	halts := store.NewHaltStore(backend, a.Logger)
	verifications := store.NewVerificationStore(backend, a.Logger)

	// Preload every cache before anything reads it.
	subs.Load(ctx)
	halts.Load(ctx)
	verifications.Load(ctx)

	feed, quotes := a.newFetchers()

	bot, err := discord.New(discord.Options{
		Token:  a.Config.Discord.Token,
		Prefix: a.Config.Discord.Prefix,
		Status: a.Config.Discord.Status,
	}, subs, halts, quotes, a.Logger)
	if err != nil {
		return err
	}

	challenger := verify.NewChallenger(verifications, bot, verify.Policy{
		MaxAttempts: a.Config.Verification.MaxAttempts,
		Cooldown:    a.Config.Verification.Cooldown,
	}, a.Logger)
	bot.AttachChallenger(challenger)

	if err := bot.Open(); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed closing discord session")
		}
	}()

	challenger.ReconcileStartup(ctx)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	pipeline := service.New(sched, feed, quotes, halts, subs, bot, a.Logger)

	a.Logger.Info().Msg("starting halt watcher")
	err = pipeline.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("halt watcher stopped")
	return nil
}
