package fetcher

import (
	"context"

	"github.com/shopspring/decimal"

	"trade-halt-alerts/internal/store"
)

// HaltFeed retrieves published trading halts from the exchange feed.
type HaltFeed interface {
	FetchLatestBatch(ctx context.Context) ([]store.HaltRecord, error)
	FetchLatest(ctx context.Context) (store.HaltRecord, error)
}

// Quote is a point-in-time price snapshot for a symbol. ChangeOpen is the
// percentage move since the open.
type Quote struct {
	Last       decimal.Decimal
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	ChangeOpen decimal.Decimal
}

// QuoteService retrieves optional enrichment data for a symbol. Both calls may
// fail independently; callers treat missing data as renderable placeholders.
type QuoteService interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
	FetchLevels(ctx context.Context, symbol string) ([]decimal.Decimal, error)
}
