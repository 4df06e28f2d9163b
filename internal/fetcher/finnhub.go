package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	quotePath  = "/quote"
	levelsPath = "/scan/support-resistance"
)

// FinnhubOptions parameterise the quote/levels adapter.
type FinnhubOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Resolution string
}

// Finnhub fetches quotes and support/resistance levels from the Finnhub API.
type Finnhub struct {
	opts    FinnhubOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewFinnhub constructs a Finnhub adapter.
func NewFinnhub(opts FinnhubOptions, logger zerolog.Logger) *Finnhub {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}

	if opts.Resolution == "" {
		opts.Resolution = "D"
	}

	return &Finnhub{
		opts:    opts,
		logger:  logger.With().Str("component", "quote_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchQuote retrieves the latest price snapshot for symbol.
func (f *Finnhub) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if symbol == "" {
		return Quote{}, errors.New("symbol required")
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", f.opts.APIKey)

	var payload struct {
		Current float64 `json:"c"`
		Open    float64 `json:"o"`
		High    float64 `json:"h"`
		Low     float64 `json:"l"`
	}
	if err := f.getJSON(ctx, quotePath, query, &payload); err != nil {
		return Quote{}, err
	}

	if payload.Current == 0 || payload.Open == 0 || payload.High == 0 || payload.Low == 0 {
		return Quote{}, errors.New("empty quote response")
	}

	last := decimal.NewFromFloat(payload.Current).Round(2)
	open := decimal.NewFromFloat(payload.Open).Round(2)

	return Quote{
		Last:       last,
		Open:       open,
		High:       decimal.NewFromFloat(payload.High).Round(2),
		Low:        decimal.NewFromFloat(payload.Low).Round(2),
		ChangeOpen: last.Sub(open).Div(open).Mul(decimal.NewFromInt(100)).Round(3),
	}, nil
}

// FetchLevels retrieves support/resistance price levels for symbol. A missing
// or empty levels list is not an error.
func (f *Finnhub) FetchLevels(ctx context.Context, symbol string) ([]decimal.Decimal, error) {
	if symbol == "" {
		return nil, errors.New("symbol required")
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("resolution", f.opts.Resolution)
	query.Set("token", f.opts.APIKey)

	var payload struct {
		Levels []float64 `json:"levels"`
	}
	if err := f.getJSON(ctx, levelsPath, query, &payload); err != nil {
		return nil, err
	}

	levels := make([]decimal.Decimal, 0, len(payload.Levels))
	for _, level := range payload.Levels {
		levels = append(levels, decimal.NewFromFloat(level).Round(2))
	}
	slices.SortFunc(levels, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return levels, nil
}

func (f *Finnhub) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := f.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("finnhub api error (%d): %s", status, apiErr.Error)
	}
	if len(payload) > 0 {
		return fmt.Errorf("finnhub api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("finnhub api error (%d)", status)
}

var _ QuoteService = (*Finnhub)(nil)
