package fetcher

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/market"
	"trade-halt-alerts/internal/store"
)

const defaultFeedURL = "http://www.nasdaqtrader.com/rss.aspx?feed=tradehalts"

// FeedOptions parameterise the trade-halt feed adapter.
type FeedOptions struct {
	URL       string
	Timeout   time.Duration
	BatchSize int
}

// Feed fetches and parses the Nasdaq trade-halts RSS feed.
type Feed struct {
	opts   FeedOptions
	logger zerolog.Logger
	client *http.Client
	url    string
}

// NewFeed constructs a halt feed adapter.
func NewFeed(opts FeedOptions, logger zerolog.Logger) *Feed {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	url := strings.TrimSpace(opts.URL)
	if url == "" {
		url = defaultFeedURL
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}

	return &Feed{
		opts:   opts,
		logger: logger.With().Str("component", "halt_feed").Logger(),
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// FetchLatestBatch returns the newest published halts, newest-first, capped at
// the configured batch size.
func (f *Feed) FetchLatestBatch(ctx context.Context) ([]store.HaltRecord, error) {
	items, err := f.fetchItems(ctx)
	if err != nil {
		return nil, err
	}

	if len(items) > f.opts.BatchSize {
		items = items[:f.opts.BatchSize]
	}

	halts := make([]store.HaltRecord, 0, len(items))
	for _, item := range items {
		halt, err := parseHaltItem(item)
		if err != nil {
			f.logger.Warn().Err(err).Msg("skipping unparseable feed item")
			continue
		}
		halts = append(halts, halt)
	}
	return halts, nil
}

// FetchLatest returns the single newest published halt.
func (f *Feed) FetchLatest(ctx context.Context) (store.HaltRecord, error) {
	items, err := f.fetchItems(ctx)
	if err != nil {
		return store.HaltRecord{}, err
	}
	if len(items) == 0 {
		return store.HaltRecord{}, errors.New("feed returned no items")
	}
	return parseHaltItem(items[0])
}

func (f *Feed) fetchItems(ctx context.Context) ([]rssHaltItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch halt feed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("halt feed error (%d)", resp.StatusCode)
	}

	var doc rssDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse halt feed: %w", err)
	}

	return doc.Channel.Items, nil
}

func parseHaltItem(item rssHaltItem) (store.HaltRecord, error) {
	moment, err := market.HaltTimestamp(item.HaltDate, item.HaltTime)
	if err != nil {
		return store.HaltRecord{}, fmt.Errorf("parse halt moment for %s: %w", item.IssueSymbol, err)
	}

	return store.NewHaltRecord(store.HaltRecord{
		Symbol:     item.IssueSymbol,
		Name:       item.IssueName,
		Market:     item.Market,
		ReasonCode: item.ReasonCode,
		ReasonText: haltReason(item.ReasonCode),
		HaltedOn:   item.ResumptionQuoteTime,
		ResumeOn:   item.ResumptionTradeTime,
		Date:       item.HaltDate,
		Time:       item.HaltTime,
		Timestamp:  moment.Unix(),
	})
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		PubDate string        `xml:"pubDate"`
		Items   []rssHaltItem `xml:"item"`
	} `xml:"channel"`
}

type rssHaltItem struct {
	HaltDate            string `xml:"HaltDate"`
	HaltTime            string `xml:"HaltTime"`
	IssueSymbol         string `xml:"IssueSymbol"`
	IssueName           string `xml:"IssueName"`
	Market              string `xml:"Market"`
	ReasonCode          string `xml:"ReasonCode"`
	ResumptionQuoteTime string `xml:"ResumptionQuoteTime"`
	ResumptionTradeTime string `xml:"ResumptionTradeTime"`
}

var _ HaltFeed = (*Feed)(nil)
