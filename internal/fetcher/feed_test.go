package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-halt-alerts/internal/market"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func haltItemXML(symbol, date, clock, code, resume string) string {
	return fmt.Sprintf(`<item>
		<HaltDate>%s</HaltDate>
		<HaltTime>%s</HaltTime>
		<IssueSymbol>%s</IssueSymbol>
		<IssueName>%s Incorporated</IssueName>
		<Market>NASDAQ</Market>
		<ReasonCode>%s</ReasonCode>
		<ResumptionQuoteTime>%s %s</ResumptionQuoteTime>
		<ResumptionTradeTime>%s</ResumptionTradeTime>
	</item>`, date, clock, symbol, symbol, code, date, clock, resume)
}

func rssXML(items ...string) string {
	body := ""
	for _, item := range items {
		body += item
	}
	return `<rss version="2.0"><channel><pubDate>Mon, 15 Jun 2026 10:30:00 GMT</pubDate>` + body + `</channel></rss>`
}

func feedServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, payload)
	}))
}

func TestFeedFetchLatestSuccess(t *testing.T) {
	srv := feedServer(t, rssXML(
		haltItemXML("AAAA", "06/15/2026", "10:30:00", "LUDP", "06/15/2026 10:35:00"),
		haltItemXML("BBBB", "06/15/2026", "09:45:00", "T1", ""),
	))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	halt, err := feed.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if halt.Symbol != "AAAA" {
		t.Fatalf("期望最新停牌 AAAA, 实际 %s", halt.Symbol)
	}
	if halt.ReasonText != "Volatility Trading Pause" {
		t.Fatalf("LUDP 应翻译为 Volatility Trading Pause, 实际 %q", halt.ReasonText)
	}
	if halt.ResumeOn != "06/15/2026 10:35:00" {
		t.Fatalf("应保留恢复时间, 实际 %q", halt.ResumeOn)
	}

	want, err := market.HaltTimestamp("06/15/2026", "10:30:00")
	if err != nil {
		t.Fatalf("解析基准时间失败: %v", err)
	}
	if halt.Timestamp != want.Unix() {
		t.Fatalf("期望时间戳 %d, 实际 %d", want.Unix(), halt.Timestamp)
	}
}

func TestFeedBatchIsCapped(t *testing.T) {
	items := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		items = append(items, haltItemXML(fmt.Sprintf("SYM%d", i), "06/15/2026", fmt.Sprintf("10:0%d:00", i), "T1", ""))
	}
	srv := feedServer(t, rssXML(items...))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second, BatchSize: 5}, noopLogger())

	batch, err := feed.FetchLatestBatch(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("批量应截断到 5 条, 实际 %d", len(batch))
	}
	if batch[0].Symbol != "SYM0" {
		t.Fatalf("应保持最新在前的顺序, 实际 %s", batch[0].Symbol)
	}
}

func TestFeedBatchSkipsUnparseableItems(t *testing.T) {
	srv := feedServer(t, rssXML(
		haltItemXML("GOOD", "06/15/2026", "10:30:00", "T1", ""),
		haltItemXML("BAD", "not-a-date", "10:31:00", "T1", ""),
	))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	batch, err := feed.FetchLatestBatch(context.Background())
	if err != nil {
		t.Fatalf("个别条目损坏不应导致整体失败: %v", err)
	}
	if len(batch) != 1 || batch[0].Symbol != "GOOD" {
		t.Fatalf("应跳过无法解析的条目, 实际 %v", batch)
	}
}

func TestFeedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := feed.FetchLatest(context.Background()); err == nil {
		t.Fatal("HTTP 503 应返回错误")
	}
}

func TestFeedFetchLatestEmptyFeed(t *testing.T) {
	srv := feedServer(t, rssXML())
	defer srv.Close()

	feed := NewFeed(FeedOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())

	if _, err := feed.FetchLatest(context.Background()); err == nil {
		t.Fatal("空 feed 应返回错误")
	}
}
