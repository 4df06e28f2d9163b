package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFetchQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != quotePath {
			t.Errorf("意外的请求路径 %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "AAAA" {
			t.Errorf("意外的 symbol 参数 %s", r.URL.Query().Get("symbol"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{
			"c": 110, "o": 100, "h": 115, "l": 95,
		})
	}))
	defer srv.Close()

	f := NewFinnhub(FinnhubOptions{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, noopLogger())

	quote, err := f.FetchQuote(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if quote.Last.Cmp(decimal.NewFromInt(110)) != 0 {
		t.Fatalf("期望最新价 110, 实际 %s", quote.Last)
	}
	if quote.ChangeOpen.Cmp(decimal.NewFromInt(10)) != 0 {
		t.Fatalf("期望开盘涨幅 10%%, 实际 %s", quote.ChangeOpen)
	}
}

func TestFetchQuoteEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]float64{"c": 0, "o": 0, "h": 0, "l": 0})
	}))
	defer srv.Close()

	f := NewFinnhub(FinnhubOptions{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, noopLogger())

	if _, err := f.FetchQuote(context.Background(), "GONE"); err == nil {
		t.Fatal("全零快照应视为未知代码并报错")
	}
}

func TestFetchQuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "API limit reached"})
	}))
	defer srv.Close()

	f := NewFinnhub(FinnhubOptions{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, noopLogger())

	if _, err := f.FetchQuote(context.Background(), "AAAA"); err == nil {
		t.Fatal("HTTP 429 应返回错误")
	}
}

func TestFetchQuoteMissingSymbol(t *testing.T) {
	f := NewFinnhub(FinnhubOptions{APIKey: "test"}, noopLogger())
	if _, err := f.FetchQuote(context.Background(), ""); err == nil {
		t.Fatal("缺少 symbol 时应返回错误")
	}
}

func TestFetchLevelsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != levelsPath {
			t.Fatalf("意外的请求路径 %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]float64{
			"levels": {15.5, 12.345},
		})
	}))
	defer srv.Close()

	f := NewFinnhub(FinnhubOptions{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, noopLogger())

	levels, err := f.FetchLevels(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("期望 2 个价位, 实际 %d", len(levels))
	}
	if levels[0].Cmp(decimal.NewFromFloat(12.35)) != 0 {
		t.Fatalf("价位应升序且四舍五入到分, 实际 %s", levels[0])
	}
}

func TestFetchLevelsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]float64{"levels": {}})
	}))
	defer srv.Close()

	f := NewFinnhub(FinnhubOptions{BaseURL: srv.URL, APIKey: "test", Timeout: time.Second}, noopLogger())

	levels, err := f.FetchLevels(context.Background(), "AAAA")
	if err != nil {
		t.Fatalf("空价位列表不是错误: %v", err)
	}
	if len(levels) != 0 {
		t.Fatalf("期望空列表, 实际 %v", levels)
	}
}
