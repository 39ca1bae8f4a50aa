package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"predicta/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Market{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second}, time.Minute, time.Hour)
}

func TestGetQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %q, want /quote", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", got)
		}
		if got := r.URL.Query().Get("token"); got != "test-key" {
			t.Errorf("token = %q, want test-key", got)
		}
		w.Write([]byte(`{"c":231.5,"d":1.2,"dp":0.52,"h":233.0,"l":229.8,"o":230.1,"pc":230.3,"t":1756600000}`))
	})

	quote, err := client.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Current != 231.5 || quote.PercentChange != 0.52 {
		t.Errorf("unexpected quote: %+v", quote)
	}
}

func TestGetQuoteCached(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"c":100}`))
	})

	for range 3 {
		if _, err := client.GetQuote(context.Background(), "MSFT"); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected one upstream request, got %d", hits.Load())
	}
}

func TestGetQuoteUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := client.GetQuote(context.Background(), "AAPL"); err == nil {
		t.Error("expected error on upstream failure")
	}
}

func TestGetCandles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("resolution"); got != "D" {
			t.Errorf("resolution = %q, want D", got)
		}
		if q.Get("from") == "" || q.Get("to") == "" {
			t.Error("missing from/to range")
		}
		w.Write([]byte(`{"s":"ok","t":[1756500000,1756586400],"c":[99.0,101.0],"h":[100.0,102.0],"l":[98.0,100.0],"o":[98.5,100.5]}`))
	})

	candles, err := client.GetCandles(context.Background(), "NVDA", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles.Closes) != 2 || candles.Closes[1] != 101.0 {
		t.Errorf("unexpected candles: %+v", candles)
	}
}

func TestGetCandlesNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})
	if _, err := client.GetCandles(context.Background(), "FX:EURUSD", 30); err == nil {
		t.Error("expected error for no_data status")
	}
}

func TestGetSummarySkipsFailedSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "TSLA" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"c":50,"dp":0.1}`))
	})

	summary, err := client.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Stocks) != len(Stocks)-1 {
		t.Errorf("stocks = %d, want %d (TSLA skipped)", len(summary.Stocks), len(Stocks)-1)
	}
	for _, sq := range summary.Stocks {
		if sq.Symbol == "TSLA" {
			t.Error("failed symbol must be skipped")
		}
	}
	if len(summary.Indices) != len(Indices) || len(summary.Forex) != len(Forex) || len(summary.Commodities) != len(Commodities) {
		t.Errorf("unexpected group sizes: %d/%d/%d", len(summary.Indices), len(summary.Forex), len(summary.Commodities))
	}
}

func TestGetSummaryPreservesGroupOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":1}`))
	})

	summary, err := client.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, sq := range summary.Indices {
		if sq.Symbol != Indices[i] {
			t.Fatalf("indices[%d] = %q, want %q", i, sq.Symbol, Indices[i])
		}
	}
}

func TestGetDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			w.Write([]byte(`{"c":420.0,"dp":1.5}`))
		case "/stock/candle":
			w.Write([]byte(`{"s":"ok","t":[1756500000],"c":[418.0],"h":[421.0],"l":[415.0],"o":[416.0]}`))
		case "/stock/profile2":
			json.NewEncoder(w).Encode(map[string]any{"name": "Test Corp", "ticker": "TST"})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	})

	detail, err := client.GetDetail(context.Background(), "TST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Quote == nil || detail.Quote.Current != 420.0 {
		t.Errorf("unexpected quote: %+v", detail.Quote)
	}
	if detail.Candles == nil || detail.Candles.Status != "ok" {
		t.Errorf("unexpected candles: %+v", detail.Candles)
	}
	if detail.Profile["name"] != "Test Corp" {
		t.Errorf("unexpected profile: %+v", detail.Profile)
	}
}

func TestGetDetailToleratesMissingCandles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			w.Write([]byte(`{"c":1.08}`))
		case "/stock/candle":
			w.Write([]byte(`{"s":"no_data"}`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	detail, err := client.GetDetail(context.Background(), "FX:EURUSD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Candles != nil {
		t.Error("candles should be nil when upstream has no data")
	}
}
