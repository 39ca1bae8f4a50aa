package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"predicta/internal/config"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Symbol groups tracked on the dashboard summary.
var (
	Stocks      = []string{"AAPL", "MSFT", "TSLA", "NVDA", "AMZN", "META", "BRK.B", "V", "JPM", "UNH"}
	Indices     = []string{"SPY", "QQQ", "DIA", "IWM", "VTI"}
	Forex       = []string{"FX:EURUSD", "FX:GBPUSD", "FX:USDJPY", "FX:USDCHF", "FX:AUDUSD"}
	Commodities = []string{"OANDA:XAU_USD", "OANDA:XAG_USD", "OANDA:BCO_USD", "OANDA:WTICO_USD", "OANDA:NGAS_USD"}
)

// Quote is a Finnhub real-time quote.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Candles holds daily OHLC series for a symbol. Status is "ok" or "no_data".
type Candles struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Closes     []float64 `json:"c"`
	Highs      []float64 `json:"h"`
	Lows       []float64 `json:"l"`
	Opens      []float64 `json:"o"`
}

// SymbolQuote pairs a symbol with its quote for summary responses.
type SymbolQuote struct {
	Symbol string `json:"symbol"`
	Quote
}

// Summary groups dashboard quotes by asset class.
type Summary struct {
	Stocks      []SymbolQuote `json:"stocks"`
	Indices     []SymbolQuote `json:"indices"`
	Forex       []SymbolQuote `json:"forex"`
	Commodities []SymbolQuote `json:"commodities"`
}

// Detail bundles everything shown on a single-symbol page.
type Detail struct {
	Quote   *Quote         `json:"quote"`
	Candles *Candles       `json:"candles"`
	Profile map[string]any `json:"profile"`
}

// Client talks to the Finnhub REST API. Quotes and candles are cached with
// TTLs matching the upstream revalidation windows so dashboard refreshes do
// not burn through the API quota.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *gocache.Cache
	quoteTTL   time.Duration
	candleTTL  time.Duration
}

// NewClient creates a Finnhub client.
func NewClient(cfg config.Market, quoteTTL, candleTTL time.Duration) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if quoteTTL <= 0 {
		quoteTTL = time.Minute
	}
	if candleTTL <= 0 {
		candleTTL = time.Hour
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		cache:      gocache.New(quoteTTL, 10*time.Minute),
		quoteTTL:   quoteTTL,
		candleTTL:  candleTTL,
	}
}

// GetQuote fetches the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	key := "quote:" + symbol
	if cached, found := c.cache.Get(key); found {
		return cached.(*Quote), nil
	}

	var quote Quote
	if err := c.getJSON(ctx, fmt.Sprintf("/quote?symbol=%s", url.QueryEscape(symbol)), &quote); err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}

	c.cache.Set(key, &quote, c.quoteTTL)
	return &quote, nil
}

// GetCandles fetches daily OHLC candles for the trailing number of days.
func (c *Client) GetCandles(ctx context.Context, symbol string, days int) (*Candles, error) {
	key := fmt.Sprintf("candles:%s:%d", symbol, days)
	if cached, found := c.cache.Get(key); found {
		return cached.(*Candles), nil
	}

	to := time.Now().Unix()
	from := to - int64(days)*24*60*60

	var candles Candles
	path := fmt.Sprintf("/stock/candle?symbol=%s&resolution=D&from=%d&to=%d", url.QueryEscape(symbol), from, to)
	if err := c.getJSON(ctx, path, &candles); err != nil {
		return nil, fmt.Errorf("fetching candles for %s: %w", symbol, err)
	}
	if candles.Status != "ok" {
		return nil, fmt.Errorf("no candle data for %s", symbol)
	}

	c.cache.Set(key, &candles, c.candleTTL)
	return &candles, nil
}

// GetProfile fetches the company profile for a symbol. Missing profiles are
// not an error; an empty map is returned.
func (c *Client) GetProfile(ctx context.Context, symbol string) map[string]any {
	profile := map[string]any{}
	if err := c.getJSON(ctx, fmt.Sprintf("/stock/profile2?symbol=%s", url.QueryEscape(symbol)), &profile); err != nil {
		return map[string]any{}
	}
	return profile
}

// GetSummary fetches quotes for all tracked symbols in parallel and groups
// them by asset class. Symbols that fail to resolve are skipped rather than
// failing the whole summary.
func (c *Client) GetSummary(ctx context.Context) (*Summary, error) {
	symbols := make([]string, 0, len(Stocks)+len(Indices)+len(Forex)+len(Commodities))
	symbols = append(symbols, Stocks...)
	symbols = append(symbols, Indices...)
	symbols = append(symbols, Forex...)
	symbols = append(symbols, Commodities...)

	var mu sync.Mutex
	quotes := make(map[string]*Quote, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, symbol := range symbols {
		g.Go(func() error {
			quote, err := c.GetQuote(gctx, symbol)
			if err != nil {
				return nil // skip failed symbols
			}
			mu.Lock()
			quotes[symbol] = quote
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		Stocks:      collect(quotes, Stocks),
		Indices:     collect(quotes, Indices),
		Forex:       collect(quotes, Forex),
		Commodities: collect(quotes, Commodities),
	}, nil
}

// GetDetail fetches quote, 30-day candles and profile for one symbol.
func (c *Client) GetDetail(ctx context.Context, symbol string) (*Detail, error) {
	quote, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Quote: quote, Profile: c.GetProfile(ctx, symbol)}
	if candles, err := c.GetCandles(ctx, symbol, 30); err == nil {
		detail.Candles = candles
	}
	return detail, nil
}

func collect(quotes map[string]*Quote, symbols []string) []SymbolQuote {
	out := make([]SymbolQuote, 0, len(symbols))
	for _, symbol := range symbols {
		if quote, ok := quotes[symbol]; ok {
			out = append(out, SymbolQuote{Symbol: symbol, Quote: *quote})
		}
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	endpoint := c.baseURL + path + "&token=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
