package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"predicta/internal/config"
	"predicta/internal/logger"
	"predicta/internal/market"
	"predicta/internal/news"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// Variable is a macro indicator the prediction view can forecast. Each maps
// to a tradable proxy symbol plus a news query used for analyst context.
type Variable struct {
	Key       string `json:"key"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	NewsQuery string `json:"-"`
}

// Variables is the fixed registry of forecastable indicators.
var Variables = map[string]Variable{
	"oil":            {Key: "oil", Symbol: "USO", Name: "Oil Price (WTI)", Unit: "$/barrel", NewsQuery: "oil price OPEC energy"},
	"inflation":      {Key: "inflation", Symbol: "TIP", Name: "Inflation (CPI Proxy)", Unit: "%", NewsQuery: "inflation CPI federal reserve"},
	"volatility":     {Key: "volatility", Symbol: "VIX", Name: "Market Volatility (VIX)", Unit: "index", NewsQuery: "market volatility stock fear"},
	"gold":           {Key: "gold", Symbol: "GLD", Name: "Gold Price", Unit: "$/oz", NewsQuery: "gold price safe haven"},
	"interest_rates": {Key: "interest_rates", Symbol: "TLT", Name: "Interest Rates (Bond Proxy)", Unit: "%", NewsQuery: "federal reserve interest rates bonds"},
	"sp500":          {Key: "sp500", Symbol: "SPY", Name: "S&P 500 Index", Unit: "points", NewsQuery: "stock market S&P 500 economy"},
}

// HistoricalPoint is one daily observation of the underlying proxy.
type HistoricalPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
}

// ForecastPoint is one day of the projected band.
type ForecastPoint struct {
	Date       string  `json:"date"`
	Predicted  float64 `json:"predicted"`
	Upper      float64 `json:"upper"`
	Lower      float64 `json:"lower"`
	Confidence float64 `json:"confidence"` // percent, decays with horizon
}

// Analysis is the analyst rationale attached to a forecast.
type Analysis struct {
	ProbabilityUp   float64  `json:"probability_up"`
	ProbabilityDown float64  `json:"probability_down"`
	PrimaryDriver   string   `json:"primary_driver"`
	Explanation     string   `json:"explanation"`
	KeyFactors      []string `json:"key_factors"`
	Confidence      string   `json:"confidence"` // Low, Medium, High
	Sentiment       string   `json:"sentiment"`  // Bullish, Bearish, Neutral
	Target30d       float64  `json:"target_30d"`
}

// Prediction bundles everything the prediction view renders for a variable.
type Prediction struct {
	Variable   string            `json:"variable"`
	Name       string            `json:"name"`
	Unit       string            `json:"unit"`
	Historical []HistoricalPoint `json:"historical"`
	Forecast   []ForecastPoint   `json:"forecast"`
	Analysis   Analysis          `json:"analysis"`
}

// Service builds indicator forecasts from market history, current quotes and
// recent news, with an LLM analyst rationale on top. It degrades to a
// deterministic trend-based rationale when the LLM is unavailable.
type Service struct {
	market    *market.Client
	news      *news.Client
	ai        *openai.Client
	model     string
	available bool
}

// NewService creates a forecast service. An empty OpenAI key disables the
// analyst rationale; forecasts then carry the deterministic fallback.
func NewService(cfg config.OpenAIConfig, marketClient *market.Client, newsClient *news.Client) *Service {
	s := &Service{
		market: marketClient,
		news:   newsClient,
		model:  cfg.Model,
	}
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		s.ai = openai.NewClientWithConfig(clientConfig)
		s.available = true
	}
	return s
}

// Predict builds the full prediction for a variable key. Unknown keys fall
// back to the oil indicator, matching the dashboard default.
func (s *Service) Predict(ctx context.Context, key string) (*Prediction, error) {
	variable, ok := Variables[key]
	if !ok {
		variable = Variables["oil"]
	}

	var (
		candles  *market.Candles
		quote    *market.Quote
		articles []news.Article
	)

	// Inputs are independent; fetch them in parallel. Each is optional, so
	// failures leave the slot nil rather than aborting the prediction.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if c, err := s.market.GetCandles(gctx, variable.Symbol, 90); err == nil {
			candles = c
		}
		return nil
	})
	g.Go(func() error {
		if q, err := s.market.GetQuote(gctx, variable.Symbol); err == nil {
			quote = q
		}
		return nil
	})
	g.Go(func() error {
		if a, err := s.news.Everything(gctx, variable.NewsQuery, 10); err == nil {
			articles = a
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	historical := historicalPoints(candles)
	forecast := projectForecast(candles, 30)
	analysis := s.analyze(ctx, variable, quote, historical, articles)

	return &Prediction{
		Variable:   variable.Key,
		Name:       variable.Name,
		Unit:       variable.Unit,
		Historical: historical,
		Forecast:   forecast,
		Analysis:   analysis,
	}, nil
}

func historicalPoints(candles *market.Candles) []HistoricalPoint {
	if candles == nil {
		return []HistoricalPoint{}
	}
	points := make([]HistoricalPoint, 0, len(candles.Timestamps))
	for i, ts := range candles.Timestamps {
		if i >= len(candles.Closes) {
			break
		}
		point := HistoricalPoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Value: candles.Closes[i],
		}
		if i < len(candles.Highs) {
			point.High = candles.Highs[i]
		}
		if i < len(candles.Lows) {
			point.Low = candles.Lows[i]
		}
		points = append(points, point)
	}
	return points
}

// projectForecast draws a random-walk band forward from the last close with
// confidence decaying over the horizon. This is a visual projection, not a
// statistical model; the analyst rationale carries the actual judgment.
func projectForecast(candles *market.Candles, days int) []ForecastPoint {
	price := 100.0
	if candles != nil && len(candles.Closes) > 0 {
		price = candles.Closes[len(candles.Closes)-1]
	}

	const volatility = 0.02
	now := time.Now().UTC()
	forecast := make([]ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		change := (rand.Float64() - 0.48) * volatility * price
		price += change
		confidence := 0.95 - float64(i)*0.01
		if confidence < 0.6 {
			confidence = 0.6
		}
		spread := price * (1 - confidence) * 0.5
		forecast = append(forecast, ForecastPoint{
			Date:       now.AddDate(0, 0, i).Format("2006-01-02"),
			Predicted:  round2(price),
			Upper:      round2(price + spread),
			Lower:      round2(price - spread),
			Confidence: round1(confidence * 100),
		})
	}
	return forecast
}

func (s *Service) analyze(ctx context.Context, variable Variable, quote *market.Quote, historical []HistoricalPoint, articles []news.Article) Analysis {
	fallback := fallbackAnalysis(quote, historical)
	if !s.available {
		return fallback
	}

	current := "N/A"
	dailyChange := "N/A"
	if quote != nil {
		current = fmt.Sprintf("%.2f", quote.Current)
		dailyChange = fmt.Sprintf("%.2f%%", quote.PercentChange)
	}

	trend := "0"
	if len(historical) > 5 {
		prev := historical[len(historical)-5].Value
		if prev != 0 {
			trend = fmt.Sprintf("%.2f", (historical[len(historical)-1].Value-prev)/prev*100)
		}
	}

	var newsLines []string
	for i, a := range articles {
		if i >= 8 {
			break
		}
		newsLines = append(newsLines, fmt.Sprintf("%s: %s", a.Title, a.Description))
	}
	newsText := strings.Join(newsLines, "\n\n")
	if newsText == "" {
		newsText = "No recent news available."
	}

	prompt := fmt.Sprintf(`As a quantitative analyst, provide a prediction analysis for %s.

CURRENT DATA:
- Current Price: %s
- Daily Change: %s
- 5-Day Trend: %s%%

RECENT NEWS CONTEXT:
%s

TASK:
1. Provide a probability percentage (0-100) for the price/value going UP in the next 30 days.
2. Identify the primary driver (1 sentence) based on the news.
3. Provide a detailed AI explanation (3-4 sentences) of your prediction rationale.
4. List 3 key factors influencing this prediction.
5. Provide a confidence level for your prediction (Low/Medium/High).

Return ONLY a JSON object:
{"probability_up": 0, "probability_down": 0, "primary_driver": "", "explanation": "", "key_factors": ["", "", ""], "confidence": "Low", "sentiment": "Neutral", "target_30d": 0}`,
		variable.Name, current, dailyChange, trend, newsText)

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		logger.Warn("forecast analysis failed, using trend fallback", "variable", variable.Key)
		return fallback
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &analysis); err != nil {
		return fallback
	}
	if analysis.ProbabilityUp <= 0 && analysis.ProbabilityDown <= 0 {
		return fallback
	}
	return analysis
}

// fallbackAnalysis derives a neutral rationale from the recent trend when no
// analyst backend is available.
func fallbackAnalysis(quote *market.Quote, historical []HistoricalPoint) Analysis {
	up := 50.0
	sentiment := "Neutral"
	if quote != nil {
		switch {
		case quote.PercentChange > 0.5:
			up, sentiment = 58, "Bullish"
		case quote.PercentChange < -0.5:
			up, sentiment = 42, "Bearish"
		}
	}

	target := 0.0
	if len(historical) > 0 {
		target = round2(historical[len(historical)-1].Value)
	}

	return Analysis{
		ProbabilityUp:   up,
		ProbabilityDown: 100 - up,
		PrimaryDriver:   "Recent price momentum in the underlying proxy.",
		Explanation:     "Live analyst commentary is unavailable. The outlook is derived from recent price momentum only and should be treated as low confidence.",
		KeyFactors:      []string{"Recent price trend", "Market volatility", "Macro news flow"},
		Confidence:      "Low",
		Sentiment:       sentiment,
		Target30d:       target,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
