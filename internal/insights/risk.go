package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"predicta/internal/logger"
	"predicta/internal/news"

	"golang.org/x/sync/errgroup"
)

// Symbols and news queries feeding the risk snapshot.
var (
	riskSymbols = []string{"SPY", "QQQ", "VIX", "GLD", "USO"}
	riskQueries = []string{"geopolitics", "inflation", "climate change", "cyber security", "political stability", "global trade"}
)

// RiskCategory is one assessed risk dimension on the dashboard.
type RiskCategory struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"` // 0-100
	Impact      float64 `json:"impact"`      // 0-100
	Explanation string  `json:"explanation"`
}

// RiskScenario is one projected world-state branch.
type RiskScenario struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RiskLevel   string `json:"risk_level"` // Low, Moderate, High, Extreme
}

// RiskScenarios groups the three branches the dashboard renders.
type RiskScenarios struct {
	BestCase   RiskScenario `json:"best_case"`
	WorstCase  RiskScenario `json:"worst_case"`
	MostLikely RiskScenario `json:"most_likely"`
}

// RiskMatrixEntry is one event plotted on the probability/impact matrix.
type RiskMatrixEntry struct {
	Event       string  `json:"event"`
	Probability float64 `json:"probability"`
	Impact      float64 `json:"impact"`
	Category    string  `json:"category"`
}

// RiskCorrelation is one causal link in the correlation network.
type RiskCorrelation struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Strength    float64 `json:"strength"` // 0-1
	Description string  `json:"description"`
}

// RiskSource is one citation backing the analysis.
type RiskSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RiskReport is the aggregate risk view. IsSimulated marks a seeded fallback
// built without the analyst backend.
type RiskReport struct {
	Categories   []RiskCategory    `json:"categories"`
	Scenarios    RiskScenarios     `json:"scenarios"`
	Matrix       []RiskMatrixEntry `json:"matrix"`
	Correlations []RiskCorrelation `json:"correlations"`
	Sources      []RiskSource      `json:"sources"`
	IsSimulated  bool              `json:"is_simulated"`
}

// riskArticle pairs an article with the query bucket that found it.
type riskArticle struct {
	news.Article
	Category string
}

// symbolSnapshot is one quote line of the market snapshot.
type symbolSnapshot struct {
	Symbol string
	Price  float64
	Change float64
}

// RiskAnalysis builds the aggregate risk report from a market snapshot and
// multi-topic news sweep. Results are cached; on any backend failure a
// fallback seeded from the gathered news and market data is returned, marked
// IsSimulated.
func (s *Service) RiskAnalysis(ctx context.Context) RiskReport {
	const cacheKey = "risk"
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(RiskReport)
	}

	snapshot, articles := s.gatherRiskInputs(ctx)

	rpt, err := s.buildRiskReport(ctx, snapshot, articles)
	if err != nil {
		logger.Warn("risk analysis failed, serving seeded fallback", "error", err.Error())
		return mockRiskReport(snapshot, articles)
	}

	s.cache.Set(cacheKey, rpt, s.cacheTTL)
	return rpt
}

// gatherRiskInputs fetches the market snapshot and per-topic news in
// parallel. Both are best-effort: a failed symbol or query leaves a gap, it
// never aborts the analysis.
func (s *Service) gatherRiskInputs(ctx context.Context) ([]symbolSnapshot, []riskArticle) {
	var (
		mu       sync.Mutex
		snapshot []symbolSnapshot
		articles []riskArticle
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.market != nil {
		for _, symbol := range riskSymbols {
			g.Go(func() error {
				quote, err := s.market.GetQuote(gctx, symbol)
				if err != nil {
					return nil
				}
				mu.Lock()
				snapshot = append(snapshot, symbolSnapshot{Symbol: symbol, Price: quote.Current, Change: quote.PercentChange})
				mu.Unlock()
				return nil
			})
		}
	}
	for _, query := range riskQueries {
		g.Go(func() error {
			found, err := s.news.Everything(gctx, query, 10)
			if err != nil {
				return nil
			}
			mu.Lock()
			for _, a := range found {
				articles = append(articles, riskArticle{Article: a, Category: query})
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return snapshot, articles
}

func (s *Service) buildRiskReport(ctx context.Context, snapshot []symbolSnapshot, articles []riskArticle) (RiskReport, error) {
	if !s.available {
		return RiskReport{}, fmt.Errorf("risk analysis backend not configured")
	}

	var newsLines []string
	for i, a := range articles {
		if i >= 25 {
			break
		}
		newsLines = append(newsLines, fmt.Sprintf("%s: %s", a.Title, a.Description))
	}
	newsText := strings.Join(newsLines, "\n\n")
	if newsText == "" {
		newsText = "No recent news data available."
	}

	var marketLines []string
	for _, q := range snapshot {
		marketLines = append(marketLines, fmt.Sprintf("%s: Price %.2f, Change %.2f%%", q.Symbol, q.Price, q.Change))
	}
	marketText := strings.Join(marketLines, ", ")
	if marketText == "" {
		marketText = "Limited market data available."
	}

	prompt := fmt.Sprintf(`As a Global Risk Analyst, analyze the current world state based on these real-time data inputs:

MARKET INDICATORS:
%s

RECENT GLOBAL NEWS:
%s

TASK:
1. Assess Risk Categories: "Geopolitical", "Economic", "Climate", "Political" with probability (0-100) and impact (0-100) scores.
2. Construct 3 Scenarios: "best_case", "worst_case", "most_likely" based on current trends.
3. Risk Matrix: List 8-10 specific risk events based on the news provided.
4. Correlation Network: Define 4-5 causal links between events.
5. AI Explanations: Provide a 2-sentence explanation for EACH main risk category, referencing specific news or market data points.
6. Sources: Include a list of the 5 most relevant news titles and URLs used in the analysis.

Return ONLY a JSON object with this exact structure:
{
  "categories": [{"name": "", "probability": 0, "impact": 0, "explanation": ""}],
  "scenarios": {
    "best_case": {"title": "", "description": "", "risk_level": "Low"},
    "worst_case": {"title": "", "description": "", "risk_level": "Extreme"},
    "most_likely": {"title": "", "description": "", "risk_level": "Moderate"}
  },
  "matrix": [{"event": "", "probability": 0, "impact": 0, "category": ""}],
  "correlations": [{"source": "", "target": "", "strength": 0, "description": ""}],
  "sources": [{"title": "", "url": ""}]
}`, marketText, newsText)

	resp, err := s.chatJSON(ctx, "You are an expert geopolitical and economic risk analyst.", prompt)
	if err != nil {
		return RiskReport{}, fmt.Errorf("risk completion failed: %w", err)
	}

	var rpt RiskReport
	if err := json.Unmarshal([]byte(resp), &rpt); err != nil {
		return RiskReport{}, fmt.Errorf("parsing risk response: %w", err)
	}
	rpt.IsSimulated = false
	return rpt, nil
}

// mockRiskReport seeds the canned risk view with whatever real news and
// market data was gathered, so the fallback still reads current.
func mockRiskReport(snapshot []symbolSnapshot, articles []riskArticle) RiskReport {
	topHeadline := "Global Tensions"
	if len(articles) > 0 && articles[0].Title != "" {
		topHeadline = articles[0].Title
	}

	vixLevel := "volatile"
	for _, q := range snapshot {
		if q.Symbol == "VIX" {
			vixLevel = fmt.Sprintf("%.2f", q.Price)
			break
		}
	}

	climateCount := 0
	for _, a := range articles {
		if a.Category == "climate change" {
			climateCount++
		}
	}

	sources := make([]RiskSource, 0, 5)
	for i, a := range articles {
		if i >= 5 {
			break
		}
		sources = append(sources, RiskSource{Title: a.Title, URL: a.URL})
	}

	return RiskReport{
		Categories: []RiskCategory{
			{Name: "Geopolitical", Probability: 72, Impact: 88, Explanation: fmt.Sprintf("Recent reports on %q indicate heightened cross-border friction.", topHeadline)},
			{Name: "Economic", Probability: 48, Impact: 76, Explanation: fmt.Sprintf("Market data shows %s VIX levels, suggesting investor uncertainty.", vixLevel)},
			{Name: "Climate", Probability: 85, Impact: 92, Explanation: fmt.Sprintf("Extreme weather events mentioned in %d recent reports drive climate risk.", climateCount)},
			{Name: "Political", Probability: 58, Impact: 64, Explanation: "Institutional stability is under pressure from shifting voter sentiments globally."},
		},
		Scenarios: RiskScenarios{
			BestCase:   RiskScenario{Title: "Stabilized Growth", Description: "De-escalation of regional conflicts and stabilizing energy prices lead to a 3% global growth rebound.", RiskLevel: "Low"},
			WorstCase:  RiskScenario{Title: "Systemic Cascade", Description: "Simultaneous supply chain shocks and cyber warfare lead to a multi-quarter global recession.", RiskLevel: "Extreme"},
			MostLikely: RiskScenario{Title: "Volatile Equilibrium", Description: "Markets remain sensitive to data prints; slow growth persists with localized disruptions.", RiskLevel: "Moderate"},
		},
		Matrix: []RiskMatrixEntry{
			{Event: "Trade Disruption", Probability: 45, Impact: 75, Category: "Economic"},
			{Event: "Resource Scarcity", Probability: 30, Impact: 90, Category: "Climate"},
			{Event: "Cyber Breach", Probability: 80, Impact: 85, Category: "Geopolitical"},
			{Event: "Policy Pivot", Probability: 55, Impact: 60, Category: "Political"},
		},
		Correlations: []RiskCorrelation{
			{Source: "Energy Crisis", Target: "Inflation", Strength: 0.95, Description: "Energy costs drive systemic price increases."},
			{Source: "Geopolitics", Target: "Market VIX", Strength: 0.88, Description: "Uncertainty spikes volatility index."},
		},
		Sources:     sources,
		IsSimulated: true,
	}
}
