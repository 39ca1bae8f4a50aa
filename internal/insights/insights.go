package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"predicta/internal/config"
	"predicta/internal/logger"
	"predicta/internal/market"
	"predicta/internal/news"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
)

const globalFeedQuery = `geopolitics OR economics OR finance OR "market news"`

// Enrichment is the analyst overlay generated for one news article.
type Enrichment struct {
	Summary         string  `json:"summary"`
	Sentiment       string  `json:"sentiment"`       // positive, neutral, negative
	RiskLevel       string  `json:"riskLevel"`       // low, medium, high
	ConfidenceScore float64 `json:"confidenceScore"` // 0-1
	Region          string  `json:"region"`
	Topic           string  `json:"topic"`
}

// FeedItem is one enriched article in the global feed.
type FeedItem struct {
	Headline        string  `json:"headline"`
	Summary         string  `json:"summary"`
	Sentiment       string  `json:"sentiment"`
	RiskLevel       string  `json:"riskLevel"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Region          string  `json:"region"`
	Topic           string  `json:"topic"`
	Source          string  `json:"source"`
	Timestamp       string  `json:"timestamp"`
	URL             string  `json:"url"`
	ImageURL        string  `json:"urlToImage"`
}

// TopicShare is one slice of the topic distribution.
type TopicShare struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SentimentBreakdown splits overall sentiment into shares.
type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// TimelinePoint is one sentiment sample over the last 24 hours.
type TimelinePoint struct {
	Time  string  `json:"time"`
	Score float64 `json:"score"`
}

// Report is the aggregate dashboard insight view.
type Report struct {
	Topics    []TopicShare `json:"topics"`
	Sentiment struct {
		Score     float64            `json:"score"`
		Breakdown SentimentBreakdown `json:"breakdown"`
	} `json:"sentiment"`
	Entities struct {
		Countries []string `json:"countries"`
		Companies []string `json:"companies"`
		Leaders   []string `json:"leaders"`
	} `json:"entities"`
	Timeline []TimelinePoint `json:"timeline"`
}

// Service enriches raw headlines with LLM analysis. Every operation degrades
// to a usable fallback when the news source or the LLM is unavailable; the
// dashboard never renders a blank panel because of an upstream outage.
type Service struct {
	ai        *openai.Client
	model     string
	news      *news.Client
	market    *market.Client
	cache     *gocache.Cache
	cacheTTL  time.Duration
	available bool
}

// NewService creates an insight service. An empty OpenAI key disables the
// LLM; all operations then return their fallbacks immediately. The market
// client is optional and only feeds the risk analysis snapshot.
func NewService(cfg config.OpenAIConfig, newsClient *news.Client, marketClient *market.Client, cacheTTL time.Duration) *Service {
	s := &Service{
		model:    cfg.Model,
		news:     newsClient,
		market:   marketClient,
		cacheTTL: cacheTTL,
	}
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = 10 * time.Minute
	}
	s.cache = gocache.New(s.cacheTTL, 2*s.cacheTTL)

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

// GlobalFeed fetches the latest finance and geopolitics headlines and
// enriches the first batch with per-article LLM analysis. Enrichment
// failures fall back to a neutral overlay per article.
func (s *Service) GlobalFeed(ctx context.Context) ([]FeedItem, error) {
	articles, err := s.news.Everything(ctx, globalFeedQuery, 10)
	if err != nil {
		return nil, fmt.Errorf("fetching global feed news: %w", err)
	}

	if len(articles) > 8 {
		articles = articles[:8]
	}

	items := make([]FeedItem, len(articles))
	for i, article := range articles {
		enrichment := s.enrich(ctx, article)
		items[i] = FeedItem{
			Headline:        article.Title,
			Summary:         enrichment.Summary,
			Sentiment:       enrichment.Sentiment,
			RiskLevel:       enrichment.RiskLevel,
			ConfidenceScore: enrichment.ConfidenceScore,
			Region:          enrichment.Region,
			Topic:           enrichment.Topic,
			Source:          article.Source.Name,
			Timestamp:       article.PublishedAt,
			URL:             article.URL,
			ImageURL:        article.ImageURL,
		}
	}
	return items, nil
}

// enrich runs one article through the analyst prompt, falling back to a
// neutral overlay on any failure.
func (s *Service) enrich(ctx context.Context, article news.Article) Enrichment {
	fallback := Enrichment{
		Summary:         article.Description,
		Sentiment:       "neutral",
		RiskLevel:       "low",
		ConfidenceScore: 0.5,
		Region:          "Global",
		Topic:           "General",
	}
	if !s.available {
		return fallback
	}

	prompt := fmt.Sprintf(`Analyze the following news article and provide a JSON response with:
1. "summary": A concise AI-generated summary (2 sentences).
2. "sentiment": One of "positive", "neutral", "negative".
3. "riskLevel": One of "low", "medium", "high".
4. "confidenceScore": A number between 0 and 1 representing your confidence in this analysis.
5. "region": The primary geographic region affected (e.g., "Global", "North America", "Europe", "Asia-Pacific", "Middle East", "Africa", "South America").
6. "topic": The primary topic (e.g., "Finance", "Energy", "Tech", "Geopolitics", "Healthcare").

Article Title: %s
Article Description: %s
Article Content: %s

Response MUST be strictly valid JSON.`, article.Title, article.Description, article.Content)

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a financial and geopolitical risk analyst."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		logger.Warn("article enrichment failed", "title", article.Title)
		return fallback
	}

	var enrichment Enrichment
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &enrichment); err != nil {
		return fallback
	}

	if enrichment.Summary == "" {
		enrichment.Summary = article.Description
	}
	if enrichment.Sentiment == "" {
		enrichment.Sentiment = "neutral"
	}
	if enrichment.RiskLevel == "" {
		enrichment.RiskLevel = "low"
	}
	if enrichment.ConfidenceScore <= 0 {
		enrichment.ConfidenceScore = 0.5
	}
	if enrichment.Region == "" {
		enrichment.Region = "Global"
	}
	if enrichment.Topic == "" {
		enrichment.Topic = "General"
	}
	return enrichment
}

// Dashboard builds the aggregate insight report from the current top
// headlines. Results are cached; on any upstream failure the canned mock
// insight set is returned so the panel stays populated.
func (s *Service) Dashboard(ctx context.Context) Report {
	const cacheKey = "dashboard"
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(Report)
	}

	rpt, err := s.buildDashboard(ctx)
	if err != nil {
		logger.Warn("insight generation failed, serving mock insights", "error", err.Error())
		return MockReport()
	}

	s.cache.Set(cacheKey, rpt, s.cacheTTL)
	return rpt
}

func (s *Service) buildDashboard(ctx context.Context) (Report, error) {
	if !s.available {
		return Report{}, fmt.Errorf("insight backend not configured")
	}

	articles, err := s.news.TopHeadlines(ctx, 20)
	if err != nil {
		return Report{}, fmt.Errorf("fetching headlines: %w", err)
	}
	if len(articles) == 0 {
		return Report{}, fmt.Errorf("no headlines available")
	}

	var lines []string
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("%s: %s", a.Title, a.Description))
	}

	prompt := fmt.Sprintf(`Analyze the following news headlines and descriptions from today:

%s

Based on this data, provide:
1. Topic Detection: Percentage distribution among "Conflict", "Economy", "Politics", and "Climate".
2. Sentiment Analysis: Overall sentiment score (0 to 100, where 0 is very negative and 100 is very positive) and a breakdown of "Positive", "Neutral", "Negative" in percentages.
3. Key Entity Extraction: List top 3 countries, top 3 companies, and top 3 leaders mentioned or relevant.
4. Timeline Sentiment Shift: Generate 5 data points (time, sentiment_score) that simulate a sentiment shift over the last 24 hours based on these current events.

Return the response in strict JSON format like this:
{
  "topics": [{"name": "Conflict", "value": 0}, {"name": "Economy", "value": 0}, {"name": "Politics", "value": 0}, {"name": "Climate", "value": 0}],
  "sentiment": {"score": 0, "breakdown": {"positive": 0, "neutral": 0, "negative": 0}},
  "entities": {"countries": [], "companies": [], "leaders": []},
  "timeline": [{"time": "00:00", "score": 0}, {"time": "06:00", "score": 0}, {"time": "12:00", "score": 0}, {"time": "18:00", "score": 0}, {"time": "24:00", "score": 0}]
}`, strings.Join(lines, "\n\n"))

	resp, err := s.chatJSON(ctx, "", prompt)
	if err != nil {
		return Report{}, fmt.Errorf("insight completion failed: %w", err)
	}

	var rpt Report
	if err := json.Unmarshal([]byte(resp), &rpt); err != nil {
		return Report{}, fmt.Errorf("parsing insight response: %w", err)
	}
	return rpt, nil
}

// chatJSON runs one JSON-mode completion and returns the message content. An
// empty system string omits the system message.
func (s *Service) chatJSON(ctx context.Context, system, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// MockReport is the canned insight set served when no live data is available.
func MockReport() Report {
	var rpt Report
	rpt.Topics = []TopicShare{
		{Name: "Conflict", Value: 25},
		{Name: "Economy", Value: 35},
		{Name: "Politics", Value: 30},
		{Name: "Climate", Value: 10},
	}
	rpt.Sentiment.Score = 48
	rpt.Sentiment.Breakdown = SentimentBreakdown{Positive: 30, Neutral: 42, Negative: 28}
	rpt.Entities.Countries = []string{"United States", "China", "Germany"}
	rpt.Entities.Companies = []string{"NVIDIA", "Saudi Aramco", "TSMC"}
	rpt.Entities.Leaders = []string{"Jerome Powell", "Christine Lagarde", "Antonio Guterres"}
	rpt.Timeline = []TimelinePoint{
		{Time: "00:00", Score: 50},
		{Time: "06:00", Score: 47},
		{Time: "12:00", Score: 45},
		{Time: "18:00", Score: 49},
		{Time: "24:00", Score: 48},
	}
	return rpt
}
