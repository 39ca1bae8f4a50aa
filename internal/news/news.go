package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"predicta/internal/config"
)

// Article is one NewsAPI article.
type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type apiResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// Client talks to the NewsAPI REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a NewsAPI client.
func NewClient(cfg config.News) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// Everything searches all indexed articles for the query, newest first.
func (c *Client) Everything(ctx context.Context, query string, pageSize int) ([]Article, error) {
	path := fmt.Sprintf("/everything?q=%s&pageSize=%d&sortBy=publishedAt&language=en",
		url.QueryEscape(query), pageSize)
	return c.fetch(ctx, path)
}

// TopHeadlines returns the current top headlines.
func (c *Client) TopHeadlines(ctx context.Context, pageSize int) ([]Article, error) {
	path := fmt.Sprintf("/top-headlines?language=en&pageSize=%d", pageSize)
	return c.fetch(ctx, path)
}

func (c *Client) fetch(ctx context.Context, path string) ([]Article, error) {
	endpoint := c.baseURL + path + "&apiKey=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building news request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding news response: %w", err)
	}
	if data.Status != "ok" {
		return nil, fmt.Errorf("news API error %s: %s", data.Code, data.Message)
	}
	return data.Articles, nil
}
