package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"predicta/internal/config"
	"predicta/internal/report"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is the default Gemini model used for report generation.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Gemini backend behind the generation contract used by the
// orchestrator: send an instruction and a task with a response schema, get
// raw JSON text back. All failure modes are mapped onto the report error
// taxonomy so the degradation policy can classify them.
type Client struct {
	gClient     *genai.Client
	modelName   string
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewClient creates a new generation client from configuration. The API key
// comes from config, which in turn reads GEMINI_API_KEY and its alternates.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.gemini.api_key in the config file")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	return &Client{
		gClient:     gClient,
		modelName:   modelName,
		temperature: cfg.Temperature,
		timeout:     timeout,
		limiter:     rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
	}, nil
}

// Generate sends one schema-constrained generation request. The returned
// string is the raw response text; an empty string with a nil error means the
// backend succeeded but produced no content. thinkingBudget <= 0 disables
// the reasoning budget.
func (c *Client) Generate(ctx context.Context, instruction, task string, schema *genai.Schema, thinkingBudget int32) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: task}},
		Role:  "user",
	}}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if c.temperature > 0 {
		temp := c.temperature
		cfg.Temperature = &temp
	}
	if thinkingBudget > 0 {
		budget := thinkingBudget
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", classifyBackendError(ctx, err)
	}

	return resp.Text(), nil
}

// GetModelName returns the model name used by this client.
func (c *Client) GetModelName() string {
	return c.modelName
}

// classifyBackendError wraps backend failures so the degradation policy can
// tell quota rejections and timeouts apart from generic transport failures.
func classifyBackendError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &report.GenerationError{
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Err:        err,
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("generation deadline: %w", context.DeadlineExceeded)
	}
	return fmt.Errorf("failed to generate content: %w", err)
}
