package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"predicta/internal/config"
	"predicta/internal/news"
)

// chatResponse builds a minimal OpenAI chat completion payload whose single
// message content is the given JSON string.
func chatResponse(content string) string {
	payload := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":   0,
			"message": map[string]any{"role": "assistant", "content": content},
		}},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newsServer(t *testing.T, handler http.HandlerFunc) *news.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return news.NewClient(config.News{BaseURL: srv.URL, APIKey: "k", Timeout: 5 * time.Second})
}

func aiServer(t *testing.T, handler http.HandlerFunc) config.OpenAIConfig {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"}
}

func TestGlobalFeedEnrichesArticles(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); !strings.Contains(got, "geopolitics") {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Reuters"},"title":"Strait closure looms","description":"desc","url":"https://example.com/a","publishedAt":"2026-08-30T10:00:00Z"}
		]}`))
	})
	aiCfg := aiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`{"summary":"Shipping rerouted.","sentiment":"negative","riskLevel":"high","confidenceScore":0.9,"region":"Middle East","topic":"Energy"}`)))
	})

	svc := NewService(aiCfg, newsClient, nil, time.Minute)
	items, err := svc.GlobalFeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if item.Headline != "Strait closure looms" || item.Source != "Reuters" {
		t.Errorf("article fields not carried over: %+v", item)
	}
	if item.Sentiment != "negative" || item.RiskLevel != "high" || item.Topic != "Energy" {
		t.Errorf("enrichment not applied: %+v", item)
	}
}

func TestGlobalFeedNeutralFallbackOnEnrichmentFailure(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[{"title":"Quiet day","description":"nothing moved"}]}`))
	})
	aiCfg := aiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc := NewService(aiCfg, newsClient, nil, time.Minute)
	items, err := svc.GlobalFeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := items[0]
	if item.Sentiment != "neutral" || item.RiskLevel != "low" || item.ConfidenceScore != 0.5 {
		t.Errorf("expected neutral fallback, got %+v", item)
	}
	if item.Summary != "nothing moved" {
		t.Errorf("fallback summary should reuse the description, got %q", item.Summary)
	}
}

func TestGlobalFeedCapsEnrichedBatch(t *testing.T) {
	var articles []string
	for range 12 {
		articles = append(articles, `{"title":"t","description":"d"}`)
	}
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[` + strings.Join(articles, ",") + `]}`))
	})

	// No API key: service runs in fallback-only mode.
	svc := NewService(config.OpenAIConfig{}, newsClient, nil, time.Minute)
	items, err := svc.GlobalFeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 8 {
		t.Errorf("items = %d, want 8", len(items))
	}
}

func TestGlobalFeedNewsFailure(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	})
	svc := NewService(config.OpenAIConfig{}, newsClient, nil, time.Minute)
	if _, err := svc.GlobalFeed(context.Background()); err == nil {
		t.Error("news failure must propagate")
	}
}

func TestDashboardBuildsReport(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[{"title":"Rates held","description":"central bank pause"}]}`))
	})
	var aiCalls int
	aiCfg := aiServer(t, func(w http.ResponseWriter, r *http.Request) {
		aiCalls++
		w.Write([]byte(chatResponse(`{
			"topics":[{"name":"Economy","value":60},{"name":"Politics","value":40}],
			"sentiment":{"score":55,"breakdown":{"positive":40,"neutral":35,"negative":25}},
			"entities":{"countries":["US"],"companies":["ACME"],"leaders":["J. Doe"]},
			"timeline":[{"time":"00:00","score":50}]
		}`)))
	})

	svc := NewService(aiCfg, newsClient, nil, time.Minute)
	rpt := svc.Dashboard(context.Background())
	if rpt.Sentiment.Score != 55 || len(rpt.Topics) != 2 {
		t.Errorf("unexpected report: %+v", rpt)
	}

	// Second call comes from the cache.
	svc.Dashboard(context.Background())
	if aiCalls != 1 {
		t.Errorf("expected one completion call, got %d", aiCalls)
	}
}

func TestDashboardFallsBackToMock(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	aiCfg := aiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("completion must not be called when headlines fail")
	})

	svc := NewService(aiCfg, newsClient, nil, time.Minute)
	rpt := svc.Dashboard(context.Background())
	mock := MockReport()
	if rpt.Sentiment.Score != mock.Sentiment.Score || len(rpt.Topics) != len(mock.Topics) {
		t.Errorf("expected mock report, got %+v", rpt)
	}
}

func TestDashboardFallsBackOnEmptyChoices(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[{"title":"t","description":"d"}]}`))
	})
	aiCfg := aiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`))
	})

	svc := NewService(aiCfg, newsClient, nil, time.Minute)
	rpt := svc.Dashboard(context.Background())
	mock := MockReport()
	if rpt.Sentiment.Score != mock.Sentiment.Score {
		t.Errorf("empty completion choices should fall back to the mock report, got %+v", rpt)
	}
}

func TestDashboardWithoutBackendServesMock(t *testing.T) {
	newsClient := newsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[{"title":"t"}]}`))
	})
	svc := NewService(config.OpenAIConfig{}, newsClient, nil, time.Minute)
	rpt := svc.Dashboard(context.Background())
	if len(rpt.Topics) == 0 {
		t.Error("mock report should populate topic shares")
	}
}
