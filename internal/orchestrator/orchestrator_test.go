package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"testing"

	"predicta/internal/core"
	"predicta/internal/report"

	"google.golang.org/genai"
)

// mockGenerationClient implements GenerationClient for testing.
type mockGenerationClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	blockers  map[int]chan struct{} // call index -> release channel
}

func (m *mockGenerationClient) Generate(ctx context.Context, instruction, task string, schema *genai.Schema, thinkingBudget int32) (string, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	blocker := m.blockers[call]
	m.mu.Unlock()

	if blocker != nil {
		select {
		case <-blocker:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	var resp string
	var err error
	if call < len(m.responses) {
		resp = m.responses[call]
	}
	if call < len(m.errs) {
		err = m.errs[call]
	}
	return resp, err
}

func feedJSON(t *testing.T) string {
	t.Helper()
	reports := []core.IntelligenceReport{{
		ID:       "r-1",
		Headline: "Test",
		Summary:  "Summary",
		Domain:   core.DomainEconomics,
		Region:   "Global",
		FinancialImpact: core.FinancialImpact{
			Sentiment: core.SentimentNeutral,
		},
		ConfidenceScore: 0.7,
		Timestamp:       "2026-01-02T03:04:05Z",
	}}
	raw, err := json.Marshal(reports)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func simulationJSON(t *testing.T) string {
	t.Helper()
	rpt := core.IntelligenceReport{
		ID:              "sim-1",
		Headline:        "Simulated",
		Summary:         "Summary",
		Domain:          core.DomainSimulation,
		Region:          "Global",
		ConfidenceScore: 0.6,
		Timestamp:       "2026-01-02T03:04:05Z",
	}
	raw, err := json.Marshal(rpt)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestFetchGlobalIntelligenceSuccess(t *testing.T) {
	client := &mockGenerationClient{responses: []string{feedJSON(t)}}

	var stages []Stage
	orch := New(client, WithStageFunc(func(stage Stage, agent core.AgentStage) {
		stages = append(stages, stage)
	}))

	reports, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "r-1" {
		t.Errorf("unexpected reports: %#v", reports)
	}

	want := []Stage{StagePromptBuilt, StageBackendCalled, StageResponseParsed, StageNormalized}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %v, want %v", i, stages[i], want[i])
		}
	}
}

func TestFetchGlobalIntelligenceQuotaDegradation(t *testing.T) {
	client := &mockGenerationClient{errs: []error{&report.GenerationError{StatusCode: 429, Status: "Too Many Requests"}}}
	orch := New(client)

	reports, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "", nil)
	if err != nil {
		t.Fatalf("quota failures must degrade, not error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected exactly one diagnostic report, got %d", len(reports))
	}
	r := reports[0]
	if r.ID != "error-quota" || r.ConfidenceScore != 0 || r.Domain != core.DomainSimulation {
		t.Errorf("unexpected diagnostic report: id=%q confidence=%v domain=%v", r.ID, r.ConfidenceScore, r.Domain)
	}
}

func TestFetchGlobalIntelligenceMalformedResponse(t *testing.T) {
	client := &mockGenerationClient{responses: []string{"{not json"}}
	orch := New(client)

	reports, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "", nil)
	if err != nil {
		t.Fatalf("malformed responses must not propagate an error, got %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("malformed response should degrade to an empty feed, got %#v", reports)
	}
}

func TestFetchGlobalIntelligenceEmptyResult(t *testing.T) {
	client := &mockGenerationClient{responses: []string{""}}
	orch := New(client)

	reports, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reports == nil || len(reports) != 0 {
		t.Errorf("empty backend result should yield an empty feed, got %#v", reports)
	}
}

func TestRunScenarioSimulationStampsDeepResearch(t *testing.T) {
	client := &mockGenerationClient{responses: []string{simulationJSON(t)}}
	orch := New(client)

	rpt, err := orch.RunScenarioSimulation(context.Background(), core.UserPreferences{}, "port closure", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rpt == nil {
		t.Fatal("expected a report")
	}
	if !rpt.IsDeepResearch {
		t.Errorf("deep research flag must be stamped after normalization")
	}
}

func TestRunScenarioSimulationFailureYieldsNil(t *testing.T) {
	client := &mockGenerationClient{errs: []error{errors.New("backend down")}}
	orch := New(client)

	rpt, err := orch.RunScenarioSimulation(context.Background(), core.UserPreferences{}, "port closure", false)
	if err != nil {
		t.Fatalf("failures must degrade, not error: %v", err)
	}
	if rpt != nil {
		t.Errorf("degraded simulation should be nil, got %#v", rpt)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	client := &mockGenerationClient{
		responses: []string{feedJSON(t), feedJSON(t)},
		blockers:  map[int]chan struct{}{0: release},
	}
	orch := New(client)

	firstDone := make(chan error, 1)
	go func() {
		_, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "first", nil)
		firstDone <- err
	}()

	// Second request completes while the first is still in flight.
	// Spin until the first call is registered so sequence order is fixed.
	for {
		client.mu.Lock()
		started := client.calls >= 1
		client.mu.Unlock()
		if started {
			break
		}
		runtime.Gosched()
	}

	if _, err := orch.FetchGlobalIntelligence(context.Background(), core.UserPreferences{}, "second", nil); err != nil {
		t.Fatalf("second request should commit, got %v", err)
	}

	close(release)
	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first request should be superseded, got %v", err)
	}
}

func TestGenerationRespectsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &mockGenerationClient{blockers: map[int]chan struct{}{0: release}}
	orch := New(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := orch.FetchGlobalIntelligence(ctx, core.UserPreferences{}, "", nil)
	if err != nil {
		t.Fatalf("cancellation should degrade, not error: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("cancelled request should yield an empty feed, got %#v", reports)
	}
}

func TestAgentsRosterStable(t *testing.T) {
	agents := Agents()
	if len(agents) != 9 {
		t.Fatalf("expected 9 narrative agents, got %d", len(agents))
	}
	if agents[0].Name != "Global News Collection" || agents[8].Role != "Guard" {
		t.Errorf("unexpected roster: %#v", agents)
	}

	// Mutating the returned slice must not affect the roster.
	agents[0].Name = "tampered"
	if Agents()[0].Name != "Global News Collection" {
		t.Errorf("Agents must return a copy")
	}
}
