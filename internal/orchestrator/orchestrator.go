package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"

	"predicta/internal/core"
	"predicta/internal/logger"
	"predicta/internal/report"

	"google.golang.org/genai"
)

// ErrSuperseded is returned when a response resolves after a newer request
// has already committed its result. Callers drop the response instead of
// letting an old answer clobber newer state.
var ErrSuperseded = errors.New("request superseded by a newer one")

// GenerationClient is the external collaborator boundary: send an instruction
// and task with a response schema, receive raw text. Implemented by llm.Client.
type GenerationClient interface {
	Generate(ctx context.Context, instruction, task string, schema *genai.Schema, thinkingBudget int32) (string, error)
}

// Orchestrator is the single entry point for "get me reports" and "simulate
// this scenario". It selects the prompt variant, invokes the generation
// backend, normalizes the response, and applies the degradation policy on
// failure. Aside from the backend call it is stateless per request; the only
// cross-request state is the sequence counter used to discard stale results.
type Orchestrator struct {
	client         GenerationClient
	thinkingBudget int32
	onStage        StageFunc

	seq    atomic.Uint64
	latest atomic.Uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithThinkingBudget sets the reasoning budget passed on simulation calls.
func WithThinkingBudget(budget int32) Option {
	return func(o *Orchestrator) { o.thinkingBudget = budget }
}

// WithStageFunc registers a progress callback fired on each pipeline sub-step.
func WithStageFunc(fn StageFunc) Option {
	return func(o *Orchestrator) { o.onStage = fn }
}

// New creates an Orchestrator around a generation client.
func New(client GenerationClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:         client,
		thinkingBudget: 2048,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchGlobalIntelligence runs a feed-mode orchestration. The precedence rule
// lives in the prompt builder: search query > location > interests. Every
// failure path terminates in the degradation policy, so the only non-nil
// error is ErrSuperseded; callers otherwise always receive a renderable
// slice, possibly empty or the canned quota diagnostic.
func (o *Orchestrator) FetchGlobalIntelligence(ctx context.Context, prefs core.UserPreferences, searchQuery string, location *core.LocationCoordinates) ([]core.IntelligenceReport, error) {
	seq := o.seq.Add(1)

	prompt := report.BuildFeedPrompt(prefs, searchQuery, location)
	o.stage(StagePromptBuilt)

	o.stage(StageBackendCalled)
	raw, err := o.client.Generate(ctx, prompt.Instruction, prompt.Task, report.FeedSchema(), 0)
	if err != nil {
		if !o.commit(seq) {
			return nil, ErrSuperseded
		}
		logger.Error("feed generation failed", err, "classification", report.Classify(err).String(), "seq", seq)
		return report.DegradeFeed(err), nil
	}
	o.stage(StageResponseParsed)

	reports, err := report.NormalizeFeed(raw)
	if err != nil {
		if !o.commit(seq) {
			return nil, ErrSuperseded
		}
		logger.Error("feed normalization failed", err, "seq", seq)
		return report.DegradeFeed(err), nil
	}
	o.stage(StageNormalized)

	if !o.commit(seq) {
		return nil, ErrSuperseded
	}
	logger.Debug("feed orchestration complete", "reports", len(reports), "seq", seq)
	return reports, nil
}

// RunScenarioSimulation runs a simulation-mode orchestration. A nil report
// with a nil error is the degraded "no signal" outcome; the caller renders
// that state explicitly.
func (o *Orchestrator) RunScenarioSimulation(ctx context.Context, prefs core.UserPreferences, scenarioText string, deepResearch bool) (*core.IntelligenceReport, error) {
	seq := o.seq.Add(1)

	prompt := report.BuildSimulationPrompt(scenarioText, deepResearch)
	o.stage(StagePromptBuilt)

	o.stage(StageBackendCalled)
	raw, err := o.client.Generate(ctx, prompt.Instruction, prompt.Task, report.ReportSchema(), o.thinkingBudget)
	if err != nil {
		if !o.commit(seq) {
			return nil, ErrSuperseded
		}
		logger.Error("simulation generation failed", err, "classification", report.Classify(err).String(), "seq", seq)
		return report.DegradeSimulation(err), nil
	}
	o.stage(StageResponseParsed)

	rpt, err := report.NormalizeReport(raw)
	if err != nil {
		if !o.commit(seq) {
			return nil, ErrSuperseded
		}
		logger.Error("simulation normalization failed", err, "seq", seq)
		return report.DegradeSimulation(err), nil
	}
	o.stage(StageNormalized)

	if !o.commit(seq) {
		return nil, ErrSuperseded
	}
	if rpt != nil {
		// Reflects the caller's request mode, never generated content.
		rpt.IsDeepResearch = deepResearch
	}
	return rpt, nil
}

// commit records seq as the latest delivered response. It reports false when
// a response with a higher sequence has already committed, in which case the
// caller's result is stale and must be discarded.
func (o *Orchestrator) commit(seq uint64) bool {
	for {
		cur := o.latest.Load()
		if seq < cur {
			return false
		}
		if o.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

func (o *Orchestrator) stage(s Stage) {
	if o.onStage != nil {
		o.onStage(s, stageAgent(s))
	}
}
