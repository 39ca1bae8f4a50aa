package report

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"predicta/internal/core"

	"github.com/google/uuid"
)

// NormalizeFeed converts the raw feed-mode response into validated reports.
// An empty raw string yields an empty slice, not an error. Invalid JSON or a
// non-array top level returns ErrMalformedResponse. Individual reports that
// fail domain validation are dropped; the rest of the batch is kept.
func NormalizeFeed(raw string) ([]core.IntelligenceReport, error) {
	if strings.TrimSpace(raw) == "" {
		return []core.IntelligenceReport{}, nil
	}

	var parsed []core.IntelligenceReport
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	reports := make([]core.IntelligenceReport, 0, len(parsed))
	for i := range parsed {
		r, err := normalizeReport(&parsed[i])
		if err != nil {
			continue
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// NormalizeReport converts the raw simulation-mode response into a single
// validated report. An empty raw string yields nil without error.
func NormalizeReport(raw string) (*core.IntelligenceReport, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var parsed core.IntelligenceReport
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return normalizeReport(&parsed)
}

// normalizeReport clamps numeric fields, defaults missing list fields to
// empty slices, and drops sub-entries with unrecognized enum values. It never
// fails on semantically odd but structurally valid data; the only validation
// failure is an unrecognized domain. The transformation is idempotent.
func normalizeReport(r *core.IntelligenceReport) (*core.IntelligenceReport, error) {
	if !validDomains[string(r.Domain)] {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrInvalidReport, r.Domain)
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp == "" {
		r.Timestamp = core.NowISO()
	}
	r.ConfidenceScore = clamp(r.ConfidenceScore, 0, 1)

	risks := make([]core.DetailedRisk, 0, len(r.RiskAnalysis))
	for _, risk := range r.RiskAnalysis {
		if !validRiskCategories[string(risk.Category)] || !validVelocities[string(risk.Velocity)] {
			continue
		}
		risk.Probability = clamp(risk.Probability, 0, 100)
		risk.Severity = clamp(risk.Severity, 0, 100)
		risks = append(risks, risk)
	}
	r.RiskAnalysis = risks

	advisory := make([]core.StrategicAdvice, 0, len(r.StrategicAdvisory))
	for _, advice := range r.StrategicAdvisory {
		if !validAdviceTypes[string(advice.Type)] {
			continue
		}
		advisory = append(advisory, advice)
	}
	r.StrategicAdvisory = advisory

	scenarios := make([]core.Scenario, 0, len(r.Scenarios))
	for _, sc := range r.Scenarios {
		if !validImpactLevels[string(sc.ImpactLevel)] {
			continue
		}
		sc.Probability = clamp(sc.Probability, 0, 100)
		scenarios = append(scenarios, sc)
	}
	r.Scenarios = scenarios

	timeline := make([]core.PredictedEvent, 0, len(r.PredictedTimeline))
	for _, ev := range r.PredictedTimeline {
		if !validEventTypes[string(ev.Type)] {
			continue
		}
		ev.Likelihood = clamp(ev.Likelihood, 0, 100)
		timeline = append(timeline, ev)
	}
	r.PredictedTimeline = timeline

	sources := make([]core.Source, 0, len(r.Sources))
	for _, src := range r.Sources {
		if !isAbsoluteURL(src.URL) {
			continue
		}
		sources = append(sources, src)
	}
	r.Sources = sources

	if len(r.FinancialImpact.SectorsAffected) == 0 {
		r.FinancialImpact.SectorsAffected = []string{}
	}
	if !validSentiments[string(r.FinancialImpact.Sentiment)] {
		r.FinancialImpact.Sentiment = core.SentimentNeutral
	}

	// The legacy short-form view falls back to the detailed risk names so
	// list consumers always have something to render.
	if len(r.DetectedRisks) == 0 {
		names := make([]string, 0, len(r.RiskAnalysis))
		for _, risk := range r.RiskAnalysis {
			names = append(names, risk.RiskName)
		}
		r.DetectedRisks = names
	}

	return r, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isAbsoluteURL reports whether s parses as an absolute URL with a host.
// Downstream consumers derive hostnames from source URLs, so anything else
// is dropped.
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
