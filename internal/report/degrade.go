package report

import "predicta/internal/core"

// QuotaFallbackReportID identifies the canned diagnostic report returned when
// the generation backend rejects a call for quota reasons.
const QuotaFallbackReportID = "error-quota"

// QuotaFallbackReport builds the canned diagnostic report shown when the
// generation quota is exhausted. The UI always gets a renderable,
// self-explanatory artifact instead of a blank state.
func QuotaFallbackReport() core.IntelligenceReport {
	return core.IntelligenceReport{
		ID:       QuotaFallbackReportID,
		Headline: "NEURAL LINK SATURATED: QUOTA LIMIT REACHED",
		Summary: "The generation API key has exceeded its allowance or billing limit. " +
			"Real-time intelligence gathering is temporarily suspended.",
		Domain:        core.DomainSimulation,
		Region:        "Global Network",
		DetectedRisks: []string{"Data Stream Interrupted"},
		Sources: []core.Source{
			{Title: "Gemini Quota Info", URL: "https://aistudio.google.com/app/plan"},
		},
		RiskAnalysis: []core.DetailedRisk{{
			RiskName:    "Intelligence Blackout",
			Category:    core.RiskRegulatory,
			Probability: 100,
			Severity:    90,
			Velocity:    core.VelocityInstant,
			Implication: "Real-time decision making is compromised.",
		}},
		StrategicAdvisory: []core.StrategicAdvice{{
			Type:      core.AdviceDefensive,
			Action:    "UPGRADE API PLAN",
			Rationale: "Required for high-fidelity real-time streams.",
		}},
		Scenarios:         []core.Scenario{},
		PredictedTimeline: []core.PredictedEvent{},
		FinancialImpact: core.FinancialImpact{
			SectorsAffected: []string{"Technology"},
			Sentiment:       core.SentimentDefensive,
			Summary:         "Market data is static.",
		},
		ConfidenceScore: 0,
		Timestamp:       core.NowISO(),
	}
}

// DegradeFeed decides the externally visible feed outcome for a failure.
// Quota exhaustion yields the canned diagnostic report; every other failure,
// including a successful-but-empty result, yields an empty feed. No retries
// happen here; a retry is only ever triggered by explicit user action.
func DegradeFeed(err error) []core.IntelligenceReport {
	if Classify(err) == FailureQuota {
		return []core.IntelligenceReport{QuotaFallbackReport()}
	}
	return []core.IntelligenceReport{}
}

// DegradeSimulation decides the externally visible simulation outcome for a
// failure: always a nil report. The caller renders an explicit "no signal"
// state.
func DegradeSimulation(err error) *core.IntelligenceReport {
	return nil
}
