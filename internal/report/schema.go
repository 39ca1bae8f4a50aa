package report

import (
	"predicta/internal/core"

	"google.golang.org/genai"
)

// Enum string sets used both by the generation schema and by the normalizer.
// The backend enforces these where it can; the normalizer enforces them
// unconditionally.
var (
	domainValues = []string{
		string(core.DomainGeopolitics), string(core.DomainEconomics),
		string(core.DomainTechnology), string(core.DomainClimate),
		string(core.DomainSocial), string(core.DomainHealth),
		string(core.DomainSimulation),
	}
	riskCategoryValues = []string{
		string(core.RiskSupplyChain), string(core.RiskRegulatory),
		string(core.RiskMarket), string(core.RiskPhysical),
		string(core.RiskReputational),
	}
	velocityValues = []string{
		string(core.VelocitySlow), string(core.VelocityModerate),
		string(core.VelocityHigh), string(core.VelocityInstant),
	}
	adviceTypeValues = []string{
		string(core.AdviceDefensive), string(core.AdviceOffensive),
		string(core.AdviceWatchlist),
	}
	impactLevelValues = []string{
		string(core.ImpactLow), string(core.ImpactMedium),
		string(core.ImpactHigh), string(core.ImpactCritical),
	}
	eventTypeValues = []string{
		string(core.EventPolitical), string(core.EventEconomic),
		string(core.EventSocial), string(core.EventTechnological),
	}
	sentimentValues = []string{
		string(core.SentimentDefensive), string(core.SentimentNeutral),
		string(core.SentimentGrowth),
	}
)

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

var (
	validDomains        = stringSet(domainValues)
	validRiskCategories = stringSet(riskCategoryValues)
	validVelocities     = stringSet(velocityValues)
	validAdviceTypes    = stringSet(adviceTypeValues)
	validImpactLevels   = stringSet(impactLevelValues)
	validEventTypes     = stringSet(eventTypeValues)
	validSentiments     = stringSet(sentimentValues)
)

// ReportSchema returns the response schema for a single intelligence report.
// Every generation call passes this (or its array form) so the backend emits
// schema-constrained JSON.
func ReportSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":       {Type: genai.TypeString},
			"headline": {Type: genai.TypeString},
			"summary":  {Type: genai.TypeString},
			"domain":   {Type: genai.TypeString, Enum: domainValues},
			"region":   {Type: genai.TypeString},
			"detected_risks": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"sources": {
				Type:        genai.TypeArray,
				Description: "List of real-world URLs used to verify this report (if applicable)",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": {Type: genai.TypeString},
						"url":   {Type: genai.TypeString},
					},
				},
			},
			"risk_analysis": {
				Type:        genai.TypeArray,
				Description: "Deep dive risk analysis",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"risk_name":   {Type: genai.TypeString},
						"category":    {Type: genai.TypeString, Enum: riskCategoryValues},
						"probability": {Type: genai.TypeNumber, Description: "0-100"},
						"severity":    {Type: genai.TypeNumber, Description: "0-100"},
						"velocity":    {Type: genai.TypeString, Enum: velocityValues},
						"implication": {Type: genai.TypeString, Description: "One sentence on the specific consequence."},
					},
				},
			},
			"strategic_advisory": {
				Type:        genai.TypeArray,
				Description: "Tactical advice for an investor or strategist",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":      {Type: genai.TypeString, Enum: adviceTypeValues},
						"action":    {Type: genai.TypeString, Description: "The specific action to take"},
						"rationale": {Type: genai.TypeString, Description: "Why this action is recommended"},
					},
				},
			},
			"scenarios": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":        {Type: genai.TypeString},
						"description":  {Type: genai.TypeString},
						"probability":  {Type: genai.TypeNumber},
						"timeframe":    {Type: genai.TypeString},
						"impact_level": {Type: genai.TypeString, Enum: impactLevelValues},
					},
				},
			},
			"predicted_timeline": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"timeframe":         {Type: genai.TypeString},
						"event_description": {Type: genai.TypeString},
						"likelihood":        {Type: genai.TypeNumber},
						"type":              {Type: genai.TypeString, Enum: eventTypeValues},
					},
				},
			},
			"financial_impact": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"sectors_affected": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"sentiment": {Type: genai.TypeString, Enum: sentimentValues},
					"summary":   {Type: genai.TypeString},
				},
			},
			"confidence_score": {Type: genai.TypeNumber},
			"timestamp":        {Type: genai.TypeString},
		},
		Required: []string{
			"id", "headline", "summary", "domain", "region", "detected_risks",
			"risk_analysis", "strategic_advisory", "scenarios",
			"predicted_timeline", "financial_impact", "confidence_score",
			"timestamp",
		},
	}
}

// FeedSchema returns the response schema for a feed-mode call: an array of
// intelligence reports.
func FeedSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: ReportSchema(),
	}
}
