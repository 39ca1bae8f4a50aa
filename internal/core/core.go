package core

import "time"

// Domain classifies an intelligence report.
type Domain string

const (
	DomainGeopolitics Domain = "Geopolitics"
	DomainEconomics   Domain = "Economics"
	DomainTechnology  Domain = "Technology"
	DomainClimate     Domain = "Climate"
	DomainSocial      Domain = "Social"
	DomainHealth      Domain = "Health"
	DomainSimulation  Domain = "Simulation"
)

// RiskCategory classifies a detailed risk entry.
type RiskCategory string

const (
	RiskSupplyChain  RiskCategory = "Supply Chain"
	RiskRegulatory   RiskCategory = "Regulatory"
	RiskMarket       RiskCategory = "Market"
	RiskPhysical     RiskCategory = "Physical"
	RiskReputational RiskCategory = "Reputational"
)

// RiskVelocity describes how fast a risk materializes.
type RiskVelocity string

const (
	VelocitySlow     RiskVelocity = "Slow"
	VelocityModerate RiskVelocity = "Moderate"
	VelocityHigh     RiskVelocity = "High"
	VelocityInstant  RiskVelocity = "Instant"
)

// AdviceType classifies a strategic advisory entry.
type AdviceType string

const (
	AdviceDefensive AdviceType = "Defensive"
	AdviceOffensive AdviceType = "Offensive"
	AdviceWatchlist AdviceType = "Watchlist"
)

// ImpactLevel grades a scenario's impact.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// EventType classifies a predicted timeline event.
type EventType string

const (
	EventPolitical     EventType = "political"
	EventEconomic      EventType = "economic"
	EventSocial        EventType = "social"
	EventTechnological EventType = "technological"
)

// Sentiment classifies the financial posture of a report.
type Sentiment string

const (
	SentimentDefensive Sentiment = "defensive"
	SentimentNeutral   Sentiment = "neutral"
	SentimentGrowth    Sentiment = "growth"
)

// RiskTolerance is a user-level preference, not a generated field.
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// DetailedRisk is one entry of a report's risk analysis.
type DetailedRisk struct {
	RiskName    string       `json:"risk_name"`   // Short name of the risk
	Category    RiskCategory `json:"category"`    // Supply Chain, Regulatory, Market, Physical, Reputational
	Probability float64      `json:"probability"` // 0-100
	Severity    float64      `json:"severity"`    // 0-100
	Velocity    RiskVelocity `json:"velocity"`    // How fast it hits
	Implication string       `json:"implication"` // One sentence on the specific consequence
}

// StrategicAdvice is one tactical recommendation attached to a report.
type StrategicAdvice struct {
	Type      AdviceType `json:"type"`      // Defensive, Offensive, Watchlist
	Action    string     `json:"action"`    // The specific action to take
	Rationale string     `json:"rationale"` // Why this action is recommended
}

// Scenario is one projected outcome branch.
type Scenario struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Probability float64     `json:"probability"`  // 0-100
	Timeframe   string      `json:"timeframe"`    // e.g. "3-6 months"
	ImpactLevel ImpactLevel `json:"impact_level"` // low, medium, high, critical
}

// PredictedEvent is one entry of a report's forward timeline.
type PredictedEvent struct {
	Timeframe        string    `json:"timeframe"`
	EventDescription string    `json:"event_description"`
	Likelihood       float64   `json:"likelihood"` // 0-100
	Type             EventType `json:"type"`       // political, economic, social, technological
}

// FinancialImpact summarizes market consequences of a report.
type FinancialImpact struct {
	SectorsAffected []string  `json:"sectors_affected"`
	Sentiment       Sentiment `json:"sentiment"` // defensive, neutral, growth
	Summary         string    `json:"summary"`
}

// Source is a real-world citation backing a report.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"` // Absolute URL; downstream code derives hostnames from it
}

// IntelligenceReport is the unit of output of the generation pipeline.
// A report is constructed once per generation call and immutable afterwards,
// except for the IsDeepResearch stamp applied by the orchestrator.
type IntelligenceReport struct {
	ID                string            `json:"id"`
	Headline          string            `json:"headline"`
	Summary           string            `json:"summary"`
	Domain            Domain            `json:"domain"`
	Region            string            `json:"region"`
	RiskAnalysis      []DetailedRisk    `json:"risk_analysis"`
	StrategicAdvisory []StrategicAdvice `json:"strategic_advisory"`
	Scenarios         []Scenario        `json:"scenarios"`
	PredictedTimeline []PredictedEvent  `json:"predicted_timeline"`
	FinancialImpact   FinancialImpact   `json:"financial_impact"`
	Sources           []Source          `json:"sources"`
	ConfidenceScore   float64           `json:"confidence_score"` // 0-1
	Timestamp         string            `json:"timestamp"`        // ISO-8601
	DetectedRisks     []string          `json:"detected_risks"`   // Legacy short-form view of risks
	IsDeepResearch    bool              `json:"is_deep_research,omitempty"`
}

// UserPreferences is owned by the client; persistence is out of scope here.
type UserPreferences struct {
	Name          string        `json:"name"`
	Interests     []string      `json:"interests"`
	Regions       []string      `json:"regions"`
	RiskTolerance RiskTolerance `json:"risk_tolerance"`
	Onboarded     bool          `json:"onboarded"`
}

// LocationCoordinates is an optional location bias for the feed.
type LocationCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AgentStage is one labeled step of the generation pipeline, used to drive
// progress reporting. Stages map to real sub-steps of the orchestrator, not
// to independent actors.
type AgentStage struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// NowISO returns the timestamp format stamped on generated reports.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
