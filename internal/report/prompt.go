package report

import (
	"fmt"
	"strings"

	"predicta/internal/core"
)

// Prompt is the pair of strings sent verbatim to the generation backend.
type Prompt struct {
	Instruction string // System-level instruction block
	Task        string // User-facing task string
}

const feedSystemTemplate = `You are PREDICTA-CORE, an autonomous multi-agent intelligence system.

### MISSION
Identify REAL, VERIFIED events happening NOW.

### CONTEXT & TASK
%s

### AGENT ROLES:
1. Agent 1 (Search): Find current events.
2. Agent 4 (Risk): Analyze news for second-order consequences.
3. Agent 5 (Prediction): Extrapolate a timeline.
4. Agent 7 (Strategy): Generate TACTICAL ADVICE.

Output MUST be a JSON array of IntelligenceReport objects.`

const feedTask = "Execute Global Intelligence Scan."

const searchOverrideTemplate = `PRIORITY OVERRIDE: User is explicitly searching for: %q.
IGNORE general user interests.
FIND real-time news, risks, and future scenarios specifically related to %q.`

const locationMixTemplate = `USER LOCATION DETECTED: Latitude %g, Longitude %g.

CRITICAL TASK:
1. Generate a mixed intelligence feed:
   - 50%% of reports MUST be specific to the region at these coordinates.
   - 50%% of reports should cover global high-impact events matching user interests: %s.`

const interestFeedTemplate = `User Interests: %s.
User Priority Regions: %s.

TASK: Search for REAL-TIME news that matches these interests. Find actual breaking news from the last 24-48 hours.`

// BuildFeedPrompt builds the feed-mode prompt. Precedence: an explicit search
// query overrides all other personalization; otherwise a detected location
// requests a 50/50 mixed feed; otherwise the feed comes purely from stated
// interests and regions. Pure and deterministic, no I/O.
func BuildFeedPrompt(prefs core.UserPreferences, searchQuery string, location *core.LocationCoordinates) Prompt {
	var task string

	switch {
	case searchQuery != "":
		task = fmt.Sprintf(searchOverrideTemplate, searchQuery, searchQuery)
	case location != nil:
		task = fmt.Sprintf(locationMixTemplate, location.Lat, location.Lng, strings.Join(prefs.Interests, ", "))
	default:
		task = fmt.Sprintf(interestFeedTemplate, strings.Join(prefs.Interests, ", "), strings.Join(prefs.Regions, ", "))
	}

	return Prompt{
		Instruction: fmt.Sprintf(feedSystemTemplate, task),
		Task:        feedTask,
	}
}

const deepResearchModifiers = `**DEEP RESEARCH PROTOCOL ACTIVATED**
1. Conduct an EXHAUSTIVE analysis.
2. Provide a longer, highly detailed 'summary' that compares this event to historical precedents.
3. In 'risk_analysis', identify at least 6-8 distinct complex risks, focusing on second-order and third-order effects.
4. In 'financial_impact', analyze specific commodities (Gold, Oil, Semiconductors) and currency impacts.
5. Do not summarize briefly; elaborate on the "Why" and "How".`

const conciseModifiers = "Provide a concise but comprehensive overview. Focus on clarity and immediate impacts."

const simulationSystemTemplate = `You are AGENT 4 (RISK & SCENARIO ENGINE) and AGENT 5 (PREDICTION CORE).

### TASK
Run a full HYPOTHETICAL SIMULATION based on this user prompt: %q.
%s

Assume this event JUST started or is imminent.
Analyze the ripple effects across the globe, specifically for:
- Supply Chains
- Financial Markets
- Geopolitical Stability

### RULES
1. This is a SIMULATION. Mark domain as 'Simulation'.
2. Be realistic but imaginative. Trace 2nd and 3rd order consequences.
3. Calculate probabilities based on historical precedents.
4. Provide specific actionable advice for an investor or strategist.
5. Use clear, professional, but accessible language. Avoid overly academic jargon.

Output strictly in JSON format matching the schema.`

// BuildSimulationPrompt builds the simulation-mode prompt. The deep research
// toggle changes verbosity and depth of the requested analysis, not the
// schema.
func BuildSimulationPrompt(scenarioText string, deepResearch bool) Prompt {
	modifiers := conciseModifiers
	if deepResearch {
		modifiers = deepResearchModifiers
	}

	return Prompt{
		Instruction: fmt.Sprintf(simulationSystemTemplate, scenarioText, modifiers),
		Task:        fmt.Sprintf("Simulate scenario: %s", scenarioText),
	}
}
