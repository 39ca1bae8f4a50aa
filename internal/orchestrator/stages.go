package orchestrator

import "predicta/internal/core"

// Stage is one real sub-step of an orchestration call. The narrative agent
// roster below is painted onto these steps for progress reporting; the steps
// themselves are sequential, not concurrent actors.
type Stage int

const (
	// StagePromptBuilt fires once the prompt variant has been selected and built.
	StagePromptBuilt Stage = iota
	// StageBackendCalled fires immediately before the generation call.
	StageBackendCalled
	// StageResponseParsed fires once the backend returned raw text.
	StageResponseParsed
	// StageNormalized fires after normalization produced the final reports.
	StageNormalized
)

func (s Stage) String() string {
	switch s {
	case StagePromptBuilt:
		return "prompt_built"
	case StageBackendCalled:
		return "backend_called"
	case StageResponseParsed:
		return "response_parsed"
	case StageNormalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// StageFunc receives progress notifications during an orchestration call.
// Callbacks fire on the calling goroutine and must not block.
type StageFunc func(stage Stage, agent core.AgentStage)

var agentRoster = []core.AgentStage{
	{ID: 1, Name: "Global News Collection", Role: "Ingest"},
	{ID: 2, Name: "Language & Norm", Role: "Process"},
	{ID: 3, Name: "News Understanding", Role: "Analyze"},
	{ID: 4, Name: "Risk & Scenario", Role: "Reason"},
	{ID: 5, Name: "Event Prediction", Role: "Forecast"},
	{ID: 6, Name: "Knowledge Graph", Role: "Memory"},
	{ID: 7, Name: "Financial Strategy", Role: "Impact"},
	{ID: 8, Name: "Personalization", Role: "Filter"},
	{ID: 9, Name: "Ethics & Safety", Role: "Guard"},
}

// Agents returns the full narrative agent roster for UI display.
func Agents() []core.AgentStage {
	roster := make([]core.AgentStage, len(agentRoster))
	copy(roster, agentRoster)
	return roster
}

// stageAgent maps each pipeline sub-step to the agent label shown for it.
func stageAgent(s Stage) core.AgentStage {
	switch s {
	case StagePromptBuilt:
		return agentRoster[0] // Global News Collection
	case StageBackendCalled:
		return agentRoster[3] // Risk & Scenario
	case StageResponseParsed:
		return agentRoster[1] // Language & Norm
	case StageNormalized:
		return agentRoster[7] // Personalization
	default:
		return core.AgentStage{}
	}
}
