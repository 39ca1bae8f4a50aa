package report

import (
	"strings"
	"testing"

	"predicta/internal/core"
)

func TestBuildFeedPromptSearchQueryOverridesEverything(t *testing.T) {
	prefs := core.UserPreferences{Interests: []string{"Tech"}}
	location := &core.LocationCoordinates{Lat: 1, Lng: 1}

	prompt := BuildFeedPrompt(prefs, "oil shock", location)

	if !strings.Contains(prompt.Instruction, `"oil shock"`) {
		t.Errorf("instruction should reference the search query, got: %s", prompt.Instruction)
	}
	if !strings.Contains(prompt.Instruction, "IGNORE general user interests") {
		t.Errorf("instruction should tell the generator to ignore interests")
	}
	if strings.Contains(prompt.Instruction, "USER LOCATION DETECTED") {
		t.Errorf("search query must take precedence over location mixing")
	}
	if strings.Contains(prompt.Instruction, "User Interests: Tech") {
		t.Errorf("search query must take precedence over interest personalization")
	}
}

func TestBuildFeedPromptLocationRequestsMixedFeed(t *testing.T) {
	prefs := core.UserPreferences{Interests: []string{"Energy", "Tech"}}
	location := &core.LocationCoordinates{Lat: 48.85, Lng: 2.35}

	prompt := BuildFeedPrompt(prefs, "", location)

	if !strings.Contains(prompt.Instruction, "Latitude 48.85") || !strings.Contains(prompt.Instruction, "Longitude 2.35") {
		t.Errorf("instruction should reference the coordinates, got: %s", prompt.Instruction)
	}
	if !strings.Contains(prompt.Instruction, "50%") {
		t.Errorf("instruction should request a 50/50 mixed feed")
	}
	if !strings.Contains(prompt.Instruction, "Energy, Tech") {
		t.Errorf("instruction should carry the user interests for the global half")
	}
}

func TestBuildFeedPromptInterestFeed(t *testing.T) {
	prefs := core.UserPreferences{
		Interests: []string{"Energy"},
		Regions:   []string{"Europe"},
	}

	prompt := BuildFeedPrompt(prefs, "", nil)

	if !strings.Contains(prompt.Instruction, "Energy") {
		t.Errorf("instruction should contain the interests")
	}
	if !strings.Contains(prompt.Instruction, "Europe") {
		t.Errorf("instruction should contain the priority regions")
	}
	if strings.Contains(prompt.Instruction, "USER LOCATION DETECTED") {
		t.Errorf("interest feed must not carry a location precedence clause")
	}
	if strings.Contains(prompt.Instruction, "PRIORITY OVERRIDE") {
		t.Errorf("interest feed must not carry a search override clause")
	}
	if prompt.Task != "Execute Global Intelligence Scan." {
		t.Errorf("unexpected feed task: %s", prompt.Task)
	}
}

func TestBuildFeedPromptDeterministic(t *testing.T) {
	prefs := core.UserPreferences{Interests: []string{"Energy"}}
	a := BuildFeedPrompt(prefs, "chips", nil)
	b := BuildFeedPrompt(prefs, "chips", nil)
	if a != b {
		t.Errorf("prompt building must be deterministic")
	}
}

func TestBuildSimulationPromptDeepResearch(t *testing.T) {
	prompt := BuildSimulationPrompt("strait closure", true)

	if !strings.Contains(prompt.Instruction, "DEEP RESEARCH PROTOCOL ACTIVATED") {
		t.Errorf("deep research should append the protocol clauses")
	}
	if !strings.Contains(prompt.Instruction, "6-8 distinct complex risks") {
		t.Errorf("deep research should request 6-8 risks")
	}
	if !strings.Contains(prompt.Instruction, "Gold, Oil, Semiconductors") {
		t.Errorf("deep research should request commodity-specific analysis")
	}
	if !strings.Contains(prompt.Task, "strait closure") {
		t.Errorf("task should carry the scenario text, got: %s", prompt.Task)
	}
}

func TestBuildSimulationPromptConcise(t *testing.T) {
	prompt := BuildSimulationPrompt("strait closure", false)

	if strings.Contains(prompt.Instruction, "DEEP RESEARCH PROTOCOL") {
		t.Errorf("concise mode must not activate the deep research protocol")
	}
	if !strings.Contains(prompt.Instruction, "concise but comprehensive overview") {
		t.Errorf("concise mode should request a concise overview")
	}
	if !strings.Contains(prompt.Instruction, "Mark domain as 'Simulation'") {
		t.Errorf("simulation instruction should pin the domain")
	}
}
