package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"predicta/internal/core"
	"predicta/internal/orchestrator"
)

var serverStartTime = time.Now()

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// IntelligenceRequest is the body of POST /api/intelligence.
type IntelligenceRequest struct {
	Preferences core.UserPreferences      `json:"preferences"`
	SearchQuery string                    `json:"search_query"`
	Location    *core.LocationCoordinates `json:"location"`
}

// IntelligenceResponse wraps the feed result.
type IntelligenceResponse struct {
	Reports []core.IntelligenceReport `json:"reports"`
}

// SimulationRequest is the body of POST /api/simulate.
type SimulationRequest struct {
	Preferences  core.UserPreferences `json:"preferences"`
	Scenario     string               `json:"scenario"`
	DeepResearch bool                 `json:"deep_research"`
}

// SimulationResponse wraps the simulation result. Report is null when the
// pipeline degraded; the client renders its "no signal" state.
type SimulationResponse struct {
	Report *core.IntelligenceReport `json:"report"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Version: "v1.0.0",
		Uptime:  time.Since(serverStartTime).String(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"agents": orchestrator.Agents()})
}

func (s *Server) handleIntelligence(w http.ResponseWriter, r *http.Request) {
	if s.intel == nil {
		s.respondError(w, http.StatusServiceUnavailable, "intelligence backend not configured")
		return
	}

	var req IntelligenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reports, err := s.intel.FetchGlobalIntelligence(r.Context(), req.Preferences, req.SearchQuery, req.Location)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSuperseded) {
			s.respondError(w, http.StatusConflict, "superseded by a newer request")
			return
		}
		// The orchestrator degrades every other failure internally.
		s.respondError(w, http.StatusInternalServerError, "intelligence scan failed")
		return
	}

	s.respondJSON(w, http.StatusOK, IntelligenceResponse{Reports: reports})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if s.intel == nil {
		s.respondError(w, http.StatusServiceUnavailable, "intelligence backend not configured")
		return
	}

	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == "" {
		s.respondError(w, http.StatusBadRequest, "scenario text is required")
		return
	}

	rpt, err := s.intel.RunScenarioSimulation(r.Context(), req.Preferences, req.Scenario, req.DeepResearch)
	if err != nil {
		if errors.Is(err, orchestrator.ErrSuperseded) {
			s.respondError(w, http.StatusConflict, "superseded by a newer request")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	s.respondJSON(w, http.StatusOK, SimulationResponse{Report: rpt})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		s.respondError(w, http.StatusServiceUnavailable, "market backend not configured")
		return
	}

	switch r.URL.Query().Get("type") {
	case "summary":
		summary, err := s.market.GetSummary(r.Context())
		if err != nil {
			s.respondError(w, http.StatusBadGateway, "market summary unavailable")
			return
		}
		s.respondJSON(w, http.StatusOK, summary)
	case "detail":
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			s.respondError(w, http.StatusBadRequest, "symbol is required for detail requests")
			return
		}
		detail, err := s.market.GetDetail(r.Context(), symbol)
		if err != nil {
			s.respondError(w, http.StatusBadGateway, "market detail unavailable")
			return
		}
		s.respondJSON(w, http.StatusOK, detail)
	default:
		s.respondError(w, http.StatusBadRequest, "invalid request parameters")
	}
}

func (s *Server) handleGlobalFeed(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		s.respondError(w, http.StatusServiceUnavailable, "insights backend not configured")
		return
	}

	items, err := s.insights.GlobalFeed(r.Context())
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "global feed unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"articles": items})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		s.respondError(w, http.StatusServiceUnavailable, "insights backend not configured")
		return
	}
	s.respondJSON(w, http.StatusOK, s.insights.Dashboard(r.Context()))
}

func (s *Server) handleRiskAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		s.respondError(w, http.StatusServiceUnavailable, "insights backend not configured")
		return
	}
	s.respondJSON(w, http.StatusOK, s.insights.RiskAnalysis(r.Context()))
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.forecast == nil {
		s.respondError(w, http.StatusServiceUnavailable, "forecast backend not configured")
		return
	}

	variable := r.URL.Query().Get("variable")
	if variable == "" {
		variable = "oil"
	}

	prediction, err := s.forecast.Predict(r.Context(), variable)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "prediction unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.geocode == nil {
		s.respondError(w, http.StatusServiceUnavailable, "geocoding backend not configured")
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		s.respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"location": s.geocode.Identify(r.Context(), lat, lng),
	})
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

// respondError writes a JSON error message. No raw backend error text is
// ever forwarded to clients.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
