package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
	"github.com/wricardo/robot-sim/game/script"
	"github.com/wricardo/robot-sim/game/service"
	"github.com/wricardo/robot-sim/transport/websocket"
)

// maxBodyBytes caps request bodies; scripts and scenarios are small
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.SimService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new API server. hub may be nil when no renderer
// endpoint is wanted.
func NewServer(simService service.SimService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: simService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)

	api.HandleFunc("", s.handleHealth).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/scenario", s.handleSwitchScenario).Methods("PUT")

	// Program control
	api.HandleFunc("/sessions/{id}/run", s.handleRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/place", s.handlePlace).Methods("POST")

	// Simulation state
	api.HandleFunc("/sessions/{id}/snapshot", s.handleSnapshot).Methods("GET")
	api.HandleFunc("/sessions/{id}/drawings", s.handleDrawings).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/runs", s.handleSessionRuns).Methods("GET")

	// Run records across sessions
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleSaveScenario).Methods("POST")
	api.HandleFunc("/scenarios/{id}", s.handleGetScenario).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// respondServiceError maps service errors onto HTTP status codes
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, executor.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, script.ErrInvalidScript), errors.Is(err, engine.ErrInvalidScenario):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoRunStore):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusRecorder captures the response status for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id,omitempty"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.ScenarioID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	// Set defaults
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "session_deleted", nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleSwitchScenario(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ScenarioID == "" {
		respondError(w, http.StatusBadRequest, "scenario_id is required")
		return
	}

	session, err := s.service.SwitchScenario(r.Context(), sessionID, req.ScenarioID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Program Handlers

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Script *script.Script `json:"script"`
		Reset  bool           `json:"reset,omitempty"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Script == nil {
		respondError(w, http.StatusBadRequest, "script is required")
		return
	}

	run, err := s.service.RunScript(r.Context(), sessionID, req.Script, req.Reset)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	status, err := s.service.StopProgram(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		X *float64 `json:"x"`
		Z *float64 `json:"z"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.X == nil || req.Z == nil {
		respondError(w, http.StatusBadRequest, "x and z are required")
		return
	}

	state, err := s.service.PlaceRobot(r.Context(), sessionID, *req.X, *req.Z)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// State Handlers

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleDrawings(w http.ResponseWriter, r *http.Request) {
	drawings, err := s.service.GetDrawings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, drawings)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.GetHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSessionRuns(w http.ResponseWriter, r *http.Request) {
	s.listRuns(w, r, mux.Vars(r)["id"])
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.listRuns(w, r, r.URL.Query().Get("session"))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request, sessionID string) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = l
	}

	runs, err := s.service.ListRuns(r.Context(), sessionID, limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []*service.RunRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"count":      len(runs),
		"runs":       runs,
	})
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if scenarios == nil {
		scenarios = []*service.ScenarioInfo{}
	}
	respondJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := s.service.LoadScenario(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var scenario engine.Scenario
	if err := decodeBody(w, r, &scenario); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if scenario.ID == "" {
		respondError(w, http.StatusBadRequest, "scenario id is required")
		return
	}

	if err := s.service.SaveScenario(r.Context(), scenario.ID, &scenario); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message":     fmt.Sprintf("Scenario %s saved", scenario.ID),
		"scenario_id": scenario.ID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket not enabled", http.StatusNotFound)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Verify session exists and seed the client with the current readout
	state, err := s.service.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
