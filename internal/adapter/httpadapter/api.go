package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/session"
)

const maxBodyBytes = 1 << 20

// Monitor is the refresh loop as seen by the API.
type Monitor interface {
	Current() (domain.Snapshot, bool)
	Location() domain.Location
	Select(loc domain.Location) bool
}

// Sessions is the session manager as seen by the API.
type Sessions interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, name string) error
	SignOut(ctx context.Context) error
	State() session.State
}

type errorResponse struct {
	Error string `json:"error"`
}

type selectResponse struct {
	Location domain.Location `json:"location"`
	Changed  bool            `json:"changed"`
}

type classifyResponse struct {
	Assessment domain.ClassifiedAssessment `json:"assessment"`
	Insight    string                      `json:"insight"`
	Actions    []domain.Action             `json:"actions"`
}

type predictRiskRequest struct {
	RainfallMM *float64 `json:"rainfall_mm"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.monitor.Current()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no snapshot has been applied yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Location())
}

func (s *Server) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	var loc domain.Location
	if !decodeBody(w, r, &loc) {
		return
	}
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "location name is required"})
		return
	}
	changed := s.monitor.Select(loc)
	writeJSON(w, http.StatusAccepted, selectResponse{Location: s.monitor.Location(), Changed: changed})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var assessment domain.RiskAssessment
	if !decodeBody(w, r, &assessment) {
		return
	}
	classified := domain.ClassifyAssessment(assessment)
	writeJSON(w, http.StatusOK, classifyResponse{
		Assessment: classified,
		Insight:    domain.GenerateInsight(classified.OverallLevel, classified.Factors),
		Actions:    domain.RecommendActions(classified.OverallSeverity),
	})
}

// handlePredictRisk accepts the rainfall reading as a rainfall_mm query
// parameter or a JSON body.
func (s *Server) handlePredictRisk(w http.ResponseWriter, r *http.Request) {
	var rainfall float64
	if raw := r.URL.Query().Get("rainfall_mm"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rainfall_mm must be a number"})
			return
		}
		rainfall = v
	} else {
		var req predictRiskRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.RainfallMM == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rainfall_mm is required"})
			return
		}
		rainfall = *req.RainfallMM
	}
	writeJSON(w, http.StatusOK, domain.PredictFloodRisk(rainfall))
}

func (s *Server) handleKind(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.LookupKind(r.PathValue("kind")))
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.State())
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeJSON(w, authStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.sessions.State())
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.sessions.SignUp(r.Context(), req.Email, req.Password, req.Name); err != nil {
		writeJSON(w, signUpStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, s.sessions.State())
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context()); err != nil {
		s.logger.Warn("sign out incomplete", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusUnauthorized
	}
}

// signUpStatus maps a sign-up failure. Rejections by the identity service
// (duplicate account, weak password) are the caller's to fix.
func signUpStatus(err error) int {
	if errors.Is(err, session.ErrUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
