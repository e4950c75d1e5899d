package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"strengths-service/internal/app"
	"strengths-service/internal/auth"
	"strengths-service/internal/domain"
	"strengths-service/internal/validation"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TempID   string `json:"tempId,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TempID   string `json:"tempId,omitempty"`
}

type submitRequest struct {
	Responses []domain.Answer `json:"responses"`
}

// DomainScores sent by clients are ignored; the server recomputes them.
type saveResultsRequest struct {
	Responses    []domain.Answer `json:"responses"`
	DomainScores map[string]any  `json:"domainScores"`
	Date         time.Time       `json:"date"`
}

type registerResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type tempIDResponse struct {
	TempID string `json:"tempId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type usernameResponse struct {
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, validation.Register, &req) {
		return
	}
	token, err := s.accounts.Register(r.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		TempID:   req.TempID,
	})
	if err != nil {
		writeError(w, r, err, "Registration failed.")
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully.", Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, validation.Login, &req) {
		return
	}
	token, err := s.accounts.Login(r.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TempID:   req.TempID,
	})
	if err != nil {
		writeError(w, r, err, "Login failed.")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	if err := s.accounts.Logout(r.Context(), identity); err != nil {
		writeError(w, r, err, "Logout failed.")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully."})
}

func (s *Server) handleGetUsername(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	name, err := s.accounts.Username(r.Context(), identity)
	if err != nil {
		writeError(w, r, err, "Failed to fetch username.")
		return
	}
	writeJSON(w, http.StatusOK, usernameResponse{Username: name})
}

func (s *Server) handleSubmitAnonymous(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decodeResponses(w, r, &req) {
		return
	}
	tempID, err := s.assessment.SubmitAnonymous(r.Context(), req.Responses)
	if err != nil {
		writeError(w, r, err, "Failed to save responses.")
		return
	}
	writeJSON(w, http.StatusOK, tempIDResponse{TempID: tempID})
}

func (s *Server) handleSubmitAuthenticated(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decodeResponses(w, r, &req) {
		return
	}
	identity, _ := auth.IdentityFrom(r.Context())
	if err := s.assessment.Submit(r.Context(), identity, req.Responses); err != nil {
		writeError(w, r, err, "Failed to save responses.")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Responses submitted successfully."})
}

func (s *Server) handleSaveResults(w http.ResponseWriter, r *http.Request) {
	var req saveResultsRequest
	if !s.decode(w, r, validation.SaveResults, &req) {
		return
	}
	identity, _ := auth.IdentityFrom(r.Context())
	if err := s.assessment.SaveResults(r.Context(), identity, req.Responses, req.Date); err != nil {
		writeError(w, r, err, "An error occurred while saving the results.")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Results saved successfully."})
}

func (s *Server) handlePreviousResults(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	results, err := s.assessment.PreviousResults(r.Context(), identity)
	if err != nil {
		writeError(w, r, err, "An error occurred while fetching previous results.")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	report, err := s.assessment.LatestReport(r.Context(), identity)
	if err != nil {
		writeError(w, r, err, "An error occurred while building the report.")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questionnaire.Questions(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to load questions.")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// decode reads the body, validates it against schema and unmarshals into dst.
// It writes the error response itself and reports whether to continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, domain.Invalidf("request body too large"), "")
		return false
	}
	if err := s.validator.Decode(schema, raw, dst); err != nil {
		writeError(w, r, err, "Invalid request.")
		return false
	}
	return true
}

// decodeResponses rejects a missing responses field before schema validation.
func (s *Server) decodeResponses(w http.ResponseWriter, r *http.Request, dst *submitRequest) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, domain.Invalidf("request body too large"), "")
		return false
	}
	var probe struct {
		Responses json.RawMessage `json:"responses"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe.Responses) == 0 || string(probe.Responses) == "null" {
		writeError(w, r, domain.Invalidf("No responses provided"), "")
		return false
	}
	if err := s.validator.Decode(validation.Submit, raw, dst); err != nil {
		writeError(w, r, err, "Invalid request.")
		return false
	}
	return true
}
