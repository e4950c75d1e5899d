package http

import (
	"context"
	"net/http"

	"strengths-service/internal/app"
	"strengths-service/internal/auth"
	"strengths-service/internal/validation"
)

// Deps are the use cases and helpers the HTTP surface is built on.
type Deps struct {
	Assessment    *app.AssessmentService
	Accounts      *app.AccountService
	Questionnaire *app.QuestionnaireService
	Auth          *auth.Authenticator
	Validator     *validation.Validator
	WS            *WSHandler
	// Health reports backing store connectivity; nil means always healthy.
	Health func(ctx context.Context) error
}

type Server struct {
	assessment    *app.AssessmentService
	accounts      *app.AccountService
	questionnaire *app.QuestionnaireService
	authn         *auth.Authenticator
	validator     *validation.Validator
	health        func(ctx context.Context) error
}

// NewServer wires every route and the shared middleware chain.
func NewServer(deps Deps) http.Handler {
	s := &Server{
		assessment:    deps.Assessment,
		accounts:      deps.Accounts,
		questionnaire: deps.Questionnaire,
		authn:         deps.Auth,
		validator:     deps.Validator,
		health:        deps.Health,
	}
	if s.validator == nil {
		s.validator = validation.MustNew()
	}

	authed := requireAuth(s.authn)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("POST /api/logout", authed(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/get-username", authed(http.HandlerFunc(s.handleGetUsername)))

	mux.HandleFunc("POST /api/submit-responses", s.handleSubmitAnonymous)
	mux.Handle("POST /api/submit-responses-auth", authed(http.HandlerFunc(s.handleSubmitAuthenticated)))
	mux.Handle("POST /api/save-results", authed(http.HandlerFunc(s.handleSaveResults)))
	mux.Handle("GET /api/get-previous-results", authed(http.HandlerFunc(s.handlePreviousResults)))
	mux.Handle("GET /api/results/report", authed(http.HandlerFunc(s.handleReport)))

	mux.HandleFunc("GET /api/questions", s.handleQuestions)
	if deps.WS != nil {
		mux.Handle("GET /ws/questionnaire", optionalAuth(s.authn)(http.HandlerFunc(deps.WS.ServeWS)))
	}

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logRequestError(r, "health check failed", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
