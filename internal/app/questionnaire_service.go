package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
	"strengths-service/internal/questionnaire"
)

// QuestionnaireService starts questionnaire sessions over the configured pool.
type QuestionnaireService struct {
	questions QuestionRepository
	sessions  SessionRegistry
	poolID    string
	opts      []questionnaire.Option
}

func NewQuestionnaireService(questions QuestionRepository, sessions SessionRegistry, poolID string, opts ...questionnaire.Option) *QuestionnaireService {
	return &QuestionnaireService{questions: questions, sessions: sessions, poolID: poolID, opts: opts}
}

// Questions returns the pool in stored order; clients shuffle it themselves.
func (s *QuestionnaireService) Questions(ctx context.Context) ([]domain.Question, error) {
	pool, err := s.questions.GetPool(ctx, s.poolID)
	if err != nil {
		return nil, err
	}
	return pool.Questions, nil
}

// Start loads the pool, registers a fresh session and enters Active.
func (s *QuestionnaireService) Start(ctx context.Context, opts ...questionnaire.Option) (*questionnaire.Session, error) {
	pool, err := s.questions.GetPool(ctx, s.poolID)
	if err != nil {
		return nil, err
	}
	logger := observability.LoggerFromContext(ctx)
	all := append(append([]questionnaire.Option{}, s.opts...), opts...)
	all = append(all, questionnaire.WithObserver(func(e questionnaire.Event) {
		if e.Type == questionnaire.EventTick {
			return
		}
		s.touch(logger, e.Snapshot.ID)
	}))
	session := questionnaire.New(pool.Questions, all...)
	s.sessions.Register(session)
	if err := session.Start(); err != nil {
		s.sessions.Remove(session.ID())
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.touch(logger, session.ID())
	logger.Info("questionnaire started",
		"session_id", session.ID(),
		"questions", len(pool.Questions),
		"live_sessions", s.sessions.Len(),
	)
	return session, nil
}

// touch runs on session timers as well as the starting request, so it carries its own deadline.
func (s *QuestionnaireService) touch(logger *slog.Logger, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		logger.Warn("refresh session marker failed", "session_id", sessionID, "error", err)
	}
}

// Session returns a live session.
func (s *QuestionnaireService) Session(sessionID string) (*questionnaire.Session, bool) {
	return s.sessions.Get(sessionID)
}

// End closes a session and forgets it.
func (s *QuestionnaireService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Remove(sessionID)
}
