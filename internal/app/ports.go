package app

import (
	"context"

	"strengths-service/internal/domain"
	"strengths-service/internal/questionnaire"
)

// QuestionRepository loads question pools (from cache/backing store).
type QuestionRepository interface {
	GetPool(ctx context.Context, poolID string) (domain.QuestionPool, error)
}

// ResultRepository persists scored submissions.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.Result) error
	// ListResultsByUser returns the user's results newest first.
	ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error)
	// AttachTempID moves every anonymous result carrying tempID to userID.
	AttachTempID(ctx context.Context, tempID, userID string) (int64, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
}

// SessionRegistry tracks live questionnaire sessions (in-memory, Redis, etc).
type SessionRegistry interface {
	Register(session *questionnaire.Session)
	// Touch refreshes whatever liveness record the registry keeps for a session.
	Touch(ctx context.Context, sessionID string) error
	Get(sessionID string) (*questionnaire.Session, bool)
	Remove(sessionID string)
	Len() int
}
