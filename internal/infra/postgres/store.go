package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"strengths-service/internal/domain"
)

const uniqueViolation = "23505"

// Open connects bun to Postgres through pgdriver.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type resultModel struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID           string          `bun:"id,pk"`
	UserID       string          `bun:"user_id,nullzero"`
	TempID       string          `bun:"temp_id,nullzero"`
	Responses    []domain.Answer `bun:"responses,type:jsonb,notnull"`
	DomainScores map[string]int  `bun:"domain_scores,type:jsonb,notnull"`
	TotalScore   float64         `bun:"total_score,notnull"`
	Date         time.Time       `bun:"date,notnull"`
}

// Store persists users and results with bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	model := &userModel{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(model).Exec(ctx)
	if err == nil {
		return nil
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		if pgErr.Field('n') == "users_username_key" {
			return domain.ErrUsernameTaken
		}
		return domain.ErrEmailTaken
	}
	return fmt.Errorf("insert user: %w", err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var model userModel
	err := s.db.NewSelect().Model(&model).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return domain.User{
		ID:           model.ID,
		Username:     model.Username,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}, nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.Result) error {
	model := &resultModel{
		ID:           result.ID,
		UserID:       result.UserID,
		TempID:       result.TempID,
		Responses:    result.Responses,
		DomainScores: result.DomainScores,
		TotalScore:   result.TotalScore,
		Date:         result.Date,
	}
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	var models []resultModel
	err := s.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Order("date DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	out := make([]domain.Result, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Result{
			ID:           m.ID,
			UserID:       m.UserID,
			TempID:       m.TempID,
			Responses:    m.Responses,
			DomainScores: m.DomainScores,
			TotalScore:   m.TotalScore,
			Date:         m.Date,
		})
	}
	return out, nil
}

func (s *Store) AttachTempID(ctx context.Context, tempID, userID string) (int64, error) {
	if tempID == "" {
		return 0, nil
	}
	res, err := s.db.NewUpdate().
		Model((*resultModel)(nil)).
		Set("user_id = ?", userID).
		Set("temp_id = NULL").
		Where("temp_id = ?", tempID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("attach results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attach results: %w", err)
	}
	return n, nil
}

// Ping checks connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
