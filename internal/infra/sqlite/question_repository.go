package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"strengths-service/internal/domain"
)

// QuestionRepository stores pool documents as JSON text.
type QuestionRepository struct {
	db *Database
}

func NewQuestionRepository(db *Database) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	var raw string
	err := r.db.db.QueryRowContext(ctx, `SELECT data FROM question_pools WHERE id = ?`, poolID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestionPool{}, domain.ErrPoolNotFound
	}
	if err != nil {
		return domain.QuestionPool{}, fmt.Errorf("failed to load pool: %w", err)
	}
	var pool domain.QuestionPool
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		return domain.QuestionPool{}, fmt.Errorf("failed to decode pool: %w", err)
	}
	pool.ID = poolID
	return pool, nil
}

func (r *QuestionRepository) SavePool(ctx context.Context, pool domain.QuestionPool) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to encode pool: %w", err)
	}
	_, err = r.db.db.ExecContext(ctx, `
		INSERT INTO question_pools (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		pool.ID, string(raw), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}
