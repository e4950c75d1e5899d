package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"strengths-service/internal/domain"
)

// QuestionLoader loads question pool JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_pools WHERE id=$1`, poolID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionPool{}, domain.ErrPoolNotFound
	}
	if err != nil {
		return domain.QuestionPool{}, fmt.Errorf("load pool: %w", err)
	}
	var pool domain.QuestionPool
	if err := json.Unmarshal(raw, &pool); err != nil {
		return domain.QuestionPool{}, fmt.Errorf("unmarshal pool: %w", err)
	}
	pool.ID = poolID
	return pool, nil
}

// SavePool upserts a pool document; used by the seed-questions command.
func (l *QuestionLoader) SavePool(ctx context.Context, pool domain.QuestionPool) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO question_pools (id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		pool.ID, raw)
	if err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}
