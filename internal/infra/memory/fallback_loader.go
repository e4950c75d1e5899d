package memory

import (
	"context"
	"errors"

	"strengths-service/internal/domain"
)

// FallbackPoolLoader serves pools from fallback until the primary store has been seeded.
type FallbackPoolLoader struct {
	primary  PoolLoader
	fallback PoolLoader
}

func NewFallbackPoolLoader(primary, fallback PoolLoader) *FallbackPoolLoader {
	return &FallbackPoolLoader{primary: primary, fallback: fallback}
}

func (l *FallbackPoolLoader) LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	pool, err := l.primary.LoadPool(ctx, poolID)
	if errors.Is(err, domain.ErrPoolNotFound) {
		return l.fallback.LoadPool(ctx, poolID)
	}
	return pool, err
}
