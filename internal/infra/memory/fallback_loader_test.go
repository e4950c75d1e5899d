package memory

import (
	"context"
	"errors"
	"testing"

	"strengths-service/internal/domain"
)

func TestFallbackPoolLoader(t *testing.T) {
	seeded := domain.QuestionPool{ID: "seeded", Questions: []domain.Question{{ID: "s1", Text: "x", Domain: "creativity"}}}
	loader := NewFallbackPoolLoader(NewStaticPoolLoader(seeded), NewStaticPoolLoader(samplePool()))
	ctx := context.Background()

	pool, err := loader.LoadPool(ctx, "seeded")
	if err != nil || pool.Questions[0].ID != "s1" {
		t.Fatalf("expected primary pool, got %+v (%v)", pool, err)
	}
	pool, err = loader.LoadPool(ctx, "default")
	if err != nil || len(pool.Questions) != 2 {
		t.Fatalf("expected fallback pool, got %+v (%v)", pool, err)
	}
	if _, err := loader.LoadPool(ctx, "absent"); !errors.Is(err, domain.ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}
