package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strengths-service/internal/domain"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	require.NoError(t, repo.CreateUser(ctx, domain.User{
		ID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "h", CreatedAt: created,
	}))

	user, err := repo.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, created.Equal(user.CreatedAt))

	_, err = repo.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.CreateUser(ctx, domain.User{ID: "u2", Username: "bob", Email: "ada@example.com", PasswordHash: "h"})
	assert.True(t, errors.Is(err, domain.ErrEmailTaken), "got %v", err)

	err = repo.CreateUser(ctx, domain.User{ID: "u3", Username: "ada", Email: "new@example.com", PasswordHash: "h"})
	assert.True(t, errors.Is(err, domain.ErrUsernameTaken), "got %v", err)
}

func TestResultRepositoryOrderingAndAttach(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	results := NewResultRepository(db)
	ctx := context.Background()
	require.NoError(t, users.CreateUser(ctx, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "h"}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	responses := []domain.Answer{{QuestionID: "q1", Domain: "creativity", Value: 5}}
	require.NoError(t, results.SaveResult(ctx, domain.Result{
		ID: "old", UserID: "u1", Responses: responses, DomainScores: map[string]int{"creativity": 5}, TotalScore: 100, Date: base,
	}))
	require.NoError(t, results.SaveResult(ctx, domain.Result{
		ID: "anon", TempID: "tmp-1", Responses: responses, DomainScores: map[string]int{"creativity": 5}, TotalScore: 100, Date: base.Add(time.Hour),
	}))

	n, err := results.AttachTempID(ctx, "tmp-1", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := results.ListResultsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anon", list[0].ID)
	assert.Empty(t, list[0].TempID)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, responses, list[1].Responses)
	assert.Equal(t, 5, list[1].DomainScores["creativity"])
	assert.True(t, base.Equal(list[1].Date))
}

func TestResultRepositoryOrdersFarFutureDates(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	results := NewResultRepository(db)
	ctx := context.Background()
	require.NoError(t, users.CreateUser(ctx, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "h"}))

	responses := []domain.Answer{{QuestionID: "q1", Domain: "creativity", Value: 3}}
	recent := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	future := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	for id, date := range map[string]time.Time{"recent": recent, "future": future} {
		require.NoError(t, results.SaveResult(ctx, domain.Result{
			ID: id, UserID: "u1", Responses: responses, DomainScores: map[string]int{"creativity": 3}, TotalScore: 60, Date: date,
		}))
	}

	list, err := results.ListResultsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "future", list[0].ID)
	assert.True(t, future.Equal(list[0].Date), "got %s", list[0].Date)
	assert.Equal(t, "recent", list[1].ID)
}

func TestQuestionRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	_, err := repo.LoadPool(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)

	pool := domain.QuestionPool{ID: "default", Questions: []domain.Question{{ID: "q1", Text: "x", Domain: "creativity"}}}
	require.NoError(t, repo.SavePool(ctx, pool))
	pool.Questions = append(pool.Questions, domain.Question{ID: "q2", Text: "y", Domain: "leadership"})
	require.NoError(t, repo.SavePool(ctx, pool))

	loaded, err := repo.LoadPool(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, pool, loaded)
}
