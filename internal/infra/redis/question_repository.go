package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
)

// PoolLoader fetches question pools from a backing store (e.g., Postgres, Mongo).
type PoolLoader interface {
	LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error)
}

// QuestionRepository caches pools in Redis and falls back to a loader on cache miss.
// Questions are stored as: HSET pool:{poolID}:questions {questionID} {json}
// Pool order is kept in:   RPUSH pool:{poolID}:order {questionID...}
type QuestionRepository struct {
	client *redis.Client
	loader PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

type cachedQuestion struct {
	Text   string `json:"text"`
	Domain string `json:"domain"`
}

func NewQuestionRepository(client *redis.Client, loader PoolLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	if pool, ok := r.readCache(ctx, poolID); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.readCache(ctx, poolID); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx, poolID)
		if err != nil {
			return domain.QuestionPool{}, err
		}
		if err := r.writeCache(ctx, pool); err != nil {
			observability.LoggerFromContext(ctx).Warn("question cache write failed", "pool_id", poolID, "error", err)
		}
		return pool, nil
	})
	if err != nil {
		return domain.QuestionPool{}, err
	}
	return result.(domain.QuestionPool), nil
}

// Invalidate drops the cached pool (e.g. after seeding new questions).
func (r *QuestionRepository) Invalidate(ctx context.Context, poolID string) error {
	return r.client.Del(ctx, r.questionsKey(poolID), r.orderKey(poolID)).Err()
}

func (r *QuestionRepository) readCache(ctx context.Context, poolID string) (domain.QuestionPool, bool) {
	order, err := r.client.LRange(ctx, r.orderKey(poolID), 0, -1).Result()
	if err != nil || len(order) == 0 {
		return domain.QuestionPool{}, false
	}
	fields, err := r.client.HGetAll(ctx, r.questionsKey(poolID)).Result()
	if err != nil {
		return domain.QuestionPool{}, false
	}
	pool := domain.QuestionPool{ID: poolID, Questions: make([]domain.Question, 0, len(order))}
	for _, id := range order {
		raw, ok := fields[id]
		if !ok {
			return domain.QuestionPool{}, false
		}
		var cq cachedQuestion
		if err := json.Unmarshal([]byte(raw), &cq); err != nil {
			return domain.QuestionPool{}, false
		}
		pool.Questions = append(pool.Questions, domain.Question{ID: id, Text: cq.Text, Domain: cq.Domain})
	}
	return pool, true
}

func (r *QuestionRepository) writeCache(ctx context.Context, pool domain.QuestionPool) error {
	if len(pool.Questions) == 0 {
		return nil
	}
	questionsKey := r.questionsKey(pool.ID)
	orderKey := r.orderKey(pool.ID)
	ttl := r.ttlWithJitter()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, questionsKey, orderKey)
	ids := make([]interface{}, 0, len(pool.Questions))
	for _, q := range pool.Questions {
		raw, err := json.Marshal(cachedQuestion{Text: q.Text, Domain: q.Domain})
		if err != nil {
			return err
		}
		pipe.HSet(ctx, questionsKey, q.ID, raw)
		ids = append(ids, q.ID)
	}
	pipe.RPush(ctx, orderKey, ids...)
	if ttl > 0 {
		pipe.Expire(ctx, questionsKey, ttl)
		pipe.Expire(ctx, orderKey, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *QuestionRepository) questionsKey(poolID string) string {
	return "pool:" + poolID + ":questions"
}

func (r *QuestionRepository) orderKey(poolID string) string {
	return "pool:" + poolID + ":order"
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
