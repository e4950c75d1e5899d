package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"strengths-service/internal/domain"
)

// PoolLoader fetches question pools from a backing store (e.g., Postgres, Mongo).
type PoolLoader interface {
	LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error)
}

// QuestionRepository caches pools with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedPool
}

type cachedPool struct {
	pool      domain.QuestionPool
	expiresAt time.Time
}

func NewQuestionRepository(loader PoolLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (r *QuestionRepository) GetPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	if pool, ok := r.lookup(poolID); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolID, func() (interface{}, error) {
		if pool, ok := r.lookup(poolID); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx, poolID)
		if err != nil {
			return domain.QuestionPool{}, err
		}

		r.mu.Lock()
		r.cache[poolID] = cachedPool{
			pool:      pool,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return domain.QuestionPool{}, err
	}
	return result.(domain.QuestionPool), nil
}

// Invalidate drops a cached pool so the next read reloads it.
func (r *QuestionRepository) Invalidate(poolID string) {
	r.mu.Lock()
	delete(r.cache, poolID)
	r.mu.Unlock()
}

func (r *QuestionRepository) lookup(poolID string) (domain.QuestionPool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[poolID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuestionPool{}, false
	}
	return entry.pool, true
}

// must hold r.mu
func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticPoolLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticPoolLoader struct {
	pools map[string]domain.QuestionPool
}

func NewStaticPoolLoader(pools ...domain.QuestionPool) *StaticPoolLoader {
	l := &StaticPoolLoader{pools: make(map[string]domain.QuestionPool, len(pools))}
	for _, p := range pools {
		l.pools[p.ID] = p
	}
	return l
}

func (l *StaticPoolLoader) LoadPool(_ context.Context, poolID string) (domain.QuestionPool, error) {
	if pool, ok := l.pools[poolID]; ok {
		return pool, nil
	}
	return domain.QuestionPool{}, domain.ErrPoolNotFound
}
