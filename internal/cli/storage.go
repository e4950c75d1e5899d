package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"strengths-service/internal/app"
	"strengths-service/internal/config"
	"strengths-service/internal/domain"
	"strengths-service/internal/infra/memory"
	infremongo "strengths-service/internal/infra/mongo"
	"strengths-service/internal/infra/postgres"
	"strengths-service/internal/infra/sqlite"
	"strengths-service/internal/questions"
)

type poolSaver interface {
	SavePool(ctx context.Context, pool domain.QuestionPool) error
}

// backend bundles the repositories of the configured storage backend.
type backend struct {
	users   app.UserRepository
	results app.ResultRepository
	// pools and seeder are nil for the memory backend.
	pools   memory.PoolLoader
	seeder  poolSaver
	health  func(ctx context.Context) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b.users = memory.NewUserStore()
		b.results = memory.NewResultStore()

	case config.BackendSQLite:
		db, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		pools := sqlite.NewQuestionRepository(db)
		b.users = sqlite.NewUserRepository(db)
		b.results = sqlite.NewResultRepository(db)
		b.pools, b.seeder = pools, pools
		b.health = db.Ping
		b.closers = append(b.closers, func() { _ = db.Close() })

	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		db := postgres.Open(cfg.Postgres.URL)
		store := postgres.NewStore(db)
		b.closers = append(b.closers, func() { _ = db.Close() })

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		loader := postgres.NewQuestionLoader(pool)

		b.users, b.results = store, store
		b.pools, b.seeder = loader, loader
		b.health = store.Ping

	case config.BackendMongo:
		store, err := infremongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close(context.Background()) })
		if err := store.EnsureIndexes(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.users, b.results = store, store
		b.pools, b.seeder = store, store

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return b, nil
}

// poolLoader prefers the backend's stored pool and falls back to the
// configured file or the embedded default.
func poolLoader(cfg config.Config, b *backend) (memory.PoolLoader, error) {
	pool, err := bundledPool(cfg.Questionnaire.PoolFile, cfg.Questionnaire.PoolID)
	if err != nil {
		return nil, err
	}
	static := memory.NewStaticPoolLoader(pool)
	if b.pools == nil {
		return static, nil
	}
	return memory.NewFallbackPoolLoader(b.pools, static), nil
}

func bundledPool(file, poolID string) (domain.QuestionPool, error) {
	if file != "" {
		return questions.LoadFile(file, poolID)
	}
	pool := questions.Default()
	pool.ID = poolID
	return pool, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func joinHealth(checks ...func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
