package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"strengths-service/internal/config"
	infraredis "strengths-service/internal/infra/redis"
	"strengths-service/internal/observability"
)

// NewSeedQuestionsCmd stores a question pool in the configured backend.
func NewSeedQuestionsCmd(configPath *string) *cobra.Command {
	var (
		file   string
		poolID string
	)
	cmd := &cobra.Command{
		Use:   "seed-questions",
		Short: "Store a question pool (embedded default or --file) in the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if poolID == "" {
				poolID = cfg.Questionnaire.PoolID
			}
			return seedQuestions(cmd.Context(), cfg, file, poolID)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON pool document (defaults to the embedded pool)")
	cmd.Flags().StringVar(&poolID, "pool", "", "pool id (defaults to questionnaire.pool_id)")
	return cmd
}

func seedQuestions(ctx context.Context, cfg config.Config, file, poolID string) error {
	pool, err := bundledPool(file, poolID)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.seeder == nil {
		return fmt.Errorf("storage backend %q has no persistent question store", cfg.Storage.Backend)
	}
	if err := b.seeder.SavePool(ctx, pool); err != nil {
		return err
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		if err := infraredis.NewQuestionRepository(redisClient, nil, 0).Invalidate(ctx, pool.ID); err != nil {
			return err
		}
	}

	observability.Logger().Info("question pool seeded",
		"pool_id", pool.ID,
		"questions", len(pool.Questions),
		"storage", cfg.Storage.Backend,
	)
	return nil
}
