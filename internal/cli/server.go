package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"strengths-service/internal/app"
	"strengths-service/internal/auth"
	"strengths-service/internal/config"
	"strengths-service/internal/infra/memory"
	infraredis "strengths-service/internal/infra/redis"
	"strengths-service/internal/observability"
	"strengths-service/internal/questionnaire"
	transport "strengths-service/internal/transport/http"
	"strengths-service/internal/validation"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	observability.Configure(os.Stdout, cfg.Log.Level)
	logger := observability.Logger()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	handler, cleanup, err := buildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting strengths service", "port", finalPort, "storage", cfg.Storage.Backend, "redis", cfg.Redis.Addr != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildHandler wires storage, caches and use cases into the HTTP handler.
func buildHandler(ctx context.Context, cfg config.Config) (http.Handler, func(), error) {
	if cfg.Auth.Secret == "" {
		return nil, nil, errors.New("auth secret not configured (auth.secret or JWT_SECRET)")
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		b.Close()
	}

	loader, err := poolLoader(cfg, b)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cacheTTL := config.TTLDuration(cfg.Questionnaire.CacheTTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		questionRepo app.QuestionRepository
		sessions     app.SessionRegistry
		revoker      auth.Revoker
		redisHealth  func(ctx context.Context) error
	)
	if redisClient != nil {
		questionRepo = infraredis.NewQuestionRepository(redisClient, loader, cacheTTL)
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
		revoker = infraredis.NewRevocationStore(redisClient)
		redisHealth = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		questionRepo = memory.NewQuestionRepository(loader, cacheTTL)
		sessions = memory.NewSessionStore()
		revoker = memory.NewRevocationStore()
	}

	authn, err := auth.NewAuthenticator(auth.Config{
		Secret:      []byte(cfg.Auth.Secret),
		RegisterTTL: config.TTLDuration(cfg.Auth.RegisterTTL, auth.DefaultRegisterTTL),
		LoginTTL:    config.TTLDuration(cfg.Auth.LoginTTL, auth.DefaultLoginTTL),
		BcryptCost:  cfg.Auth.BcryptCost,
	}, revoker)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	validator, err := validation.New()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sessionOpts := []questionnaire.Option{
		questionnaire.WithCountdown(
			config.TTLDuration(cfg.Questionnaire.Countdown, questionnaire.DefaultCountdown),
			config.TTLDuration(cfg.Questionnaire.Tick, questionnaire.DefaultTick),
		),
		questionnaire.WithDebounce(config.TTLDuration(cfg.Questionnaire.Debounce, questionnaire.DefaultDebounce)),
	}

	assessment := app.NewAssessmentService(b.results)
	accounts := app.NewAccountService(b.users, b.results, authn)
	q := app.NewQuestionnaireService(questionRepo, sessions, cfg.Questionnaire.PoolID, sessionOpts...)

	handler := transport.NewServer(transport.Deps{
		Assessment:    assessment,
		Accounts:      accounts,
		Questionnaire: q,
		Auth:          authn,
		Validator:     validator,
		WS:            transport.NewWSHandler(q, assessment),
		Health:        joinHealth(b.health, redisHealth),
	})
	return handler, cleanup, nil
}
