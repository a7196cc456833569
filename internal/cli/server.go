package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizrush/internal/app"
	"quizrush/internal/config"
	"quizrush/internal/generate"
	"quizrush/internal/infra/memory"
	pginfra "quizrush/internal/infra/postgres"
	redisinfra "quizrush/internal/infra/redis"
	transport "quizrush/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var (
		userRepo    app.UserRepository
		profileRepo app.ProfileRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		userRepo = pginfra.NewUserStore(pool)
		profileRepo = pginfra.NewProfileStore(pool)
	} else {
		slog.Warn("postgres not configured, falling back to in-memory stores")
		userRepo = memory.NewUserStore()
		profileRepo = memory.NewProfileStore()
	}

	mode := generate.ModeCampaign
	if cfg.Quiz.Mode == "topic" {
		mode = generate.ModeTopic
	}

	var provider generate.Provider
	if cfg.Generation.Provider != "" {
		provider, err = generate.NewProvider(generate.Options{
			Provider:    cfg.Generation.Provider,
			APIKey:      cfg.Generation.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
		})
		if err != nil {
			return err
		}
		slog.Info("question generation enabled", "provider", provider.Name())
	} else {
		slog.Warn("no generation provider configured, serving fallback question sets")
	}

	var profileSource generate.ProfileSource
	if mode == generate.ModeCampaign {
		profileSource = profileRepo
	}
	generator := generate.NewGenerator(provider, profileSource, mode, cfg.Quiz.Topic)

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, time.Hour)
	var sets app.QuestionSetRepository
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		sets = redisinfra.NewQuestionSetCache(redisClient, generator, cacheTTL)
	} else {
		sets = memory.NewQuestionSetCache(generator, cacheTTL)
	}

	users := app.NewUserService(userRepo)
	questions := app.NewQuestionService(sets, profileRepo, mode)
	profiles := app.NewProfileService(profileRepo, sets)

	sweeper := app.NewEligibilitySweeper(userRepo,
		config.Duration(cfg.Sweep.Interval, app.DefaultSweepInterval),
		config.Duration(cfg.Sweep.EligibleAfter, app.DefaultEligibilityAge))
	sweeper.Start(ctx)

	play := transport.NewPlayHandler(users, questions)
	handler := transport.NewHandler(users, questions, profiles, play, cfg.Setup.Password, cfg.Quiz.LeaderboardLimit)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("starting quizrush", "port", finalPort, "mode", cfg.Quiz.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
