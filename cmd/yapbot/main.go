package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/browser"
	"github.com/sipalingnode/yapbot/internal/engine"
	"github.com/sipalingnode/yapbot/internal/notify"
	"github.com/sipalingnode/yapbot/internal/reply"
	"github.com/sipalingnode/yapbot/internal/storage"
	"github.com/sipalingnode/yapbot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional; viper picks up whatever is in the environment.
	godotenv.Load()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Select the durable store for the ledger documents.
	var store storage.Storage
	switch {
	case cfg.Storage.UseInMemory:
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	case cfg.Database.Host != "":
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	default:
		logger.Info("Using file storage")
		store, err = storage.NewFileStorage(
			cfg.Storage.RepliedFile,
			cfg.Storage.StatsFile,
			cfg.Storage.AuthorHistoryFile,
		)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	ledger, err := engine.NewLedger(store, cfg.Limits.PerAccountCooldown, logger)
	if err != nil {
		logger.Fatal("Failed to load ledger", zap.Error(err))
	}

	generator := reply.NewOpenAIGenerator(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)
	selector := reply.NewSelector(generator, logger)

	session, err := browser.NewSession(
		cfg.Browser.CookieFile,
		cfg.Browser.Headless,
		cfg.Browser.NavTimeout,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to start browser session", zap.Error(err))
	}
	defer session.Close()

	source := browser.NewListSource(session, logger)
	actuator := browser.NewReplyActuator(session, logger)

	var notifier engine.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifier disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	e := engine.New(engine.Options{
		ListID:            cfg.List.ID,
		MaxResults:        cfg.List.MaxResults,
		PollInterval:      cfg.Limits.PollInterval,
		MinPostAge:        cfg.Limits.MinPostAge,
		MaxPostAge:        cfg.Limits.MaxPostAge(),
		DelayAfterReply:   cfg.Limits.DelayAfterReply,
		JitterMax:         cfg.Limits.JitterMax,
		PauseAfter:        cfg.Limits.PauseAfter,
		StopAfter:         cfg.Limits.StopAfter,
		PauseDuration:     cfg.Limits.PauseDuration,
		GenerationBackoff: cfg.Limits.GenerationBackoff,
	}, source, actuator, selector, ledger, notifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting yapbot",
		zap.String("list_id", cfg.List.ID),
		zap.Duration("poll_interval", cfg.Limits.PollInterval),
		zap.Duration("min_post_age", cfg.Limits.MinPostAge),
		zap.Int("max_post_age_minutes", cfg.Limits.MaxPostAgeMinutes),
		zap.Duration("per_account_cooldown", cfg.Limits.PerAccountCooldown))

	if err := e.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("Engine stopped unexpectedly", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
