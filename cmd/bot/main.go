// Package main is the entry point of the Campus Connect bot.
//
// The layering follows Clean Architecture:
//   - Domain: entities and repository contracts, no external dependencies
//   - Application: the conversation state machine and the grade pipeline
//   - Infrastructure: postgres, redis, the Telegram and converter clients,
//     the scheduler and the in-process event bus
//   - Interface: the Telegram update dispatcher
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/campus-connect/campus-bot/config"
	"github.com/campus-connect/campus-bot/internal/application/conversation"
	"github.com/campus-connect/campus-bot/internal/application/transcript"
	"github.com/campus-connect/campus-bot/internal/domain/reminder"
	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/infrastructure/external/converter"
	tgapi "github.com/campus-connect/campus-bot/internal/infrastructure/external/telegram"
	"github.com/campus-connect/campus-bot/internal/infrastructure/messaging"
	"github.com/campus-connect/campus-bot/internal/infrastructure/persistence/memory"
	"github.com/campus-connect/campus-bot/internal/infrastructure/persistence/postgres"
	"github.com/campus-connect/campus-bot/internal/infrastructure/persistence/redis"
	"github.com/campus-connect/campus-bot/internal/infrastructure/scheduler"
	"github.com/campus-connect/campus-bot/internal/infrastructure/scheduler/jobs"
	tgbot "github.com/campus-connect/campus-bot/internal/interface/telegram"
	"github.com/campus-connect/campus-bot/pkg/credentials"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting Campus Connect bot",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Session store: Redis when enabled, in-memory otherwise
	// ─────────────────────────────────────────────────────────────────────────
	var sessions session.Store
	if cfg.Redis.Enabled {
		log.Info("connecting to redis", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.SessionTTL = cfg.Redis.SessionTTL

		store, err := redis.NewSessionStore(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer store.Close()
		sessions = store
	} else {
		log.Info("redis disabled, using in-memory sessions")
		sessions = memory.NewSessionStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer eventBus.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories and external clients
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	marksRepo := postgres.NewMarksRepository(dbConn)
	reminderRepo := postgres.NewReminderRepository(dbConn)
	documentRepo := postgres.NewDocumentRepository(dbConn)
	feedbackRepo := postgres.NewFeedbackRepository(dbConn)
	jobRepo := postgres.NewJobRepository(dbConn)

	converterCfg := converter.DefaultConfig(cfg.Converter.BaseURL)
	converterCfg.APIKey = cfg.Converter.APIKey
	converterCfg.Timeout = cfg.Converter.Timeout
	converterCfg.Logger = log
	converterClient := converter.NewClient(converterCfg)

	clientConfig := tgapi.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Logger = log
	clientConfig.Debug = cfg.App.Debug
	tgClient := tgapi.NewClient(clientConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})
	reminderSched := &reminderScheduler{sched: sched, events: eventBus}

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	pipeline := transcript.NewPipeline(marksRepo, userRepo, converterClient, eventBus, log)

	manager := conversation.NewManager(conversation.Deps{
		Sessions:  sessions,
		Users:     userRepo,
		Pipeline:  pipeline,
		Reminders: reminderRepo,
		Scheduler: reminderSched,
		Documents: documentRepo,
		Feedback:  feedbackRepo,
		Jobs:      jobRepo,
		Vault:     credentials.NewVault(cfg.Security.BcryptCost),
		Files:     tgbot.NewFileFetcher(tgClient),
		Events:    eventBus,
		Logger:    log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Telegram bot
	// ─────────────────────────────────────────────────────────────────────────
	botConfig := tgbot.DefaultBotConfig(cfg.Telegram.Token)
	botConfig.PollingTimeout = cfg.Telegram.PollingTimeout
	botConfig.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botConfig.Logger = log

	bot, err := tgbot.NewBot(botConfig, tgClient, manager, userRepo)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	if err := eventBus.Subscribe(shared.EventReminderDue, bot.HandleReminderDue); err != nil {
		return fmt.Errorf("failed to subscribe reminder handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Re-register persisted reminders and start services
	// ─────────────────────────────────────────────────────────────────────────
	if err := registerStoredReminders(ctx, reminderRepo, reminderSched, log); err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop failed", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Start(ctx); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("bot error: %w", err)
		}
	}()

	log.Info("bot is running")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Warn("bot stop failed", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// registerStoredReminders puts every persisted reminder back on the
// scheduler, so daily jobs survive restarts.
func registerStoredReminders(ctx context.Context, repo reminder.Repository, sched *reminderScheduler, log *slog.Logger) error {
	stored, err := repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	for _, rem := range stored {
		if err := sched.ScheduleReminder(rem); err != nil {
			// A single malformed row must not block startup.
			log.Warn("failed to register stored reminder",
				"reminder_id", rem.ID,
				"job_ref", rem.JobRef,
				"error", err,
			)
		}
	}

	log.Info("stored reminders registered", "count", len(stored))
	return nil
}

// reminderScheduler adapts the job scheduler to the conversation manager's
// contract: one daily job per reminder, firing a ReminderDueEvent.
type reminderScheduler struct {
	sched  *scheduler.Scheduler
	events *messaging.EventBus
}

func (rs *reminderScheduler) ScheduleReminder(rem reminder.Reminder) error {
	hour, minute, err := reminder.ParseTime(rem.TimeStr)
	if err != nil {
		return err
	}

	job := jobs.NewFireReminderJob(rem, rs.events)
	return rs.sched.Register(job, scheduler.NewDailySchedule(hour, minute))
}

// setupLogger configures structured logging: JSON in production, text
// otherwise.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
