package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carcamalbot/internal/config"
	"carcamalbot/internal/domain"
	"carcamalbot/internal/handler"
	"carcamalbot/internal/logger"
	"carcamalbot/internal/repository"
	"carcamalbot/internal/repository/file"
	"carcamalbot/internal/repository/postgres"
	"carcamalbot/internal/repository/sqlite"
	"carcamalbot/internal/service"
	"carcamalbot/internal/telegram"
	"carcamalbot/internal/tools"
	"carcamalbot/internal/worker"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting carcamalbot", zap.String("session_backend", cfg.SessionBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Access config
	accessRepo := file.NewAccessRepo(cfg.AccessConfigPath)
	access, err := accessRepo.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load access config", zap.Error(err))
	}

	log.Info("Access config loaded",
		zap.String("path", cfg.AccessConfigPath),
		zap.Int("users", len(access.Users)),
	)

	// Session storage
	sessions, closeSessions, err := openSessionRepository(cfg, log)
	if err != nil {
		log.Fatal("Failed to open session storage", zap.Error(err))
	}
	defer closeSessions()

	// Initialize Telegram bot
	bot, err := telegram.New(telegram.Options{Token: cfg.BotToken, PollTimeout: cfg.PollTimeout}, log)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	log.Info("Telegram bot initialized")

	// Initialize services
	authService := service.NewAuthService(access, accessRepo, bot, log)
	convService := service.NewConversationService(domain.NewGroceriesMachine(), sessions, cfg.SessionTTL, log)
	shopService := service.NewShopListService()
	cleanupService := service.NewCleanupService(convService, log)

	pool := worker.NewPool(worker.Options{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Timeout:   cfg.TaskTimeout,
	}, log)

	// Initialize handler
	h := handler.NewHandler(handler.Deps{
		Auth:         authService,
		Conversation: convService,
		ShopList:     shopService,
		Sender:       bot,
		Pool:         pool,
		Downloader:   tools.NewYoutubeDL(""),
		Fortune:      tools.NewFortune(""),
		Logger:       log,
	})
	registry := handler.NewRegistry()
	if err := h.RegisterCommands(registry); err != nil {
		log.Fatal("Failed to register commands", zap.Error(err))
	}
	bot.Route(handler.NewDispatcher(convService, registry, bot, log))

	if err := bot.SetCommands(menuCommands(registry)); err != nil {
		log.Warn("Failed to publish command menu", zap.Error(err))
	}

	log.Info("Handlers registered", zap.Int("commands", len(registry.Commands())))

	// Start cleanup job in background
	if cfg.SessionTTL > 0 {
		go runCleanupJob(ctx, cleanupService, cleanupInterval(cfg.SessionTTL), log)
	}

	// Start bot in background
	go func() {
		log.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	log.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()
	pool.Close()

	log.Info("Bot stopped gracefully")
}

func menuCommands(registry *handler.Registry) []telegram.Command {
	var list []telegram.Command
	for _, c := range registry.Commands() {
		list = append(list, telegram.Command{Name: c.Name, Description: c.Description})
	}
	return list
}

// openSessionRepository builds the configured session backend and its closer
func openSessionRepository(cfg *config.Config, log *zap.Logger) (repository.SessionRepository, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendPostgres:
		db, err := connectDatabase(cfg.DSN(), log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Database connection established")

		if err := runMigrations(db.DB, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewSessionRepo(db), func() { db.Close() }, nil

	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("SQLite session store opened", zap.String("path", cfg.SQLitePath))
		return repo, func() { repo.Close() }, nil

	default:
		repo, err := file.NewSessionRepo(cfg.SessionDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("File session store opened", zap.String("dir", cfg.SessionDir))
		return repo, func() {}, nil
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, log *zap.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Open("postgres", dsn)
		if err != nil {
			log.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			log.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, log *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		log.Info("Migrations applied successfully")
	}
	return nil
}

// cleanupInterval checks twice per ttl, at most once a minute
func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// runCleanupJob periodically deactivates idle conversations
func runCleanupJob(ctx context.Context, cleanup *service.CleanupService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			cleanup.CleanupIdleConversations()
		}
	}
}
