package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/DeadScore/slotbot/internal/bot"
	"github.com/DeadScore/slotbot/internal/config"
	"github.com/DeadScore/slotbot/internal/database"
	"github.com/DeadScore/slotbot/internal/discord"
	"github.com/DeadScore/slotbot/internal/domain/events"
	"github.com/DeadScore/slotbot/internal/httpapi"
	"github.com/DeadScore/slotbot/internal/logger"
	"github.com/DeadScore/slotbot/internal/schedule"
	"github.com/DeadScore/slotbot/internal/server"
	ghstorage "github.com/DeadScore/slotbot/internal/storage/github"
	"github.com/DeadScore/slotbot/internal/storage/memory"
	pgstorage "github.com/DeadScore/slotbot/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	if cfg.DiscordToken == "" {
		logr.Error("DISCORD_TOKEN is required")
		os.Exit(1)
	}

	loc, err := schedule.Location(cfg.Timezone)
	if err != nil {
		logr.Error("invalid timezone", "tz", cfg.Timezone, "err", err)
		os.Exit(1)
	}

	baseCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var db *database.DB
	if cfg.DataBackend == "postgres" {
		db, err = database.Connect(baseCtx, database.Options{
			Driver:          cfg.DatabaseDriver,
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
			Logger:          logr,
		})
		if err != nil {
			logr.Error("failed to connect database", "err", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logr.Error("error closing database", "err", cerr)
			}
		}()

		migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsPath, logr)
		if err := db.RunMigrations(baseCtx, migrator); err != nil {
			logr.Error("database migrations failed", "err", err)
			os.Exit(1)
		}
	}

	svc, err := buildEventService(cfg, logr, db)
	if err != nil {
		logr.Error("failed to init event service", "err", err)
		os.Exit(1)
	}

	rest := discord.NewClient(discord.ClientOptions{
		Token:  cfg.DiscordToken,
		Logger: logr,
	})

	b := bot.New(bot.Options{
		Logger:           logr,
		REST:             rest,
		Events:           svc,
		Location:         loc,
		EventDuration:    cfg.EventDuration,
		ReminderLead:     cfg.ReminderLead,
		ReminderInterval: cfg.ReminderInterval,
	})

	gw := discord.NewGateway(cfg.DiscordToken, bot.Intents(), b.HandleGatewayEvent, logr)

	srv := server.New(cfg, logr)
	httpapi.Register(srv.Mux(), logr, svc)

	go func() {
		if err := srv.Run(); err != nil {
			logr.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	go func() {
		if err := gw.Run(baseCtx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("gateway error", "err", err)
		}
	}()

	go b.RunReminders(baseCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}
}

func buildEventService(cfg config.Config, logr *slog.Logger, db *database.DB) (events.Service, error) {
	switch cfg.DataBackend {
	case "memory":
		logr.Info("using in-memory event storage (DATA_BACKEND=memory)")
		return events.NewService(memory.NewEventRepository()), nil
	case "github":
		logr.Info("using github event storage (DATA_BACKEND=github)", "repo", cfg.GitHubRepo, "path", cfg.GitHubFilePath)
		repo := ghstorage.NewEventRepository(ghstorage.Options{
			Repo:    cfg.GitHubRepo,
			Path:    cfg.GitHubFilePath,
			Token:   cfg.GitHubToken,
			BaseURL: cfg.GitHubAPIURL,
			Logger:  logr,
		})
		return events.NewService(repo), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres backend requires database connection")
		}
		logr.Info("using postgres event storage (DATA_BACKEND=postgres)")
		return events.NewService(pgstorage.NewEventRepository(db.DB)), nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
