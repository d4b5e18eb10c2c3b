// Command eventsync copies stored events from one backend to another. It is
// used when moving the bot between the github file store and postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/DeadScore/slotbot/internal/config"
	"github.com/DeadScore/slotbot/internal/database"
	"github.com/DeadScore/slotbot/internal/domain/events"
	"github.com/DeadScore/slotbot/internal/logger"
	ghstorage "github.com/DeadScore/slotbot/internal/storage/github"
	pgstorage "github.com/DeadScore/slotbot/internal/storage/postgres"
)

func main() {
	from := flag.String("from", "github", "source backend (github or postgres)")
	to := flag.String("to", "postgres", "destination backend (github or postgres)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	if *from == *to {
		logr.Error("source and destination backends are the same", "backend", *from)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *database.DB
	if *from == "postgres" || *to == "postgres" {
		if cfg.DatabaseURL == "" {
			logr.Error("DATABASE_URL is required for the postgres backend")
			os.Exit(1)
		}
		db, err = database.Connect(ctx, database.Options{
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
		defer db.Close()

		migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsPath, logr)
		if err := db.RunMigrations(ctx, migrator); err != nil {
			logr.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	src, err := buildRepository(cfg, logr, db, *from)
	if err != nil {
		logr.Error("failed to init source backend", "backend", *from, "err", err)
		os.Exit(1)
	}
	dst, err := buildRepository(cfg, logr, db, *to)
	if err != nil {
		logr.Error("failed to init destination backend", "backend", *to, "err", err)
		os.Exit(1)
	}

	list, err := src.List(ctx)
	if err != nil {
		logr.Error("failed to read source events", "err", err)
		os.Exit(1)
	}

	for _, ev := range list {
		if err := dst.Save(ctx, ev); err != nil {
			logr.Error("failed to copy event", "message_id", ev.MessageID, "err", err)
			os.Exit(1)
		}
		logr.Info("copied event", "message_id", ev.MessageID, "title", ev.Title)
	}

	fmt.Printf("Copied %d events from %s to %s\n", len(list), *from, *to)
	logr.Info("sync complete", "count", len(list))
}

func buildRepository(cfg config.Config, logr *slog.Logger, db *database.DB, backend string) (events.Repository, error) {
	switch backend {
	case "github":
		if cfg.GitHubRepo == "" || cfg.GitHubToken == "" {
			return nil, fmt.Errorf("GITHUB_REPO and GITHUB_TOKEN are required for the github backend")
		}
		return ghstorage.NewEventRepository(ghstorage.Options{
			Repo:    cfg.GitHubRepo,
			Path:    cfg.GitHubFilePath,
			Token:   cfg.GitHubToken,
			BaseURL: cfg.GitHubAPIURL,
			Logger:  logr,
		}), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres backend requires database connection")
		}
		return pgstorage.NewEventRepository(db.DB), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}
