package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"log/slog"
)

// Migrator applies schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
}

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// SQLMigrator runs plain SQL migration files from a filesystem. Up files
// apply in lexical order, down files revert in reverse. Statements are split
// on semicolons because the pgx stdlib driver executes one statement per
// Exec.
type SQLMigrator struct {
	db     *sql.DB
	fsys   fs.FS
	dir    string
	logger *slog.Logger
}

// NewSQLMigrator builds a migrator over the given filesystem directory. A nil
// logger falls back to slog.Default.
func NewSQLMigrator(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *SQLMigrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLMigrator{db: db, fsys: fsys, dir: dir, logger: logger}
}

// Up applies every pending *.up.sql file in lexical order.
func (m *SQLMigrator) Up(ctx context.Context) error {
	return m.run(ctx, upSuffix)
}

// Down reverts the schema by running every *.down.sql file in reverse lexical
// order.
func (m *SQLMigrator) Down(ctx context.Context) error {
	return m.run(ctx, downSuffix)
}

func (m *SQLMigrator) run(ctx context.Context, suffix string) error {
	if err := m.ready(); err != nil {
		return err
	}

	names, err := m.files(suffix)
	if err != nil {
		return err
	}
	if suffix == downSuffix {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	applied := 0
	for _, name := range names {
		ok, err := m.apply(ctx, name)
		if err != nil {
			return err
		}
		if ok {
			applied++
		}
	}
	if applied == 0 {
		m.logger.Info("no migrations to run")
	}
	return nil
}

func (m *SQLMigrator) ready() error {
	switch {
	case m == nil:
		return errors.New("sql migrator is nil")
	case m.db == nil:
		return errors.New("sql migrator requires a database handle")
	case m.fsys == nil:
		return errors.New("sql migrator requires a filesystem")
	case m.dir == "":
		return errors.New("sql migrator requires a directory")
	}
	return nil
}

func (m *SQLMigrator) files(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (m *SQLMigrator) apply(ctx context.Context, name string) (bool, error) {
	contents, err := fs.ReadFile(m.fsys, path.Join(m.dir, name))
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", name, err)
	}

	statements := splitStatements(string(contents))
	if len(statements) == 0 {
		m.logger.Info("skipping empty migration", "file", name)
		return false, nil
	}

	for i, stmt := range statements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("exec %s [%d]: %w", name, i+1, err)
		}
	}
	m.logger.Info("migration applied", "file", name)
	return true, nil
}

func splitStatements(sqlText string) []string {
	raw := strings.Split(sqlText, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
