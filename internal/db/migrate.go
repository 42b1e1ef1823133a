package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

//go:embed migrations/*.tmpl
var migrationTemplates embed.FS

// migrationData feeds the schema templates. The measurement column set is an
// installation parameter, so the SQL is rendered per deployment before it is
// applied.
type migrationData struct {
	BaseColumns      string
	DuplicateColumns string
}

// RunMigrations renders the schema for columnCount measurement columns into
// a scratch directory and applies it through golang-migrate.
func RunMigrations(cfg Config, columnCount int) error {
	dir, err := os.MkdirTemp("", "dq-migrations-*")
	if err != nil {
		return fmt.Errorf("create migrations scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := renderMigrations(dir, columnCount); err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, cfg.URL("pgx5"))
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("closing migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	slog.Info("applied migrations", "version", version, "dirty", dirty)
	return nil
}

// renderMigrations writes the rendered migration files into dir, one output
// file per embedded template with the .tmpl suffix stripped.
func renderMigrations(dir string, columnCount int) error {
	if columnCount <= 0 {
		return fmt.Errorf("measurement column count must be positive, got %d", columnCount)
	}

	data := migrationData{
		BaseColumns:      measurementColumns(`"timestamp" TIMESTAMPTZ NOT NULL`, columnCount),
		DuplicateColumns: measurementColumns("timestamp_col TIMESTAMPTZ", columnCount),
	}

	entries, err := migrationTemplates.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		raw, err := migrationTemplates.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration template %s: %w", name, err)
		}

		tmpl, err := template.New(name).Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parse migration template %s: %w", name, err)
		}

		out, err := os.Create(filepath.Join(dir, strings.TrimSuffix(name, ".tmpl")))
		if err != nil {
			return fmt.Errorf("create migration file for %s: %w", name, err)
		}
		if err := tmpl.Execute(out, data); err != nil {
			out.Close()
			return fmt.Errorf("render migration %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("write migration %s: %w", name, err)
		}
	}

	return nil
}

func measurementColumns(timestampColumn string, count int) string {
	cols := make([]string, 0, count+1)
	cols = append(cols, timestampColumn)
	for i := 1; i <= count; i++ {
		cols = append(cols, fmt.Sprintf("col_%d NUMERIC(26, 13)", i))
	}
	return strings.Join(cols, ",\n    ")
}
