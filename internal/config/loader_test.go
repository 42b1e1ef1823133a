package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/plantops/dataquality/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Validation.BatchSize != 1000 {
		t.Fatalf("unexpected batch size default: %d", cfg.Validation.BatchSize)
	}
	if cfg.Rules.File != "settings/rules.json" {
		t.Fatalf("unexpected rules file default: %s", cfg.Rules.File)
	}
	if cfg.Export.DayStart != "07:00:00" || cfg.Export.DayEnd != "18:59:59" {
		t.Fatalf("unexpected report window defaults: %+v", cfg.Export)
	}
	if cfg.Notify.StateFile != ".notify_state.json" {
		t.Fatalf("unexpected state file default: %s", cfg.Notify.StateFile)
	}
}

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	content := `database:
  host: db.example.com
  port: 5433
  user: pipeline
  password: secret
provision:
  column_count: 4
  peak_power: "9000"
export:
  validated_headers:
    - Date
    - Active power
notify:
  auditors:
    - audit@example.com
  plants:
    - name: Almendra
      dir: /data/almendra
      recipients:
        - ops@almendra.example
        - backup@almendra.example
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Host != "db.example.com" || cfg.Database.Port != 5433 {
		t.Fatalf("unexpected database settings: %+v", cfg.Database)
	}
	if cfg.Provision.ColumnCount != 4 || cfg.Provision.PeakPower != "9000" {
		t.Fatalf("unexpected provision settings: %+v", cfg.Provision)
	}
	if len(cfg.Export.ValidatedHeaders) != 2 {
		t.Fatalf("unexpected validated headers: %v", cfg.Export.ValidatedHeaders)
	}
	if len(cfg.Notify.Auditors) != 1 || cfg.Notify.Auditors[0] != "audit@example.com" {
		t.Fatalf("unexpected auditors: %v", cfg.Notify.Auditors)
	}
	if len(cfg.Notify.Plants) != 1 {
		t.Fatalf("expected one plant, got %v", cfg.Notify.Plants)
	}
	plant := cfg.Notify.Plants[0]
	if plant.Name != "Almendra" || plant.Dir != "/data/almendra" || len(plant.Recipients) != 2 {
		t.Fatalf("unexpected plant: %+v", plant)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DQ_DATABASE_HOST", "db.internal")
	t.Setenv("DQ_VALIDATION_BATCH_SIZE", "250")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Fatalf("expected the environment to win, got %s", cfg.Database.Host)
	}
	if cfg.Validation.BatchSize != 250 {
		t.Fatalf("expected the environment batch size, got %d", cfg.Validation.BatchSize)
	}
}

func TestDatabaseConfigRequiresCoreSettings(t *testing.T) {
	cfg := Config{}
	cfg.Database.Port = 5432

	if _, err := cfg.DatabaseConfig(); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}

	cfg.Database.Host = "localhost"
	cfg.Database.User = "postgres"
	cfg.Database.DBName = "plant_data"
	if _, err := cfg.DatabaseConfig(); err != nil {
		t.Fatalf("expected a complete config accepted, got %v", err)
	}

	// Trust-authenticated local setups run without a password.
	if cfg.Database.Password != "" {
		t.Fatalf("expected the password to stay optional")
	}
}
