package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/domain"
	"github.com/spf13/viper"
)

// Config aggregates every pipeline section. Load reads all of them; each
// command validates only the sections it touches.
type Config struct {
	Database   db.Config
	Logging    Logging
	Validation Validation
	Provision  Provision
	Rules      Rules
	Ingestion  Ingestion
	Exclusions Exclusions
	Export     Export
	Notify     Notify
}

// Logging selects the handler installed as the default slog logger.
type Logging struct {
	Level  string
	Format string
}

// Validation tunes the claim loop.
type Validation struct {
	BatchSize int
}

// Provision drives schema rendering and the plant parameter seed.
type Provision struct {
	ColumnCount int
	PeakPower   string
}

// Rules points at the declarative rule definitions file.
type Rules struct {
	File string
}

// Ingestion points at the directory the plant gateways drop CSV files into.
type Ingestion struct {
	CSVDir string
}

// Exclusions points at the exported exclusion request workbook.
type Exclusions struct {
	Workbook string
	Sheet    string
}

// Export shapes the daily report files.
type Export struct {
	OutputDir        string
	DayStart         string
	DayEnd           string
	ValidatedHeaders []string
}

// Plant is one monitored drop directory and who to mail about it.
type Plant struct {
	Name       string   `mapstructure:"name"`
	Dir        string   `mapstructure:"dir"`
	Recipients []string `mapstructure:"recipients"`
}

// SMTP carries relay credentials. Leaving Server empty degrades the
// notifier to log-only mode.
type SMTP struct {
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Notify configures the file monitor and the mailer.
type Notify struct {
	SMTP      SMTP
	Auditors  []string
	Plants    []Plant
	StateFile string
}

// Load reads config.yaml from configPath plus DQ_ prefixed environment
// overrides (DQ_DATABASE_HOST, DQ_VALIDATION_BATCH_SIZE, ...). A missing
// config file is fine; defaults and the environment carry the run.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("DQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Database: db.Config{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Logging: Logging{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Validation: Validation{
			BatchSize: v.GetInt("validation.batch_size"),
		},
		Provision: Provision{
			ColumnCount: v.GetInt("provision.column_count"),
			PeakPower:   v.GetString("provision.peak_power"),
		},
		Rules: Rules{
			File: v.GetString("rules.file"),
		},
		Ingestion: Ingestion{
			CSVDir: v.GetString("ingestion.csv_dir"),
		},
		Exclusions: Exclusions{
			Workbook: v.GetString("exclusions.workbook"),
			Sheet:    v.GetString("exclusions.sheet"),
		},
		Export: Export{
			OutputDir:        v.GetString("export.output_dir"),
			DayStart:         v.GetString("export.day_start"),
			DayEnd:           v.GetString("export.day_end"),
			ValidatedHeaders: v.GetStringSlice("export.validated_headers"),
		},
		Notify: Notify{
			SMTP: SMTP{
				Server:   v.GetString("notify.smtp.server"),
				Port:     v.GetInt("notify.smtp.port"),
				User:     v.GetString("notify.smtp.user"),
				Password: v.GetString("notify.smtp.password"),
			},
			Auditors:  v.GetStringSlice("notify.auditors"),
			StateFile: v.GetString("notify.state_file"),
		},
	}

	if err := v.UnmarshalKey("notify.plants", &cfg.Notify.Plants); err != nil {
		return Config{}, fmt.Errorf("parse notify.plants: %w", err)
	}

	return cfg, nil
}

// DatabaseConfig validates and returns the store settings. Host, user and
// database name must be present; an empty password stays legal for
// trust-authenticated local setups.
func (c Config) DatabaseConfig() (db.Config, error) {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.dbname")
	}
	if len(missing) > 0 {
		return db.Config{}, errors.Join(domain.ErrConfiguration,
			fmt.Errorf("missing settings: %s", strings.Join(missing, ", ")))
	}
	return c.Database, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "plant_data")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("validation.batch_size", 1000)
	v.SetDefault("provision.column_count", 10)
	v.SetDefault("rules.file", "settings/rules.json")
	v.SetDefault("export.day_start", "07:00:00")
	v.SetDefault("export.day_end", "18:59:59")
	v.SetDefault("notify.state_file", ".notify_state.json")
}
