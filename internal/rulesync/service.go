// Package rulesync loads validation rule definitions from a JSON document
// into the database catalog.
package rulesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"
)

type Service struct {
	rules repository.RuleRepository
}

func NewService(rules repository.RuleRepository) *Service {
	return &Service{rules: rules}
}

// Summary reports one sync pass over a rule document.
type Summary struct {
	Found    int
	Upserted int
	Failed   int
}

// SyncFile loads rule definitions from a JSON file on disk.
func (s *Service) SyncFile(ctx context.Context, path string) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer file.Close()

	summary, err := s.Sync(ctx, file)
	if err != nil {
		return summary, fmt.Errorf("rules file %s: %w", path, err)
	}
	return summary, nil
}

// Sync decodes a JSON array of rule definitions and upserts each one. A
// definition that fails is logged and counted while the rest still load;
// each upsert commits on its own.
func (s *Service) Sync(ctx context.Context, r io.Reader) (Summary, error) {
	var defs []domain.RuleDefinition
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return Summary{}, fmt.Errorf("failed to parse rule definitions: %w", err)
	}

	summary := Summary{Found: len(defs)}
	for i, def := range defs {
		if err := s.upsertOne(ctx, def); err != nil {
			slog.Error("failed to load rule",
				"index", i, "column", def.ColumnName, "rule_type", def.RuleType.String(), "error", err)
			summary.Failed++
			continue
		}
		summary.Upserted++
	}

	slog.Info("rule sync complete",
		"found", summary.Found, "upserted", summary.Upserted, "failed", summary.Failed)
	return summary, nil
}

func (s *Service) upsertOne(ctx context.Context, def domain.RuleDefinition) error {
	if def.ColumnName == "" {
		return errors.New("column_name is required")
	}
	if !def.RuleType.IsValid() {
		return fmt.Errorf("unknown rule_type %q", def.RuleType)
	}
	if def.ErrorMessage == "" {
		return errors.New("error_message is required")
	}
	return s.rules.Upsert(ctx, def)
}
