package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"
)

// SnapshotLoader assembles the rule view a validation run evaluates against.
type SnapshotLoader struct {
	rules  repository.RuleRepository
	params repository.PlantParameterRepository
}

// NewSnapshotLoader creates a loader over the rule and parameter catalogs.
func NewSnapshotLoader(rules repository.RuleRepository, params repository.PlantParameterRepository) *SnapshotLoader {
	return &SnapshotLoader{rules: rules, params: params}
}

// Load fetches the active rules and resolves every $-prefixed config value
// against the latest plant parameters. Thresholds like "$P_NOM" become the
// plant's current envelope at load time, so the snapshot is self-contained
// for the whole run. An unknown placeholder aborts the load: evaluating with
// a half-resolved catalog would reject good data.
func (l *SnapshotLoader) Load(ctx context.Context) (domain.RuleSnapshot, error) {
	rules, err := l.rules.ListActive(ctx)
	if err != nil {
		return domain.RuleSnapshot{}, fmt.Errorf("failed to load validation rules: %w", err)
	}

	var params *domain.PlantParameters
	for i := range rules {
		for key, value := range rules[i].Config {
			if !strings.HasPrefix(value, "$") {
				continue
			}

			if params == nil {
				latest, err := l.params.Latest(ctx)
				if err != nil {
					return domain.RuleSnapshot{}, err
				}
				params = &latest
			}

			resolved, known := params.Placeholder(value)
			if !known {
				return domain.RuleSnapshot{}, errors.Join(domain.ErrConfiguration,
					fmt.Errorf("rule %d: unknown placeholder %q in config key %q", rules[i].ID, value, key))
			}

			slog.Info("resolved rule placeholder",
				"rule_id", rules[i].ID, "column", rules[i].ColumnName,
				"key", key, "placeholder", value, "value", resolved.String())
			rules[i].Config[key] = resolved.String()
		}
	}

	return domain.NewRuleSnapshot(rules), nil
}
