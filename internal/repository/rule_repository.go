package repository

import (
	"context"
	"fmt"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository wires a repository backed by pgxpool.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) ListActive(ctx context.Context) ([]domain.ValidationRule, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, column_name, rule_type, rule_config
		 FROM validation_rules
		 WHERE is_active = TRUE
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	rules := []domain.ValidationRule{}
	for rows.Next() {
		var (
			rule      domain.ValidationRule
			ruleType  string
			rawConfig []byte
		)
		if scanErr := rows.Scan(&rule.ID, &rule.ColumnName, &ruleType, &rawConfig); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", scanErr)
		}
		rule.Type = domain.RuleType(ruleType)

		config, cfgErr := domain.RuleConfigFromJSON(rawConfig)
		if cfgErr != nil {
			return nil, fmt.Errorf("rule %d: %w", rule.ID, cfgErr)
		}
		rule.Config = config

		rules = append(rules, rule)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", rowsErr)
	}

	return rules, nil
}

func (r *ruleRepository) Upsert(ctx context.Context, def domain.RuleDefinition) error {
	var config any
	if len(def.RuleConfig) > 0 {
		config = []byte(def.RuleConfig)
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO validation_rules (column_name, rule_type, rule_config, error_message, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (column_name, rule_type)
		 DO UPDATE SET
		     rule_config = EXCLUDED.rule_config,
		     error_message = EXCLUDED.error_message,
		     is_active = EXCLUDED.is_active`,
		def.ColumnName,
		string(def.RuleType),
		config,
		def.ErrorMessage,
		def.Active(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rule for column %s: %w", def.ColumnName, err)
	}

	return nil
}
