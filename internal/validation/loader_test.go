package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func TestSnapshotLoader_ResolvesPlaceholders(t *testing.T) {
	ruleRepo := &stubRuleRepo{rules: []domain.ValidationRule{
		{
			ID:         1,
			ColumnName: "col_1",
			Type:       domain.RuleTypeRange,
			Config:     domain.RuleConfig{"min": "$Q_MIN", "max": "$P_NOM"},
		},
		{
			ID:         2,
			ColumnName: "col_2",
			Type:       domain.RuleTypeRange,
			Config:     domain.RuleConfig{"min": "0", "max": "100"},
		},
	}}
	paramRepo := &stubParamRepo{params: domain.PlantParameters{
		PNom: decimal.NewFromInt(5000),
		PMax: decimal.NewFromInt(5500),
		QMin: decimal.NewFromInt(-5000),
		QMax: decimal.NewFromInt(5000),
	}}

	snapshot, err := NewSnapshotLoader(ruleRepo, paramRepo).Load(context.Background())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	resolved := snapshot.RulesFor("col_1")[0].Config
	if resolved["max"] != "5000" {
		t.Fatalf("expected max placeholder resolved to 5000, got %q", resolved["max"])
	}
	if resolved["min"] != "-5000" {
		t.Fatalf("expected min placeholder resolved to -5000, got %q", resolved["min"])
	}
	if untouched := snapshot.RulesFor("col_2")[0].Config["max"]; untouched != "100" {
		t.Fatalf("expected literal thresholds untouched, got %q", untouched)
	}
	if paramRepo.calls != 1 {
		t.Fatalf("expected parameters fetched once, got %d", paramRepo.calls)
	}
}

func TestSnapshotLoader_UnknownPlaceholderFails(t *testing.T) {
	ruleRepo := &stubRuleRepo{rules: []domain.ValidationRule{
		{
			ID:         3,
			ColumnName: "col_1",
			Type:       domain.RuleTypeRange,
			Config:     domain.RuleConfig{"min": "0", "max": "$BOGUS"},
		},
	}}
	paramRepo := &stubParamRepo{}

	_, err := NewSnapshotLoader(ruleRepo, paramRepo).Load(context.Background())
	if err == nil {
		t.Fatalf("expected an error for an unknown placeholder")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestSnapshotLoader_SkipsParameterLookupWithoutPlaceholders(t *testing.T) {
	ruleRepo := &stubRuleRepo{rules: []domain.ValidationRule{
		{
			ID:         4,
			ColumnName: "col_1",
			Type:       domain.RuleTypeRange,
			Config:     domain.RuleConfig{"min": "0", "max": "100"},
		},
	}}
	paramRepo := &stubParamRepo{err: errors.New("must not be called")}

	snapshot, err := NewSnapshotLoader(ruleRepo, paramRepo).Load(context.Background())
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if snapshot.Len() != 1 {
		t.Fatalf("expected one rule in the snapshot, got %d", snapshot.Len())
	}
	if paramRepo.calls != 0 {
		t.Fatalf("expected no parameter lookup, got %d", paramRepo.calls)
	}
}

func TestSnapshotLoader_PropagatesRuleErrors(t *testing.T) {
	ruleRepo := &stubRuleRepo{err: errors.New("connection reset")}

	_, err := NewSnapshotLoader(ruleRepo, &stubParamRepo{}).Load(context.Background())
	if err == nil {
		t.Fatalf("expected the repository error to propagate")
	}
}

type stubRuleRepo struct {
	rules []domain.ValidationRule
	err   error
}

func (s *stubRuleRepo) ListActive(ctx context.Context) ([]domain.ValidationRule, error) {
	return s.rules, s.err
}

func (s *stubRuleRepo) Upsert(ctx context.Context, def domain.RuleDefinition) error {
	return errors.New("not implemented")
}

type stubParamRepo struct {
	params domain.PlantParameters
	err    error
	calls  int
}

func (s *stubParamRepo) Latest(ctx context.Context) (domain.PlantParameters, error) {
	s.calls++
	return s.params, s.err
}

func (s *stubParamRepo) Reseed(ctx context.Context, tx pgx.Tx, params domain.PlantParameters) error {
	return errors.New("not implemented")
}

var _ repository.RuleRepository = (*stubRuleRepo)(nil)
var _ repository.PlantParameterRepository = (*stubParamRepo)(nil)
