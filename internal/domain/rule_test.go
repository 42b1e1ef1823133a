package domain

import (
	"testing"
)

func TestRuleConfigFromJSONKeepsExactNumbers(t *testing.T) {
	cfg, err := RuleConfigFromJSON([]byte(`{
		"min_value": 0.0000000000001,
		"max_value": 9999.1234567890123,
		"threshold": "$P_MAX",
		"strict": true,
		"ignored": null
	}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// A float round-trip would mangle these digits; the config must carry
	// the source text untouched.
	if cfg["min_value"] != "0.0000000000001" {
		t.Fatalf("min_value lost precision: %q", cfg["min_value"])
	}
	if cfg["max_value"] != "9999.1234567890123" {
		t.Fatalf("max_value lost precision: %q", cfg["max_value"])
	}
	if cfg["threshold"] != "$P_MAX" {
		t.Fatalf("unexpected threshold: %q", cfg["threshold"])
	}
	if cfg["strict"] != "true" {
		t.Fatalf("unexpected bool rendering: %q", cfg["strict"])
	}
	if _, ok := cfg["ignored"]; ok {
		t.Fatalf("expected null entries dropped")
	}
}

func TestRuleConfigFromJSONEmptyDocument(t *testing.T) {
	cfg, err := RuleConfigFromJSON(nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(cfg) != 0 {
		t.Fatalf("expected an empty config, got %v", cfg)
	}
}

func TestRuleConfigFromJSONRejectsNestedValues(t *testing.T) {
	if _, err := RuleConfigFromJSON([]byte(`{"bounds": {"min": 1}}`)); err == nil {
		t.Fatalf("expected nested objects rejected")
	}
}

func TestRuleDefinitionActiveDefaultsTrue(t *testing.T) {
	if !(RuleDefinition{}).Active() {
		t.Fatalf("expected a definition without is_active to count as active")
	}
	inactive := false
	if (RuleDefinition{IsActive: &inactive}).Active() {
		t.Fatalf("expected is_active false honored")
	}
}

func TestParseMeasurementAcceptsDecimalComma(t *testing.T) {
	value, err := ParseMeasurement("1234,5678901234567")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if value.String() != "1234.5678901234567" {
		t.Fatalf("unexpected value: %s", value.String())
	}

	if _, err := ParseMeasurement("n/a"); err == nil {
		t.Fatalf("expected a non-numeric value rejected")
	}
}
