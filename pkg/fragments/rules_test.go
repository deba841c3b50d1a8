package fragments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestRulesFromFile_YAML(t *testing.T) {
	path := writeRules(t, "rules.yaml", `
rules:
  - name: strip-marker
    pattern: '\(нужна цитата\)'
  - name: strip-footer
    pattern: '^--.*$'
    per_line: true
`)

	rs, err := RulesFromFile(path)
	if err != nil {
		t.Fatalf("RulesFromFile() error = %v", err)
	}
	if len(rs.Rules) != 2 {
		t.Fatalf("loaded %d rules, want 2", len(rs.Rules))
	}

	cleaners, err := rs.Cleaners()
	if err != nil {
		t.Fatalf("Cleaners() error = %v", err)
	}

	got, err := NewChain(cleaners...).Clean("факт (нужна цитата) текст\n--подвал\nконец")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "нужна цитата") || strings.Contains(got, "подвал") {
		t.Errorf("rules did not apply: %q", got)
	}
	if !strings.Contains(got, "факт") || !strings.Contains(got, "конец") {
		t.Errorf("rules removed too much: %q", got)
	}
}

func TestRulesFromFile_JSON(t *testing.T) {
	path := writeRules(t, "rules.json",
		`{"rules": [{"name": "x", "pattern": "foo"}]}`)

	rs, err := RulesFromFile(path)
	if err != nil {
		t.Fatalf("RulesFromFile() error = %v", err)
	}
	if rs.Rules[0].Name != "x" || rs.Rules[0].Pattern != "foo" {
		t.Errorf("unexpected rule: %+v", rs.Rules[0])
	}
}

func TestRulesFromFile_MaxSpanSubstitution(t *testing.T) {
	path := writeRules(t, "rules.yaml", `
rules:
  - name: bounded
    pattern: 'прим\.[^\n]{max}'
    max_span: 20
`)

	rs, err := RulesFromFile(path)
	if err != nil {
		t.Fatalf("RulesFromFile() error = %v", err)
	}
	cleaners, err := rs.Cleaners()
	if err != nil {
		t.Fatalf("Cleaners() error = %v", err)
	}

	got, err := cleaners[0].Clean("текст прим. короткое\nдалее")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Contains(got, "прим.") {
		t.Errorf("bounded rule did not apply: %q", got)
	}
	if !strings.Contains(got, "далее") {
		t.Errorf("bounded rule crossed a newline: %q", got)
	}
}

func TestRulesFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing_pattern", "rules.yaml", "rules:\n  - name: x\n"},
		{"missing_name", "rules.yaml", "rules:\n  - pattern: foo\n"},
		{"empty_rules", "rules.yaml", "rules: []\n"},
		{"span_too_large", "rules.yaml", "rules:\n  - name: x\n    pattern: a{max}\n    max_span: 501\n"},
		{"bad_json", "rules.json", `{"rules": [`},
		{"unknown_extension", "rules.txt", "rules:\n  - name: x\n    pattern: foo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, tt.file, tt.content)
			if _, err := RulesFromFile(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRulesFromFile_NotFound(t *testing.T) {
	if _, err := RulesFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRuleSet_CleanersBadRegex(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{{Name: "broken", Pattern: "("}}}
	if _, err := rs.Cleaners(); err == nil {
		t.Error("expected compile error, got nil")
	}
}

func TestRuleCleaner_Name(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{{Name: "strip", Pattern: "x"}}}
	cleaners, err := rs.Cleaners()
	if err != nil {
		t.Fatalf("Cleaners() error = %v", err)
	}
	if got := cleaners[0].Name(); got != "rule:strip" {
		t.Errorf("Name() = %q, want %q", got, "rule:strip")
	}
}
