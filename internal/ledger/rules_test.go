package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSignRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := "spend_words:\n  - purchase\n  - atm withdrawal\nincome_words:\n  - payroll\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadSignRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules.SpendWords) != 2 || rules.SpendWords[1] != "atm withdrawal" {
		t.Fatalf("SpendWords = %v", rules.SpendWords)
	}
	if len(rules.IncomeWords) != 1 || rules.IncomeWords[0] != "payroll" {
		t.Fatalf("IncomeWords = %v", rules.IncomeWords)
	}
}

func TestLoadSignRulesMissingFile(t *testing.T) {
	if _, err := LoadSignRules(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadSignRulesBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("spend_words: {broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSignRules(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSignConflictMatchingIsCaseInsensitive(t *testing.T) {
	rules := SignRules{SpendWords: []string{"Purchase"}}
	if _, ok := rules.signConflict(rec("1", "2024-01-01", "ONLINE PURCHASE REFUND", "", "cc", 500)); !ok {
		t.Fatalf("expected conflict for positive purchase")
	}
	if _, ok := rules.signConflict(rec("2", "2024-01-01", "online purchase", "", "cc", -500)); ok {
		t.Fatalf("negative purchase is consistent, no conflict expected")
	}
}

func TestEmptyRulesNeverFlag(t *testing.T) {
	var rules SignRules
	if _, ok := rules.signConflict(rec("1", "2024-01-01", "anything", "", "cc", 500)); ok {
		t.Fatalf("zero-valued rules must disable the heuristic")
	}
}
