package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SignRules is the keyword policy behind the sign-anomaly heuristic: a
// positive amount whose description contains a spend word, or a negative
// amount containing an income word, is flagged as a soft warning. The word
// lists are configuration, not code, so the policy is testable and tunable
// independently of the matching logic.
type SignRules struct {
	SpendWords  []string `yaml:"spend_words"`
	IncomeWords []string `yaml:"income_words"`
}

// DefaultSignRules is a starter policy; deployments load their own from YAML.
func DefaultSignRules() SignRules {
	return SignRules{
		SpendWords:  []string{"purchase", "payment to", "pos debit", "withdrawal", "fee"},
		IncomeWords: []string{"payroll", "salary", "direct deposit", "interest paid"},
	}
}

// LoadSignRules reads a SignRules YAML document from path.
func LoadSignRules(path string) (SignRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SignRules{}, fmt.Errorf("read sign rules: %w", err)
	}
	var rules SignRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return SignRules{}, fmt.Errorf("parse sign rules: %w", err)
	}
	return rules, nil
}

// signConflict reports whether the record's sign contradicts its
// description, with a human-readable detail. Matching is case-insensitive
// substring over the raw description.
func (r SignRules) signConflict(rec Record) (string, bool) {
	desc := strings.ToLower(rec.Description)
	if desc == "" {
		return "", false
	}
	if rec.Amount.IsPositive() {
		for _, w := range r.SpendWords {
			if w != "" && strings.Contains(desc, strings.ToLower(w)) {
				return "positive amount but description suggests spend (" + w + ")", true
			}
		}
	}
	if rec.Amount.IsNegative() {
		for _, w := range r.IncomeWords {
			if w != "" && strings.Contains(desc, strings.ToLower(w)) {
				return "negative amount but description suggests income (" + w + ")", true
			}
		}
	}
	return "", false
}
