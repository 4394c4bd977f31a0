package ledger

import (
	"sort"
	"strings"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// IDGroup is a set of records sharing the same id. Any group here is a hard
// data-integrity issue: a correct feed never produces duplicate ids.
type IDGroup struct {
	ID      string   `json:"id"`
	Records []Record `json:"records"`
}

// DuplicateGroup is a set of records sharing the composite near-duplicate
// signature (date, normalized description, amount, account). Legitimate
// recurring identical charges produce the same signature, so these are
// potential duplicates, not errors.
type DuplicateGroup struct {
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	AccountID   string     `json:"account_id"`
	Records     []Record   `json:"records"`

	// ExcessImpact treats all but one occurrence as the presumed duplicate
	// amount: abs(amount) * (len(Records) - 1).
	ExcessImpact core.Money `json:"excess_impact"`
}

// RecordIssue points at a single record with a data-quality problem.
type RecordIssue struct {
	Record Record `json:"record"`
	Detail string `json:"detail"`
}

// QualityReport is the per-period diagnostics bundle. Everything here is
// reported, never auto-corrected.
type QualityReport struct {
	InvalidAmounts      []RecordIssue `json:"invalid_amounts,omitempty"`
	InvalidDates        []RecordIssue `json:"invalid_dates,omitempty"`
	MissingDescriptions []RecordIssue `json:"missing_descriptions,omitempty"`
	ZeroAmounts         []RecordIssue `json:"zero_amounts,omitempty"`
	OutOfPeriod         []RecordIssue `json:"out_of_period,omitempty"`
	SignAnomalies       []RecordIssue `json:"sign_anomalies,omitempty"`
}

// DetectDuplicateIDs groups records by id and reports every id that occurs
// more than once. Output is deterministic regardless of input order: groups
// sort by id, members by canonical record order.
func DetectDuplicateIDs(records []Record) []IDGroup {
	byID := make(map[string][]Record)
	for _, rec := range records {
		byID[rec.ID] = append(byID[rec.ID], rec)
	}

	groups := make([]IDGroup, 0)
	for id, members := range byID {
		if len(members) < 2 {
			continue
		}
		sortCanonical(members)
		groups = append(groups, IDGroup{ID: id, Records: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

// DetectNearDuplicates groups records by (calendar date, normalized
// description, amount, account) and reports every signature occurring more
// than once. Records missing a valid date or amount cannot form a reliable
// signature and are skipped. Groups sort canonically so shuffled input
// yields identical output.
func DetectNearDuplicates(records []Record) []DuplicateGroup {
	type sig struct {
		date    string
		desc    string
		cents   int64
		account string
	}
	bySig := make(map[sig][]Record)
	for _, rec := range records {
		if !rec.DateValid || !rec.AmountValid {
			continue
		}
		k := sig{
			date:    rec.Date.ISO(),
			desc:    normalizeDescription(rec.Description),
			cents:   rec.Amount.Cents,
			account: rec.AccountID,
		}
		bySig[k] = append(bySig[k], rec)
	}

	groups := make([]DuplicateGroup, 0)
	for k, members := range bySig {
		if len(members) < 2 {
			continue
		}
		sortCanonical(members)
		abs := k.cents
		if abs < 0 {
			abs = -abs
		}
		groups = append(groups, DuplicateGroup{
			Date:         members[0].Date,
			Description:  k.desc,
			Amount:       core.Money{Cents: k.cents},
			AccountID:    k.account,
			Records:      members,
			ExcessImpact: core.Money{Cents: abs * int64(len(members)-1)},
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessCanonicalKey(
			groups[i].Date, groups[i].Description, groups[i].Amount.Cents, groups[i].AccountID,
			groups[j].Date, groups[j].Description, groups[j].Amount.Cents, groups[j].AccountID,
		)
	})
	return groups
}

// Diagnose runs the per-period data-quality checks over the full record set.
// The period bounds flag cross-period contamination; rules drive the
// sign-vs-keyword heuristic and may be zero-valued to disable it.
func Diagnose(records []Record, period Period, rules SignRules) (QualityReport, error) {
	if err := period.Validate(); err != nil {
		return QualityReport{}, err
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sortCanonical(sorted)

	var report QualityReport
	for _, rec := range sorted {
		if !rec.AmountValid {
			report.InvalidAmounts = append(report.InvalidAmounts, RecordIssue{
				Record: rec, Detail: "amount could not be parsed",
			})
		} else if rec.Amount.IsZero() {
			report.ZeroAmounts = append(report.ZeroAmounts, RecordIssue{
				Record: rec, Detail: "zero amount excluded from sign partition",
			})
		}
		if !rec.DateValid {
			report.InvalidDates = append(report.InvalidDates, RecordIssue{
				Record: rec, Detail: "date could not be resolved",
			})
		} else if rec.Date.Before(period.Start) || rec.Date.After(period.End) {
			report.OutOfPeriod = append(report.OutOfPeriod, RecordIssue{
				Record: rec, Detail: "date outside nominal period " + period.Start.ISO() + ".." + period.End.ISO(),
			})
		}
		if strings.TrimSpace(rec.Description) == "" {
			report.MissingDescriptions = append(report.MissingDescriptions, RecordIssue{
				Record: rec, Detail: "missing description",
			})
		}
		if rec.AmountValid && !rec.Amount.IsZero() {
			if detail, ok := rules.signConflict(rec); ok {
				report.SignAnomalies = append(report.SignAnomalies, RecordIssue{
					Record: rec, Detail: detail,
				})
			}
		}
	}
	return report, nil
}

func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// sortCanonical orders records by date ascending, then description, amount,
// account, and finally id, so reports are stable under input shuffling.
func sortCanonical(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			// Invalid dates (zero) sort first.
			return a.Date.Before(b.Date)
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents < b.Amount.Cents
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		return a.ID < b.ID
	})
}

func lessCanonicalKey(
	d1 core.Date, desc1 string, cents1 int64, acct1 string,
	d2 core.Date, desc2 string, cents2 int64, acct2 string,
) bool {
	if !d1.Equal(d2) {
		return d1.Before(d2)
	}
	if desc1 != desc2 {
		return desc1 < desc2
	}
	if cents1 != cents2 {
		return cents1 < cents2
	}
	return acct1 < acct2
}
