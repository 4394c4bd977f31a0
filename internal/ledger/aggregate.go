package ledger

import (
	"fmt"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// AccountRoles classifies accounts for aggregation. The engine never
// hardcodes account identifiers; which accounts count as the primary
// outflow source or as true income sources is caller configuration.
//
// A nil predicate classifies nothing.
type AccountRoles struct {
	// PrimaryOutflow marks the account(s) whose spend is reported separately
	// from everything else. Conflating primary and other outflows
	// double-counts bill payments that move money between tracked accounts.
	PrimaryOutflow func(accountID string) bool

	// Income marks accounts whose positive amounts are true income deposits,
	// as opposed to refunds or transfers.
	Income func(accountID string) bool
}

func (r AccountRoles) isPrimary(accountID string) bool {
	return r.PrimaryOutflow != nil && r.PrimaryOutflow(accountID)
}

func (r AccountRoles) isIncome(accountID string) bool {
	return r.Income != nil && r.Income(accountID)
}

// Period is the time window a summary is computed over. AsOf caps the
// elapsed-days denominator for rate metrics; a zero AsOf means the period
// end.
type Period struct {
	Start core.Date
	End   core.Date
	AsOf  core.Date
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: period requires both start and end", ErrInvalidQuery)
	}
	if p.Start.After(p.End) {
		return fmt.Errorf("%w: period start after end", ErrInvalidQuery)
	}
	return nil
}

// daysElapsed is the inclusive day count from the period start through the
// as-of date, never below 1 so rate metrics cannot divide by zero.
func (p Period) daysElapsed() int {
	asOf := p.AsOf
	if asOf.IsZero() || asOf.After(p.End) {
		asOf = p.End
	}
	days := p.Start.DaysUntil(asOf) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// PeriodSummary is the metric bundle for one period. All monetary fields are
// exact cents; the float fields are derived rates, rounded only at
// presentation time.
type PeriodSummary struct {
	TransactionCount int `json:"transaction_count"`

	// Outflow totals are reported as magnitudes, split by account role.
	// TotalOutflow is the explicit combined figure for callers that ask
	// for it; the split fields are never silently merged.
	PrimaryOutflow core.Money `json:"primary_outflow"`
	OtherOutflow   core.Money `json:"other_outflow"`
	TotalOutflow   core.Money `json:"total_outflow"`

	// Income sums positive amounts on income accounts only.
	Income core.Money `json:"income"`

	// OtherInflow sums positive amounts on every other account (refunds,
	// transfers, card credits).
	OtherInflow core.Money `json:"other_inflow"`

	// Net = all inflows - all outflows, signed.
	Net core.Money `json:"net"`

	DailyAverageOutflow float64 `json:"daily_average_outflow"`
	ProjectedAnnual     float64 `json:"projected_annual"`

	// Sign partition diagnostics. NegativeCount + PositiveCount + ZeroCount
	// + InvalidAmountCount always equals TransactionCount.
	NegativeCount      int `json:"negative_count"`
	PositiveCount      int `json:"positive_count"`
	ZeroCount          int `json:"zero_count"`
	InvalidAmountCount int `json:"invalid_amount_count"`
}

// Summarize computes the period metric bundle over an already-filtered
// record set. An empty input produces all-zero metrics, not an error.
func Summarize(records []Record, period Period, roles AccountRoles) (PeriodSummary, error) {
	if err := period.Validate(); err != nil {
		return PeriodSummary{}, err
	}

	var s PeriodSummary
	s.TransactionCount = len(records)

	var net int64
	for _, rec := range records {
		if !rec.AmountValid {
			s.InvalidAmountCount++
			continue
		}
		cents := rec.Amount.Cents
		switch {
		case cents < 0:
			s.NegativeCount++
			if roles.isPrimary(rec.AccountID) {
				s.PrimaryOutflow.Cents += -cents
			} else {
				s.OtherOutflow.Cents += -cents
			}
		case cents > 0:
			s.PositiveCount++
			if roles.isIncome(rec.AccountID) {
				s.Income.Cents += cents
			} else {
				s.OtherInflow.Cents += cents
			}
		default:
			s.ZeroCount++
		}
		net += cents
	}

	s.TotalOutflow.Cents = s.PrimaryOutflow.Cents + s.OtherOutflow.Cents
	s.Net.Cents = net

	days := period.daysElapsed()
	s.DailyAverageOutflow = float64(s.TotalOutflow.Cents) / 100.0 / float64(days)
	s.ProjectedAnnual = s.DailyAverageOutflow * 365

	return s, nil
}

// MonthOverMonthChange returns the percentage change from previous to
// current. A zero previous baseline yields 0 rather than an infinity or NaN:
// callers must see a neutral value when there is nothing to compare against.
func MonthOverMonthChange(current, previous core.Money) float64 {
	if previous.Cents == 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}
