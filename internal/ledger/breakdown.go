package ledger

import (
	"math"
	"sort"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// Uncategorized is the breakdown label for records with no category.
const Uncategorized = "Uncategorized"

// BreakdownRow is one group in a grouped outflow summary.
type BreakdownRow struct {
	Label   string     `json:"label"`
	Amount  core.Money `json:"amount"`  // absolute outflow for the group
	Percent float64    `json:"percent"` // share of the grand total, one decimal place
	Count   int        `json:"count"`
}

// BreakdownByCategory groups outflows by category. Records with no category
// fall under Uncategorized.
func BreakdownByCategory(records []Record) []BreakdownRow {
	return breakdown(records, false, func(rec Record) string {
		if rec.Category == "" {
			return Uncategorized
		}
		return rec.Category
	})
}

// BreakdownByAccount groups outflows by account id.
func BreakdownByAccount(records []Record) []BreakdownRow {
	return breakdown(records, false, func(rec Record) string { return rec.AccountID })
}

// BreakdownByMonth groups outflows by calendar month, labelled YYYY-MM.
// Records with an invalid date are excluded.
func BreakdownByMonth(records []Record) []BreakdownRow {
	return breakdown(records, true, func(rec Record) string {
		return rec.Date.Format("2006-01")
	})
}

// breakdown sums absolute outflow per group over records with a valid
// negative amount, sorts descending by total with ties broken by first-seen
// order, and fills each group's share of the grand total. Groups that end up
// with no members are simply absent, never zero rows.
func breakdown(records []Record, needsDate bool, keyOf func(Record) string) []BreakdownRow {
	groups := make(map[string]*BreakdownRow)
	order := make([]string, 0)

	var grand int64
	for _, rec := range records {
		if !rec.AmountValid || !rec.Amount.IsNegative() {
			continue
		}
		if needsDate && !rec.DateValid {
			continue
		}
		key := keyOf(rec)
		g, ok := groups[key]
		if !ok {
			g = &BreakdownRow{Label: key}
			groups[key] = g
			order = append(order, key)
		}
		abs := -rec.Amount.Cents
		g.Amount.Cents += abs
		g.Count++
		grand += abs
	}

	rows := make([]BreakdownRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *groups[key])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.Cents > rows[j].Amount.Cents
	})

	if grand > 0 {
		for i := range rows {
			pct := float64(rows[i].Amount.Cents) / float64(grand) * 100
			rows[i].Percent = math.Round(pct*10) / 10
		}
	}
	return rows
}

// DailyPoint is one day of the outflow series.
type DailyPoint struct {
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"` // absolute outflow for the day
}

// DailyOutflowSeries sums absolute outflow per calendar day, ascending by
// date. Records with an invalid date or amount are excluded; days with no
// outflow are absent.
func DailyOutflowSeries(records []Record) []DailyPoint {
	totals := make(map[string]*DailyPoint)
	for _, rec := range records {
		if !rec.DateValid || !rec.AmountValid || !rec.Amount.IsNegative() {
			continue
		}
		key := rec.Date.ISO()
		p, ok := totals[key]
		if !ok {
			p = &DailyPoint{Date: rec.Date}
			totals[key] = p
		}
		p.Amount.Cents += -rec.Amount.Cents
	}

	series := make([]DailyPoint, 0, len(totals))
	for _, p := range totals {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}
