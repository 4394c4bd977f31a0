package ledger

import (
	"math"
	"testing"
)

func TestBreakdownByCategorySortsAndOmitsZeroGroups(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-02", "dinner", "Dining", "cc", -4000),
		rec("2", "2024-01-03", "groceries", "Groceries", "cc", -10000),
		rec("3", "2024-01-04", "lunch", "Dining", "cc", -2000),
		rec("4", "2024-01-05", "payroll", "Income", "chk", 500000), // inflow, excluded
		rec("5", "2024-01-06", "mystery", "", "cc", -4000),
	}
	rows := BreakdownByCategory(records)
	if len(rows) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(rows), rows)
	}
	if rows[0].Label != "Groceries" || rows[0].Amount.Cents != 10000 {
		t.Fatalf("top group = %+v", rows[0])
	}
	// Dining (6000) and Uncategorized (4000): ties impossible here, but the
	// 4000-cent tie between Dining-row-1 alone and Uncategorized does not
	// arise; check order of remaining rows.
	if rows[1].Label != "Dining" || rows[1].Count != 2 {
		t.Fatalf("second group = %+v", rows[1])
	}
	if rows[2].Label != Uncategorized {
		t.Fatalf("third group = %+v", rows[2])
	}
	// Income never appears: no zero-outflow rows.
	for _, r := range rows {
		if r.Label == "Income" {
			t.Fatalf("inflow-only group must be omitted")
		}
	}
}

func TestBreakdownTieBrokenByFirstSeen(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-02", "a", "Beta", "cc", -5000),
		rec("2", "2024-01-03", "b", "Alpha", "cc", -5000),
	}
	rows := BreakdownByCategory(records)
	if rows[0].Label != "Beta" || rows[1].Label != "Alpha" {
		t.Fatalf("tie should keep first-seen order, got %+v", rows)
	}
}

func TestBreakdownPercentages(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-02", "a", "A", "cc", -7500),
		rec("2", "2024-01-03", "b", "B", "cc", -2500),
	}
	rows := BreakdownByCategory(records)
	if rows[0].Percent != 75.0 || rows[1].Percent != 25.0 {
		t.Fatalf("percents = %v, %v", rows[0].Percent, rows[1].Percent)
	}
}

func TestBreakdownSumConservation(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-02", "a", "A", "cc", -3333),
		rec("2", "2024-01-03", "b", "B", "cc", -6667),
		rec("3", "2024-01-04", "c", "C", "cc", -101),
		rec("4", "2024-01-05", "d", "A", "cc", -29),
	}
	rows := BreakdownByCategory(records)

	var rowSum, total int64
	for _, r := range rows {
		rowSum += r.Amount.Cents
	}
	for _, r := range records {
		total += -r.Amount.Cents
	}
	if rowSum != total {
		t.Fatalf("breakdown sum %d != total outflow %d", rowSum, total)
	}

	var pctSum float64
	for _, r := range rows {
		pctSum += r.Percent
	}
	// One-decimal rounding may drift by up to 0.05 per category.
	if math.Abs(pctSum-100.0) > 0.05*float64(len(rows)) {
		t.Fatalf("percent sum = %v", pctSum)
	}
}

func TestBreakdownByMonth(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-15", "a", "", "cc", -1000),
		rec("2", "2024-02-10", "b", "", "cc", -3000),
		rec("3", "2024-02-20", "c", "", "cc", -1000),
		Normalize(RawRecord{ID: "4", Date: "garbage", Amount: "-50", AccountID: "cc"}),
	}
	rows := BreakdownByMonth(records)
	if len(rows) != 2 {
		t.Fatalf("expected 2 months, got %+v", rows)
	}
	if rows[0].Label != "2024-02" || rows[0].Amount.Cents != 4000 {
		t.Fatalf("top month = %+v", rows[0])
	}
	if rows[1].Label != "2024-01" {
		t.Fatalf("second month = %+v", rows[1])
	}
}

func TestBreakdownByAccount(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-02", "a", "", "cc", -3000),
		rec("2", "2024-01-03", "b", "", "chk", -1000),
	}
	rows := BreakdownByAccount(records)
	if len(rows) != 2 || rows[0].Label != "cc" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestBreakdownEmptyInput(t *testing.T) {
	if rows := BreakdownByCategory(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestDailyOutflowSeries(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-03", "a", "", "cc", -1000),
		rec("2", "2024-01-01", "b", "", "cc", -2000),
		rec("3", "2024-01-03", "c", "", "cc", -500),
		rec("4", "2024-01-02", "d", "", "chk", 9000), // inflow ignored
	}
	series := DailyOutflowSeries(records)
	if len(series) != 2 {
		t.Fatalf("expected 2 days, got %+v", series)
	}
	if series[0].Date.ISO() != "2024-01-01" || series[0].Amount.Cents != 2000 {
		t.Fatalf("first point = %+v", series[0])
	}
	if series[1].Date.ISO() != "2024-01-03" || series[1].Amount.Cents != 1500 {
		t.Fatalf("second point = %+v", series[1])
	}
}
