package ledger

import (
	"errors"
	"reflect"
	"testing"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

func rec(id, date, desc, cat, acct string, cents int64) Record {
	return Normalize(RawRecord{
		ID: id, Date: date, Description: desc, Category: cat, AccountID: acct,
		Amount: core.Money{Cents: cents},
	})
}

func money(cents int64) *core.Money { return &core.Money{Cents: cents} }

func testRecords() []Record {
	return []Record{
		rec("1", "2024-01-05", "Coffee Shop", "Dining", "cc", -500),
		rec("2", "2024-01-10", "PAYROLL ACME", "Income", "chk", 250000),
		rec("3", "2024-02-01", "Grocery Store", "Groceries", "cc", -5000),
		rec("4", "2024-02-15", "", "Transfers", "chk", -15000),
		rec("5", "garbage-date", "Unknown", "Misc", "cc", -2000),
	}
}

func TestFilterDateBoundsInclusive(t *testing.T) {
	got, err := Filter(testRecords(), Query{
		Start: core.NewDate(2024, 1, 5),
		End:   core.NewDate(2024, 2, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := idsOf(got)
	if !reflect.DeepEqual(ids, []string{"1", "2", "3"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFilterExcludesInvalidDateFromDateBoundedQuery(t *testing.T) {
	got, err := Filter(testRecords(), Query{Start: core.NewDate(2020, 1, 1), End: core.NewDate(2030, 1, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range got {
		if r.ID == "5" {
			t.Fatalf("record with unresolvable date matched a date-bounded query")
		}
	}
	// Without date bounds the same record still matches.
	got, _ = Filter(testRecords(), Query{AccountID: "cc"})
	if !contains(idsOf(got), "5") {
		t.Fatalf("record with invalid date should match undated queries")
	}
}

func TestFilterDescriptionContains(t *testing.T) {
	got, _ := Filter(testRecords(), Query{DescriptionContains: "coffee"})
	if ids := idsOf(got); !reflect.DeepEqual(ids, []string{"1"}) {
		t.Fatalf("ids = %v", ids)
	}
	// Empty description never matches a non-empty query.
	got, _ = Filter(testRecords(), Query{DescriptionContains: "x"})
	for _, r := range got {
		if r.ID == "4" {
			t.Fatalf("empty description matched non-empty query")
		}
	}
}

func TestFilterSignedAmountBounds(t *testing.T) {
	// min=-100, max=-10 over [-5, -50, -150, 20] keeps only -50.
	records := []Record{
		rec("a", "2024-01-01", "a", "", "x", -500),
		rec("b", "2024-01-01", "b", "", "x", -5000),
		rec("c", "2024-01-01", "c", "", "x", -15000),
		rec("d", "2024-01-01", "d", "", "x", 2000),
	}
	got, err := Filter(records, Query{AmountMin: money(-10000), AmountMax: money(-1000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []string{"b"}) {
		t.Fatalf("ids = %v, want [b]", ids)
	}
}

func TestFilterPredicatesAreANDed(t *testing.T) {
	got, _ := Filter(testRecords(), Query{AccountID: "cc", Category: "Dining"})
	if ids := idsOf(got); !reflect.DeepEqual(ids, []string{"1"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFilterIdempotent(t *testing.T) {
	q := Query{
		Start:     core.NewDate(2024, 1, 1),
		End:       core.NewDate(2024, 12, 31),
		AccountID: "cc",
	}
	once, err := Filter(testRecords(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := Filter(once, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter not idempotent: %v vs %v", idsOf(once), idsOf(twice))
	}
}

func TestFilterRejectsInvertedRange(t *testing.T) {
	_, err := Filter(testRecords(), Query{
		Start: core.NewDate(2024, 6, 1),
		End:   core.NewDate(2024, 1, 1),
	})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	_, err = Filter(testRecords(), Query{AmountMin: money(100), AmountMax: money(-100)})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for inverted amounts, got %v", err)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got, err := Filter(nil, Query{AccountID: "cc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result")
	}
}

func idsOf(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
