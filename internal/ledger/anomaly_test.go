package ledger

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestDetectDuplicateIDs(t *testing.T) {
	records := []Record{
		rec("a", "2024-01-01", "x", "", "cc", -100),
		rec("b", "2024-01-02", "y", "", "cc", -200),
		rec("a", "2024-01-03", "z", "", "chk", -300),
	}
	groups := DetectDuplicateIDs(records)
	if len(groups) != 1 || groups[0].ID != "a" || len(groups[0].Records) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestDetectNearDuplicates(t *testing.T) {
	// Two records with the same composite key form one group
	// of size 2 with excess impact $50.
	records := []Record{
		rec("1", "2024-01-05", "Streaming Service", "", "cc", -5000),
		rec("2", "2024-01-05", "Streaming Service", "", "cc", -5000),
		rec("3", "2024-01-05", "Streaming Service", "", "cc", -4999), // amount differs
		rec("4", "2024-01-06", "Streaming Service", "", "cc", -5000), // date differs
	}
	groups := DetectNearDuplicates(records)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %+v", groups)
	}
	g := groups[0]
	if len(g.Records) != 2 {
		t.Fatalf("group size = %d", len(g.Records))
	}
	if g.ExcessImpact.Cents != 5000 {
		t.Fatalf("ExcessImpact = %d, want 5000", g.ExcessImpact.Cents)
	}
}

func TestNearDuplicateDescriptionNormalization(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-05", "Coffee  Shop", "", "cc", -500),
		rec("2", "2024-01-05", "coffee shop", "", "cc", -500),
	}
	groups := DetectNearDuplicates(records)
	if len(groups) != 1 || len(groups[0].Records) != 2 {
		t.Fatalf("case/whitespace variants should share a signature: %+v", groups)
	}
}

func TestDetectorDeterministicUnderShuffle(t *testing.T) {
	base := []Record{
		rec("1", "2024-01-05", "dup", "", "cc", -5000),
		rec("2", "2024-01-05", "dup", "", "cc", -5000),
		rec("3", "2024-02-01", "other dup", "", "chk", -300),
		rec("4", "2024-02-01", "other dup", "", "chk", -300),
		rec("5", "2024-03-01", "unique", "", "cc", -100),
		rec("1", "2024-04-01", "reused id", "", "cc", -900),
	}
	wantNear := DetectNearDuplicates(base)
	wantIDs := DetectDuplicateIDs(base)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := make([]Record, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := DetectNearDuplicates(shuffled); !reflect.DeepEqual(got, wantNear) {
			t.Fatalf("near-duplicate output changed under shuffle:\n got %+v\nwant %+v", got, wantNear)
		}
		if got := DetectDuplicateIDs(shuffled); !reflect.DeepEqual(got, wantIDs) {
			t.Fatalf("duplicate-id output changed under shuffle")
		}
	}
}

func TestDiagnose(t *testing.T) {
	records := []Record{
		Normalize(RawRecord{ID: "1", Date: "2024-01-05", Amount: "not-a-number", Description: "bad amount", AccountID: "cc"}),
		Normalize(RawRecord{ID: "2", Date: "garbage", Amount: -10.0, Description: "bad date", AccountID: "cc"}),
		rec("3", "2024-01-10", "", "", "cc", -100),
		rec("4", "2023-12-31", "before period", "", "cc", -100),
		rec("5", "2024-01-15", "ok", "", "cc", 0),
		rec("6", "2024-01-20", "POS DEBIT refund?", "", "cc", 500), // positive + spend word
	}
	report, err := Diagnose(records, janPeriod(), DefaultSignRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.InvalidAmounts) != 1 || report.InvalidAmounts[0].Record.ID != "1" {
		t.Fatalf("InvalidAmounts = %+v", report.InvalidAmounts)
	}
	if len(report.InvalidDates) != 1 || report.InvalidDates[0].Record.ID != "2" {
		t.Fatalf("InvalidDates = %+v", report.InvalidDates)
	}
	if len(report.MissingDescriptions) != 1 || report.MissingDescriptions[0].Record.ID != "3" {
		t.Fatalf("MissingDescriptions = %+v", report.MissingDescriptions)
	}
	if len(report.OutOfPeriod) != 1 || report.OutOfPeriod[0].Record.ID != "4" {
		t.Fatalf("OutOfPeriod = %+v", report.OutOfPeriod)
	}
	if len(report.ZeroAmounts) != 1 || report.ZeroAmounts[0].Record.ID != "5" {
		t.Fatalf("ZeroAmounts = %+v", report.ZeroAmounts)
	}
	if len(report.SignAnomalies) != 1 || report.SignAnomalies[0].Record.ID != "6" {
		t.Fatalf("SignAnomalies = %+v", report.SignAnomalies)
	}
}

func TestDiagnoseNegativeWithIncomeWord(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-10", "PAYROLL adjustment", "", "chk", -500),
	}
	report, err := Diagnose(records, janPeriod(), DefaultSignRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.SignAnomalies) != 1 {
		t.Fatalf("expected sign anomaly for negative payroll, got %+v", report.SignAnomalies)
	}
}

func TestDiagnoseEmptyInput(t *testing.T) {
	report, err := Diagnose(nil, janPeriod(), SignRules{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.InvalidAmounts)+len(report.InvalidDates)+len(report.MissingDescriptions)+
		len(report.ZeroAmounts)+len(report.OutOfPeriod)+len(report.SignAnomalies) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestExcessImpactScalesWithGroupSize(t *testing.T) {
	records := []Record{
		rec("1", "2024-01-05", "thrice", "", "cc", -2500),
		rec("2", "2024-01-05", "thrice", "", "cc", -2500),
		rec("3", "2024-01-05", "thrice", "", "cc", -2500),
	}
	groups := DetectNearDuplicates(records)
	if len(groups) != 1 {
		t.Fatalf("groups = %+v", groups)
	}
	if got := groups[0].ExcessImpact; got.Cents != 5000 {
		t.Fatalf("ExcessImpact = %d, want abs(amount)*(n-1) = 5000", got.Cents)
	}
	if got := groups[0].Amount; got.Cents != -2500 {
		t.Fatalf("group amount should keep the signed value, got %d", got.Cents)
	}
}
