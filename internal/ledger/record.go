// Package ledger is the analytics engine: pure functions that filter,
// aggregate, and inspect an in-memory set of transaction records.
//
// Every function takes its full input as an argument and returns a new
// result. There is no shared state, so callers may run independent
// computations concurrently. Re-computation is always from scratch; the
// working sets this engine is built for are in the low thousands of records,
// and an index-backed design would be needed well before that assumption
// breaks.
package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// RawRecord is a transaction as delivered by an upstream feed, before types
// are settled. Amount may arrive as a float, an integer, or a decimal string;
// Date as an ISO-8601 date string, an ISO-8601 datetime string, or a
// time.Time. This is the only place in the engine where loose typing is
// tolerated.
type RawRecord struct {
	ID          string
	Date        any
	Description string
	Category    string
	AccountID   string
	Amount      any
}

// Record is a normalized transaction. A field that could not be coerced is
// flagged invalid rather than dropped: the record stays visible to
// diagnostics but is excluded from every computation that depends on the
// invalid field.
type Record struct {
	ID          string     `json:"id"`
	Date        core.Date  `json:"date"`
	DateValid   bool       `json:"date_valid"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	AccountID   string     `json:"account_id"`
	Amount      core.Money `json:"amount"`
	AmountValid bool       `json:"amount_valid"`
}

// Normalize coerces a raw record into canonical form. It never fails: a
// malformed amount or date marks the corresponding field invalid so one bad
// row cannot abort a batch.
func Normalize(raw RawRecord) Record {
	rec := Record{
		ID:          raw.ID,
		Description: raw.Description,
		Category:    raw.Category,
		AccountID:   raw.AccountID,
	}
	rec.Amount, rec.AmountValid = coerceAmount(raw.Amount)
	rec.Date, rec.DateValid = coerceDate(raw.Date)
	return rec
}

// NormalizeAll normalizes a batch, preserving order.
func NormalizeAll(raws []RawRecord) []Record {
	records := make([]Record, len(raws))
	for i, raw := range raws {
		records[i] = Normalize(raw)
	}
	return records
}

// FromTransaction converts a stored transaction into an engine record.
// Stored transactions already carry canonical types, so both fields are valid.
func FromTransaction(t core.Transaction) Record {
	return Record{
		ID:          t.ID,
		Date:        t.TransactionDate,
		DateValid:   !t.TransactionDate.IsZero(),
		Description: t.Description,
		Category:    t.Category,
		AccountID:   t.AccountID,
		Amount:      t.Amount,
		AmountValid: true,
	}
}

// FromTransactions converts a stored working set, preserving order.
func FromTransactions(txs []core.Transaction) []Record {
	records := make([]Record, len(txs))
	for i, t := range txs {
		records[i] = FromTransaction(t)
	}
	return records
}

func coerceAmount(v any) (core.Money, bool) {
	switch a := v.(type) {
	case float64:
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return core.Money{}, false
		}
		return core.Money{Cents: core.CentsFromFloat(a)}, true
	case float32:
		return coerceAmount(float64(a))
	case int:
		return core.Money{Cents: int64(a) * 100}, true
	case int64:
		return core.Money{Cents: a * 100}, true
	case core.Money:
		return a, true
	case string:
		cents, err := core.ParseSignedCents(a)
		if err != nil {
			return core.Money{}, false
		}
		return core.Money{Cents: cents}, true
	default:
		return core.Money{}, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func coerceDate(v any) (core.Date, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return core.Date{}, false
		}
		return core.DateOf(d), true
	case core.Date:
		if d.IsZero() {
			return core.Date{}, false
		}
		return d, true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return core.Date{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return core.DateOf(t), true
			}
		}
		return core.Date{}, false
	default:
		return core.Date{}, false
	}
}
