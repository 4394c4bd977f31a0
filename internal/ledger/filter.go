package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// ErrInvalidQuery marks a caller contract violation detected before any
// computation runs.
var ErrInvalidQuery = errors.New("invalid query")

// Query selects a subset of records. Zero-valued fields impose no constraint;
// all set predicates are ANDed.
type Query struct {
	Start core.Date // inclusive
	End   core.Date // inclusive

	AccountID           string
	Category            string
	DescriptionContains string // case-insensitive substring

	// Bounds on the signed amount, not its magnitude. Callers wanting
	// "spend over X" pass negative bounds.
	AmountMin *core.Money
	AmountMax *core.Money
}

// Validate rejects queries that indicate a programming error in the caller.
func (q Query) Validate() error {
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		return fmt.Errorf("%w: start date after end date", ErrInvalidQuery)
	}
	if q.AmountMin != nil && q.AmountMax != nil && q.AmountMin.Cents > q.AmountMax.Cents {
		return fmt.Errorf("%w: amount min above amount max", ErrInvalidQuery)
	}
	return nil
}

// Filter returns the records matching q, preserving input order. It is pure
// and idempotent: filtering an already-filtered set with the same query is a
// no-op. Records with an invalid date never match a date-bounded query.
func Filter(records []Record, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(q.DescriptionContains)
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if !matches(rec, q, needle) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func matches(rec Record, q Query, needle string) bool {
	dateBounded := !q.Start.IsZero() || !q.End.IsZero()
	if dateBounded {
		if !rec.DateValid {
			return false
		}
		if !q.Start.IsZero() && rec.Date.Before(q.Start) {
			return false
		}
		if !q.End.IsZero() && rec.Date.After(q.End) {
			return false
		}
	}
	if q.AccountID != "" && rec.AccountID != q.AccountID {
		return false
	}
	if q.Category != "" && rec.Category != q.Category {
		return false
	}
	if needle != "" {
		if rec.Description == "" {
			return false
		}
		if !strings.Contains(strings.ToLower(rec.Description), needle) {
			return false
		}
	}
	if q.AmountMin != nil || q.AmountMax != nil {
		if !rec.AmountValid {
			return false
		}
		if q.AmountMin != nil && rec.Amount.Cents < q.AmountMin.Cents {
			return false
		}
		if q.AmountMax != nil && rec.Amount.Cents > q.AmountMax.Cents {
			return false
		}
	}
	return true
}
