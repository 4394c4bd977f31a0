package ledger

import (
	"fmt"
	"sort"
)

// Match pairs an outflow in one account with a matching-amount inflow in
// another, modeling bill-payment reconciliation ("this transfer out of
// checking is that payment on the card").
type Match struct {
	Outflow  Record
	Inflow   Record
	DayDelta int // inflow date minus outflow date, in days
}

// Correlate matches each outflow against inflows of identical absolute
// amount whose date lies within toleranceDays (inclusive) of the outflow's
// date. When several inflows qualify, the smallest |dayDelta| wins, with
// remaining ties broken by the earliest inflow date. Matching is greedy and
// one-to-one: an inflow is consumed by at most one outflow. Unmatched
// records are simply absent from the result.
//
// A negative tolerance is a caller bug and is rejected before any work.
func Correlate(outflows, inflows []Record, toleranceDays int) ([]Match, error) {
	if toleranceDays < 0 {
		return nil, fmt.Errorf("%w: negative tolerance days", ErrInvalidQuery)
	}

	// Candidate inflows indexed by absolute amount. Only records with a
	// resolvable date and amount can participate.
	byAmount := make(map[int64][]int)
	for i, in := range inflows {
		if !in.DateValid || !in.AmountValid || !in.Amount.IsPositive() {
			continue
		}
		byAmount[in.Amount.Cents] = append(byAmount[in.Amount.Cents], i)
	}

	// Outflows are walked in canonical date-then-id order so the greedy
	// assignment is deterministic regardless of input order.
	candidates := make([]Record, 0, len(outflows))
	for _, out := range outflows {
		if !out.DateValid || !out.AmountValid || !out.Amount.IsNegative() {
			continue
		}
		candidates = append(candidates, out)
	}
	sortCanonical(candidates)

	consumed := make(map[int]bool)
	matches := make([]Match, 0)
	for _, out := range candidates {
		abs := -out.Amount.Cents
		best := -1
		bestDelta := 0
		for _, idx := range byAmount[abs] {
			if consumed[idx] {
				continue
			}
			in := inflows[idx]
			delta := out.Date.DaysUntil(in.Date)
			absDelta := delta
			if absDelta < 0 {
				absDelta = -absDelta
			}
			if absDelta > toleranceDays {
				continue
			}
			if best == -1 || better(delta, inflows[idx], bestDelta, inflows[best]) {
				best = idx
				bestDelta = delta
			}
		}
		if best >= 0 {
			consumed[best] = true
			matches = append(matches, Match{Outflow: out, Inflow: inflows[best], DayDelta: bestDelta})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].Outflow.Date.Equal(matches[j].Outflow.Date) {
			return matches[i].Outflow.Date.Before(matches[j].Outflow.Date)
		}
		return matches[i].Outflow.ID < matches[j].Outflow.ID
	})
	return matches, nil
}

// better reports whether candidate (delta, in) beats the current best:
// smaller |dayDelta| first, then earlier inflow date.
func better(delta int, in Record, bestDelta int, bestIn Record) bool {
	absA, absB := delta, bestDelta
	if absA < 0 {
		absA = -absA
	}
	if absB < 0 {
		absB = -absB
	}
	if absA != absB {
		return absA < absB
	}
	return in.Date.Before(bestIn.Date)
}
