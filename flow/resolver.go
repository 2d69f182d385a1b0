/*
resolver.go - Primary-item resolution for one customer in one period

PURPOSE:
  Decides which single grouping value (brand, product, category, or custom
  label) represents a customer's dominant affiliation in a period, using a
  share-of-spend threshold with deterministic tie-breaks.

ALGORITHM:
  1. Sum sales per grouping value; share = value sales / total sales.
  2. Rank candidates: meets-threshold first, then share, then raw sales,
     then most recent transaction, then value (the last key closes the
     nondeterminism a plain row-number ranking would leave).
  3. If the winner's share >= threshold, the customer is Concrete(winner);
     otherwise Mixed. No lines at all means Absent.

PROPERTIES:
  - A single-transaction customer always has share 1.0 and is never Mixed.
  - Raising the threshold can only move customers from Concrete toward
    Mixed, never the reverse.
  - Pure function: no I/O, no error returns.

SEE ALSO:
  - classifier.go: Consumes the resulting profiles
  - engine.go: Groups sale rows into per-customer per-period lines
*/
package flow

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the share of spend a single value must reach for a
// customer to be attributed to it.
var DefaultThreshold = decimal.NewFromFloat(0.60)

// Resolver computes a customer's primary item for one period.
type Resolver struct {
	// Threshold is the primary-share cutoff in [0, 1].
	Threshold decimal.Decimal
}

// NewResolver returns a resolver with the given threshold.
func NewResolver(threshold decimal.Decimal) Resolver {
	return Resolver{Threshold: threshold}
}

// candidate is one grouping value's aggregate for the customer.
type candidate struct {
	value  string
	sales  decimal.Decimal
	share  decimal.Decimal
	lastTx TimePoint
}

// Resolve computes the profile for one customer in one period. The caller
// guarantees lines are scoped to a single customer and a single period.
// Zero lines yield an Absent profile.
func (r Resolver) Resolve(lines []SaleLine) Profile {
	if len(lines) == 0 {
		return AbsentProfile()
	}

	byValue := make(map[string]*candidate)
	total := decimal.Zero
	for _, line := range lines {
		c, ok := byValue[line.Value]
		if !ok {
			c = &candidate{value: line.Value, sales: decimal.Zero}
			byValue[line.Value] = c
		}
		c.sales = c.sales.Add(line.Amount)
		if c.lastTx.IsZero() || line.Date.After(c.lastTx) {
			c.lastTx = line.Date
		}
		total = total.Add(line.Amount)
	}

	candidates := make([]*candidate, 0, len(byValue))
	for _, c := range byValue {
		if total.IsPositive() {
			c.share = c.sales.Div(total)
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		am, bm := a.share.GreaterThanOrEqual(r.Threshold), b.share.GreaterThanOrEqual(r.Threshold)
		if am != bm {
			return am
		}
		if !a.share.Equal(b.share) {
			return a.share.GreaterThan(b.share)
		}
		if !a.sales.Equal(b.sales) {
			return a.sales.GreaterThan(b.sales)
		}
		if !a.lastTx.Equal(b.lastTx) {
			return a.lastTx.After(b.lastTx)
		}
		return a.value < b.value
	})

	winner := candidates[0]
	primary := Mixed
	if winner.share.GreaterThanOrEqual(r.Threshold) {
		primary = NewItem(winner.value)
	}

	return Profile{
		Primary:    primary,
		Share:      winner.share,
		TotalSales: total,
		LastTx:     winner.lastTx,
	}
}
