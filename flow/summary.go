/*
summary.go - Per-entity movement summaries and executive KPIs

PURPOSE:
  Derives the movement summary table (stayed / switch-in / switch-out / gone /
  new, with percentages) and the executive KPI block (winner, loser, churn
  rate, net category movement) from a classified flow table. Recomputed on
  every view change; never mutated in place.

PERCENTAGE BASES:
  Outflow metrics (stayed, switch-out, gone) are percentages of the entity's
  period-1 total. Inflow-share metrics (switch-in, new customer) are
  percentages of total-in. A zero denominator yields zero, never an error.

TIE-BREAKS:
  Winner and loser ties on net movement break alphabetically, so the KPI
  block is deterministic regardless of input order.
*/
package flow

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EntitySummary is the per-entity movement summary row.
type EntitySummary struct {
	Entity       string
	Period1Total int
	Stayed       int
	SwitchOut    int
	Gone         int
	SwitchIn     int
	NewCustomer  int
	Period2Total int
	TotalIn      int
	TotalOut     int
	NetMovement  int

	StayedPct      decimal.Decimal
	SwitchOutPct   decimal.Decimal
	GonePct        decimal.Decimal
	SwitchInPct    decimal.Decimal
	NewCustomerPct decimal.Decimal
}

// Summaries computes one summary per distinct concrete entity in the table,
// sorted alphabetically. Sentinels and the OTHERS bucket are never entities
// themselves, but flows from them still count toward switch-in.
func Summaries(t FlowTable) []EntitySummary {
	seen := make(map[string]bool)
	for _, r := range t {
		if r.From.IsConcrete() {
			seen[r.From.Value] = true
		}
		if r.To.IsConcrete() {
			seen[r.To.Value] = true
		}
	}
	entities := make([]string, 0, len(seen))
	for e := range seen {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	summaries := make([]EntitySummary, 0, len(entities))
	for _, e := range entities {
		summaries = append(summaries, summarize(t, e))
	}
	return summaries
}

func summarize(t FlowTable, entity string) EntitySummary {
	s := EntitySummary{Entity: entity}
	for _, r := range t {
		fromSelf := r.From.Is(entity)
		toSelf := r.To.Is(entity)
		switch {
		case fromSelf && toSelf && r.Type == MoveStayed:
			s.Stayed += r.Customers
		case fromSelf && r.To.Kind == ItemAbsent:
			s.Gone += r.Customers
		case fromSelf && !toSelf && r.Type == MoveSwitched:
			s.SwitchOut += r.Customers
		case r.From.Kind == ItemAbsent && toSelf:
			s.NewCustomer += r.Customers
		case !fromSelf && toSelf && r.Type == MoveSwitched:
			s.SwitchIn += r.Customers
		}
	}

	s.Period1Total = s.Stayed + s.SwitchOut + s.Gone
	s.Period2Total = s.Stayed + s.SwitchIn + s.NewCustomer
	s.TotalIn = s.Stayed + s.SwitchIn + s.NewCustomer
	s.TotalOut = s.SwitchOut + s.Gone
	s.NetMovement = s.TotalIn - s.TotalOut

	s.StayedPct = pct(s.Stayed, s.Period1Total)
	s.SwitchOutPct = pct(s.SwitchOut, s.Period1Total)
	s.GonePct = pct(s.Gone, s.Period1Total)
	s.SwitchInPct = pct(s.SwitchIn, s.TotalIn)
	s.NewCustomerPct = pct(s.NewCustomer, s.TotalIn)
	return s
}

var hundred = decimal.NewFromInt(100)

// pct returns n/d*100 rounded to one decimal, or zero when d is zero.
func pct(n, d int) decimal.Decimal {
	if d == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n)).
		Div(decimal.NewFromInt(int64(d))).
		Mul(hundred).
		Round(1)
}

// =============================================================================
// EXECUTIVE KPIS
// =============================================================================

// NoWinner is the winner name when no entity has positive net movement.
const NoWinner = "None"

// ExecutiveKPIs is the headline block derived from the summary table.
type ExecutiveKPIs struct {
	TotalMovement       int
	WinnerName          string
	WinnerNet           int
	LoserName           string
	LoserNet            int
	ChurnRate           decimal.Decimal
	NetCategoryMovement int
}

// KPIs derives the executive KPI block. Returns nil for an empty summary set.
func KPIs(summaries []EntitySummary) *ExecutiveKPIs {
	if len(summaries) == 0 {
		return nil
	}

	k := &ExecutiveKPIs{WinnerName: NoWinner}
	totalGone, totalSwitchOut, totalNew, totalSwitchIn := 0, 0, 0, 0
	var loser *EntitySummary

	for i := range summaries {
		s := summaries[i]
		k.TotalMovement += s.Period1Total
		totalGone += s.Gone
		totalSwitchOut += s.SwitchOut
		totalNew += s.NewCustomer
		totalSwitchIn += s.SwitchIn

		if s.NetMovement > 0 && (k.WinnerName == NoWinner || s.NetMovement > k.WinnerNet) {
			k.WinnerName, k.WinnerNet = s.Entity, s.NetMovement
		}
		if loser == nil || s.NetMovement < loser.NetMovement {
			loser = &summaries[i]
		}
	}
	k.LoserName, k.LoserNet = loser.Entity, loser.NetMovement

	k.ChurnRate = pct(totalGone+totalSwitchOut, k.TotalMovement)
	k.NetCategoryMovement = (totalNew + totalSwitchIn) - (totalSwitchOut + totalGone)
	return k
}

// =============================================================================
// CROSS-CATEGORY KPIS
// =============================================================================

// CrossCategoryKPIs summarizes a category-mode run against a target set:
// of the customers present in the source period, how many stayed, moved to a
// target category, or left entirely.
type CrossCategoryKPIs struct {
	TotalSourceCustomers int
	Stayed               int
	StayedPct            decimal.Decimal
	TargetSwitched       int
	TargetSwitchedPct    decimal.Decimal
	Gone                 int
	GonePct              decimal.Decimal
	TopTarget            string
	TopTargetPct         decimal.Decimal
}

// CrossCategory derives cross-category KPIs from a category-level flow table.
// Only rows with a concrete origin count toward the source population.
func CrossCategory(t FlowTable, targets []string) *CrossCategoryKPIs {
	targetSet := NewSelection(targets)

	k := &CrossCategoryKPIs{}
	perTarget := make(map[string]int)
	for _, r := range t {
		if !r.From.IsConcrete() {
			continue
		}
		k.TotalSourceCustomers += r.Customers
		switch {
		case r.Type == MoveStayed:
			k.Stayed += r.Customers
		case r.To.Kind == ItemAbsent:
			k.Gone += r.Customers
		case r.Type == MoveSwitched && inSelection(r.To, targetSet):
			k.TargetSwitched += r.Customers
			perTarget[r.To.Value] += r.Customers
		}
	}
	if k.TotalSourceCustomers == 0 {
		return k
	}

	k.StayedPct = pct(k.Stayed, k.TotalSourceCustomers)
	k.TargetSwitchedPct = pct(k.TargetSwitched, k.TotalSourceCustomers)
	k.GonePct = pct(k.Gone, k.TotalSourceCustomers)

	// Top target: most switched-in customers, ties alphabetical.
	names := make([]string, 0, len(perTarget))
	for name := range perTarget {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if k.TopTarget == "" || perTarget[name] > perTarget[k.TopTarget] {
			k.TopTarget = name
		}
	}
	if k.TopTarget != "" {
		k.TopTargetPct = pct(perTarget[k.TopTarget], k.TotalSourceCustomers)
	}
	return k
}
