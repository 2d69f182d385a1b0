package flow_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/switching-engine/flow"
)

// summaryTable is a small classified table shared by the summary tests:
//
//	BrandX: 10 stayed, 5 out to BrandY, 3 gone, 4 in from BrandY, 2 new
//	BrandY: 5 in from BrandX, 4 out to BrandX
func summaryTable() flow.FlowTable {
	return flow.FlowTable{
		row(brand("BrandX"), brand("BrandX"), flow.MoveStayed, 10),
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
		row(brand("BrandX"), flow.Absent, flow.MoveLostFromCategory, 3),
		row(brand("BrandY"), brand("BrandX"), flow.MoveSwitched, 4),
		row(flow.Absent, brand("BrandX"), flow.MoveNewToCategory, 2),
	}
}

func findSummary(t *testing.T, summaries []flow.EntitySummary, entity string) flow.EntitySummary {
	t.Helper()
	for _, s := range summaries {
		if s.Entity == entity {
			return s
		}
	}
	t.Fatalf("no summary for %q", entity)
	return flow.EntitySummary{}
}

func assertPct(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

// =============================================================================
// PER-ENTITY SUMMARIES
// =============================================================================

func TestSummaries_EntityCounts(t *testing.T) {
	summaries := flow.Summaries(summaryTable())

	x := findSummary(t, summaries, "BrandX")
	assert.Equal(t, 18, x.Period1Total) // 10 stayed + 5 out + 3 gone
	assert.Equal(t, 10, x.Stayed)
	assert.Equal(t, 5, x.SwitchOut)
	assert.Equal(t, 3, x.Gone)
	assert.Equal(t, 4, x.SwitchIn)
	assert.Equal(t, 2, x.NewCustomer)
	assert.Equal(t, 16, x.Period2Total) // 10 stayed + 4 in + 2 new
	assert.Equal(t, -2, x.NetMovement)  // (10+4+2) - (5+3)

	y := findSummary(t, summaries, "BrandY")
	assert.Equal(t, 4, y.Period1Total)
	assert.Equal(t, 5, y.SwitchIn)
	assert.Equal(t, 4, y.SwitchOut)
	assert.Equal(t, 1, y.NetMovement)
}

func TestSummaries_Percentages(t *testing.T) {
	summaries := flow.Summaries(summaryTable())
	x := findSummary(t, summaries, "BrandX")

	// Outflow metrics over period-1 total (18).
	assertPct(t, "55.6", x.StayedPct)
	assertPct(t, "27.8", x.SwitchOutPct)
	assertPct(t, "16.7", x.GonePct)
	// Inflow shares over total-in (16).
	assertPct(t, "25", x.SwitchInPct)
	assertPct(t, "12.5", x.NewCustomerPct)
}

func TestSummaries_PercentagesWithinBounds(t *testing.T) {
	for _, s := range flow.Summaries(summaryTable()) {
		for _, p := range []decimal.Decimal{
			s.StayedPct, s.SwitchOutPct, s.GonePct, s.SwitchInPct, s.NewCustomerPct,
		} {
			assert.False(t, p.IsNegative(), "%s: %s < 0", s.Entity, p)
			assert.True(t, p.LessThanOrEqual(hundredDec), "%s: %s > 100", s.Entity, p)
		}
	}
}

var hundredDec = decimal.NewFromInt(100)

func TestSummaries_ZeroDenominator_ZeroPct(t *testing.T) {
	// An entity that only appears in period 2 has no period-1 total; the
	// outflow percentages are zero, not an error.
	table := flow.FlowTable{
		row(flow.Absent, brand("BrandX"), flow.MoveNewToCategory, 3),
	}

	x := findSummary(t, flow.Summaries(table), "BrandX")

	assert.Equal(t, 0, x.Period1Total)
	assert.True(t, x.StayedPct.IsZero())
	assert.True(t, x.GonePct.IsZero())
	assertPct(t, "100", x.NewCustomerPct)
}

func TestSummaries_SortedAlphabetically(t *testing.T) {
	summaries := flow.Summaries(summaryTable())

	require.Len(t, summaries, 2)
	assert.Equal(t, "BrandX", summaries[0].Entity)
	assert.Equal(t, "BrandY", summaries[1].Entity)
}

func TestSummaries_SentinelsAreNotEntities(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), flow.Mixed, flow.MoveSwitched, 2),
		row(flow.Others, brand("BrandX"), flow.MoveSwitched, 1),
	}

	summaries := flow.Summaries(table)

	require.Len(t, summaries, 1)
	x := summaries[0]
	assert.Equal(t, "BrandX", x.Entity)
	// Going mixed counts as switch-out; arriving from OTHERS as switch-in.
	assert.Equal(t, 2, x.SwitchOut)
	assert.Equal(t, 1, x.SwitchIn)
}

// =============================================================================
// EXECUTIVE KPIS
// =============================================================================

func TestKPIs_WinnerAndLoser(t *testing.T) {
	k := flow.KPIs(flow.Summaries(summaryTable()))

	require.NotNil(t, k)
	assert.Equal(t, "BrandY", k.WinnerName)
	assert.Equal(t, 1, k.WinnerNet)
	assert.Equal(t, "BrandX", k.LoserName)
	assert.Equal(t, -2, k.LoserNet)
	assert.Equal(t, 22, k.TotalMovement) // 18 + 4
}

func TestKPIs_ChurnAndNetMovement(t *testing.T) {
	k := flow.KPIs(flow.Summaries(summaryTable()))

	require.NotNil(t, k)
	// Churn = (gone + switch-out) / total movement = (3 + 9) / 22.
	assertPct(t, "54.5", k.ChurnRate)
	// Net = (new + switch-in) - (switch-out + gone) = (2 + 9) - (9 + 3).
	assert.Equal(t, -1, k.NetCategoryMovement)
}

func TestKPIs_NoPositiveNet_WinnerNone(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), flow.Absent, flow.MoveLostFromCategory, 5),
	}

	k := flow.KPIs(flow.Summaries(table))

	require.NotNil(t, k)
	assert.Equal(t, flow.NoWinner, k.WinnerName)
	assert.Zero(t, k.WinnerNet)
}

func TestKPIs_NetTie_AlphabeticalWinner(t *testing.T) {
	table := flow.FlowTable{
		row(flow.Absent, brand("BrandB"), flow.MoveNewToCategory, 2),
		row(flow.Absent, brand("BrandA"), flow.MoveNewToCategory, 2),
	}

	k := flow.KPIs(flow.Summaries(table))

	require.NotNil(t, k)
	assert.Equal(t, "BrandA", k.WinnerName)
}

func TestKPIs_EmptySummaries_Nil(t *testing.T) {
	assert.Nil(t, flow.KPIs(nil))
}

// =============================================================================
// CROSS-CATEGORY KPIS
// =============================================================================

func TestCrossCategory_SplitsSourcePopulation(t *testing.T) {
	// GIVEN: A category-level table for source "Skin Care" with targets
	//        {Oral Care, Hair Care}
	table := flow.FlowTable{
		row(brand("Skin Care"), brand("Skin Care"), flow.MoveStayed, 6),
		row(brand("Skin Care"), brand("Oral Care"), flow.MoveSwitched, 3),
		row(brand("Skin Care"), brand("Hair Care"), flow.MoveSwitched, 1),
		row(brand("Skin Care"), flow.Absent, flow.MoveLostFromCategory, 2),
		row(flow.Absent, brand("Skin Care"), flow.MoveNewToCategory, 4),
	}

	k := flow.CrossCategory(table, []string{"Oral Care", "Hair Care"})

	require.NotNil(t, k)
	assert.Equal(t, 12, k.TotalSourceCustomers) // new-to-category rows excluded
	assert.Equal(t, 6, k.Stayed)
	assert.Equal(t, 4, k.TargetSwitched)
	assert.Equal(t, 2, k.Gone)
	assertPct(t, "50", k.StayedPct)
	assertPct(t, "33.3", k.TargetSwitchedPct)
	assert.Equal(t, "Oral Care", k.TopTarget)
	assertPct(t, "25", k.TopTargetPct)
}

func TestCrossCategory_NoSource_ZeroValues(t *testing.T) {
	k := flow.CrossCategory(flow.FlowTable{}, []string{"Oral Care"})

	require.NotNil(t, k)
	assert.Zero(t, k.TotalSourceCustomers)
	assert.Empty(t, k.TopTarget)
}
