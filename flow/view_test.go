package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/switching-engine/flow"
)

func row(from, to flow.Item, mt flow.MovementType, n int) flow.FlowRow {
	return flow.FlowRow{From: from, To: to, Type: mt, Customers: n}
}

func brand(v string) flow.Item { return flow.NewItem(v) }

// =============================================================================
// FILTERED VISIBILITY
// =============================================================================

func TestFiltered_CollapsesDestinationsIntoOthers(t *testing.T) {
	// GIVEN: Switch flows BrandX->BrandY (5) and BrandX->BrandZ (3),
	//        selection {BrandX}
	// WHEN: Applying the filtered view
	// THEN: Both collapse into one BrandX->OTHERS row with 8 customers

	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
		row(brand("BrandX"), brand("BrandZ"), flow.MoveSwitched, 3),
	}

	got := flow.Filtered(table, flow.NewSelection([]string{"BrandX"}))

	assert.Equal(t, flow.FlowTable{
		row(brand("BrandX"), flow.Others, flow.MoveSwitched, 8),
	}, got)
}

func TestFiltered_KeepsSwitchInFromOthers(t *testing.T) {
	// Flows from outside the selection into it stay visible, with the
	// origin anonymized.
	table := flow.FlowTable{
		row(brand("BrandY"), brand("BrandX"), flow.MoveSwitched, 4),
		row(brand("BrandY"), brand("BrandZ"), flow.MoveSwitched, 7),
	}

	got := flow.Filtered(table, flow.NewSelection([]string{"BrandX"}))

	assert.Equal(t, flow.FlowTable{
		row(flow.Others, brand("BrandX"), flow.MoveSwitched, 4),
	}, got)
}

func TestFiltered_SentinelsSurvive(t *testing.T) {
	// New-to-category keeps its origin-less from; lost-from-category and
	// went-mixed keep their sentinel destinations.
	table := flow.FlowTable{
		row(flow.Absent, brand("BrandX"), flow.MoveNewToCategory, 2),
		row(brand("BrandX"), flow.Absent, flow.MoveLostFromCategory, 3),
		row(brand("BrandX"), flow.Mixed, flow.MoveSwitched, 1),
	}

	got := flow.Filtered(table, flow.NewSelection([]string{"BrandX"}))

	assert.ElementsMatch(t, []flow.FlowRow{
		row(flow.Absent, brand("BrandX"), flow.MoveNewToCategory, 2),
		row(brand("BrandX"), flow.Absent, flow.MoveLostFromCategory, 3),
		row(brand("BrandX"), flow.Mixed, flow.MoveSwitched, 1),
	}, got)
}

func TestFiltered_DropsFlowsThatNeverTouchSelection(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandY"), brand("BrandZ"), flow.MoveSwitched, 9),
		row(brand("BrandY"), flow.Absent, flow.MoveLostFromCategory, 2),
		row(brand("BrandY"), brand("BrandY"), flow.MoveStayed, 5),
	}

	got := flow.Filtered(table, flow.NewSelection([]string{"BrandX"}))

	assert.Empty(t, got)
}

func TestFiltered_Idempotent(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
		row(brand("BrandY"), brand("BrandX"), flow.MoveSwitched, 4),
		row(flow.Absent, brand("BrandZ"), flow.MoveNewToCategory, 1),
		row(brand("BrandX"), brand("BrandX"), flow.MoveStayed, 10),
	}
	sel := flow.NewSelection([]string{"BrandX"})

	once := flow.Filtered(table, sel)
	twice := flow.Filtered(once, sel)

	assert.Equal(t, once, twice)
}

func TestFiltered_EmptySelection_NoFilter(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
	}

	got := flow.Filtered(table, nil)

	assert.Equal(t, table, got)
}

// =============================================================================
// FULL VISIBILITY
// =============================================================================

func TestFull_KeepsRealDestinations(t *testing.T) {
	// GIVEN: BrandX customers scattering to BrandY and BrandZ,
	//        plus an unrelated BrandY flow
	// WHEN: Applying the full view with selection {BrandX}
	// THEN: Destinations keep their real names; the unrelated row is gone

	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
		row(brand("BrandX"), brand("BrandZ"), flow.MoveSwitched, 3),
		row(brand("BrandY"), brand("BrandZ"), flow.MoveSwitched, 7),
	}

	got := flow.Full(table, flow.NewSelection([]string{"BrandX"}))

	assert.Equal(t, flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
		row(brand("BrandX"), brand("BrandZ"), flow.MoveSwitched, 3),
	}, got)
}

func TestFull_EmptySelection_NoFilter(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
	}

	assert.Equal(t, table, flow.Full(table, nil))
}

// =============================================================================
// BRAND ROLLUP
// =============================================================================

func TestBrandRollup_SumsProductsOfSameBrand(t *testing.T) {
	// GIVEN: Two products of BrandX switching to a BrandY product
	// WHEN: Rolling product-level rows up to brand level
	// THEN: One BrandX->BrandY row with the summed count

	brandOf := map[string]string{
		"Soap 90g":   "BrandX",
		"Soap 150g":  "BrandX",
		"Lotion 1oz": "BrandY",
	}
	table := flow.FlowTable{
		row(brand("Soap 90g"), brand("Lotion 1oz"), flow.MoveSwitched, 2),
		row(brand("Soap 150g"), brand("Lotion 1oz"), flow.MoveSwitched, 3),
	}

	got := flow.BrandRollup(table, brandOf)

	assert.Equal(t, flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
	}, got)
}

func TestBrandRollup_UnmappedProduct_Unknown(t *testing.T) {
	table := flow.FlowTable{
		row(brand("Mystery Item"), flow.Absent, flow.MoveLostFromCategory, 2),
	}

	got := flow.BrandRollup(table, map[string]string{})

	assert.Equal(t, flow.FlowTable{
		row(brand(flow.LabelUnknown), flow.Absent, flow.MoveLostFromCategory, 2),
	}, got)
}

func TestBrandRollup_SentinelsPassThrough(t *testing.T) {
	table := flow.FlowTable{
		row(flow.Absent, flow.Mixed, flow.MoveNewToCategory, 1),
	}

	got := flow.BrandRollup(table, map[string]string{})

	assert.Equal(t, table, got)
}

func TestBrandRollup_PreservesTotal(t *testing.T) {
	brandOf := map[string]string{"P1": "BrandX", "P2": "BrandX", "P3": "BrandY"}
	table := flow.FlowTable{
		row(brand("P1"), brand("P3"), flow.MoveSwitched, 2),
		row(brand("P2"), brand("P3"), flow.MoveSwitched, 3),
		row(brand("P3"), brand("P3"), flow.MoveStayed, 4),
		row(flow.Absent, brand("P1"), flow.MoveNewToCategory, 1),
	}

	got := flow.BrandRollup(table, brandOf)

	assert.Equal(t, table.Total(), got.Total())
}
