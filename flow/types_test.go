package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/switching-engine/flow"
)

func TestItem_SideDependentLabels(t *testing.T) {
	// Absent renders differently per side; the other sentinels do not.
	assert.Equal(t, flow.LabelNewToCategory, flow.Absent.FromLabel())
	assert.Equal(t, flow.LabelLostFromCategory, flow.Absent.ToLabel())
	assert.Equal(t, flow.LabelMixed, flow.Mixed.FromLabel())
	assert.Equal(t, flow.LabelMixed, flow.Mixed.ToLabel())
	assert.Equal(t, flow.LabelOthers, flow.Others.FromLabel())
}

func TestItem_ConcreteLabelCollisionIsSafe(t *testing.T) {
	// A real brand literally named "MIXED" stays distinct from the sentinel.
	impostor := flow.NewItem("MIXED")

	assert.NotEqual(t, flow.Mixed, impostor)
	assert.True(t, impostor.IsConcrete())
	assert.Equal(t, "MIXED", impostor.FromLabel())
}

func TestFlowTable_CloneIsIndependent(t *testing.T) {
	table := flow.FlowTable{
		row(brand("BrandX"), brand("BrandY"), flow.MoveSwitched, 5),
	}

	clone := table.Clone()
	clone[0].Customers = 99

	assert.Equal(t, 5, table[0].Customers)
}

func TestGroupingMode_Valid(t *testing.T) {
	for _, m := range []flow.GroupingMode{
		flow.ModeBrand, flow.ModeProduct, flow.ModeCategory, flow.ModeCustom,
	} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, flow.GroupingMode("segment").Valid())
}
