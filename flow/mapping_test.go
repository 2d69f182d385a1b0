package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/switching-engine/flow"
)

func TestParseMapping_CommaAndTabSeparated(t *testing.T) {
	mapping := flow.ParseMapping("8850001,Premium\n8850002\tValue\n")

	assert.Equal(t, flow.CustomMapping{
		"8850001": "Premium",
		"8850002": "Value",
	}, mapping)
}

func TestParseMapping_SkipsMalformedLines(t *testing.T) {
	mapping := flow.ParseMapping("8850001,Premium\njust-a-barcode\n,no-barcode\n\n8850002,Value")

	assert.Len(t, mapping, 2)
	assert.Equal(t, "Premium", mapping["8850001"])
	assert.Equal(t, "Value", mapping["8850002"])
}

func TestParseMapping_LabelMayContainComma(t *testing.T) {
	// Only the first separator splits; the label keeps the rest.
	mapping := flow.ParseMapping("8850001,Premium, Imported")

	assert.Equal(t, "Premium, Imported", mapping["8850001"])
}

func TestLabelFor_UnmappedBarcode_CatchAll(t *testing.T) {
	mapping := flow.ParseMapping("8850001,Premium")

	assert.Equal(t, "Premium", mapping.LabelFor("8850001"))
	assert.Equal(t, flow.CatchAllLabel, mapping.LabelFor("9999999"))
}
