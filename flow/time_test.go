package flow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/switching-engine/flow"
)

func TestParseDate(t *testing.T) {
	tp, err := flow.ParseDate("2024-02-29")

	require.NoError(t, err)
	assert.Equal(t, flow.NewTimePoint(2024, time.February, 29), tp)
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := flow.ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestPeriod_ContainsInclusiveBounds(t *testing.T) {
	p := flow.Period{
		Start: flow.NewTimePoint(2024, time.January, 1),
		End:   flow.NewTimePoint(2024, time.March, 31),
	}

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(p.End))
	assert.True(t, p.Contains(flow.NewTimePoint(2024, time.February, 15)))
	assert.False(t, p.Contains(p.Start.AddDays(-1)))
	assert.False(t, p.Contains(p.End.AddDays(1)))
}

func TestPeriodPair_TagOf(t *testing.T) {
	pp := testPeriods()

	assert.Equal(t, flow.PeriodBefore, pp.TagOf(flow.NewTimePoint(2024, time.February, 1)))
	assert.Equal(t, flow.PeriodAfter, pp.TagOf(flow.NewTimePoint(2025, time.February, 1)))
	assert.Equal(t, flow.PeriodNone, pp.TagOf(flow.NewTimePoint(2024, time.June, 1)))
}

func TestPeriodPair_OverlapFavorsBefore(t *testing.T) {
	p := flow.Period{
		Start: flow.NewTimePoint(2024, time.January, 1),
		End:   flow.NewTimePoint(2024, time.March, 31),
	}
	pp := flow.PeriodPair{Before: p, After: p}

	assert.Equal(t, flow.PeriodBefore, pp.TagOf(flow.NewTimePoint(2024, time.February, 1)))
}
