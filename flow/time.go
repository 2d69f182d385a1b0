package flow

import "time"

// =============================================================================
// TIME POINT - Day-granularity date (sale dates, period bounds)
// =============================================================================

// TimePoint is a calendar day in UTC. Sale data carries no useful sub-day
// resolution, so everything in the pipeline is normalized to midnight UTC.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TimePoint{}, err
	}
	return TimePoint{Time: t}, nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool {
	return tp.Before(other) || tp.Equal(other)
}
func (tp TimePoint) AfterOrEqual(other TimePoint) bool {
	return tp.After(other) || tp.Equal(other)
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n)}
}

func (tp TimePoint) IsZero() bool { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format("2006-01-02") }

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] date range. The engine does not require
// the two analysis periods to be ordered or disjoint; on overlap a sale is
// attributed to Before.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodTag identifies which of the two analysis windows a sale falls in.
type PeriodTag int

const (
	PeriodNone PeriodTag = iota
	PeriodBefore
	PeriodAfter
)

// PeriodPair holds the two comparison windows of an analysis run.
type PeriodPair struct {
	Before Period
	After  Period
}

// TagOf returns which window the date falls in. Before wins on overlap.
func (pp PeriodPair) TagOf(t TimePoint) PeriodTag {
	if pp.Before.Contains(t) {
		return PeriodBefore
	}
	if pp.After.Contains(t) {
		return PeriodAfter
	}
	return PeriodNone
}
