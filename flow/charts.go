/*
charts.go - Chart-ready projections of the classified flow table

PURPOSE:
  Shapes the flow table into the structures the (out-of-scope) presentation
  layer feeds to its chart widgets: top flows, movement totals, competitive
  heatmap matrix, per-entity waterfall series, Sankey nodes and links.
  Rendering lives entirely outside this package; these are data transforms.

DISPLAY LABELS:
  Charts use friendlier names for the flow sentinels: "New Customers" for
  origins that were absent, "Gone" for destinations that were lost. These
  replacements happen here, at the presentation edge, and nowhere earlier.
*/
package flow

import "sort"

// Friendly sentinel names used by chart surfaces.
const (
	displayNew  = "New Customers"
	displayGone = "Gone"
)

func chartFromLabel(i Item) string {
	if i.Kind == ItemAbsent {
		return displayNew
	}
	return i.FromLabel()
}

func chartToLabel(i Item) string {
	if i.Kind == ItemAbsent {
		return displayGone
	}
	return i.ToLabel()
}

// =============================================================================
// TOP FLOWS
// =============================================================================

// TopFlow is one row of the ranked flow listing, with display labels applied.
type TopFlow struct {
	From      string
	To        string
	Type      MovementType
	Customers int
}

// TopFlows returns the n largest flows by customer count. Ties keep table
// order, which is already deterministic.
func TopFlows(t FlowTable, n int) []TopFlow {
	rows := t.Clone()
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Customers > rows[j].Customers
	})
	if n > len(rows) {
		n = len(rows)
	}
	top := make([]TopFlow, 0, n)
	for _, r := range rows[:n] {
		top = append(top, TopFlow{
			From:      chartFromLabel(r.From),
			To:        chartToLabel(r.To),
			Type:      r.Type,
			Customers: r.Customers,
		})
	}
	return top
}

// MovementTotals sums customer counts per movement type.
func MovementTotals(t FlowTable) map[MovementType]int {
	totals := make(map[MovementType]int, 4)
	for _, r := range t {
		totals[r.Type] += r.Customers
	}
	return totals
}

// =============================================================================
// HEATMAP - Competitive matrix
// =============================================================================

// Heatmap is the origin x destination customer-count matrix.
// Cells[i][j] is the count flowing from FromLabels[i] to ToLabels[j];
// missing combinations are zero.
type Heatmap struct {
	FromLabels []string
	ToLabels   []string
	Cells      [][]int
}

// BuildHeatmap pivots the table into a dense matrix with sorted axis labels.
func BuildHeatmap(t FlowTable) Heatmap {
	fromIdx := make(map[string]int)
	toIdx := make(map[string]int)
	var froms, tos []string
	for _, r := range t {
		f, to := chartFromLabel(r.From), chartToLabel(r.To)
		if _, ok := fromIdx[f]; !ok {
			fromIdx[f] = 0
			froms = append(froms, f)
		}
		if _, ok := toIdx[to]; !ok {
			toIdx[to] = 0
			tos = append(tos, to)
		}
	}
	sort.Strings(froms)
	sort.Strings(tos)
	for i, f := range froms {
		fromIdx[f] = i
	}
	for i, to := range tos {
		toIdx[to] = i
	}

	cells := make([][]int, len(froms))
	for i := range cells {
		cells[i] = make([]int, len(tos))
	}
	for _, r := range t {
		cells[fromIdx[chartFromLabel(r.From)]][toIdx[chartToLabel(r.To)]] += r.Customers
	}
	return Heatmap{FromLabels: froms, ToLabels: tos, Cells: cells}
}

// =============================================================================
// WATERFALL - Period-over-period bridge for one entity
// =============================================================================

// Waterfall is the bridge from an entity's period-1 total to its period-2
// total. Measures follow the plotly waterfall convention: "absolute" for the
// opening bar, "relative" for deltas, "total" for the closing bar.
type Waterfall struct {
	Labels   []string
	Values   []int
	Measures []string
}

// BuildWaterfall derives the bridge series for one entity.
func BuildWaterfall(t FlowTable, entity string) Waterfall {
	period1, period2 := 0, 0
	newCustomers, switchIn, switchOut, gone := 0, 0, 0, 0
	for _, r := range t {
		fromSelf, toSelf := r.From.Is(entity), r.To.Is(entity)
		if fromSelf {
			period1 += r.Customers
		}
		if toSelf {
			period2 += r.Customers
		}
		switch {
		case r.From.Kind == ItemAbsent && toSelf:
			newCustomers += r.Customers
		case !fromSelf && toSelf && r.Type == MoveSwitched:
			switchIn += r.Customers
		case fromSelf && r.To.Kind == ItemAbsent:
			gone += r.Customers
		case fromSelf && !toSelf && r.Type == MoveSwitched:
			switchOut += r.Customers
		}
	}
	return Waterfall{
		Labels:   []string{"Period 1 Total", "New Customers", "Switch In", "Switch Out", "Gone", "Period 2 Total"},
		Values:   []int{period1, newCustomers, switchIn, -switchOut, -gone, period2},
		Measures: []string{"absolute", "relative", "relative", "relative", "relative", "total"},
	}
}

// =============================================================================
// SANKEY - Flow diagram nodes and links
// =============================================================================

// Sankey holds node labels and the index-based links between them. Origin and
// destination nodes are distinct even when named alike, since they belong to
// different periods.
type Sankey struct {
	Labels  []string
	Sources []int
	Targets []int
	Values  []int
}

// BuildSankey assigns node indices in table order and emits one link per row.
func BuildSankey(t FlowTable) Sankey {
	var s Sankey
	index := make(map[string]int)
	node := func(key, label string) int {
		if i, ok := index[key]; ok {
			return i
		}
		i := len(s.Labels)
		index[key] = i
		s.Labels = append(s.Labels, label)
		return i
	}

	for _, r := range t {
		from := node("p1:"+chartFromLabel(r.From), chartFromLabel(r.From))
		to := node("p2:"+chartToLabel(r.To), chartToLabel(r.To))
		s.Sources = append(s.Sources, from)
		s.Targets = append(s.Targets, to)
		s.Values = append(s.Values, r.Customers)
	}
	return s
}
