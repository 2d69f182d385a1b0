/*
view.go - Client-side re-aggregation of the classified flow table

PURPOSE:
  Lets a caller pivot the same classified dataset between brand-level and
  product-level views, and between filtered (symmetric, OTHERS-collapsed) and
  full (asymmetric, unfiltered destination) visibility, without re-running the
  source query.

TRANSFORMS:
  BrandRollup: product-level rows -> brand-level rows via the catalog map
               captured at query time. Sentinels pass through; products with
               no catalog brand roll up to "Unknown" rather than faulting.
  Filtered:    origins outside the selection fold into OTHERS and survive only
               when they flow INTO the selection (switch-in visibility);
               destinations outside the selection fold into OTHERS.
  Full:        keeps only rows originating in the selection; destinations are
               left untouched.

Both Filtered and Full are idempotent for a fixed selection. An empty
selection means "no filter" and returns the table unchanged by policy.
*/
package flow

// Selection is the set of entity values the user focused the view on.
type Selection map[string]bool

// NewSelection builds a selection set from a list of entity values.
func NewSelection(values []string) Selection {
	if len(values) == 0 {
		return nil
	}
	s := make(Selection, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}

// BrandRollup groups product-level rows by brand, summing customer counts.
// brandOf maps product names to brands; sentinels map to themselves and
// unmapped products become "Unknown".
func BrandRollup(t FlowTable, brandOf map[string]string) FlowTable {
	rows := make([]FlowRow, 0, len(t))
	for _, r := range t {
		rows = append(rows, FlowRow{
			From:      rollupItem(r.From, brandOf),
			To:        rollupItem(r.To, brandOf),
			Type:      r.Type,
			Customers: r.Customers,
		})
	}
	return regroup(rows)
}

func rollupItem(i Item, brandOf map[string]string) Item {
	if !i.IsConcrete() {
		return i
	}
	if brand, ok := brandOf[i.Value]; ok && brand != "" {
		return NewItem(brand)
	}
	return NewItem(LabelUnknown)
}

// Filtered applies the symmetric "selected entities only" view.
//
// Origins outside the selection (other than new-to-category) fold into
// OTHERS; so do destinations outside the selection (other than the Mixed and
// lost-from-category sentinels). Rows that collide after the rewrite are
// re-summed. OTHERS rows that never touch the selection
// (OTHERS -> OTHERS / lost / Mixed) are dropped; OTHERS -> selected rows are
// kept so switch-in stays visible.
func Filtered(t FlowTable, sel Selection) FlowTable {
	if len(sel) == 0 {
		return t.Clone()
	}

	rows := make([]FlowRow, 0, len(t))
	for _, r := range t {
		from := filterFrom(r.From, sel)
		to := filterTo(r.To, sel)
		if from.Kind == ItemOthers && !inSelection(to, sel) {
			continue
		}
		rows = append(rows, FlowRow{From: from, To: to, Type: r.Type, Customers: r.Customers})
	}
	return regroup(rows)
}

// filterFrom folds origins outside the selection into OTHERS. Absent stays:
// new-to-category flows are origin-less by definition. Mixed folds: it spans
// multiple entities and would inflate switch metrics if kept as an origin.
func filterFrom(i Item, sel Selection) Item {
	switch i.Kind {
	case ItemAbsent:
		return i
	case ItemConcrete:
		if sel[i.Value] {
			return i
		}
		return Others
	default:
		return Others
	}
}

// filterTo folds destinations outside the selection into OTHERS. The Mixed
// and Absent sentinels survive: "went mixed" and "left the category" are
// destinations in their own right.
func filterTo(i Item, sel Selection) Item {
	switch i.Kind {
	case ItemAbsent, ItemMixed:
		return i
	case ItemConcrete:
		if sel[i.Value] {
			return i
		}
		return Others
	default:
		return Others
	}
}

func inSelection(i Item, sel Selection) bool {
	return i.Kind == ItemConcrete && sel[i.Value]
}

// Full applies the asymmetric "where did they go" view: only rows whose
// origin is in the selection survive, and destinations are not rewritten.
// This transform deliberately changes the table total; it only ever removes
// rows.
func Full(t FlowTable, sel Selection) FlowTable {
	if len(sel) == 0 {
		return t.Clone()
	}

	rows := make([]FlowRow, 0, len(t))
	for _, r := range t {
		if inSelection(r.From, sel) {
			rows = append(rows, r)
		}
	}
	return regroup(rows)
}

// View dispatches the visibility mode once, at this boundary, instead of
// re-checking a mode string downstream.
func View(t FlowTable, mode ViewMode, sel Selection) FlowTable {
	if mode == ViewFull {
		return Full(t, sel)
	}
	return Filtered(t, sel)
}
