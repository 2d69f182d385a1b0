/*
aggregator.go - Collapses per-customer triples into the classified flow table

PURPOSE:
  Groups the stream of per-customer (from, to, movement type) triples by key
  and counts customers per group. The resulting table is the single source of
  truth for every downstream view; no view re-derives it from raw sales.

GUARANTEE:
  Sum of Customers across all rows equals the number of customers observed in
  either period. Aggregate verifies this and returns a ConservationError on
  mismatch.
*/
package flow

import "sort"

// Aggregate builds the classified flow table from per-customer pairs.
// Customers absent from both periods are rejected via the classifier.
func Aggregate(pairs map[string]ProfilePair) (FlowTable, error) {
	type key struct {
		From Item
		To   Item
		Type MovementType
	}

	counts := make(map[key]int)
	observed := 0
	for _, pair := range pairs {
		triple, err := Classify(pair)
		if err != nil {
			return nil, err
		}
		counts[key{From: triple.From, To: triple.To, Type: triple.Type}]++
		observed++
	}

	table := make(FlowTable, 0, len(counts))
	for k, n := range counts {
		table = append(table, FlowRow{From: k.From, To: k.To, Type: k.Type, Customers: n})
	}
	sortTable(table)

	if total := table.Total(); total != observed {
		return nil, &ConservationError{Observed: observed, Counted: total}
	}
	return table, nil
}

// regroup re-sums rows that share a (From, To, Type) key. Used by the view
// transforms after rewriting items, where collisions are expected.
func regroup(rows []FlowRow) FlowTable {
	type key struct {
		From Item
		To   Item
		Type MovementType
	}

	counts := make(map[key]int)
	for _, r := range rows {
		counts[key{From: r.From, To: r.To, Type: r.Type}] += r.Customers
	}

	table := make(FlowTable, 0, len(counts))
	for k, n := range counts {
		table = append(table, FlowRow{From: k.From, To: k.To, Type: k.Type, Customers: n})
	}
	sortTable(table)
	return table
}

// sortTable orders rows by (Type, From, To) for deterministic output.
func sortTable(t FlowTable) {
	sort.Slice(t, func(i, j int) bool {
		a, b := t[i], t[j]
		if a.Type != b.Type {
			return moveOrder(a.Type) < moveOrder(b.Type)
		}
		if a.From != b.From {
			return itemLess(a.From, b.From)
		}
		return itemLess(a.To, b.To)
	})
}

// itemLess orders concrete values alphabetically and sentinels after them in
// a fixed kind order.
func itemLess(a, b Item) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Value < b.Value
}
