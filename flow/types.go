/*
Package flow provides the customer switching analysis engine.

PURPOSE:
  This package contains the core pipeline that turns raw sale records for two
  date ranges into a classified customer flow table: who stayed with a brand,
  who switched to a competitor, who is new to the category, and who left it.
  Every downstream view (brand vs product level, filtered vs full visibility,
  movement summaries, executive KPIs, chart data) is a pure re-aggregation of
  that one table.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: A tagged union for a customer's primary affiliation
           (concrete value | mixed | absent | others)
  - MovementType: The four-way classification of a period transition
  - GroupingMode: Which dimension customers are classified on
  - FlowRow/FlowTable: The classified flow table, the single source of truth
  - Profile: A customer's resolved state for one period

DESIGN PRINCIPLES:
  1. Immutability: The flow table is never mutated; views return new tables
  2. Precision: Uses decimal.Decimal for sale amounts and spend shares
  3. No magic strings: Sentinels are variants of Item, not entity names;
     display labels appear only at the API boundary
  4. Staged transforms: Resolver -> Classifier -> Aggregator -> Views, each
     independently testable

PIPELINE:
  rows := source.Sales(ctx, query)
  result, err := flow.Run(ctx, source, spec)
  brandTable := flow.BrandRollup(result.Table, result.BrandOf)
  view := flow.Filtered(brandTable, selection)
  summaries := flow.Summaries(view)
  kpis := flow.KPIs(summaries)

SEE ALSO:
  - resolver.go: Primary-item resolution per customer per period
  - classifier.go: Period-pair classification rules
  - aggregator.go: Flow table construction
  - view.go: Brand rollup and filtered/full visibility transforms
  - summary.go: Per-entity summaries and executive KPIs
*/
package flow

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ITEM - Tagged union for a primary affiliation
// =============================================================================

// ItemKind discriminates the Item variants.
type ItemKind int

const (
	// ItemConcrete is a real grouping value: a brand, product, category or
	// custom label.
	ItemConcrete ItemKind = iota

	// ItemMixed means no single value reached the primary-share threshold.
	ItemMixed

	// ItemAbsent means the customer had no qualifying sales in the period.
	// On the from side it renders as NEW_TO_CATEGORY, on the to side as
	// LOST_FROM_CATEGORY.
	ItemAbsent

	// ItemOthers is the collapse bucket produced by the filtered view for
	// values outside the current selection. Never produced by the
	// resolver or classifier.
	ItemOthers
)

// Item identifies a primary affiliation. The zero value is Concrete("") and
// should not be used; construct with NewItem or the sentinel variables.
// Item is comparable, so it can be used directly as a map key.
type Item struct {
	Kind  ItemKind
	Value string // set only for ItemConcrete
}

var (
	Mixed  = Item{Kind: ItemMixed}
	Absent = Item{Kind: ItemAbsent}
	Others = Item{Kind: ItemOthers}
)

// NewItem returns a concrete item for the given grouping value.
func NewItem(value string) Item {
	return Item{Kind: ItemConcrete, Value: value}
}

func (i Item) IsConcrete() bool { return i.Kind == ItemConcrete }

// Is reports whether the item is the concrete value v.
func (i Item) Is(v string) bool { return i.Kind == ItemConcrete && i.Value == v }

// Display labels. These are the only string forms sentinels ever take, and
// they are applied at the presentation boundary so a real brand named
// "MIXED" can never collide with the sentinel internally.
const (
	LabelNewToCategory    = "NEW_TO_CATEGORY"
	LabelLostFromCategory = "LOST_FROM_CATEGORY"
	LabelMixed            = "MIXED"
	LabelOthers           = "OTHERS"
	LabelUnknown          = "Unknown"
)

// FromLabel renders the item as it appears on the origin side of a flow row.
func (i Item) FromLabel() string {
	switch i.Kind {
	case ItemMixed:
		return LabelMixed
	case ItemAbsent:
		return LabelNewToCategory
	case ItemOthers:
		return LabelOthers
	default:
		return i.Value
	}
}

// ToLabel renders the item as it appears on the destination side of a flow row.
func (i Item) ToLabel() string {
	switch i.Kind {
	case ItemMixed:
		return LabelMixed
	case ItemAbsent:
		return LabelLostFromCategory
	case ItemOthers:
		return LabelOthers
	default:
		return i.Value
	}
}

// =============================================================================
// MOVEMENT TYPE - Four-way transition classification
// =============================================================================

type MovementType string

const (
	MoveStayed           MovementType = "stayed"
	MoveSwitched         MovementType = "switched"
	MoveNewToCategory    MovementType = "new_to_category"
	MoveLostFromCategory MovementType = "lost_from_category"
)

// moveOrder gives the deterministic sort order for flow tables, matching the
// alphabetical move_type ordering of the reporting query.
func moveOrder(m MovementType) int {
	switch m {
	case MoveLostFromCategory:
		return 0
	case MoveNewToCategory:
		return 1
	case MoveStayed:
		return 2
	case MoveSwitched:
		return 3
	default:
		return 4
	}
}

// =============================================================================
// GROUPING MODE - Which dimension customers are classified on
// =============================================================================

type GroupingMode string

const (
	ModeBrand    GroupingMode = "brand"
	ModeProduct  GroupingMode = "product"
	ModeCategory GroupingMode = "category"
	ModeCustom   GroupingMode = "custom"
)

// Valid reports whether the mode is one of the closed set.
func (m GroupingMode) Valid() bool {
	switch m {
	case ModeBrand, ModeProduct, ModeCategory, ModeCustom:
		return true
	}
	return false
}

// =============================================================================
// VIEW MODE / LEVEL - Dispatched once at the re-aggregator boundary
// =============================================================================

type ViewMode string

const (
	// ViewFiltered is the symmetric view: destinations outside the selection
	// collapse into OTHERS.
	ViewFiltered ViewMode = "filtered"

	// ViewFull is the asymmetric "where did they go" view: only origins are
	// filtered, destinations stay unaggregated.
	ViewFull ViewMode = "full"
)

type ViewLevel string

const (
	LevelBrand   ViewLevel = "brand"
	LevelProduct ViewLevel = "product"
)

// =============================================================================
// SALE ROWS - Input contract from the source query executor
// =============================================================================

// SaleRow is one joined transaction row as supplied by a SaleSource.
// Every row has already matched a catalog and store entry (inner join);
// rows without a match never reach the pipeline.
type SaleRow struct {
	Date        TimePoint
	CustomerID  string
	DocumentID  string
	StoreID     string
	Barcode     string
	Amount      decimal.Decimal
	ProductName string
	Brand       string
	Category    string
	Subcategory string
}

// SaleLine is one (grouping value, amount, date) observation for a single
// customer within a single period: the resolver's input unit.
type SaleLine struct {
	Value  string
	Amount decimal.Decimal
	Date   TimePoint
}

// =============================================================================
// PROFILE - A customer's resolved state for one period
// =============================================================================

// Profile is the per-(customer, period) output of the resolver.
// Primary is Absent when the customer had no qualifying sales in the period.
type Profile struct {
	Primary    Item
	Share      decimal.Decimal
	TotalSales decimal.Decimal
	LastTx     TimePoint
}

// AbsentProfile is the profile of a customer not seen in a period.
func AbsentProfile() Profile {
	return Profile{Primary: Absent}
}

// ProfilePair holds one customer's Before and After profiles.
type ProfilePair struct {
	Before Profile
	After  Profile
}

// =============================================================================
// FLOW TABLE - The classified flow table
// =============================================================================

// FlowRow is the atomic unit of the classified flow table.
type FlowRow struct {
	From      Item
	To        Item
	Type      MovementType
	Customers int
}

// FlowTable is the aggregated (from, to, movement type, count) table.
// Rows are unique on (From, To, Type) and sorted by (Type, From, To).
// Tables are treated as immutable: every transform returns a new table.
type FlowTable []FlowRow

// Total returns the sum of customer counts across all rows.
func (t FlowTable) Total() int {
	total := 0
	for _, r := range t {
		total += r.Customers
	}
	return total
}

// Clone returns an independent copy of the table.
func (t FlowTable) Clone() FlowTable {
	out := make(FlowTable, len(t))
	copy(out, t)
	return out
}
