/*
engine.go - One analysis run: source rows in, classified flow table out

PURPOSE:
  Orchestrates the staged pipeline for a single analysis run:

    SaleSource -> period tagging -> grouping-value mapping
               -> Resolver (per customer per period)
               -> Classifier (pairs periods)
               -> Aggregator (classified flow table)

  Each run is independent and holds no state between invocations, so
  concurrent runs for different callers need no coordination.

COLLABORATOR BOUNDARY:
  SaleSource supplies the raw joined sale rows. The engine does not care how
  they are stored, only that every row carries the joined catalog and store
  fields for the requested scope. store/sqlite implements this for SQLite;
  flow/source provides an in-memory implementation for tests.

SEE ALSO:
  - view.go, summary.go: Pure transforms over the resulting table
  - store/sqlite: Production SaleSource
*/
package flow

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCE CONTRACT
// =============================================================================

// SourceQuery describes the scope of rows an analysis needs. All filters are
// applied by the source, upstream of the resolver.
type SourceQuery struct {
	Periods PeriodPair

	// Category restricts rows to one catalog category. Empty means all
	// categories (used by category mode, which classifies across them).
	Category string

	// Brands restricts rows to the named brands. Empty means no brand filter.
	Brands []string

	// ProductContains keeps rows whose product name contains any of the given
	// substrings, case-insensitive. Empty means no name filter.
	ProductContains []string

	// StoreCutoff, when set, keeps only rows from stores opened on or before
	// the cutoff ("same store" comparisons).
	StoreCutoff *TimePoint
}

// SaleSource yields joined sale rows for the requested scope.
type SaleSource interface {
	Sales(ctx context.Context, q SourceQuery) ([]SaleRow, error)
}

// =============================================================================
// ANALYSIS SPEC
// =============================================================================

// AnalysisSpec is the full configuration of one analysis run.
type AnalysisSpec struct {
	Mode    GroupingMode
	Periods PeriodPair

	Category        string
	Brands          []string
	ProductContains []string
	StoreCutoff     *TimePoint

	// Threshold is the primary-share cutoff. Zero value means
	// DefaultThreshold.
	Threshold decimal.Decimal

	// Mapping is required for ModeCustom and ignored otherwise.
	Mapping CustomMapping
}

// Validate checks the spec and fills defaults. It is called by Run but is
// exported so config layers can fail fast.
func (s *AnalysisSpec) Validate() error {
	if !s.Mode.Valid() {
		return ErrInvalidMode
	}
	if s.Threshold.IsZero() {
		s.Threshold = DefaultThreshold
	}
	if s.Threshold.IsNegative() || s.Threshold.GreaterThan(decimal.NewFromInt(1)) {
		return &ThresholdError{Value: s.Threshold.String()}
	}
	if s.Mode == ModeCustom && len(s.Mapping) == 0 {
		return ErrMissingMapping
	}
	return nil
}

// groupingValue maps a sale row to its grouping value under the spec's mode.
func (s *AnalysisSpec) groupingValue(row SaleRow) string {
	switch s.Mode {
	case ModeProduct:
		return row.ProductName
	case ModeCategory:
		return row.Category
	case ModeCustom:
		return s.Mapping.LabelFor(row.Barcode)
	default:
		return row.Brand
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one analysis run. Table is the classified flow
// table at the grouping level of the spec's mode; BrandOf is the
// product-to-brand map captured from the catalog join at query time, used by
// the brand rollup in product mode.
type Result struct {
	Table     FlowTable
	BrandOf   map[string]string
	Customers int
	Warnings  []Warning
}

// =============================================================================
// RUN OPTIONS
// =============================================================================

type runConfig struct {
	progress func(done, total int)
}

// RunOption customizes a run without widening the Run signature.
type RunOption func(*runConfig)

// WithProgress reports resolver progress as (customers done, customers
// total). Used by batch CLIs; the callback must be fast.
func WithProgress(fn func(done, total int)) RunOption {
	return func(c *runConfig) { c.progress = fn }
}

// =============================================================================
// RUN
// =============================================================================

// Run executes one full analysis: fetch, resolve, classify, aggregate.
func Run(ctx context.Context, src SaleSource, spec AnalysisSpec, opts ...RunOption) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rows, err := src.Sales(ctx, SourceQuery{
		Periods:         spec.Periods,
		Category:        spec.Category,
		Brands:          spec.Brands,
		ProductContains: spec.ProductContains,
		StoreCutoff:     spec.StoreCutoff,
	})
	if err != nil {
		return nil, err
	}

	// Group rows into per-customer per-period sale lines, keeping the
	// product-to-brand association the catalog join established.
	type periodLines struct {
		before []SaleLine
		after  []SaleLine
	}
	byCustomer := make(map[string]*periodLines)
	brandOf := make(map[string]string)
	for _, row := range rows {
		tag := spec.Periods.TagOf(row.Date)
		if tag == PeriodNone {
			continue
		}
		if row.ProductName != "" {
			brandOf[row.ProductName] = row.Brand
		}
		lines, ok := byCustomer[row.CustomerID]
		if !ok {
			lines = &periodLines{}
			byCustomer[row.CustomerID] = lines
		}
		line := SaleLine{Value: spec.groupingValue(row), Amount: row.Amount, Date: row.Date}
		if tag == PeriodBefore {
			lines.before = append(lines.before, line)
		} else {
			lines.after = append(lines.after, line)
		}
	}

	result := &Result{BrandOf: brandOf, Customers: len(byCustomer)}
	if len(byCustomer) == 0 {
		result.Table = FlowTable{}
		result.Warnings = append(result.Warnings, WarnEmptyInput)
		return result, nil
	}

	resolver := NewResolver(spec.Threshold)
	pairs := make(map[string]ProfilePair, len(byCustomer))
	done := 0
	for customer, lines := range byCustomer {
		pairs[customer] = ProfilePair{
			Before: resolver.Resolve(lines.before),
			After:  resolver.Resolve(lines.after),
		}
		done++
		if cfg.progress != nil {
			cfg.progress(done, len(byCustomer))
		}
	}

	table, err := Aggregate(pairs)
	if err != nil {
		return nil, err
	}
	result.Table = table
	return result, nil
}
