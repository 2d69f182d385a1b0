/*
Package factory provides JSON to Go analysis-spec conversion.

PURPOSE:
  Converts JSON analysis requests into flow.AnalysisSpec values. This keeps
  the wire format decoupled from the engine types: dates arrive as strings,
  the custom mapping arrives as pasted text, and the grouping mode arrives as
  a label - all validated and normalized here, once, instead of ad hoc in
  every handler.

JSON SCHEMA:
  {
    "mode": "brand",                  // brand | product | category | custom
    "period1": {"start": "2024-01-01", "end": "2024-03-31"},
    "period2": {"start": "2025-01-01", "end": "2025-03-31"},
    "category": "Skin Care",
    "brands": ["NIVEA", "VASELINE"],
    "product_contains": "lotion, cream",
    "primary_threshold": 0.6,
    "barcode_mapping": "8850001,Premium\n8850002,Value",
    "store_cutoff": "2023-12-31"
  }

DEFAULTS:
  mode defaults to brand, primary_threshold to 0.60. A missing store_cutoff
  means all stores.

SEE ALSO:
  - flow/engine.go: AnalysisSpec and its validation
  - api/handlers.go: Uses this factory for the run endpoint
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/switching-engine/flow"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PeriodJSON is an inclusive date range in YYYY-MM-DD form.
type PeriodJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AnalysisJSON is the wire form of an analysis request.
type AnalysisJSON struct {
	Mode             string     `json:"mode,omitempty"`
	Period1          PeriodJSON `json:"period1"`
	Period2          PeriodJSON `json:"period2"`
	Category         string     `json:"category,omitempty"`
	Brands           []string   `json:"brands,omitempty"`
	ProductContains  string     `json:"product_contains,omitempty"`
	PrimaryThreshold *float64   `json:"primary_threshold,omitempty"`
	BarcodeMapping   string     `json:"barcode_mapping,omitempty"`
	StoreCutoff      string     `json:"store_cutoff,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// AnalysisFactory converts analysis JSON into engine specs.
type AnalysisFactory struct{}

func NewAnalysisFactory() *AnalysisFactory {
	return &AnalysisFactory{}
}

// Parse decodes and validates an analysis request.
func (f *AnalysisFactory) Parse(raw []byte) (flow.AnalysisSpec, error) {
	var req AnalysisJSON
	if err := json.Unmarshal(raw, &req); err != nil {
		return flow.AnalysisSpec{}, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	return f.Build(req)
}

// Build converts a decoded request into a validated spec.
func (f *AnalysisFactory) Build(req AnalysisJSON) (flow.AnalysisSpec, error) {
	spec := flow.AnalysisSpec{
		Mode:     flow.GroupingMode(req.Mode),
		Category: req.Category,
		Brands:   req.Brands,
	}
	if req.Mode == "" {
		spec.Mode = flow.ModeBrand
	}

	var err error
	if spec.Periods.Before, err = parsePeriod(req.Period1, "period1"); err != nil {
		return flow.AnalysisSpec{}, err
	}
	if spec.Periods.After, err = parsePeriod(req.Period2, "period2"); err != nil {
		return flow.AnalysisSpec{}, err
	}

	if req.PrimaryThreshold != nil {
		spec.Threshold = decimal.NewFromFloat(*req.PrimaryThreshold)
	}

	spec.ProductContains = splitKeywords(req.ProductContains)

	if req.StoreCutoff != "" {
		cutoff, err := flow.ParseDate(req.StoreCutoff)
		if err != nil {
			return flow.AnalysisSpec{}, fmt.Errorf("invalid store_cutoff: %w", err)
		}
		spec.StoreCutoff = &cutoff
	}

	if spec.Mode == flow.ModeCustom {
		mapping := flow.ParseMapping(req.BarcodeMapping)
		if len(mapping) > flow.MaxMappings {
			return flow.AnalysisSpec{}, fmt.Errorf("too many barcode mappings: %d (max %d)", len(mapping), flow.MaxMappings)
		}
		spec.Mapping = mapping
	}

	if err := spec.Validate(); err != nil {
		return flow.AnalysisSpec{}, err
	}
	return spec, nil
}

func parsePeriod(p PeriodJSON, field string) (flow.Period, error) {
	start, err := flow.ParseDate(p.Start)
	if err != nil {
		return flow.Period{}, fmt.Errorf("invalid %s.start: %w", field, err)
	}
	end, err := flow.ParseDate(p.End)
	if err != nil {
		return flow.Period{}, fmt.Errorf("invalid %s.end: %w", field, err)
	}
	return flow.Period{Start: start, End: end}, nil
}

// splitKeywords splits a comma-separated keyword list, dropping empties.
func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
