/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's tagged-union types from the external API contract: the flow
  sentinels become the documented string labels (NEW_TO_CATEGORY,
  LOST_FROM_CATEGORY, MIXED, OTHERS) here and nowhere earlier.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/analysis.go: AnalysisJSON request schema
*/
package api

import (
	"github.com/warp/switching-engine/flow"
)

// =============================================================================
// ANALYSIS
// =============================================================================

// AnalysisDTO describes a completed analysis run.
type AnalysisDTO struct {
	ID        string   `json:"id"`
	Mode      string   `json:"mode"`
	Category  string   `json:"category,omitempty"`
	Period1   string   `json:"period1"`
	Period2   string   `json:"period2"`
	Customers int      `json:"customers"`
	Rows      int      `json:"rows"`
	Warnings  []string `json:"warnings,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// FlowRowDTO is one classified flow table row on the wire.
type FlowRowDTO struct {
	From      string `json:"from_item"`
	To        string `json:"to_item"`
	MoveType  string `json:"movement_type"`
	Customers int    `json:"customer_count"`
}

// FlowTableDTO wraps a view of the flow table.
type FlowTableDTO struct {
	Level     string       `json:"level"`
	View      string       `json:"view"`
	Selection []string     `json:"selection,omitempty"`
	Rows      []FlowRowDTO `json:"rows"`
	Total     int          `json:"total_customers"`
	Warning   string       `json:"warning,omitempty"`
}

func toFlowRowDTOs(t flow.FlowTable) []FlowRowDTO {
	rows := make([]FlowRowDTO, len(t))
	for i, r := range t {
		rows[i] = FlowRowDTO{
			From:      r.From.FromLabel(),
			To:        r.To.ToLabel(),
			MoveType:  string(r.Type),
			Customers: r.Customers,
		}
	}
	return rows
}

// =============================================================================
// SUMMARY / KPIS
// =============================================================================

// EntitySummaryDTO is one movement-summary row.
type EntitySummaryDTO struct {
	Entity         string  `json:"entity"`
	Period1Total   int     `json:"period1_total"`
	Stayed         int     `json:"stayed"`
	SwitchOut      int     `json:"switch_out"`
	Gone           int     `json:"gone"`
	SwitchIn       int     `json:"switch_in"`
	NewCustomer    int     `json:"new_customer"`
	Period2Total   int     `json:"period2_total"`
	TotalIn        int     `json:"total_in"`
	TotalOut       int     `json:"total_out"`
	NetMovement    int     `json:"net_movement"`
	StayedPct      float64 `json:"stayed_pct"`
	SwitchOutPct   float64 `json:"switch_out_pct"`
	GonePct        float64 `json:"gone_pct"`
	SwitchInPct    float64 `json:"switch_in_pct"`
	NewCustomerPct float64 `json:"new_customer_pct"`
}

func toSummaryDTOs(summaries []flow.EntitySummary) []EntitySummaryDTO {
	dtos := make([]EntitySummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = EntitySummaryDTO{
			Entity:         s.Entity,
			Period1Total:   s.Period1Total,
			Stayed:         s.Stayed,
			SwitchOut:      s.SwitchOut,
			Gone:           s.Gone,
			SwitchIn:       s.SwitchIn,
			NewCustomer:    s.NewCustomer,
			Period2Total:   s.Period2Total,
			TotalIn:        s.TotalIn,
			TotalOut:       s.TotalOut,
			NetMovement:    s.NetMovement,
			StayedPct:      s.StayedPct.InexactFloat64(),
			SwitchOutPct:   s.SwitchOutPct.InexactFloat64(),
			GonePct:        s.GonePct.InexactFloat64(),
			SwitchInPct:    s.SwitchInPct.InexactFloat64(),
			NewCustomerPct: s.NewCustomerPct.InexactFloat64(),
		}
	}
	return dtos
}

// KPIsDTO is the executive KPI block.
type KPIsDTO struct {
	TotalMovement       int     `json:"total_movement"`
	WinnerName          string  `json:"winner_name"`
	WinnerNet           int     `json:"winner_net"`
	LoserName           string  `json:"loser_name"`
	LoserNet            int     `json:"loser_net"`
	ChurnRate           float64 `json:"churn_rate"`
	NetCategoryMovement int     `json:"net_category_movement"`
}

func toKPIsDTO(k *flow.ExecutiveKPIs) *KPIsDTO {
	if k == nil {
		return nil
	}
	return &KPIsDTO{
		TotalMovement:       k.TotalMovement,
		WinnerName:          k.WinnerName,
		WinnerNet:           k.WinnerNet,
		LoserName:           k.LoserName,
		LoserNet:            k.LoserNet,
		ChurnRate:           k.ChurnRate.InexactFloat64(),
		NetCategoryMovement: k.NetCategoryMovement,
	}
}

// CrossCategoryDTO is the cross-category KPI block.
type CrossCategoryDTO struct {
	TotalSourceCustomers int     `json:"total_source_customers"`
	Stayed               int     `json:"stayed"`
	StayedPct            float64 `json:"stayed_pct"`
	TargetSwitched       int     `json:"target_switched"`
	TargetSwitchedPct    float64 `json:"target_switched_pct"`
	Gone                 int     `json:"gone"`
	GonePct              float64 `json:"gone_pct"`
	TopTarget            string  `json:"top_target,omitempty"`
	TopTargetPct         float64 `json:"top_target_pct"`
}

// =============================================================================
// CHARTS
// =============================================================================

// TopFlowDTO is one ranked flow row with display labels.
type TopFlowDTO struct {
	From      string `json:"from"`
	To        string `json:"to"`
	MoveType  string `json:"movement_type"`
	Customers int    `json:"customers"`
}

// HeatmapDTO is the origin x destination matrix.
type HeatmapDTO struct {
	FromLabels []string `json:"from_labels"`
	ToLabels   []string `json:"to_labels"`
	Cells      [][]int  `json:"cells"`
}

// WaterfallDTO is the period bridge for one entity.
type WaterfallDTO struct {
	Entity   string   `json:"entity"`
	Labels   []string `json:"labels"`
	Values   []int    `json:"values"`
	Measures []string `json:"measures"`
}

// SankeyDTO holds Sankey node labels and links.
type SankeyDTO struct {
	Labels  []string `json:"labels"`
	Sources []int    `json:"sources"`
	Targets []int    `json:"targets"`
	Values  []int    `json:"values"`
}

// =============================================================================
// SCENARIOS / TRACKING / ERRORS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// CreateSessionRequest opens a tracking session.
type CreateSessionRequest struct {
	UserRole string `json:"user_role"`
}

// LogEventRequest records a usage event.
type LogEventRequest struct {
	EventType  string         `json:"event_type"`
	Payload    map[string]any `json:"payload,omitempty"`
	DurationMS *int64         `json:"duration_ms,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
