/*
handlers.go - HTTP API handlers for the switching analysis engine

PURPOSE:
  Exposes the analysis engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the flow pipeline.

ENDPOINTS:
  Analyses:
    POST   /api/analyses                      Run a switching analysis
    GET    /api/analyses/{id}                 Run metadata
    GET    /api/analyses/{id}/flows           Flow table per view/level
    GET    /api/analyses/{id}/summary         Per-entity movement summary
    GET    /api/analyses/{id}/kpis            Executive KPI block
    GET    /api/analyses/{id}/cross-category  Cross-category KPIs
    GET    /api/analyses/{id}/top-flows       Ranked flows
    GET    /api/analyses/{id}/charts/heatmap  Competitive matrix
    GET    /api/analyses/{id}/charts/sankey   Sankey nodes/links
    GET    /api/analyses/{id}/charts/waterfall  Period bridge per entity

  Catalog:
    GET    /api/categories                    Distinct categories
    GET    /api/categories/{category}/brands  Brands within a category

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    POST   /api/scenarios/load                Load a demo scenario
    POST   /api/scenarios/reset               Clear all data

  Tracking:
    POST   /api/sessions                      Open a usage session
    POST   /api/sessions/{id}/events          Record a usage event

VIEW RESOLUTION:
  Every flows/summary/kpis/chart request re-derives its table from the run's
  classified flow table - never from raw sales. Query params:
    level=brand|product   (product only valid for product-mode runs)
    view=filtered|full    (default filtered)
    selection=A,B,C       (empty = no filter)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown analysis/scenario
  - 500: Internal errors
  Empty results are not errors: they return empty tables, optionally with a
  warning field.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/switching-engine/factory"
	"github.com/warp/switching-engine/flow"
	"github.com/warp/switching-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// analysisRun is one completed run kept for view re-aggregation.
type analysisRun struct {
	ID        string
	Spec      flow.AnalysisSpec
	Result    *flow.Result
	CreatedAt time.Time
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.AnalysisFactory

	mu   sync.RWMutex
	runs map[string]*analysisRun

	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewAnalysisFactory(),
		runs:    make(map[string]*analysisRun),
	}
}

func (h *Handler) getRun(id string) (*analysisRun, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	run, ok := h.runs[id]
	return run, ok
}

// =============================================================================
// ANALYSIS HANDLERS
// =============================================================================

// RunAnalysis executes a full analysis and caches the classified flow table.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req factory.AnalysisJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec, err := h.Factory.Build(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid analysis request", err)
		return
	}

	result, err := flow.Run(r.Context(), h.Store, spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Analysis failed", err)
		return
	}

	run := &analysisRun{
		ID:        uuid.NewString(),
		Spec:      spec,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	h.mu.Lock()
	h.runs[run.ID] = run
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, toAnalysisDTO(run))
}

// GetAnalysis returns run metadata.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisDTO(run))
}

func toAnalysisDTO(run *analysisRun) AnalysisDTO {
	warnings := make([]string, len(run.Result.Warnings))
	for i, wn := range run.Result.Warnings {
		warnings[i] = string(wn)
	}
	return AnalysisDTO{
		ID:        run.ID,
		Mode:      string(run.Spec.Mode),
		Category:  run.Spec.Category,
		Period1:   run.Spec.Periods.Before.String(),
		Period2:   run.Spec.Periods.After.String(),
		Customers: run.Result.Customers,
		Rows:      len(run.Result.Table),
		Warnings:  warnings,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// VIEW RESOLUTION
// =============================================================================

// resolveView derives the requested table from a run's classified flow
// table: level rollup first, then the visibility transform.
func (h *Handler) resolveView(run *analysisRun, r *http.Request) (flow.FlowTable, ViewParams, error) {
	params := ViewParams{
		Level:     flow.ViewLevel(queryDefault(r, "level", defaultLevel(run.Spec.Mode))),
		View:      flow.ViewMode(queryDefault(r, "view", string(flow.ViewFiltered))),
		Selection: splitParam(r.URL.Query().Get("selection")),
	}

	table := run.Result.Table
	switch params.Level {
	case flow.LevelBrand:
		if run.Spec.Mode == flow.ModeProduct {
			table = flow.BrandRollup(table, run.Result.BrandOf)
		}
	case flow.LevelProduct:
		if run.Spec.Mode != flow.ModeProduct {
			return nil, params, errors.New("product level requires a product-mode analysis")
		}
	default:
		return nil, params, errors.New("level must be brand or product")
	}

	switch params.View {
	case flow.ViewFiltered, flow.ViewFull:
	default:
		return nil, params, errors.New("view must be filtered or full")
	}

	table = flow.View(table, params.View, flow.NewSelection(params.Selection))
	return table, params, nil
}

// ViewParams echoes the resolved view parameters back to the client.
type ViewParams struct {
	Level     flow.ViewLevel
	View      flow.ViewMode
	Selection []string
}

func defaultLevel(mode flow.GroupingMode) string {
	if mode == flow.ModeProduct {
		return string(flow.LevelProduct)
	}
	return string(flow.LevelBrand)
}

// GetFlows returns the flow table for the requested view.
func (h *Handler) GetFlows(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, params, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	dto := FlowTableDTO{
		Level:     string(params.Level),
		View:      string(params.View),
		Selection: params.Selection,
		Rows:      toFlowRowDTOs(table),
		Total:     table.Total(),
	}
	if len(table) == 0 && len(params.Selection) > 0 {
		dto.Warning = string(flow.WarnEmptySelection)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetSummary returns the per-entity movement summary for the requested view.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(flow.Summaries(table)))
}

// GetKPIs returns the executive KPI block for the requested view.
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	kpis := toKPIsDTO(flow.KPIs(flow.Summaries(table)))
	if kpis == nil {
		writeJSON(w, http.StatusOK, KPIsDTO{WinnerName: flow.NoWinner})
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

// GetCrossCategory returns cross-category KPIs for a category-mode run.
func (h *Handler) GetCrossCategory(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}
	if run.Spec.Mode != flow.ModeCategory {
		writeError(w, http.StatusBadRequest, "Cross-category KPIs require a category-mode analysis", nil)
		return
	}

	targets := splitParam(r.URL.Query().Get("targets"))
	k := flow.CrossCategory(run.Result.Table, targets)
	writeJSON(w, http.StatusOK, CrossCategoryDTO{
		TotalSourceCustomers: k.TotalSourceCustomers,
		Stayed:               k.Stayed,
		StayedPct:            k.StayedPct.InexactFloat64(),
		TargetSwitched:       k.TargetSwitched,
		TargetSwitchedPct:    k.TargetSwitchedPct.InexactFloat64(),
		Gone:                 k.Gone,
		GonePct:              k.GonePct.InexactFloat64(),
		TopTarget:            k.TopTarget,
		TopTargetPct:         k.TopTargetPct.InexactFloat64(),
	})
}

// =============================================================================
// CHART HANDLERS
// =============================================================================

// GetTopFlows returns the n largest flows for the requested view.
func (h *Handler) GetTopFlows(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	top := flow.TopFlows(table, n)
	dtos := make([]TopFlowDTO, len(top))
	for i, f := range top {
		dtos[i] = TopFlowDTO{From: f.From, To: f.To, MoveType: string(f.Type), Customers: f.Customers}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetHeatmap returns the competitive matrix for the requested view.
func (h *Handler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	hm := flow.BuildHeatmap(table)
	writeJSON(w, http.StatusOK, HeatmapDTO{FromLabels: hm.FromLabels, ToLabels: hm.ToLabels, Cells: hm.Cells})
}

// GetSankey returns Sankey nodes and links for the requested view.
func (h *Handler) GetSankey(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	s := flow.BuildSankey(table)
	writeJSON(w, http.StatusOK, SankeyDTO{Labels: s.Labels, Sources: s.Sources, Targets: s.Targets, Values: s.Values})
}

// GetWaterfall returns the period bridge for one entity.
func (h *Handler) GetWaterfall(w http.ResponseWriter, r *http.Request) {
	run, ok := h.getRun(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Analysis not found", nil)
		return
	}

	entity := r.URL.Query().Get("entity")
	if entity == "" {
		writeError(w, http.StatusBadRequest, "entity query parameter is required", nil)
		return
	}

	table, _, err := h.resolveView(run, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid view parameters", err)
		return
	}

	wf := flow.BuildWaterfall(table, entity)
	writeJSON(w, http.StatusOK, WaterfallDTO{Entity: entity, Labels: wf.Labels, Values: wf.Values, Measures: wf.Measures})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCategories returns the distinct catalog categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// ListBrands returns the distinct brands within a category.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Store.BrandsByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list brands", err)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	writeJSON(w, http.StatusOK, brands)
}

// =============================================================================
// TRACKING HANDLERS
// =============================================================================

// CreateSession opens a usage-tracking session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserRole == "" {
		req.UserRole = "user"
	}

	id, err := h.Store.CreateSession(r.Context(), req.UserRole, clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// LogEvent records a usage event for a session.
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var req LogEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sessionID := chi.URLParam(r, "id")
	err := h.Store.LogEvent(r.Context(), sessionID, sqlite.EventType(req.EventType), req.Payload, req.DurationMS)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to log event", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "logged"})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.SplitN(fwd, ",", 2)[0]
	}
	return r.RemoteAddr
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

// splitParam splits a comma-separated query parameter, dropping empties.
func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
