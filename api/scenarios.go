/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	sale data for testing and demos. Each scenario creates a product catalog,
	stores, and raw transactions shaped so the pipeline produces every
	movement type: loyal customers, switchers, mixed buyers, new entrants,
	and lapsed customers.

AVAILABLE SCENARIOS:

	personal-care:   Three skin-care brands with all movement archetypes
	oral-care:       Product-level switching within two brands
	cross-category:  Customers migrating between categories

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create catalog entries and stores
 3. Generate deterministic transactions per customer archetype

The data is deterministic, so analyses over a freshly loaded scenario always
produce the same flow table.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "personal-care"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - store/sqlite: Bulk loading
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/switching-engine/flow"
	"github.com/warp/switching-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "personal-care",
		Name:        "Personal Care Brands",
		Description: "Three skin-care brands with stayers, switchers, mixed buyers, new and lost customers",
	},
	{
		ID:          "oral-care",
		Name:        "Oral Care Products",
		Description: "Product-level switching between toothpaste variants of two brands",
	},
	{
		ID:          "cross-category",
		Name:        "Cross-Category Migration",
		Description: "Customers migrating from skin care into hair care and sun care",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.runs = make(map[string]*analysisRun)
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "personal-care":
		err = loadPersonalCareScenario(ctx, h.Store)
	case "oral-care":
		err = loadOralCareScenario(ctx, h.Store)
	case "cross-category":
		err = loadCrossCategoryScenario(ctx, h.Store)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.runs = make(map[string]*analysisRun)
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDER
// =============================================================================

// scenarioBuilder accumulates deterministic transactions for one scenario.
type scenarioBuilder struct {
	sales  []sqlite.SaleRecord
	seq    int
	before flow.TimePoint
	after  flow.TimePoint
}

func newScenarioBuilder() *scenarioBuilder {
	return &scenarioBuilder{
		before: flow.NewTimePoint(2024, time.February, 1),
		after:  flow.NewTimePoint(2025, time.February, 1),
	}
}

func (b *scenarioBuilder) sale(customer, barcode string, date flow.TimePoint, amount float64) {
	b.seq++
	b.sales = append(b.sales, sqlite.SaleRecord{
		Date:       date,
		CustomerID: customer,
		DocumentID: fmt.Sprintf("DOC-%06d", b.seq),
		StoreID:    "S-001",
		Barcode:    barcode,
		Amount:     decimal.NewFromFloat(amount),
	})
}

// buy records n customers purchasing beforeBarcode in period 1 and
// afterBarcode in period 2. Empty barcode means no purchase in that period.
func (b *scenarioBuilder) buy(prefix string, n int, beforeBarcode, afterBarcode string) {
	for i := 0; i < n; i++ {
		customer := fmt.Sprintf("C-%s-%04d", prefix, i)
		if beforeBarcode != "" {
			b.sale(customer, beforeBarcode, b.before.AddDays(i%28), 100)
		}
		if afterBarcode != "" {
			b.sale(customer, afterBarcode, b.after.AddDays(i%28), 100)
		}
	}
}

// buyMixed records n customers splitting spend 55/45 between two barcodes in
// both periods, which lands below the default 0.60 threshold.
func (b *scenarioBuilder) buyMixed(prefix string, n int, barcodeA, barcodeB string) {
	for i := 0; i < n; i++ {
		customer := fmt.Sprintf("C-%s-%04d", prefix, i)
		b.sale(customer, barcodeA, b.before.AddDays(i%28), 55)
		b.sale(customer, barcodeB, b.before.AddDays(i%28+1), 45)
		b.sale(customer, barcodeA, b.after.AddDays(i%28), 55)
		b.sale(customer, barcodeB, b.after.AddDays(i%28+1), 45)
	}
}

var demoStores = []sqlite.StoreRecord{
	{Code: "S-001", OpeningDate: flow.NewTimePoint(2020, time.June, 1)},
	{Code: "S-002", OpeningDate: flow.NewTimePoint(2024, time.August, 15)},
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadPersonalCareScenario(ctx context.Context, store *sqlite.Store) error {
	products := []sqlite.Product{
		{Barcode: "8850000000011", Name: "NIVEA Soft Cream 100ml", Brand: "NIVEA", Category: "Skin Care", Subcategory: "Moisturizer"},
		{Barcode: "8850000000012", Name: "NIVEA Body Lotion 400ml", Brand: "NIVEA", Category: "Skin Care", Subcategory: "Lotion"},
		{Barcode: "8850000000021", Name: "VASELINE Healthy Bright 300ml", Brand: "VASELINE", Category: "Skin Care", Subcategory: "Lotion"},
		{Barcode: "8850000000022", Name: "VASELINE Petroleum Jelly 50ml", Brand: "VASELINE", Category: "Skin Care", Subcategory: "Jelly"},
		{Barcode: "8850000000031", Name: "CITRA Pearly White UV 230ml", Brand: "CITRA", Category: "Skin Care", Subcategory: "Lotion"},
	}
	if err := store.AddProducts(ctx, products); err != nil {
		return err
	}
	if err := store.AddStores(ctx, demoStores); err != nil {
		return err
	}

	b := newScenarioBuilder()
	// Loyal customers per brand.
	b.buy("NIV-STAY", 40, "8850000000011", "8850000000011")
	b.buy("VAS-STAY", 32, "8850000000021", "8850000000021")
	b.buy("CIT-STAY", 18, "8850000000031", "8850000000031")
	// Switchers between brands.
	b.buy("NIV-VAS", 9, "8850000000012", "8850000000021")
	b.buy("VAS-NIV", 5, "8850000000022", "8850000000011")
	b.buy("VAS-CIT", 6, "8850000000021", "8850000000031")
	b.buy("CIT-NIV", 4, "8850000000031", "8850000000012")
	// New to category and lost from category.
	b.buy("NEW-NIV", 12, "", "8850000000011")
	b.buy("NEW-CIT", 7, "", "8850000000031")
	b.buy("LOST-NIV", 8, "8850000000011", "")
	b.buy("LOST-VAS", 6, "8850000000022", "")
	// Mixed buyers in both periods.
	b.buyMixed("MIX", 10, "8850000000011", "8850000000021")

	return store.AddSales(ctx, b.sales)
}

func loadOralCareScenario(ctx context.Context, store *sqlite.Store) error {
	products := []sqlite.Product{
		{Barcode: "8851110000011", Name: "COLGATE Total Charcoal 150g", Brand: "COLGATE", Category: "Oral Care", Subcategory: "Toothpaste"},
		{Barcode: "8851110000012", Name: "COLGATE MaxFresh Cool Mint 150g", Brand: "COLGATE", Category: "Oral Care", Subcategory: "Toothpaste"},
		{Barcode: "8851110000021", Name: "SENSODYNE Repair Protect 100g", Brand: "SENSODYNE", Category: "Oral Care", Subcategory: "Toothpaste"},
	}
	if err := store.AddProducts(ctx, products); err != nil {
		return err
	}
	if err := store.AddStores(ctx, demoStores); err != nil {
		return err
	}

	b := newScenarioBuilder()
	// Variant loyalty and within-brand product switching.
	b.buy("TOT-STAY", 25, "8851110000011", "8851110000011")
	b.buy("TOT-MAX", 8, "8851110000011", "8851110000012")
	b.buy("MAX-SEN", 6, "8851110000012", "8851110000021")
	b.buy("SEN-STAY", 15, "8851110000021", "8851110000021")
	b.buy("NEW-MAX", 5, "", "8851110000012")
	b.buy("LOST-SEN", 4, "8851110000021", "")

	return store.AddSales(ctx, b.sales)
}

func loadCrossCategoryScenario(ctx context.Context, store *sqlite.Store) error {
	products := []sqlite.Product{
		{Barcode: "8852220000011", Name: "NIVEA Soft Cream 200ml", Brand: "NIVEA", Category: "Skin Care", Subcategory: "Moisturizer"},
		{Barcode: "8852220000021", Name: "SUNSILK Smooth Shampoo 450ml", Brand: "SUNSILK", Category: "Hair Care", Subcategory: "Shampoo"},
		{Barcode: "8852220000031", Name: "BANANA BOAT Sport SPF50 90ml", Brand: "BANANA BOAT", Category: "Sun Care", Subcategory: "Sunscreen"},
	}
	if err := store.AddProducts(ctx, products); err != nil {
		return err
	}
	if err := store.AddStores(ctx, demoStores); err != nil {
		return err
	}

	b := newScenarioBuilder()
	b.buy("SKIN-STAY", 30, "8852220000011", "8852220000011")
	b.buy("SKIN-HAIR", 12, "8852220000011", "8852220000021")
	b.buy("SKIN-SUN", 5, "8852220000011", "8852220000031")
	b.buy("SKIN-LOST", 7, "8852220000011", "")
	b.buy("HAIR-STAY", 20, "8852220000021", "8852220000021")

	return store.AddSales(ctx, b.sales)
}
