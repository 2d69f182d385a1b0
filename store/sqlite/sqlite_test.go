package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/switching-engine/flow"
	"github.com/warp/switching-engine/store/sqlite"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCatalog(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.AddProducts(ctx, []sqlite.Product{
		{Barcode: "8850001", Name: "NIVEA Body Lotion 200ml", Brand: "NIVEA", Category: "Skin Care", Subcategory: "Lotion"},
		{Barcode: "8850002", Name: "VASELINE Healthy White 300ml", Brand: "VASELINE", Category: "Skin Care", Subcategory: "Lotion"},
		{Barcode: "8850003", Name: "COLGATE Total 150g", Brand: "COLGATE", Category: "Oral Care", Subcategory: "Toothpaste"},
	}))
	require.NoError(t, store.AddStores(ctx, []sqlite.StoreRecord{
		{Code: "S-001", OpeningDate: flow.NewTimePoint(2020, time.June, 1)},
		{Code: "S-NEW", OpeningDate: flow.NewTimePoint(2024, time.August, 15)},
	}))
}

func saleRecord(customer, barcode, storeCode string, amount float64, date flow.TimePoint) sqlite.SaleRecord {
	return sqlite.SaleRecord{
		Date:       date,
		CustomerID: customer,
		DocumentID: "DOC-" + customer,
		StoreID:    storeCode,
		Barcode:    barcode,
		Amount:     decimal.NewFromFloat(amount),
	}
}

func testQuery() flow.SourceQuery {
	return flow.SourceQuery{
		Periods: flow.PeriodPair{
			Before: flow.Period{
				Start: flow.NewTimePoint(2024, time.January, 1),
				End:   flow.NewTimePoint(2024, time.March, 31),
			},
			After: flow.Period{
				Start: flow.NewTimePoint(2025, time.January, 1),
				End:   flow.NewTimePoint(2025, time.March, 31),
			},
		},
		Category: "Skin Care",
	}
}

// =============================================================================
// SOURCE QUERY
// =============================================================================

func TestSales_JoinsCatalogAndStore(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	require.NoError(t, store.AddSales(ctx, []sqlite.SaleRecord{
		saleRecord("C1", "8850001", "S-001", 120.50, flow.NewTimePoint(2024, time.January, 15)),
	}))

	rows, err := store.Sales(ctx, testQuery())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "C1", r.CustomerID)
	assert.Equal(t, "NIVEA Body Lotion 200ml", r.ProductName)
	assert.Equal(t, "NIVEA", r.Brand)
	assert.Equal(t, "Skin Care", r.Category)
	assert.Equal(t, "Lotion", r.Subcategory)
	assert.True(t, r.Amount.Equal(decimal.NewFromFloat(120.50)))
	assert.Equal(t, flow.NewTimePoint(2024, time.January, 15), r.Date)
}

func TestSales_ExcludesOutOfScopeRows(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	inPeriod := flow.NewTimePoint(2024, time.February, 1)
	require.NoError(t, store.AddSales(ctx, []sqlite.SaleRecord{
		saleRecord("C1", "8850001", "S-001", 100, inPeriod),
		// Walk-in customer code.
		saleRecord("0", "8850001", "S-001", 100, inPeriod),
		// Outside both periods.
		saleRecord("C2", "8850001", "S-001", 100, flow.NewTimePoint(2024, time.June, 1)),
		// Wrong category.
		saleRecord("C3", "8850003", "S-001", 100, inPeriod),
		// No catalog match: drops out of the join.
		saleRecord("C4", "999999", "S-001", 100, inPeriod),
		// No store match: drops out of the join.
		saleRecord("C5", "8850001", "S-GONE", 100, inPeriod),
	}))

	rows, err := store.Sales(ctx, testQuery())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "C1", rows[0].CustomerID)
}

func TestSales_BrandAndKeywordFilters(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	inPeriod := flow.NewTimePoint(2024, time.February, 1)
	require.NoError(t, store.AddSales(ctx, []sqlite.SaleRecord{
		saleRecord("C1", "8850001", "S-001", 100, inPeriod),
		saleRecord("C2", "8850002", "S-001", 100, inPeriod),
	}))

	q := testQuery()
	q.Brands = []string{"VASELINE"}
	rows, err := store.Sales(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C2", rows[0].CustomerID)

	q = testQuery()
	q.ProductContains = []string{"healthy white"}
	rows, err = store.Sales(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C2", rows[0].CustomerID)
}

func TestSales_StoreCutoff(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	inPeriod := flow.NewTimePoint(2024, time.February, 1)
	require.NoError(t, store.AddSales(ctx, []sqlite.SaleRecord{
		saleRecord("C1", "8850001", "S-001", 100, inPeriod),
		saleRecord("C2", "8850001", "S-NEW", 100, inPeriod),
	}))

	cutoff := flow.NewTimePoint(2024, time.January, 1)
	q := testQuery()
	q.StoreCutoff = &cutoff

	rows, err := store.Sales(ctx, q)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "C1", rows[0].CustomerID)
}

func TestSales_FeedsEngineRun(t *testing.T) {
	// The store satisfies the engine's source contract end to end.
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	require.NoError(t, store.AddSales(ctx, []sqlite.SaleRecord{
		saleRecord("C1", "8850001", "S-001", 100, flow.NewTimePoint(2024, time.January, 10)),
		saleRecord("C1", "8850002", "S-001", 100, flow.NewTimePoint(2025, time.January, 10)),
	}))

	result, err := flow.Run(ctx, store, flow.AnalysisSpec{
		Mode:     flow.ModeBrand,
		Periods:  testQuery().Periods,
		Category: "Skin Care",
	})
	require.NoError(t, err)

	assert.Equal(t, flow.FlowTable{
		{From: flow.NewItem("NIVEA"), To: flow.NewItem("VASELINE"), Type: flow.MoveSwitched, Customers: 1},
	}, result.Table)
}

// =============================================================================
// CATALOG LOOKUPS
// =============================================================================

func TestCatalogLookups(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Oral Care", "Skin Care"}, categories)

	brands, err := store.BrandsByCategory(ctx, "Skin Care")
	require.NoError(t, err)
	assert.Equal(t, []string{"NIVEA", "VASELINE"}, brands)

	subs, err := store.SubcategoriesByCategory(ctx, "Skin Care")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lotion"}, subs)

	brandOf, err := store.ProductBrands(ctx, "Skin Care")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"NIVEA Body Lotion 200ml":      "NIVEA",
		"VASELINE Healthy White 300ml": "VASELINE",
	}, brandOf)
}

func TestAddProducts_UpsertsOnBarcode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddProducts(ctx, []sqlite.Product{
		{Barcode: "8850001", Name: "Old Name", Brand: "NIVEA", Category: "Skin Care"},
	}))
	require.NoError(t, store.AddProducts(ctx, []sqlite.Product{
		{Barcode: "8850001", Name: "New Name", Brand: "NIVEA", Category: "Skin Care"},
	}))

	brandOf, err := store.ProductBrands(ctx, "Skin Care")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"New Name": "NIVEA"}, brandOf)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

func TestReset_ClearsAllTables(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	require.NoError(t, store.Reset(ctx))

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
