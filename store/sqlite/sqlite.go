/*
Package sqlite provides the SQLite-backed data layer for the switching engine.

PURPOSE:
  Implements the flow.SaleSource contract (the source query executor) plus
  catalog lookups and bulk loading. In production the same patterns apply to
  a columnar warehouse - the engine only sees joined rows, never the storage.

KEY TABLES:
  sales:     Raw transaction records (date, customer, doc, store, barcode,
             amount)
  products:  Product catalog (barcode -> name, brand, category, subcategory)
  stores:    Store registry (store code -> opening date)
  sessions:  Usage-tracking sessions (see tracking.go)
  events:    Usage-tracking events (see tracking.go)

QUERY EXECUTION:
  Sales() pushes every scope filter into SQL - category, brand set, product
  name substrings, store opening cutoff, both period windows, and the
  customer code "0" exclusion - so the engine never sees out-of-scope rows.
  Transactions without a catalog or store match drop out of the inner join.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers do not block each other.

USAGE:
  store, err := sqlite.New("./data/switching.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  result, err := flow.Run(ctx, store, spec)

SEE ALSO:
  - flow/engine.go: SaleSource contract
  - tracking.go: Session/event persistence
  - flow/source/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/switching-engine/flow"
)

// Store implements flow.SaleSource and the catalog/tracking interfaces
// using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Raw transaction records
	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_date TEXT NOT NULL,
		customer_code TEXT NOT NULL,
		doc_no TEXT NOT NULL,
		store_code TEXT NOT NULL,
		barcode TEXT NOT NULL,
		total_sales TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);
	CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_code);
	CREATE INDEX IF NOT EXISTS idx_sales_barcode ON sales(barcode);

	-- Product catalog
	CREATE TABLE IF NOT EXISTS products (
		barcode TEXT PRIMARY KEY,
		product_name TEXT NOT NULL,
		brand TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);

	-- Store registry
	CREATE TABLE IF NOT EXISTS stores (
		store_code TEXT PRIMARY KEY,
		opening_date TEXT NOT NULL
	);

	-- Usage tracking (see tracking.go)
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_role TEXT NOT NULL,
		client_ip TEXT,
		created_at TEXT NOT NULL,
		last_seen_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		event_type TEXT NOT NULL,
		payload TEXT,
		duration_ms INTEGER,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// SaleRecord is one raw transaction row for bulk loading.
type SaleRecord struct {
	Date       flow.TimePoint
	CustomerID string
	DocumentID string
	StoreID    string
	Barcode    string
	Amount     decimal.Decimal
}

// Product is one catalog entry.
type Product struct {
	Barcode     string
	Name        string
	Brand       string
	Category    string
	Subcategory string
}

// StoreRecord is one store registry entry.
type StoreRecord struct {
	Code        string
	OpeningDate flow.TimePoint
}

// =============================================================================
// BULK LOADING
// =============================================================================

// AddSales inserts sale records in one transaction.
func (s *Store) AddSales(ctx context.Context, records []SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales (sale_date, customer_code, doc_no, store_code, barcode, total_sales)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Date.String(), r.CustomerID, r.DocumentID, r.StoreID, r.Barcode, r.Amount.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddProducts upserts catalog entries.
func (s *Store) AddProducts(ctx context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (barcode, product_name, brand, category, subcategory)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET
			product_name = excluded.product_name,
			brand = excluded.brand,
			category = excluded.category,
			subcategory = excluded.subcategory`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.Barcode, p.Name, p.Brand, p.Category, p.Subcategory); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddStores upserts store registry entries.
func (s *Store) AddStores(ctx context.Context, stores []StoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stores (store_code, opening_date)
		VALUES (?, ?)
		ON CONFLICT(store_code) DO UPDATE SET opening_date = excluded.opening_date`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range stores {
		if _, err := stmt.ExecContext(ctx, st.Code, st.OpeningDate.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// SOURCE QUERY EXECUTOR - flow.SaleSource
// =============================================================================

// Sales returns joined sale rows for the requested scope. Implements
// flow.SaleSource.
func (s *Store) Sales(ctx context.Context, q flow.SourceQuery) ([]flow.SaleRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(`
		SELECT a.sale_date, a.customer_code, a.doc_no, a.store_code, a.barcode,
		       a.total_sales, pm.product_name, pm.brand, pm.category, COALESCE(pm.subcategory, '')
		FROM sales a
		JOIN products pm ON a.barcode = pm.barcode
		JOIN stores br ON a.store_code = br.store_code
		WHERE a.customer_code != '0'
		  AND ((a.sale_date BETWEEN ? AND ?) OR (a.sale_date BETWEEN ? AND ?))`)
	args := []any{
		q.Periods.Before.Start.String(), q.Periods.Before.End.String(),
		q.Periods.After.Start.String(), q.Periods.After.End.String(),
	}

	if q.Category != "" {
		sb.WriteString(" AND pm.category = ?")
		args = append(args, q.Category)
	}
	if len(q.Brands) > 0 {
		sb.WriteString(" AND pm.brand IN (?" + strings.Repeat(", ?", len(q.Brands)-1) + ")")
		for _, b := range q.Brands {
			args = append(args, b)
		}
	}
	if len(q.ProductContains) > 0 {
		conditions := make([]string, len(q.ProductContains))
		for i, kw := range q.ProductContains {
			conditions[i] = "pm.product_name LIKE ?"
			args = append(args, "%"+kw+"%")
		}
		sb.WriteString(" AND (" + strings.Join(conditions, " OR ") + ")")
	}
	if q.StoreCutoff != nil {
		sb.WriteString(" AND br.opening_date <= ?")
		args = append(args, q.StoreCutoff.String())
	}
	sb.WriteString(" ORDER BY a.sale_date, a.id")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sales query failed: %w", err)
	}
	defer rows.Close()

	var out []flow.SaleRow
	for rows.Next() {
		row, err := scanSaleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanSaleRow(rows *sql.Rows) (flow.SaleRow, error) {
	var (
		row            flow.SaleRow
		dateStr, amtStr string
	)
	if err := rows.Scan(&dateStr, &row.CustomerID, &row.DocumentID, &row.StoreID, &row.Barcode,
		&amtStr, &row.ProductName, &row.Brand, &row.Category, &row.Subcategory); err != nil {
		return flow.SaleRow{}, err
	}

	date, err := flow.ParseDate(dateStr)
	if err != nil {
		return flow.SaleRow{}, fmt.Errorf("bad sale_date %q: %w", dateStr, err)
	}
	row.Date = date

	amount, err := decimal.NewFromString(amtStr)
	if err != nil {
		return flow.SaleRow{}, fmt.Errorf("bad total_sales %q: %w", amtStr, err)
	}
	row.Amount = amount
	return row, nil
}

// =============================================================================
// CATALOG LOOKUPS
// =============================================================================

// Categories returns the distinct catalog categories, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
}

// BrandsByCategory returns the distinct brands within a category, sorted.
func (s *Store) BrandsByCategory(ctx context.Context, category string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT DISTINCT brand FROM products WHERE category = ? ORDER BY brand`, category)
}

// SubcategoriesByCategory returns the distinct subcategories within a
// category, sorted.
func (s *Store) SubcategoriesByCategory(ctx context.Context, category string) ([]string, error) {
	return s.queryStrings(ctx,
		`SELECT DISTINCT subcategory FROM products
		 WHERE category = ? AND subcategory IS NOT NULL AND subcategory != ''
		 ORDER BY subcategory`, category)
}

// ProductBrands returns the product-name-to-brand map for a category.
func (s *Store) ProductBrands(ctx context.Context, category string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_name, brand FROM products WHERE category = ?`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, brand string
		if err := rows.Scan(&name, &brand); err != nil {
			return nil, err
		}
		out[name] = brand
	}
	return out, rows.Err()
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data. Only used by demo scenarios and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"events", "sessions", "sales", "products", "stores"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
