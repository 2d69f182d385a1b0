// Package source provides SaleSource implementations.
package source

import (
	"context"
	"strings"
	"sync"

	"github.com/warp/switching-engine/flow"
)

// =============================================================================
// MEMORY SOURCE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory SaleSource. It applies the same scope filters the
// SQLite source pushes into SQL, so tests exercise the full query contract.
type Memory struct {
	mu   sync.RWMutex
	rows []flow.SaleRow

	// OpeningDates backs the store-cutoff filter; missing stores pass.
	OpeningDates map[string]flow.TimePoint
}

func NewMemory() *Memory {
	return &Memory{OpeningDates: make(map[string]flow.TimePoint)}
}

// Add appends sale rows.
func (m *Memory) Add(rows ...flow.SaleRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
}

// Sales returns rows matching the query scope.
func (m *Memory) Sales(_ context.Context, q flow.SourceQuery) ([]flow.SaleRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	brands := flow.NewSelection(q.Brands)
	var out []flow.SaleRow
	for _, row := range m.rows {
		if q.Periods.TagOf(row.Date) == flow.PeriodNone {
			continue
		}
		if row.CustomerID == "0" {
			continue
		}
		if q.Category != "" && row.Category != q.Category {
			continue
		}
		if len(brands) > 0 && !brands[row.Brand] {
			continue
		}
		if len(q.ProductContains) > 0 && !matchesAny(row.ProductName, q.ProductContains) {
			continue
		}
		if q.StoreCutoff != nil {
			if opened, ok := m.OpeningDates[row.StoreID]; ok && opened.After(*q.StoreCutoff) {
				continue
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
