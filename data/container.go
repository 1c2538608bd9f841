// Package data holds the medicine catalog behind atomic values so the
// scheduler can swap in a refreshed list while requests keep reading.
package data

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/giygas/medicine-shop/interfaces"
	"github.com/giygas/medicine-shop/logging"
)

// Compile-time check to ensure CatalogContainer implements DataStore
var _ interfaces.DataStore = (*CatalogContainer)(nil)

// CatalogContainer holds the catalog with atomic values for zero-downtime updates
type CatalogContainer struct {
	medicines       atomic.Value // []catalog.Medicine
	categories      atomic.Value // []string
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCatalogContainer creates an empty container
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.medicines.Store(make([]catalog.Medicine, 0))
	cc.categories.Store(make([]string, 0))
	cc.lastUpdated.Store(time.Time{})
	cc.serverStartTime.Store(time.Time{})
	return cc
}

// GetMedicines returns the current catalog. Callers must not modify it.
func (cc *CatalogContainer) GetMedicines() []catalog.Medicine {
	if v := cc.medicines.Load(); v != nil {
		if medicines, ok := v.([]catalog.Medicine); ok {
			return medicines
		}
	}

	logging.Warn("Medicine catalog is empty or invalid")
	return []catalog.Medicine{}
}

// GetCategories returns the distinct categories, sorted
func (cc *CatalogContainer) GetCategories() []string {
	if v := cc.categories.Load(); v != nil {
		if categories, ok := v.([]string); ok {
			return categories
		}
	}
	return []string{}
}

// GetLastUpdated returns the timestamp of the last catalog swap
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	if v := cc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v := cc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}
	return time.Time{}
}

// UpdateData atomically replaces the catalog
func (cc *CatalogContainer) UpdateData(medicines []catalog.Medicine) {
	if medicines == nil {
		medicines = []catalog.Medicine{}
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, m := range medicines {
		if m.Category == "" {
			continue
		}
		key := catalog.Normalize(m.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		categories = append(categories, m.Category)
	}
	sort.Strings(categories)

	cc.medicines.Store(medicines)
	cc.categories.Store(categories)
	cc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a refresh.
// Returns false if another refresh is in progress.
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
