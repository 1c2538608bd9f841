// Package interfaces defines the contracts shared between the catalog,
// scheduler, health and HTTP layers so each can be tested in isolation.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medicine-shop/catalog"
)

// DataStore gives thread-safe access to the medicine catalog with atomic
// swaps for zero-downtime refreshes.
type DataStore interface {
	GetMedicines() []catalog.Medicine
	GetCategories() []string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(medicines []catalog.Medicine)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader fetches the current catalog from its source
type CatalogLoader interface {
	Load(ctx context.Context) ([]catalog.Medicine, error)
}

// Scheduler manages the periodic catalog refresh
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports the service health
type HealthChecker interface {
	// HealthCheck returns the health status, its details and the HTTP code to answer with
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog refresh
	CalculateNextUpdate() time.Time
}

// HTTPHandler is the set of endpoints the router mounts
type HTTPHandler interface {
	ServeCatalog(w http.ResponseWriter, r *http.Request)
	SearchCatalog(w http.ResponseWriter, r *http.Request)

	GetCart(w http.ResponseWriter, r *http.Request)
	AddCartItem(w http.ResponseWriter, r *http.Request)
	RemoveCartItem(w http.ResponseWriter, r *http.Request)
	UpdateCartQuantity(w http.ResponseWriter, r *http.Request)
	ClearCart(w http.ResponseWriter, r *http.Request)

	GetMedications(w http.ResponseWriter, r *http.Request)
	AddMedication(w http.ResponseWriter, r *http.Request)
	DeleteMedication(w http.ResponseWriter, r *http.Request)

	Predict(w http.ResponseWriter, r *http.Request)
	SuggestSymptoms(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}
