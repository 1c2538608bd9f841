// Package health reports the state of the catalog and the session store.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/medicine-shop/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// Pinger is satisfied by the key-value stores
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	storage   Pinger
	interval  time.Duration
	lastError func() error
}

// NewHealthChecker creates a health checker. lastError may be nil.
func NewHealthChecker(dataStore interfaces.DataStore, storage Pinger, interval time.Duration, lastError func() error) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		storage:   storage,
		interval:  interval,
		lastError: lastError,
	}
}

// HealthCheck returns HTTP-specific health data. An unreachable store is
// unhealthy; catalog problems only degrade the service since the cart and
// medication endpoints keep working.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	medicines := h.dataStore.GetMedicines()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	storageStatus := "ok"
	var storageErr error
	if h.storage != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		storageErr = h.storage.Ping(pingCtx)
		cancel()
		if storageErr != nil {
			storageStatus = "unreachable"
		}
	}

	var refreshErr error
	if h.lastError != nil {
		refreshErr = h.lastError()
	}

	dataAge := time.Since(lastUpdate)

	switch {
	case storageErr != nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case lastUpdate.IsZero() || len(medicines) == 0:
		status = "degraded"
		httpStatus = http.StatusOK

	case refreshErr != nil:
		status = "degraded"
		httpStatus = http.StatusOK

	case h.interval > 0 && dataAge > 3*h.interval:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"medicines":   len(medicines),
		"categories":  len(h.dataStore.GetCategories()),
		"is_updating": isUpdating,
		"storage":     storageStatus,
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
		data["next_update"] = h.CalculateNextUpdate().Format(time.RFC3339)
	}
	if refreshErr != nil {
		data["last_error"] = refreshErr.Error()
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(time.Since(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled catalog refresh
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	last := h.dataStore.GetLastUpdated()
	if last.IsZero() || h.interval <= 0 {
		return time.Now()
	}

	next := last.Add(h.interval)
	for next.Before(time.Now()) {
		next = next.Add(h.interval)
	}
	return next
}
