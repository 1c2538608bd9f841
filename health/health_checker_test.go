package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/giygas/medicine-shop/data"
	"github.com/shopspring/decimal"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func loadedStore() *data.CatalogContainer {
	store := data.NewCatalogContainer()
	m := catalog.Medicine{Name: "Aspirin", Category: "Pain Relief", Price: decimal.NewFromInt(5)}
	m.Prepare()
	store.UpdateData([]catalog.Medicine{m})
	return store
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      *data.CatalogContainer
		pinger     Pinger
		lastError  func() error
		wantStatus string
		wantCode   int
	}{
		{
			name:       "healthy",
			store:      loadedStore(),
			pinger:     fakePinger{},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
		{
			name:       "empty catalog",
			store:      data.NewCatalogContainer(),
			pinger:     fakePinger{},
			wantStatus: "degraded",
			wantCode:   http.StatusOK,
		},
		{
			name:       "last refresh failed",
			store:      loadedStore(),
			pinger:     fakePinger{},
			lastError:  func() error { return errors.New("timeout") },
			wantStatus: "degraded",
			wantCode:   http.StatusOK,
		},
		{
			name:       "storage down",
			store:      loadedStore(),
			pinger:     fakePinger{err: errors.New("connection refused")},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store, tt.pinger, time.Hour, tt.lastError)

			status, details, code := checker.HealthCheck(context.Background())
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if _, ok := details["medicines"]; !ok {
				t.Error("details should include the medicine count")
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	store := loadedStore()
	store.SetServerStartTime(time.Now().Add(-time.Minute))

	checker := NewHealthChecker(store, nil, time.Hour, func() error { return errors.New("bad gateway") })
	_, details, _ := checker.HealthCheck(context.Background())

	if details["medicines"] != 1 {
		t.Errorf("medicines = %v, want 1", details["medicines"])
	}
	if details["storage"] != "ok" {
		t.Errorf("storage = %v, want ok", details["storage"])
	}
	if details["last_error"] != "bad gateway" {
		t.Errorf("last_error = %v", details["last_error"])
	}
	if _, ok := details["uptime_seconds"]; !ok {
		t.Error("uptime_seconds missing")
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	store := loadedStore()
	checker := NewHealthChecker(store, nil, time.Hour, nil)

	next := checker.CalculateNextUpdate()
	if !next.After(time.Now()) {
		t.Errorf("next update %v should be in the future", next)
	}
	if next.Sub(store.GetLastUpdated()) > time.Hour+time.Second {
		t.Errorf("next update %v should be within one interval of the last update", next)
	}
}
