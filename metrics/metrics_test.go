package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/cart/items/{index}/remove", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodPost, "/cart/items/{index}/remove", "200"))

	for _, path := range []string{"/cart/items/0/remove", "/cart/items/9/remove"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodPost, "/cart/items/{index}/remove", "200"))
	if after-before != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %v", after-before)
	}
	if got := testutil.ToFloat64(HTTPRequestInFlight); got != 0 {
		t.Errorf("in-flight gauge should return to 0, got %v", got)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(CartMutations.WithLabelValues("add"))
	ObserveCartMutation("add")
	if got := testutil.ToFloat64(CartMutations.WithLabelValues("add")) - before; got != 1 {
		t.Errorf("cart_mutations_total{add} grew by %v, want 1", got)
	}

	validBefore := testutil.ToFloat64(SymptomValidations.WithLabelValues("valid"))
	invalidBefore := testutil.ToFloat64(SymptomValidations.WithLabelValues("invalid"))
	ObserveSymptomValidation(true)
	ObserveSymptomValidation(false)
	ObserveSymptomValidation(false)
	if got := testutil.ToFloat64(SymptomValidations.WithLabelValues("valid")) - validBefore; got != 1 {
		t.Errorf("valid grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(SymptomValidations.WithLabelValues("invalid")) - invalidBefore; got != 2 {
		t.Errorf("invalid grew by %v, want 2", got)
	}

	SetCatalogItems(42)
	if got := testutil.ToFloat64(CatalogItems); got != 42 {
		t.Errorf("catalog_items = %v, want 42", got)
	}
}
