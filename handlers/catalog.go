package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/validation"
	"github.com/shopspring/decimal"
)

// ServeCatalog returns the full catalog as a JSON array
func (h *HTTPHandlerImpl) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.dataStore.GetMedicines())
}

// SearchCatalog filters and paginates the catalog.
// Query: q, category (repeatable or comma-separated), min_price, max_price, page.
func (h *HTTPHandlerImpl) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := catalog.Query{Search: strings.TrimSpace(params.Get("q"))}
	if q.Search != "" {
		if err := validation.ValidateSearch(q.Search); err != nil {
			logging.Warn("Unusual user input", "q", q.Search, "error", err)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	for _, c := range params["category"] {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.Categories = append(q.Categories, part)
			}
		}
	}

	var err error
	if q.MinPrice, err = parsePrice(params.Get("min_price")); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid min_price")
		return
	}
	if q.MaxPrice, err = parsePrice(params.Get("max_price")); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid max_price")
		return
	}
	if !q.MaxPrice.IsZero() && q.MinPrice.GreaterThan(q.MaxPrice) {
		RespondWithError(w, http.StatusBadRequest, "min_price cannot exceed max_price")
		return
	}

	if p := params.Get("page"); p != "" {
		if q.Page, err = strconv.Atoi(p); err != nil || q.Page < 1 {
			logging.Warn("Unusual user input", "page", p)
			RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
	}

	page, err := catalog.Apply(h.dataStore.GetMedicines(), q)
	if errors.Is(err, catalog.ErrInvalidPage) {
		RespondWithError(w, http.StatusBadRequest, "Invalid page number")
		return
	}
	if err != nil {
		logging.Error("Catalog query failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, page)
}

// parsePrice parses an optional non-negative price bound
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("negative price")
	}
	return d, nil
}
