package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/giygas/medicine-shop/cart"
	"github.com/giygas/medicine-shop/kvstore"
	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/metrics"
	"github.com/giygas/medicine-shop/validation"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// NotificationHeader carries the transient message for the page to display
const NotificationHeader = "X-Notification"

type cartResponse struct {
	Cart         cart.View `json:"cart"`
	Updated      bool      `json:"updated"`
	Notification string    `json:"notification,omitempty"`
}

type addItemRequest struct {
	Name  string
	Price decimal.Decimal
	Image string
}

// withCart loads the session cart under the session lock, runs op, and
// writes the resulting view. op reports whether the cart changed; a non-nil
// error is answered with 400 and no view.
func (h *HTTPHandlerImpl) withCart(w http.ResponseWriter, r *http.Request, op func(m *cart.Manager) (bool, error)) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	unlock := h.locks.Lock(id)
	defer unlock()

	capture := &cart.Capture{}
	messages := &cart.Messages{}
	m := cart.NewManager(
		kvstore.Scoped(h.store, id),
		cart.WithRenderer(capture),
		cart.WithNotifier(messages),
		cart.WithObserver(metrics.ObserveCartMutation),
	)
	m.Load(r.Context())

	updated, err := op(m)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !capture.Rendered {
		m.Render()
	}

	resp := cartResponse{Cart: capture.View, Updated: updated}
	if n := len(*messages); n > 0 {
		resp.Notification = (*messages)[n-1]
		w.Header().Set(NotificationHeader, resp.Notification)
	}
	logging.Annotate(r.Context(), "cart_updated", updated, "cart_count", resp.Cart.Count)
	if resp.Notification != "" {
		logging.Annotate(r.Context(), "notification", resp.Notification)
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := (cart.HTMLRenderer{W: w}).Render(resp.Cart); err != nil {
			logging.Error("Failed to render cart HTML", "error", err)
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// GetCart returns the current cart view
func (h *HTTPHandlerImpl) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(*cart.Manager) (bool, error) { return false, nil })
}

// AddCartItem adds one unit of an item (form or JSON: name, price, image)
func (h *HTTPHandlerImpl) AddCartItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddItem(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.withCart(w, r, func(m *cart.Manager) (bool, error) {
		if err := m.Add(r.Context(), req.Name, req.Price, req.Image); err != nil {
			return false, err
		}
		return true, nil
	})
}

// RemoveCartItem deletes the line at {index}. Unknown indexes leave the cart unchanged.
func (h *HTTPHandlerImpl) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	h.withCart(w, r, func(m *cart.Manager) (bool, error) {
		return m.Remove(r.Context(), index), nil
	})
}

// UpdateCartQuantity applies delta to the line at {index}, never below 1
func (h *HTTPHandlerImpl) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	delta, err := decodeDelta(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid delta")
		return
	}

	h.withCart(w, r, func(m *cart.Manager) (bool, error) {
		return m.UpdateQuantity(r.Context(), index, delta), nil
	})
}

// ClearCart empties the cart
func (h *HTTPHandlerImpl) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(m *cart.Manager) (bool, error) {
		m.Clear(r.Context())
		return true, nil
	})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		logging.Warn("Unusual user input", "index", raw)
		RespondWithError(w, http.StatusBadRequest, "Invalid index")
		return 0, false
	}
	return index, true
}

func decodeAddItem(r *http.Request) (addItemRequest, error) {
	var req addItemRequest

	if isJSON(r) {
		var body struct {
			Name  string           `json:"name"`
			Price *decimal.Decimal `json:"price"`
			Image string           `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return req, errors.New("invalid JSON body")
		}
		if body.Price == nil {
			return req, errors.New("invalid price")
		}
		req = addItemRequest{Name: body.Name, Price: *body.Price, Image: body.Image}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, errors.New("invalid form body")
		}
		price, err := decimal.NewFromString(strings.TrimSpace(r.PostForm.Get("price")))
		if err != nil {
			return req, errors.New("invalid price")
		}
		req = addItemRequest{Name: r.PostForm.Get("name"), Price: price, Image: r.PostForm.Get("image")}
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Image = strings.TrimSpace(req.Image)
	if err := validation.ValidateText("name", req.Name, 200); err != nil {
		return req, err
	}
	if err := validation.ValidateText("image", req.Image, 500); err != nil {
		return req, err
	}
	return req, nil
}

// maxDelta bounds a single quantity change; the page only sends -1 and +1
const maxDelta = 1000

func decodeDelta(r *http.Request) (int, error) {
	delta, err := parseDelta(r)
	if err != nil {
		return 0, err
	}
	if delta < -maxDelta || delta > maxDelta {
		return 0, fmt.Errorf("delta %d out of range", delta)
	}
	return delta, nil
}

func parseDelta(r *http.Request) (int, error) {
	if isJSON(r) {
		var body struct {
			Delta *int `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if body.Delta == nil {
			return 0, errors.New("missing delta")
		}
		return *body.Delta, nil
	}

	if err := r.ParseForm(); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(r.Form.Get("delta")))
}
