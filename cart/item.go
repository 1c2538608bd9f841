// Package cart keeps a session's shopping cart: an ordered list of line items
// persisted write-through after every mutation and re-rendered as a View.
package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned by Add for an empty name or a negative price
var ErrInvalidItem = errors.New("cart: invalid item")

// Item is one product line. Name is unique within a cart.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

type itemJSON struct {
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// MarshalJSON writes the price as a JSON number
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		Name:     i.Name,
		Price:    json.RawMessage(i.Price.String()),
		Image:    i.Image,
		Quantity: i.Quantity,
	})
}

// UnmarshalJSON accepts the price as a JSON number or a quoted decimal
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var price decimal.Decimal
	if len(raw.Price) == 0 || string(bytes.TrimSpace(raw.Price)) == "null" {
		return fmt.Errorf("missing price for %q", raw.Name)
	}
	if err := price.UnmarshalJSON(raw.Price); err != nil {
		return fmt.Errorf("invalid price for %q: %w", raw.Name, err)
	}

	*i = Item{Name: raw.Name, Price: price, Image: raw.Image, Quantity: raw.Quantity}
	return nil
}

// Subtotal is price times quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidItem)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("%w: negative price for %q", ErrInvalidItem, i.Name)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d for %q", ErrInvalidItem, i.Quantity, i.Name)
	}
	return nil
}

// decodeItems parses persisted state, rejecting anything that breaks the
// cart invariants (unique names, quantity >= 1, non-negative price).
func decodeItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[item.Name]; dup {
			return nil, fmt.Errorf("duplicate item %q", item.Name)
		}
		seen[item.Name] = struct{}{}
	}

	return items, nil
}

func encodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}
