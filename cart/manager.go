package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/giygas/medicine-shop/kvstore"
	"github.com/giygas/medicine-shop/logging"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart is persisted under in its session namespace
const StorageKey = "cart"

// Store is the persistence port. Get must return an error wrapping
// kvstore.ErrNotFound when nothing has been saved yet.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Renderer receives a fresh View after every mutation
type Renderer interface {
	Render(View) error
}

// Notifier shows a transient message to the user
type Notifier interface {
	Notify(message string)
}

// Observer is told about each successful mutation (metrics)
type Observer func(operation string)

// Manager owns one cart. It is not safe for concurrent use; callers serialize
// access per session.
type Manager struct {
	store    Store
	renderer Renderer
	notifier Notifier
	observer Observer
	items    []Item
}

// Option configures a Manager
type Option func(*Manager)

func WithRenderer(r Renderer) Option { return func(m *Manager) { m.renderer = r } }

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithObserver(o Observer) Option { return func(m *Manager) { m.observer = o } }

// NewManager returns an empty cart bound to store; call Load to restore state
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, items: []Item{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load restores the persisted cart. Absent or malformed state silently
// yields an empty cart.
func (m *Manager) Load(ctx context.Context) {
	m.items = []Item{}

	data, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logging.Warn("Failed to read cart, starting empty", "error", err)
		}
		return
	}

	items, err := decodeItems(data)
	if err != nil {
		logging.Debug("Discarding malformed cart", "error", err)
		return
	}
	m.items = items
}

// Add increments the quantity of an existing item with the same name, or
// appends a new item with quantity 1.
func (m *Manager) Add(ctx context.Context, name string, price decimal.Decimal, image string) error {
	candidate := Item{Name: name, Price: price, Image: image, Quantity: 1}
	if err := candidate.validate(); err != nil {
		return err
	}

	if i := m.indexOf(name); i >= 0 {
		if m.items[i].Quantity < math.MaxInt {
			m.items[i].Quantity++
		}
	} else {
		m.items = append(m.items, candidate)
	}

	m.commit(ctx, "add")
	m.notify(fmt.Sprintf("%s added to cart!", name))
	return nil
}

// Remove deletes the item at index. Out-of-range indexes leave the cart
// untouched and return false.
func (m *Manager) Remove(ctx context.Context, index int) bool {
	if !m.inRange(index) {
		return false
	}

	m.items = append(m.items[:index:index], m.items[index+1:]...)
	m.commit(ctx, "remove")
	return true
}

// UpdateQuantity adds delta to the item's quantity, never going below 1.
// Out-of-range indexes leave the cart untouched and return false.
func (m *Manager) UpdateQuantity(ctx context.Context, index, delta int) bool {
	if !m.inRange(index) {
		return false
	}

	m.items[index].Quantity = addClamped(m.items[index].Quantity, delta)

	m.commit(ctx, "update_quantity")
	return true
}

// Clear empties the cart
func (m *Manager) Clear(ctx context.Context) {
	m.items = []Item{}
	m.commit(ctx, "clear")
}

// Items returns a copy of the current line items in display order
func (m *Manager) Items() []Item {
	return append([]Item(nil), m.items...)
}

// Len returns the number of distinct line items
func (m *Manager) Len() int {
	return len(m.items)
}

// Render builds the current View and hands it to the renderer, if any
func (m *Manager) Render() View {
	view := BuildView(m.items)
	if m.renderer != nil {
		if err := m.renderer.Render(view); err != nil {
			logging.Warn("Failed to render cart", "error", err)
		}
	}
	return view
}

func (m *Manager) indexOf(name string) int {
	for i, item := range m.items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

func (m *Manager) inRange(index int) bool {
	return index >= 0 && index < len(m.items)
}

// commit writes the full list back and re-renders. A failed write is logged
// and otherwise treated like a successful one.
func (m *Manager) commit(ctx context.Context, operation string) {
	data, err := encodeItems(m.items)
	if err == nil {
		err = m.store.Set(ctx, StorageKey, data)
	}
	if err != nil {
		logging.Warn("Failed to persist cart", "operation", operation, "error", err)
	}

	if m.observer != nil {
		m.observer(operation)
	}
	m.Render()
}

func (m *Manager) notify(message string) {
	if m.notifier != nil {
		m.notifier.Notify(message)
	}
}

// addClamped returns q+delta limited to [1, math.MaxInt] without wrapping
func addClamped(q, delta int) int {
	switch {
	case delta > 0 && q > math.MaxInt-delta:
		return math.MaxInt
	case q+delta < 1:
		return 1
	default:
		return q + delta
	}
}
