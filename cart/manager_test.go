package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/giygas/medicine-shop/kvstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestManager(t *testing.T) (*Manager, *kvstore.Bucket, *Capture, *Messages) {
	t.Helper()
	bucket := kvstore.Scoped(kvstore.NewMemoryStore(), "test-session")
	capture := &Capture{}
	messages := &Messages{}
	m := NewManager(bucket, WithRenderer(capture), WithNotifier(messages))
	m.Load(context.Background())
	return m, bucket, capture, messages
}

// persisted returns the stored bytes and asserts they match the in-memory list
func assertWriteThrough(t *testing.T, m *Manager, bucket *kvstore.Bucket) {
	t.Helper()
	stored, err := bucket.Get(context.Background(), StorageKey)
	require.NoError(t, err)

	expected, err := json.Marshal(m.Items())
	require.NoError(t, err)
	if len(m.Items()) == 0 {
		expected = []byte("[]")
	}
	assert.Equal(t, string(expected), string(stored))
}

func TestAddDistinctNames(t *testing.T) {
	ctx := context.Background()
	m, bucket, _, _ := newTestManager(t)

	names := []string{"Paracetamol", "Ibuprofen", "Amoxicillin", "Metformin"}
	for _, name := range names {
		require.NoError(t, m.Add(ctx, name, price("1.25"), ""))
	}

	items := m.Items()
	require.Len(t, items, len(names))
	for i, item := range items {
		assert.Equal(t, names[i], item.Name, "insertion order is display order")
		assert.Equal(t, 1, item.Quantity)
	}
	assertWriteThrough(t, m, bucket)
}

func TestAddSameNameTwice(t *testing.T) {
	ctx := context.Background()
	m, bucket, _, messages := newTestManager(t)

	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), "/img/a.png"))
	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), "/img/a.png"))

	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, Messages{"Aspirin added to cart!", "Aspirin added to cart!"}, *messages)
	assertWriteThrough(t, m, bucket)
}

func TestAddRejectsInvalidItems(t *testing.T) {
	ctx := context.Background()
	m, bucket, capture, messages := newTestManager(t)

	assert.ErrorIs(t, m.Add(ctx, "", price("1"), ""), ErrInvalidItem)
	assert.ErrorIs(t, m.Add(ctx, "Bad", price("-0.01"), ""), ErrInvalidItem)

	assert.Equal(t, 0, m.Len())
	assert.False(t, capture.Rendered)
	assert.Empty(t, *messages)
	_, err := bucket.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestUpdateQuantityClampsAtOne(t *testing.T) {
	ctx := context.Background()
	m, bucket, _, _ := newTestManager(t)

	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), ""))
	require.True(t, m.UpdateQuantity(ctx, 0, 1))
	require.Equal(t, 2, m.Items()[0].Quantity)

	assert.True(t, m.UpdateQuantity(ctx, 0, -5))
	assert.Equal(t, 1, m.Items()[0].Quantity)

	assert.True(t, m.UpdateQuantity(ctx, 0, -1))
	assert.Equal(t, 1, m.Items()[0].Quantity)
	assertWriteThrough(t, m, bucket)
}

func TestQuantitySaturatesInsteadOfWrapping(t *testing.T) {
	ctx := context.Background()
	m, bucket, _, _ := newTestManager(t)
	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), ""))

	assert.True(t, m.UpdateQuantity(ctx, 0, math.MaxInt))
	assert.Equal(t, math.MaxInt, m.Items()[0].Quantity)

	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), ""))
	assert.Equal(t, math.MaxInt, m.Items()[0].Quantity)

	assert.True(t, m.UpdateQuantity(ctx, 0, 5))
	assert.Equal(t, math.MaxInt, m.Items()[0].Quantity)

	assert.True(t, m.UpdateQuantity(ctx, 0, math.MinInt))
	assert.Equal(t, 1, m.Items()[0].Quantity)
	assertWriteThrough(t, m, bucket)
}

func TestUpdateQuantityOutOfRange(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newTestManager(t)
	require.NoError(t, m.Add(ctx, "Aspirin", price("3.50"), ""))

	before := m.Items()
	assert.False(t, m.UpdateQuantity(ctx, 1, 1))
	assert.False(t, m.UpdateQuantity(ctx, -1, 1))
	assert.Equal(t, before, m.Items())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	m, bucket, _, _ := newTestManager(t)

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, m.Add(ctx, name, price("1"), ""))
	}

	assert.True(t, m.Remove(ctx, 1))
	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "C", items[1].Name)
	assertWriteThrough(t, m, bucket)
}

func TestRemoveOutOfRangeLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	m, bucket, capture, _ := newTestManager(t)

	require.NoError(t, m.Add(ctx, "A", price("1"), ""))
	require.NoError(t, m.Add(ctx, "B", price("2"), ""))
	storedBefore, err := bucket.Get(ctx, StorageKey)
	require.NoError(t, err)
	viewBefore := capture.View

	for _, index := range []int{-1, 2, 100} {
		assert.False(t, m.Remove(ctx, index), "index %d", index)
	}

	storedAfter, err := bucket.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, storedBefore, storedAfter)
	assert.Equal(t, viewBefore, capture.View)
	assert.Equal(t, []string{"A", "B"}, []string{m.Items()[0].Name, m.Items()[1].Name})
}

func TestTotalIsRecomputedAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	m, _, capture, _ := newTestManager(t)

	require.NoError(t, m.Add(ctx, "Syrup", price("3.50"), ""))
	assert.Equal(t, "$3.50", capture.View.TotalText)

	require.NoError(t, m.Add(ctx, "Syrup", price("3.50"), ""))
	require.NoError(t, m.Add(ctx, "Inhaler", price("10.00"), ""))
	assert.Equal(t, "$17.00", capture.View.TotalText)
	assert.True(t, capture.View.Total.Equal(price("17")))
	assert.Equal(t, 3, capture.View.Count)

	require.True(t, m.UpdateQuantity(ctx, 0, -1))
	assert.Equal(t, "$13.50", capture.View.TotalText)

	require.True(t, m.Remove(ctx, 1))
	assert.Equal(t, "$3.50", capture.View.TotalText)

	m.Clear(ctx)
	assert.True(t, capture.View.Empty)
	assert.Equal(t, "$0.00", capture.View.TotalText)
	assert.Equal(t, 0, capture.View.Count)
}

func TestDecimalTotalsAreExact(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newTestManager(t)

	require.NoError(t, m.Add(ctx, "A", price("0.10"), ""))
	require.NoError(t, m.Add(ctx, "B", price("0.20"), ""))

	assert.True(t, m.Render().Total.Equal(price("0.3")))
}

func TestLoadRestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	bucket := kvstore.Scoped(kvstore.NewMemoryStore(), "s")

	first := NewManager(bucket)
	first.Load(ctx)
	require.NoError(t, first.Add(ctx, "A", price("2.5"), "/a.png"))
	require.NoError(t, first.Add(ctx, "B", price("4"), ""))
	require.True(t, first.UpdateQuantity(ctx, 1, 2))

	second := NewManager(bucket)
	second.Load(ctx)
	assert.Equal(t, first.Items(), second.Items())
}

func TestLoadMalformedFallsBackToEmpty(t *testing.T) {
	cases := map[string]string{
		"not json":          `{{{`,
		"wrong shape":       `{"name":"A"}`,
		"zero quantity":     `[{"name":"A","price":1,"image":"","quantity":0}]`,
		"negative price":    `[{"name":"A","price":-1,"image":"","quantity":1}]`,
		"empty name":        `[{"name":"","price":1,"image":"","quantity":1}]`,
		"duplicate names":   `[{"name":"A","price":1,"image":"","quantity":1},{"name":"A","price":1,"image":"","quantity":2}]`,
		"missing price":     `[{"name":"A","image":"","quantity":1}]`,
		"null price":        `[{"name":"A","price":null,"image":"","quantity":1}]`,
		"non numeric price": `[{"name":"A","price":"abc","image":"","quantity":1}]`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			bucket := kvstore.Scoped(kvstore.NewMemoryStore(), "s")
			require.NoError(t, bucket.Set(ctx, StorageKey, []byte(data)))

			m := NewManager(bucket)
			m.Load(ctx)
			assert.Equal(t, 0, m.Len())
			assert.True(t, m.Render().Empty)
		})
	}
}

func TestLoadAcceptsBrowserFormat(t *testing.T) {
	ctx := context.Background()
	bucket := kvstore.Scoped(kvstore.NewMemoryStore(), "s")
	data := `[{"name":"Cetirizine","price":4.99,"image":"/static/medicine-icon.png","quantity":3}]`
	require.NoError(t, bucket.Set(ctx, StorageKey, []byte(data)))

	m := NewManager(bucket)
	m.Load(ctx)

	require.Equal(t, 1, m.Len())
	item := m.Items()[0]
	assert.Equal(t, "Cetirizine", item.Name)
	assert.True(t, item.Price.Equal(price("4.99")))
	assert.Equal(t, 3, item.Quantity)

	// re-encoding yields the same bytes
	encoded, err := encodeItems(m.Items())
	require.NoError(t, err)
	assert.Equal(t, data, string(encoded))
}

type failingStore struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }
func (f *failingStore) Set(context.Context, string, []byte) error {
	f.sets++
	return f.setErr
}

func TestPersistenceFailuresAreNotSurfaced(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{getErr: errors.New("disk on fire"), setErr: errors.New("disk on fire")}
	capture := &Capture{}

	m := NewManager(store, WithRenderer(capture))
	m.Load(ctx)
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Add(ctx, "A", price("1"), ""))
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, 1, m.Len())
	assert.True(t, capture.Rendered)
}

func TestObserverSeesOperations(t *testing.T) {
	ctx := context.Background()
	var ops []string
	m := NewManager(kvstore.Scoped(kvstore.NewMemoryStore(), "s"), WithObserver(func(op string) { ops = append(ops, op) }))
	m.Load(ctx)

	require.NoError(t, m.Add(ctx, "A", price("1"), ""))
	m.UpdateQuantity(ctx, 0, 1)
	m.Remove(ctx, 5)
	m.Remove(ctx, 0)
	m.Clear(ctx)

	assert.Equal(t, []string{"add", "update_quantity", "remove", "clear"}, ops)
}

func TestBuildViewRows(t *testing.T) {
	view := BuildView([]Item{
		{Name: "A", Price: price("3.5"), Quantity: 2},
		{Name: "B", Price: price("10"), Image: "/b.png", Quantity: 1},
	})

	require.Len(t, view.Rows, 2)
	assert.False(t, view.Empty)
	assert.Equal(t, DefaultImage, view.Rows[0].Image)
	assert.Equal(t, "/b.png", view.Rows[1].Image)
	assert.Equal(t, "$7.00", view.Rows[0].Subtotal)
	assert.Equal(t, "/cart/items/1/remove", view.Rows[1].Remove.Path)
	assert.Equal(t, -1, view.Rows[0].Decrement.Delta)
	assert.Equal(t, 1, view.Rows[0].Increment.Delta)
	assert.Equal(t, "$17.00", view.TotalText)
	assert.Equal(t, "cart{items=2 count=3 total=$17.00}", view.String())
}

func TestHTMLRenderer(t *testing.T) {
	t.Run("empty state", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, HTMLRenderer{W: &buf}.Render(BuildView(nil)))

		out := buf.String()
		assert.Contains(t, out, "Your cart is empty")
		assert.Contains(t, out, `<span id="cartTotal">$0.00</span>`)
		assert.Contains(t, out, `<span id="cartCount">0</span>`)
	})

	t.Run("rows escape names", func(t *testing.T) {
		var buf bytes.Buffer
		view := BuildView([]Item{{Name: "<b>X</b>", Price: price("1"), Quantity: 2}})
		require.NoError(t, HTMLRenderer{W: &buf}.Render(view))

		out := buf.String()
		assert.NotContains(t, out, "<b>X</b>")
		assert.Contains(t, out, "&lt;b&gt;X&lt;/b&gt;")
		assert.Contains(t, out, `action="/cart/items/0/remove"`)
		assert.Equal(t, 2, strings.Count(out, `action="/cart/items/0/quantity"`))
		assert.Contains(t, out, fmt.Sprintf(`value="%d" readonly`, 2))
	})
}
