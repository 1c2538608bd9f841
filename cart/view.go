package cart

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultImage is shown for items without an image reference
const DefaultImage = "/static/medicine-icon.png"

// Control is an action a row exposes to the user
type Control struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Delta  int    `json:"delta,omitempty"`
}

// Row is one rendered line item
type Row struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"-"`
	PriceText string          `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Subtotal  string          `json:"subtotal"`
	Remove    Control         `json:"remove"`
	Decrement Control         `json:"decrement"`
	Increment Control         `json:"increment"`
}

// View is the rendered state of a cart
type View struct {
	Empty     bool            `json:"empty"`
	Rows      []Row           `json:"items"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"-"`
	TotalText string          `json:"total"`
}

// FormatPrice renders an amount the way the shop displays it, e.g. $17.00
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// BuildView recomputes the total (sum of price x quantity), the item count
// (sum of quantities) and one row per item.
func BuildView(items []Item) View {
	view := View{Empty: len(items) == 0, Rows: make([]Row, 0, len(items)), Total: decimal.Zero}

	for i, item := range items {
		subtotal := item.Subtotal()
		view.Total = view.Total.Add(subtotal)
		view.Count += item.Quantity

		image := item.Image
		if image == "" {
			image = DefaultImage
		}

		base := "/cart/items/" + strconv.Itoa(i)
		view.Rows = append(view.Rows, Row{
			Index:     i,
			Name:      item.Name,
			Price:     item.Price,
			PriceText: FormatPrice(item.Price),
			Image:     image,
			Quantity:  item.Quantity,
			Subtotal:  FormatPrice(subtotal),
			Remove:    Control{Method: "POST", Path: base + "/remove"},
			Decrement: Control{Method: "POST", Path: base + "/quantity", Delta: -1},
			Increment: Control{Method: "POST", Path: base + "/quantity", Delta: 1},
		})
	}

	view.TotalText = FormatPrice(view.Total)
	return view
}

// String is a compact summary used in logs
func (v View) String() string {
	return fmt.Sprintf("cart{items=%d count=%d total=%s}", len(v.Rows), v.Count, v.TotalText)
}
