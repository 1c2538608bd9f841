package cart

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/cart.html
var templateFS embed.FS

var cartTemplate = template.Must(template.ParseFS(templateFS, "templates/cart.html"))

// HTMLRenderer writes the cart fragment to W
type HTMLRenderer struct {
	W io.Writer
}

func (r HTMLRenderer) Render(v View) error {
	return cartTemplate.ExecuteTemplate(r.W, "cart", v)
}

// Capture keeps the last rendered View
type Capture struct {
	View     View
	Rendered bool
}

func (c *Capture) Render(v View) error {
	c.View = v
	c.Rendered = true
	return nil
}

// Messages collects notifications
type Messages []string

func (m *Messages) Notify(message string) {
	*m = append(*m, message)
}
