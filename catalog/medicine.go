// Package catalog loads the list of purchasable medicines and answers
// search, filter and pagination queries over it.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Medicine is one purchasable product
type Medicine struct {
	Name        string
	Category    string
	Description string
	Price       decimal.Decimal
	Company     string

	// Pre-computed by Prepare: folded, accent-free forms used by Apply
	searchText     string
	categoryFolded string
}

type medicineJSON struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Company     string          `json:"company"`
}

// MarshalJSON writes the price as a JSON number
func (m Medicine) MarshalJSON() ([]byte, error) {
	return json.Marshal(medicineJSON{
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		Price:       json.RawMessage(m.Price.String()),
		Company:     m.Company,
	})
}

func (m *Medicine) UnmarshalJSON(data []byte) error {
	var raw medicineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var price decimal.Decimal
	if len(raw.Price) > 0 {
		if err := price.UnmarshalJSON(raw.Price); err != nil {
			return fmt.Errorf("invalid price for %q: %w", raw.Name, err)
		}
	}

	*m = Medicine{
		Name:        raw.Name,
		Category:    raw.Category,
		Description: raw.Description,
		Price:       price,
		Company:     raw.Company,
	}
	m.Prepare()
	return nil
}

// Prepare computes the normalized search fields. Call it after building a
// Medicine by hand.
func (m *Medicine) Prepare() {
	m.searchText = strings.Join([]string{
		Normalize(m.Name),
		Normalize(m.Category),
		Normalize(m.Description),
		Normalize(m.Company),
	}, "\x00")
	m.categoryFolded = Normalize(m.Category)
}

// Normalize case-folds s and strips diacritics so "Ibuprofène" and
// "IBUPROFENE" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(strings.TrimSpace(stripped))
}
