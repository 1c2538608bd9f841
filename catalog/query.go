package catalog

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// PageSize is the number of medicines per page
const PageSize = 12

// ErrInvalidPage is returned for page numbers below 1
var ErrInvalidPage = errors.New("catalog: page must be >= 1")

// Query selects a page of the catalog. Zero bounds mean unbounded.
type Query struct {
	Search     string
	Categories []string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	Page       int
}

// Page is one page of query results
type Page struct {
	Data       []Medicine `json:"data"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalItems int        `json:"totalItems"`
	MaxPage    int        `json:"maxPage"`
}

// Filter returns the medicines matching the search term, categories and
// price range, preserving catalog order.
func Filter(medicines []Medicine, q Query) []Medicine {
	term := Normalize(q.Search)

	categories := make(map[string]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		if c = Normalize(c); c != "" {
			categories[c] = struct{}{}
		}
	}

	results := make([]Medicine, 0, len(medicines))
	for _, m := range medicines {
		if term != "" && !strings.Contains(m.searchText, term) {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[m.categoryFolded]; !ok {
				continue
			}
		}
		if !q.MinPrice.IsZero() && m.Price.LessThan(q.MinPrice) {
			continue
		}
		if !q.MaxPrice.IsZero() && m.Price.GreaterThan(q.MaxPrice) {
			continue
		}
		results = append(results, m)
	}
	return results
}

// Apply filters medicines and returns the requested page. A page past the
// end is returned empty, the way the shop shows "no medicines found".
func Apply(medicines []Medicine, q Query) (Page, error) {
	page := q.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return Page{}, ErrInvalidPage
	}

	filtered := Filter(medicines, q)
	total := len(filtered)

	maxPage := (total + PageSize - 1) / PageSize

	// Compare pages before multiplying so huge page numbers cannot overflow
	start, end := total, total
	if page <= maxPage {
		start = (page - 1) * PageSize
		end = min(start+PageSize, total)
	}

	return Page{
		Data:       filtered[start:end],
		Page:       page,
		PageSize:   PageSize,
		TotalItems: total,
		MaxPage:    maxPage,
	}, nil
}
