package validation

import (
	"fmt"
	"strings"

	"github.com/giygas/medicine-shop/catalog"
)

// CatalogQualityReport summarizes catalog entries worth a warning
type CatalogQualityReport struct {
	DuplicateNames      []string
	WithoutCategory     int
	WithoutDescription  int
	FreeItems           int
	TooLongDescriptions []string
}

// ValidateMedicine checks a single catalog entry
func ValidateMedicine(m *catalog.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty medicine name")
	}

	if len(m.Name) > 200 {
		return fmt.Errorf("name too long for %q: %d characters", m.Name, len(m.Name))
	}

	if len(m.Category) > 100 {
		return fmt.Errorf("category too long for %q: %d characters", m.Name, len(m.Category))
	}

	if m.Price.IsNegative() {
		return fmt.Errorf("negative price for %q", m.Name)
	}

	return nil
}

// ReportCatalogQuality gathers data quality issues without rejecting the catalog
func ReportCatalogQuality(medicines []catalog.Medicine) *CatalogQualityReport {
	report := &CatalogQualityReport{
		DuplicateNames:      []string{},
		TooLongDescriptions: []string{},
	}

	seen := make(map[string]int)
	for _, m := range medicines {
		key := catalog.Normalize(m.Name)
		seen[key]++
		if seen[key] == 2 {
			report.DuplicateNames = append(report.DuplicateNames, m.Name)
		}

		if strings.TrimSpace(m.Category) == "" {
			report.WithoutCategory++
		}
		if strings.TrimSpace(m.Description) == "" {
			report.WithoutDescription++
		}
		if m.Price.IsZero() {
			report.FreeItems++
		}
		if len(m.Description) > 2000 && len(report.TooLongDescriptions) < 10 {
			report.TooLongDescriptions = append(report.TooLongDescriptions, m.Name)
		}
	}

	return report
}
