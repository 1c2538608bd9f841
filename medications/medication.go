// Package medications keeps each session's list of tracked medications.
package medications

import (
	"fmt"
	"strings"
	"time"

	"github.com/giygas/medicine-shop/validation"
)

const (
	// DateLayout is the format of start and end dates
	DateLayout = "2006-01-02"
	// CreatedLayout is the format of the created_at timestamp
	CreatedLayout = "2006-01-02 15:04:05"
)

// ErrInvalidInput is wrapped by every Input validation failure
var ErrInvalidInput = validation.ErrInvalidInput

// Medication is one tracked medication
type Medication struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Instructions string `json:"instructions"`
	Reminder     bool   `json:"reminder"`
	CreatedAt    string `json:"created_at"`
}

// Input is the user-supplied part of a Medication
type Input struct {
	Name         string
	Dosage       string
	Frequency    string
	StartDate    string
	EndDate      string
	Instructions string
	Reminder     bool
}

var fieldLimits = []struct {
	field    string
	max      int
	required bool
	value    func(*Input) *string
}{
	{"medication_name", 100, true, func(in *Input) *string { return &in.Name }},
	{"dosage", 50, true, func(in *Input) *string { return &in.Dosage }},
	{"frequency", 50, true, func(in *Input) *string { return &in.Frequency }},
	{"instructions", 500, false, func(in *Input) *string { return &in.Instructions }},
}

// Normalize trims every field and validates the result
func (in *Input) Normalize() error {
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)

	for _, f := range fieldLimits {
		v := f.value(in)
		*v = strings.TrimSpace(*v)
		if f.required && *v == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.field)
		}
		if err := validation.ValidateText(f.field, *v, f.max); err != nil {
			return err
		}
	}

	if in.StartDate == "" {
		return fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	start, err := time.Parse(DateLayout, in.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidInput)
	}

	if in.EndDate != "" {
		end, err := time.Parse(DateLayout, in.EndDate)
		if err != nil {
			return fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: end_date cannot be before start_date", ErrInvalidInput)
		}
	}

	return nil
}
