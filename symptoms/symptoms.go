// Package symptoms validates comma-separated symptom input against the
// whitelist the prediction model understands and offers completions.
package symptoms

import (
	"fmt"
	"strings"
)

const (
	// MinSuggestLength is the shortest term that produces suggestions
	MinSuggestLength = 2
	// MaxSuggestions caps the suggestion list
	MaxSuggestions = 5

	emptyMessage = "Please enter at least one symptom."
)

var knownSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(known))
	for _, s := range known {
		set[s] = struct{}{}
	}
	return set
}()

// Result is the outcome of validating a symptom string
type Result struct {
	Valid    bool     `json:"valid"`
	Symptoms []string `json:"symptoms"`
	Invalid  []string `json:"invalid_symptoms"`
}

// Message returns the inline feedback for an invalid result, or "" when valid
func (r Result) Message() string {
	switch {
	case r.Valid:
		return ""
	case len(r.Invalid) == 0:
		return emptyMessage
	default:
		return fmt.Sprintf("Invalid symptoms: %s. Please enter valid symptoms.", strings.Join(r.Invalid, ", "))
	}
}

// Alert returns the longer wording used for the dismissible warning banner
func (r Result) Alert() string {
	switch {
	case r.Valid:
		return ""
	case len(r.Invalid) == 0:
		return emptyMessage
	default:
		return fmt.Sprintf("The following symptoms are not recognized: %s. Please enter valid symptoms.", strings.Join(r.Invalid, ", "))
	}
}

// Known reports whether name is on the whitelist
func Known(name string) bool {
	_, ok := knownSet[name]
	return ok
}

// All returns a copy of the whitelist
func All() []string {
	out := make([]string, len(known))
	copy(out, known)
	return out
}

// Validate splits input on commas, trims and lowercases each term, and checks
// every term against the whitelist. Empty segments are ignored. The result is
// valid only when at least one term was given and none is unknown.
func Validate(input string) Result {
	res := Result{Symptoms: []string{}, Invalid: []string{}}

	for _, part := range strings.Split(input, ",") {
		term := normalize(part)
		if term == "" {
			continue
		}
		if Known(term) {
			res.Symptoms = append(res.Symptoms, term)
		} else {
			res.Invalid = append(res.Invalid, term)
		}
	}

	res.Valid = len(res.Invalid) == 0 && len(res.Symptoms) > 0
	return res
}

// Suggest returns up to MaxSuggestions whitelist entries containing term.
// Terms shorter than MinSuggestLength yield nothing.
func Suggest(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < MinSuggestLength {
		return []string{}
	}

	out := make([]string, 0, MaxSuggestions)
	for _, s := range known {
		if strings.Contains(s, term) {
			out = append(out, s)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}

// LastTerm returns the segment after the final comma, trimmed
func LastTerm(input string) string {
	if i := strings.LastIndex(input, ","); i >= 0 {
		input = input[i+1:]
	}
	return strings.TrimSpace(input)
}

// Complete replaces the last comma segment of input with suggestion
func Complete(input, suggestion string) string {
	parts := strings.Split(input, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	parts[len(parts)-1] = suggestion
	return strings.Join(parts, ", ")
}

func normalize(term string) string {
	return strings.ToLower(strings.Trim(term, "[]' \t\r\n"))
}
