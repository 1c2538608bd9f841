package handlers

import (
	"errors"
	"net/http"

	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/metrics"
	"github.com/giygas/medicine-shop/symptoms"
)

// Predict validates the symptoms form field and, when every term is known,
// hands the list to the predictor.
func (h *HTTPHandlerImpl) Predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	result := symptoms.Validate(r.PostForm.Get("symptoms"))
	metrics.ObserveSymptomValidation(result.Valid)

	if !result.Valid {
		RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":            http.StatusText(http.StatusUnprocessableEntity),
			"message":          result.Message(),
			"alert":            result.Alert(),
			"code":             http.StatusUnprocessableEntity,
			"invalid_symptoms": result.Invalid,
		})
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), result.Symptoms)
	if errors.Is(err, symptoms.ErrUpstream) {
		logging.Error("Prediction service failed", "error", err)
		RespondWithError(w, http.StatusBadGateway, "Unable to process these symptoms. Please try different symptoms or contact support.")
		return
	}
	if err != nil {
		logging.Error("Prediction failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Error processing symptoms")
		return
	}

	RespondWithJSON(w, http.StatusOK, prediction)
}

// SuggestSymptoms completes the last comma-separated term of q
func (h *HTTPHandlerImpl) SuggestSymptoms(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("q")
	term := symptoms.LastTerm(input)

	suggestions := symptoms.Suggest(term)
	completions := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		completions = append(completions, symptoms.Complete(input, s))
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"term":        term,
		"suggestions": suggestions,
		"completions": completions,
	})
}
