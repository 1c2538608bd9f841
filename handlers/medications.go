package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/medicine-shop/logging"
	"github.com/giygas/medicine-shop/medications"
)

// GetMedications lists the session's medications
func (h *HTTPHandlerImpl) GetMedications(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	list, err := h.medications.List(r.Context(), id)
	if err != nil {
		logging.Error("Failed to list medications", "error", err)
		RespondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to load medications",
		})
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"medications": list,
	})
}

// AddMedication creates a medication from the submitted form
func (h *HTTPHandlerImpl) AddMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		RespondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid form body",
		})
		return
	}

	in := medications.Input{
		Name:         r.PostForm.Get("medication_name"),
		Dosage:       r.PostForm.Get("dosage"),
		Frequency:    r.PostForm.Get("frequency"),
		StartDate:    r.PostForm.Get("start_date"),
		EndDate:      r.PostForm.Get("end_date"),
		Instructions: r.PostForm.Get("instructions"),
		Reminder:     r.PostForm.Has("set_reminder"),
	}

	unlock := h.locks.Lock(id)
	med, err := h.medications.Add(r.Context(), id, in)
	unlock()

	switch {
	case errors.Is(err, medications.ErrInvalidInput):
		RespondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Failed to add medication: " + strings.TrimPrefix(err.Error(), medications.ErrInvalidInput.Error()+": "),
		})
	case err != nil:
		logging.Error("Failed to add medication", "error", err)
		RespondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to add medication",
		})
	default:
		RespondWithJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "Medication added successfully!",
			"medication": med,
		})
	}
}

// DeleteMedication removes the medication named by the medication_id form field
func (h *HTTPHandlerImpl) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		RespondWithJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid form body",
		})
		return
	}

	unlock := h.locks.Lock(id)
	deleted, err := h.medications.Delete(r.Context(), id, strings.TrimSpace(r.PostForm.Get("medication_id")))
	unlock()

	switch {
	case err != nil:
		logging.Error("Failed to delete medication", "error", err)
		RespondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Failed to delete medication",
		})
	case !deleted:
		RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Medication not found",
		})
	default:
		RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Medication deleted successfully!",
		})
	}
}
