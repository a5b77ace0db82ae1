package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"campusbook/internal/database"
	"campusbook/internal/service"
	"campusbook/internal/workflow"
)

// errorResponse — тело любой ошибки API. Code — стабильный машинный тег,
// Error — человекочитаемое сообщение.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}

// writeDomainError переводит доменную ошибку в HTTP-код. Неизвестные ошибки
// уходят как 500 без деталей, текст остаётся в журнале.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, service.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, "date_too_far", err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, workflow.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, database.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, database.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate_request", err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, service.ErrHolidayConflict):
		writeError(w, http.StatusUnprocessableEntity, "holiday", err.Error())
	case errors.Is(err, service.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "working_hours", err.Error())
	case errors.Is(err, service.ErrFacilityUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "facility_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// conflictReason — тег причины для ответа проверки доступности.
func conflictReason(err error) string {
	switch {
	case errors.Is(err, database.ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, service.ErrHolidayConflict):
		return "holiday"
	case errors.Is(err, service.ErrOutsideWorkingHours):
		return "working_hours"
	case errors.Is(err, service.ErrFacilityUnavailable):
		return "facility_unavailable"
	case errors.Is(err, service.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
