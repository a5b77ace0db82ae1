package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusbook/internal/models"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

func parseDate(raw string) (time.Time, bool) {
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	return date, err == nil
}

type createBookingRequest struct {
	FacilityID      int64  `json:"facility_id"`
	UserID          int64  `json:"user_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	LecturerContact string `json:"lecturer_contact,omitempty"`
	Purpose         string `json:"purpose,omitempty"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FacilityID <= 0 || req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "facility_id and user_id are required")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
		return
	}

	booking := &models.Booking{
		FacilityID:      req.FacilityID,
		UserID:          req.UserID,
		Date:            date,
		StartTime:       strings.TrimSpace(req.StartTime),
		EndTime:         strings.TrimSpace(req.EndTime),
		LecturerContact: strings.TrimSpace(req.LecturerContact),
		Purpose:         strings.TrimSpace(req.Purpose),
	}

	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleGetBookingByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "validation", "booking code is required")
		return
	}

	booking, err := s.bookings.GetBookingByCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type actorRequest struct {
	ActorID int64 `json:"actor_id"`
}

// transition применяет переход статуса от имени actor_id из тела запроса.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, apply func(bookingID, actorID int64) error) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid booking id")
		return
	}

	var req actorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ActorID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "actor_id is required")
		return
	}

	if err := apply(id, req.ActorID); err != nil {
		writeDomainError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id, actorID int64) error {
		return s.bookings.CancelBooking(r.Context(), id, actorID)
	})
}

func (s *Server) handleLecturerApprove(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id, actorID int64) error {
		return s.bookings.LecturerApprove(r.Context(), id, actorID)
	})
}

func (s *Server) handleLecturerReject(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id, actorID int64) error {
		return s.bookings.LecturerReject(r.Context(), id, actorID)
	})
}

func (s *Server) handleAdminApprove(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id, actorID int64) error {
		return s.bookings.AdminApprove(r.Context(), id, actorID)
	})
}

func (s *Server) handleAdminReject(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(id, actorID int64) error {
		return s.bookings.AdminReject(r.Context(), id, actorID)
	})
}

// handleAvailability отвечает {"available":true} или причину отказа.
// Отказ — это 200 с reason, а не ошибка: вопрос задан корректно.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	facilityID, err := strconv.ParseInt(q.Get("facility_id"), 10, 64)
	if err != nil || facilityID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "facility_id is required")
		return
	}
	date, ok := parseDate(q.Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
		return
	}
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))

	checkErr := s.bookings.CheckAvailability(r.Context(), facilityID, date, start, end)
	if checkErr == nil {
		writeJSON(w, http.StatusOK, map[string]any{"available": true})
		return
	}

	reason := conflictReason(checkErr)
	if reason == "internal" {
		writeDomainError(w, checkErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": false,
		"reason":    reason,
		"detail":    checkErr.Error(),
	})
}

func (s *Server) handleFacilityBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid facility id")
		return
	}
	date, ok := parseDate(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "date must be YYYY-MM-DD")
		return
	}

	bookings, err := s.bookings.ListFacilityDay(r.Context(), id, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid user id")
		return
	}

	bookings, err := s.bookings.ListUserBookings(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := s.ref.ListFacilities(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
}

func (s *Server) handleListCampuses(w http.ResponseWriter, r *http.Request) {
	campuses, err := s.ref.ListCampuses(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campuses": campuses})
}
