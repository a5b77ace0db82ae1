package api

import (
	"net/http"
	"strings"

	"campusbook/internal/models"
)

type submitChangeRequest struct {
	UserID     int64  `json:"user_id"`
	ToCampusID int64  `json:"to_campus_id"`
	Reason     string `json:"reason"`
}

func (s *Server) handleSubmitChangeRequest(w http.ResponseWriter, r *http.Request) {
	var req submitChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID <= 0 || req.ToCampusID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "user_id and to_campus_id are required")
		return
	}

	created, err := s.changes.Submit(r.Context(), req.UserID, req.ToCampusID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid request id")
		return
	}

	req, err := s.changes.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListPendingChangeRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.changes.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

type reviewChangeRequest struct {
	ReviewerID int64  `json:"reviewer_id"`
	Approve    bool   `json:"approve"`
	Comment    string `json:"comment,omitempty"`
}

func (s *Server) handleReviewChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid request id")
		return
	}

	var req reviewChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ReviewerID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "reviewer_id is required")
		return
	}

	if err := s.changes.Review(r.Context(), id, req.ReviewerID, req.Approve, strings.TrimSpace(req.Comment)); err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := s.changes.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type reportIssueRequest struct {
	BookingID   int64  `json:"booking_id"`
	ReporterID  int64  `json:"reporter_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (s *Server) handleReportIssue(w http.ResponseWriter, r *http.Request) {
	var req reportIssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BookingID <= 0 || req.ReporterID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "booking_id and reporter_id are required")
		return
	}

	issue := &models.FacilityIssueReport{
		BookingID:   req.BookingID,
		ReporterID:  req.ReporterID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Severity:    strings.TrimSpace(req.Severity),
		Category:    strings.TrimSpace(req.Category),
	}

	if err := s.issues.ReportIssue(r.Context(), issue); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid issue id")
		return
	}

	issue, err := s.issues.GetIssue(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		status = models.IssueStatusReported
	}

	issues, err := s.issues.ListByStatus(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

type handleIssueRequest struct {
	AdminID       int64  `json:"admin_id"`
	Response      string `json:"response,omitempty"`
	NewFacilityID int64  `json:"new_facility_id,omitempty"`
}

func (s *Server) handleHandleIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid issue id")
		return
	}

	var req handleIssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AdminID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "admin_id is required")
		return
	}

	if err := s.issues.HandleIssue(r.Context(), id, req.AdminID, strings.TrimSpace(req.Response), req.NewFacilityID); err != nil {
		writeDomainError(w, err)
		return
	}

	issue, err := s.issues.GetIssue(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

type resolveIssueRequest struct {
	AdminID int64 `json:"admin_id"`
}

func (s *Server) handleResolveIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid issue id")
		return
	}

	var req resolveIssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AdminID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "admin_id is required")
		return
	}

	if err := s.issues.ResolveIssue(r.Context(), id, req.AdminID); err != nil {
		writeDomainError(w, err)
		return
	}

	issue, err := s.issues.GetIssue(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}
