package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/models"
	pkghttp "github.com/eventlane/eventlane/pkg/http"
	pkglogger "github.com/eventlane/eventlane/pkg/logger"
)

// EnforcementServiceInterface defines the trust-enforcement operations
// exposed over HTTP
type EnforcementServiceInterface interface {
	FileReport(ctx context.Context, reporterID, reportedUserID, contentRef, reason string) (*models.ModerationReport, error)
	ResolveReport(ctx context.Context, reportID, reviewerID string, status models.ReportStatus, notes string) (*models.ModerationReport, error)
	RemoveRestriction(ctx context.Context, restrictionID, adminID, reason string) error
	UserStanding(ctx context.Context, userID string) ([]*models.UserRestriction, []*models.UserWarning, error)
}

// ReportListerInterface lists reports for the review queue
type ReportListerInterface interface {
	ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error)
}

// ModerationHandler handles report filing, review, and account standing
type ModerationHandler struct {
	enforcement EnforcementServiceInterface
	reports     ReportListerInterface
	audit       *pkglogger.AuditLogger
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(enforcement EnforcementServiceInterface, reports ReportListerInterface, audit *pkglogger.AuditLogger) *ModerationHandler {
	return &ModerationHandler{
		enforcement: enforcement,
		reports:     reports,
		audit:       audit,
	}
}

// FileReportRequest represents the request body for reporting a user
type FileReportRequest struct {
	ReportedUserID string `json:"reported_user_id" validate:"required,uuid"`
	ContentID      string `json:"content_id" validate:"omitempty,uuid"`
	Reason         string `json:"reason" validate:"required,min=1,max=2000"`
}

// ResolveReportRequest represents the request body for a review decision
type ResolveReportRequest struct {
	Status models.ReportStatus `json:"status" validate:"required,oneof=IN_REVIEW RESOLVED"`
	Notes  string              `json:"notes" validate:"max=5000"`
}

// RemoveRestrictionRequest represents the request body for lifting a restriction
type RemoveRestrictionRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=2000"`
}

// StandingResponse represents a user's current moderation standing
type StandingResponse struct {
	ActiveRestrictions []*models.UserRestriction `json:"active_restrictions"`
	Warnings           []*models.UserWarning     `json:"warnings"`
}

// FileReport handles a user reporting another user
func (h *ModerationHandler) FileReport(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req FileReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if req.ReportedUserID == claims.UserID {
		pkghttp.WriteBadRequest(w, "Cannot report yourself")
		return
	}

	report, err := h.enforcement.FileReport(r.Context(), claims.UserID, req.ReportedUserID, req.ContentID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Reported user not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, report)
}

// ListReports returns the review queue, filtered by status
func (h *ModerationHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	status := models.ReportStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.ReportPendingReview
	}
	switch status {
	case models.ReportPendingReview, models.ReportInReview, models.ReportResolved:
	default:
		pkghttp.WriteBadRequest(w, "Unknown report status")
		return
	}

	reports, err := h.reports.ListByStatus(r.Context(), status, 100)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, reports)
}

// ResolveReport advances a report through the review flow
func (h *ModerationHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	reportID := chi.URLParam(r, "id")

	var req ResolveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	report, err := h.enforcement.ResolveReport(r.Context(), reportID, claims.UserID, req.Status, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Report not found")
		case errors.Is(err, models.ErrInvalidStatusTransition):
			pkghttp.WriteConflict(w, "Report cannot move to that status")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Report was updated by another reviewer")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	h.audit.LogEnforcementAction(pkglogger.AuditEvent{
		EventType:    "report_resolved",
		UserID:       claims.UserID,
		TargetUserID: report.ReportedUserID,
	})

	pkghttp.WriteJSON(w, http.StatusOK, report)
}

// RemoveRestriction lifts a restriction by administrative override
func (h *ModerationHandler) RemoveRestriction(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	restrictionID := chi.URLParam(r, "id")

	var req RemoveRestrictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.enforcement.RemoveRestriction(r.Context(), restrictionID, claims.UserID, req.Reason); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Restriction not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.audit.LogEnforcementAction(pkglogger.AuditEvent{
		EventType: "restriction_removed",
		UserID:    claims.UserID,
	})

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// MyStanding returns the caller's active restrictions and warning history
func (h *ModerationHandler) MyStanding(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	restrictions, warnings, err := h.enforcement.UserStanding(r.Context(), claims.UserID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, StandingResponse{
		ActiveRestrictions: restrictions,
		Warnings:           warnings,
	})
}

// UserStanding returns another user's standing (admin review tooling)
func (h *ModerationHandler) UserStanding(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	restrictions, warnings, err := h.enforcement.UserStanding(r.Context(), userID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, StandingResponse{
		ActiveRestrictions: restrictions,
		Warnings:           warnings,
	})
}
