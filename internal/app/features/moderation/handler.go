// internal/app/features/moderation/handler.go

// Package moderation gives managers the screening tools: message
// analysis, application quality previews, and the warning ledger.
package moderation

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	warningstore "github.com/maestros-community/backend/internal/app/store/warnings"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/scoring"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Handler holds the moderation dependencies.
type Handler struct {
	Warnings *warningstore.Store
	Activity *activitystore.Store
	Checker  *authz.Checker
	Log      *zap.Logger
}

func NewHandler(warnings *warningstore.Store, activity *activitystore.Store,
	checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{Warnings: warnings, Activity: activity, Checker: checker, Log: logger}
}

type analyzeRequest struct {
	Message string `json:"message"`
}

// ServeAnalyze handles POST /moderation/analyze.
func (h *Handler) ServeAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Message is required")
		return
	}
	httpjson.OK(w, scoring.AnalyzeMessage(req.Message))
}

// ServeAnalyzeApplication handles POST /moderation/analyze-application:
// a quick quality read on raw form data, without touching the database.
func (h *Handler) ServeAnalyzeApplication(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := httpjson.Decode(r, &data); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	httpjson.OK(w, scoring.CheckApplicationQuality(data))
}

type warningRequest struct {
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// ServeIssueWarning handles POST /moderation/warnings/{user_id}.
func (h *Handler) ServeIssueWarning(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	userID := chi.URLParam(r, "user_id")

	var req warningRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Warning reason is required")
		return
	}
	severity := req.Severity
	switch severity {
	case "":
		severity = "low"
	case "low", "medium", "high":
	default:
		httpjson.Error(w, http.StatusBadRequest, "Severity must be low, medium or high")
		return
	}

	warning := &models.Warning{
		UserID:   userID,
		Reason:   strings.TrimSpace(req.Reason),
		Severity: severity,
		IssuedBy: manager.DiscordID,
	}
	id, err := h.Warnings.Create(ctx, warning)
	if err != nil {
		h.Log.Error("issue warning failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not issue warning")
		return
	}

	count, err := h.Warnings.CountByUser(ctx, userID)
	if err != nil {
		h.Log.Warn("counting warnings failed", zap.Error(err))
	}

	if err := h.Activity.Record(ctx, userID, "warning_issued", map[string]any{
		"warning_id": id.Hex(),
		"issued_by":  manager.DiscordID,
		"severity":   severity,
	}); err != nil {
		h.Log.Warn("issue warning: recording activity failed", zap.Error(err))
	}

	h.Log.Info("warning issued",
		zap.String("user_id", userID),
		zap.String("issued_by", manager.DiscordID),
		zap.String("severity", severity))

	httpjson.OK(w, map[string]any{
		"message":        "Warning issued successfully",
		"warning":        warning,
		"total_warnings": count,
	})
}

// ServeWarnings handles GET /moderation/warnings/{user_id}.
func (h *Handler) ServeWarnings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	warnings, err := h.Warnings.ByUser(ctx, userID)
	if err != nil {
		h.Log.Error("list warnings failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load warnings")
		return
	}
	httpjson.OK(w, map[string]any{
		"user_id":  userID,
		"warnings": warnings,
		"count":    len(warnings),
	})
}

// ServeRevokeWarning handles DELETE /moderation/warnings/{warning_id}.
func (h *Handler) ServeRevokeWarning(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "warning_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid warning ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Warnings.Delete(ctx, id); err != nil {
		httpjson.Error(w, http.StatusNotFound, "Warning not found")
		return
	}
	h.Log.Info("warning revoked",
		zap.String("warning_id", id.Hex()),
		zap.String("revoked_by", manager.DiscordID))
	httpjson.OK(w, map[string]any{"message": "Warning revoked"})
}
