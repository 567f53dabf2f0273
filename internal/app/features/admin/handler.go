// internal/app/features/admin/handler.go

// Package admin is the site administration surface: user management,
// application review, XP and badge grants, and system stats. Every
// route requires a configured admin.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	appstore "github.com/maestros-community/backend/internal/app/store/applications"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	syslogstore "github.com/maestros-community/backend/internal/app/store/syslogs"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/paging"
	"github.com/maestros-community/backend/internal/app/system/sanitize"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

const approveXP = 100

// maxXPGrant caps a single admin XP award.
const maxXPGrant = 10000

// validBadges is the set of badges admins can grant.
var validBadges = []string{
	"Member", "VIP", "Elite", "Champion", "Legend",
	"Staff", "Moderator", "Event Winner", "Tournament Victor", "Top Player",
}

// Handler holds the admin surface dependencies.
type Handler struct {
	Users    *userstore.Store
	Apps     *appstore.Store
	Events   *eventstore.Store
	Activity *activitystore.Store
	Syslogs  *syslogstore.Store
	Checker  *authz.Checker
	Log      *zap.Logger
}

// NewHandler constructs the admin Handler.
func NewHandler(users *userstore.Store, apps *appstore.Store, events *eventstore.Store,
	activity *activitystore.Store, syslogs *syslogstore.Store,
	checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users, Apps: apps, Events: events,
		Activity: activity, Syslogs: syslogs,
		Checker: checker, Log: logger,
	}
}

// ServeUsers handles GET /admin/users.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx, page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("admin users: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load users")
		return
	}
	total, err := h.Users.Count(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load users")
		return
	}
	httpjson.OK(w, map[string]any{
		"users": users,
		"total": total,
		"skip":  page.Skip,
		"limit": page.Limit,
	})
}

// ServeApplications handles GET /admin/applications.
func (h *Handler) ServeApplications(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	status := r.URL.Query().Get("status")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.Apps.List(ctx, status, page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("admin applications: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	counts, err := h.Apps.StatusCounts(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	var total int64
	if status != "" {
		total = counts[status]
	} else {
		for _, n := range counts {
			total += n
		}
	}
	httpjson.OK(w, map[string]any{
		"applications": apps,
		"total":        total,
		"skip":         page.Skip,
		"limit":        page.Limit,
	})
}

// ServeReview handles PUT /admin/applications/{application_id}/review.
// The decision arrives as ?status=approved|rejected.
func (h *Handler) ServeReview(w http.ResponseWriter, r *http.Request) {
	admin, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	status := r.URL.Query().Get("status")
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		httpjson.Error(w, http.StatusBadRequest, "Invalid status. Must be 'approved' or 'rejected'")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "application_id"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	app, err := h.Apps.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load application")
		return
	}
	if app.Status != models.ApplicationPending {
		httpjson.Error(w, http.StatusBadRequest, fmt.Sprintf("Application already %s", app.Status))
		return
	}

	if err := h.Apps.Decide(ctx, id, status, admin.DiscordID, "", ""); err != nil {
		h.Log.Error("review: decide failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not review application")
		return
	}

	if status == models.ApplicationRejected {
		if err := h.Activity.Record(ctx, app.UserID, "application_rejected", map[string]any{
			"application_id": id.Hex(), "reviewed_by": admin.DiscordID,
		}); err != nil {
			h.Log.Warn("review: recording activity failed", zap.Error(err))
		}
		httpjson.OK(w, map[string]any{"message": "Application rejected successfully"})
		return
	}

	u, err := h.Users.ByDiscordID(ctx, app.UserID)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load applicant")
		return
	}
	oldLevel := u.Level
	_, newLevel, err := h.Users.AddXP(ctx, app.UserID, approveXP)
	if err != nil {
		h.Log.Warn("review: awarding XP failed", zap.Error(err))
		newLevel = oldLevel
	}
	if err := h.Users.AddBadge(ctx, app.UserID, "Member"); err != nil && err != mongo.ErrNoDocuments {
		h.Log.Warn("review: adding badge failed", zap.Error(err))
	}

	if err := h.Activity.Record(ctx, app.UserID, "application_approved", map[string]any{
		"application_id": id.Hex(),
		"reviewed_by":    admin.DiscordID,
		"xp_awarded":     approveXP,
		"level_up":       newLevel > oldLevel,
	}); err != nil {
		h.Log.Warn("review: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{
		"message":      "Application approved successfully",
		"xp_awarded":   approveXP,
		"badges_added": []string{"Member"},
		"roles_added":  []string{"Member"},
	})
}

type xpRequest struct {
	Amount int `json:"amount"`
}

// ServeAwardXP handles POST /admin/users/{discord_id}/xp.
func (h *Handler) ServeAwardXP(w http.ResponseWriter, r *http.Request) {
	admin, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	discordID := chi.URLParam(r, "discord_id")

	var req xpRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		httpjson.Error(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if req.Amount > maxXPGrant {
		httpjson.Error(w, http.StatusBadRequest, "Cannot award more than 10000 XP at once")
		return
	}

	u, err := h.Users.ByDiscordID(ctx, discordID)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load user")
		return
	}

	newXP, newLevel, err := h.Users.AddXP(ctx, discordID, req.Amount)
	if err != nil {
		h.Log.Error("award xp failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not award XP")
		return
	}

	if err := h.Activity.Record(ctx, discordID, "xp_awarded", map[string]any{
		"amount":     req.Amount,
		"awarded_by": admin.DiscordID,
		"old_xp":     u.XP,
		"new_xp":     newXP,
		"old_level":  u.Level,
		"new_level":  newLevel,
	}); err != nil {
		h.Log.Warn("award xp: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{
		"message":   fmt.Sprintf("Awarded %d XP to %s", req.Amount, u.Username),
		"old_xp":    u.XP,
		"new_xp":    newXP,
		"old_level": u.Level,
		"new_level": newLevel,
		"level_up":  newLevel > u.Level,
	})
}

type badgeRequest struct {
	Badge string `json:"badge"`
}

// ServeAwardBadge handles POST /admin/users/{discord_id}/badge.
func (h *Handler) ServeAwardBadge(w http.ResponseWriter, r *http.Request) {
	admin, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	discordID := chi.URLParam(r, "discord_id")

	var req badgeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	badge := sanitize.Text(strings.TrimSpace(req.Badge))
	if len(badge) < 2 {
		httpjson.Error(w, http.StatusBadRequest, "Badge name must be at least 2 characters")
		return
	}
	known := false
	for _, b := range validBadges {
		if b == badge {
			known = true
			break
		}
	}
	if !known {
		httpjson.Error(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid badge. Must be one of: %s", strings.Join(validBadges, ", ")))
		return
	}

	u, err := h.Users.ByDiscordID(ctx, discordID)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load user")
		return
	}
	for _, b := range u.Badges {
		if b == badge {
			httpjson.Error(w, http.StatusBadRequest, "User already has this badge")
			return
		}
	}

	if err := h.Users.AddBadge(ctx, discordID, badge); err != nil {
		h.Log.Error("award badge failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not award badge")
		return
	}

	if err := h.Activity.Record(ctx, discordID, "badge_awarded", map[string]any{
		"badge": badge, "awarded_by": admin.DiscordID,
	}); err != nil {
		h.Log.Warn("award badge: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{
		"message": fmt.Sprintf("Awarded badge '%s' to %s", badge, u.Username),
	})
}

// ServeRemoveBadge handles DELETE /admin/users/{discord_id}/badge.
func (h *Handler) ServeRemoveBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	discordID := chi.URLParam(r, "discord_id")

	var req badgeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	badge := strings.TrimSpace(req.Badge)
	if badge == "" {
		httpjson.Error(w, http.StatusBadRequest, "Badge name is required")
		return
	}

	if _, err := h.Users.ByDiscordID(ctx, discordID); err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load user")
		return
	}

	if err := h.Users.RemoveBadge(ctx, discordID, badge); err != nil {
		h.Log.Error("remove badge failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not remove badge")
		return
	}
	httpjson.OK(w, map[string]any{
		"message": fmt.Sprintf("Removed badge '%s'", badge),
	})
}

// ServeLogs handles GET /admin/logs: system events, newest first.
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	page := paging.ParseWithDefault(r, 100)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	logs, err := h.Syslogs.Recent(ctx, r.URL.Query().Get("level"), page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("admin logs: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load logs")
		return
	}
	httpjson.OK(w, map[string]any{"logs": logs, "count": len(logs)})
}

// ServeStats handles GET /admin/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	totalUsers, err := h.Users.Count(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	counts, err := h.Apps.StatusCounts(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	totalEvents, err := h.Events.Count(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	upcomingEvents, err := h.Events.CountUpcoming(ctx)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}

	httpjson.OK(w, map[string]any{
		"total_users":          totalUsers,
		"pending_applications": counts[models.ApplicationPending],
		"total_events":         totalEvents,
		"upcoming_events":      upcomingEvents,
	})
}
