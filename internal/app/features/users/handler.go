// internal/app/features/users/handler.go

// Package users serves member profiles, the dashboard, and the XP
// leaderboard.
package users

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	appstore "github.com/maestros-community/backend/internal/app/store/applications"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/paging"
	"github.com/maestros-community/backend/internal/app/system/sanitize"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Handler holds the stores the profile endpoints read from.
type Handler struct {
	Users    *userstore.Store
	Activity *activitystore.Store
	Apps     *appstore.Store
	Events   *eventstore.Store
	Log      *zap.Logger
}

// NewHandler constructs the users Handler.
func NewHandler(users *userstore.Store, activity *activitystore.Store,
	apps *appstore.Store, events *eventstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Activity: activity, Apps: apps, Events: events, Log: logger}
}

// publicProfile is the subset of a user document anyone may see.
func publicProfile(u *models.User) map[string]any {
	return map[string]any{
		"id":         u.ID.Hex(),
		"discord_id": u.DiscordID,
		"username":   u.Username,
		"avatar":     u.Avatar,
		"level":      u.Level,
		"xp":         u.XP,
		"badges":     u.Badges,
	}
}

// ServeMe handles GET /users/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	p := publicProfile(u)
	p["roles"] = u.Roles
	p["joined_at"] = u.JoinedAt
	httpjson.OK(w, p)
}

// ServeDashboard handles GET /users/dashboard: a profile summary plus the
// member's recent activity, applications, and registered events.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	activity, err := h.Activity.Recent(ctx, u.DiscordID, 10, 0)
	if err != nil {
		h.Log.Error("dashboard: loading activity failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load dashboard")
		return
	}
	apps, err := h.Apps.ByUser(ctx, u.DiscordID)
	if err != nil {
		h.Log.Error("dashboard: loading applications failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load dashboard")
		return
	}
	if len(apps) > 5 {
		apps = apps[:5]
	}
	events, err := h.Events.ByParticipant(ctx, u.DiscordID, 5)
	if err != nil {
		h.Log.Error("dashboard: loading events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load dashboard")
		return
	}

	httpjson.OK(w, map[string]any{
		"user": map[string]any{
			"username": u.Username,
			"level":    u.Level,
			"xp":       u.XP,
			"badges":   u.Badges,
		},
		"recent_activity": activity,
		"applications":    apps,
		"events":          events,
	})
}

type updateRequest struct {
	Username string `json:"username"`
}

// ServeUpdate handles PUT /users/update. Username is the only mutable
// profile field; everything else is owned by Discord or the admins.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := sanitize.Text(req.Username)
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "username must not be empty")
		return
	}
	if len(name) > 32 {
		httpjson.Error(w, http.StatusBadRequest, "username must be at most 32 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Users.UpdateUsername(ctx, u.DiscordID, name); err != nil {
		h.Log.Error("update: writing username failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update profile")
		return
	}
	u.Username = name
	httpjson.OK(w, map[string]any{"message": "Profile updated", "user": publicProfile(u)})
}

// ServeByID handles GET /users/{user_id}, a public profile by Discord ID.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.ByDiscordID(ctx, chi.URLParam(r, "user_id"))
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load user")
		return
	}
	httpjson.OK(w, publicProfile(u))
}

// ServeLeaderboard handles GET /users/leaderboard/xp.
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	page := paging.ParseWithDefault(r, 10)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	users, err := h.Users.Leaderboard(ctx, page.Limit)
	if err != nil {
		h.Log.Error("leaderboard: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load leaderboard")
		return
	}

	board := make([]map[string]any, 0, len(users))
	for i, u := range users {
		board = append(board, map[string]any{
			"rank":     i + 1,
			"username": u.Username,
			"avatar":   u.Avatar,
			"xp":       u.XP,
			"level":    u.Level,
			"badges":   u.Badges,
		})
	}
	httpjson.OK(w, map[string]any{"leaderboard": board})
}

type addXPRequest struct {
	Amount int `json:"amount"`
}

// maxSelfXP caps what a member can grant themselves through site actions.
const maxSelfXP = 1000

// ServeAddXP handles POST /users/add-xp and logs the gain to the
// activity feed.
func (h *Handler) ServeAddXP(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)

	var req addXPRequest
	if err := httpjson.Decode(r, &req); err != nil {
		// Tolerate the amount arriving as a query parameter.
		if n, qerr := strconv.Atoi(r.URL.Query().Get("amount")); qerr == nil {
			req.Amount = n
		} else {
			httpjson.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Amount <= 0 || req.Amount > maxSelfXP {
		httpjson.Error(w, http.StatusBadRequest, "amount must be between 1 and 1000")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	xp, level, err := h.Users.AddXP(ctx, u.DiscordID, req.Amount)
	if err != nil {
		h.Log.Error("add-xp: write failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not add XP")
		return
	}

	if err := h.Activity.Record(ctx, u.DiscordID, "xp_gained", map[string]any{
		"amount": req.Amount, "new_xp": xp, "new_level": level,
	}); err != nil {
		h.Log.Warn("add-xp: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{
		"message": "XP added",
		"xp":      xp,
		"level":   level,
	})
}
