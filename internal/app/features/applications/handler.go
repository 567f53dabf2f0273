// internal/app/features/applications/handler.go

// Package applications handles membership applications: submission with
// server-side validation and scoring, the applicant's own views, and the
// manager review surface.
package applications

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	appstore "github.com/maestros-community/backend/internal/app/store/applications"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/paging"
	"github.com/maestros-community/backend/internal/app/system/scoring"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// XP awards for the application lifecycle.
const (
	submitXP = 50
	acceptXP = 100
)

// Reapply cooldown after any previous application. A CEO can waive it for
// a limited window.
const (
	cooldownDays          = 30
	reapplyOverrideWindow = 7 * 24 * time.Hour
)

// Handler holds the application workflow dependencies.
type Handler struct {
	Apps     *appstore.Store
	Users    *userstore.Store
	Activity *activitystore.Store
	Checker  *authz.Checker
	Log      *zap.Logger
}

// NewHandler constructs the applications Handler.
func NewHandler(apps *appstore.Store, users *userstore.Store,
	activity *activitystore.Store, checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{Apps: apps, Users: users, Activity: activity, Checker: checker, Log: logger}
}

// ServeValidate handles POST /applications/validate: runs the form
// checks without submitting, so the frontend can surface errors early.
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := httpjson.Decode(r, &data); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	httpjson.OK(w, scoring.ValidateApplication(data))
}

// ServeSubmit handles POST /applications/submit. Validation, duplicate
// detection, scoring, and the XP award all happen here; the client
// submits raw form data and nothing else.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var data map[string]any
	if err := httpjson.Decode(r, &data); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if v := scoring.ValidateApplication(data); !v.Valid {
		h.Log.Info("application validation failed",
			zap.String("discord_id", u.DiscordID), zap.Int("errors", len(v.Errors)))
		httpjson.Write(w, http.StatusBadRequest, map[string]any{
			"detail": map[string]any{"message": "Validation failed", "errors": v.Errors},
		})
		return
	}

	if _, err := h.Apps.PendingByUser(ctx, u.DiscordID); err == nil {
		httpjson.Error(w, http.StatusBadRequest, "You already have a pending application")
		return
	} else if err != mongo.ErrNoDocuments {
		h.Log.Error("submit: pending lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not submit application")
		return
	}

	if last, err := h.Apps.LatestByUser(ctx, u.DiscordID); err == nil {
		if detail, blocked := cooldownDetail(last, time.Now()); blocked {
			httpjson.Write(w, http.StatusBadRequest, map[string]any{"detail": detail})
			return
		}
	} else if err != mongo.ErrNoDocuments {
		h.Log.Error("submit: cooldown lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not submit application")
		return
	}

	score, analysis := scoring.ScoreApplication(data)
	app := &models.Application{
		UserID:      u.DiscordID,
		FormType:    "membership",
		Data:        data,
		ResultScore: score,
		Analysis:    analysis,
	}
	id, err := h.Apps.Create(ctx, app)
	if err != nil {
		h.Log.Error("submit: creating application failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not submit application")
		return
	}

	oldLevel := u.Level
	xp, newLevel, err := h.Users.AddXP(ctx, u.DiscordID, submitXP)
	if err != nil {
		h.Log.Warn("submit: awarding XP failed", zap.Error(err))
		xp, newLevel = u.XP, u.Level
	}

	if err := h.Activity.Record(ctx, u.DiscordID, "application_submitted", map[string]any{
		"application_id": id.Hex(), "score": score,
	}); err != nil {
		h.Log.Warn("submit: recording activity failed", zap.Error(err))
	}

	h.Log.Info("application submitted",
		zap.String("discord_id", u.DiscordID),
		zap.String("application_id", id.Hex()),
		zap.Float64("score", score))

	httpjson.OK(w, map[string]any{
		"message":        "Application submitted successfully",
		"application_id": id.Hex(),
		"score":          score,
		"xp_awarded":     submitXP,
		"xp":             xp,
		"level_up":       newLevel > oldLevel,
		"new_level":      newLevel,
	})
}

// cooldownDetail reports whether a new submission still falls inside the
// cooldown window of the user's previous application. A live CEO waiver on
// that application lifts the block.
func cooldownDetail(last *models.Application, now time.Time) (map[string]any, bool) {
	cooldown := time.Duration(cooldownDays) * 24 * time.Hour
	elapsed := now.Sub(last.SubmittedAt)
	if elapsed >= cooldown {
		return nil, false
	}
	if last.OverrideByCEO && last.OverrideExpiresAt != nil && now.Before(*last.OverrideExpiresAt) {
		return nil, false
	}
	daysLeft := int((cooldown - elapsed).Hours() / 24)
	return map[string]any{
		"message": fmt.Sprintf(
			"You can apply only once every %d days. Wait %d days or contact a CEO for early reapplication permission.",
			cooldownDays, daysLeft),
		"reason":          "COOLDOWN",
		"days_remaining":  daysLeft,
		"can_apply_after": last.SubmittedAt.Add(cooldown).Format(time.RFC3339),
	}, true
}

// ServeGrantReapply handles POST /applications/ceo/grant-reapply/{user_id}:
// a CEO waives the reapply cooldown for a user whose latest application was
// rejected. The waiver expires on its own after a week.
func (h *Handler) ServeGrantReapply(w http.ResponseWriter, r *http.Request) {
	ceo, _ := sysauth.CurrentUser(r)
	if !h.Checker.IsCEO(ceo) && !h.Checker.IsAdmin(ceo) {
		httpjson.Error(w, http.StatusForbidden, "Only CEOs can grant reapply permission")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	userID := chi.URLParam(r, "user_id")
	expires := time.Now().Add(reapplyOverrideWindow)

	if err := h.Apps.GrantReapplyOverride(ctx, userID, ceo.DiscordID, expires); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "No rejected application found for this user")
			return
		}
		h.Log.Error("grant-reapply: update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not grant reapply permission")
		return
	}

	// The DM is best-effort; the recorded waiver is what submit checks.
	if b, err := bridge.Get(); err == nil {
		msg := fmt.Sprintf(
			"🎉 A CEO has granted you permission to reapply before the %d-day cooldown expires. Valid until %s.",
			cooldownDays, expires.UTC().Format("2006-01-02 15:04 UTC"))
		if err := b.DirectMessage(userID, msg); err != nil {
			h.Log.Warn("grant-reapply: DM failed", zap.Error(err))
		}
	}

	if err := h.Activity.Record(ctx, userID, "reapply_override_granted", map[string]any{
		"granted_by":  ceo.DiscordID,
		"valid_until": expires.Format(time.RFC3339),
	}); err != nil {
		h.Log.Warn("grant-reapply: recording activity failed", zap.Error(err))
	}

	h.Log.Info("reapply override granted",
		zap.String("user_id", userID),
		zap.String("granted_by", ceo.DiscordID))

	httpjson.OK(w, map[string]any{
		"success":     true,
		"message":     "Reapply permission granted",
		"valid_until": expires.Format(time.RFC3339),
	})
}

// ServeList handles GET /applications/list: the caller's own
// applications, optionally filtered by status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.Apps.ByUser(ctx, u.DiscordID)
	if err != nil {
		h.Log.Error("list: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := apps[:0]
		for _, a := range apps {
			if a.Status == status {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}
	httpjson.OK(w, map[string]any{"applications": apps})
}

// ServeStatus handles GET /applications/status/{application_id}. Only the
// applicant may read their own application.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "application_id"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	app, err := h.Apps.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load application")
		return
	}
	if app.UserID != u.DiscordID {
		httpjson.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	httpjson.OK(w, map[string]any{"application": app})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager surface                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// discordEpochMS is the Discord snowflake epoch (2015-01-01 UTC).
const discordEpochMS = 1420070400000

// accountCreated derives the account creation time from a snowflake ID.
func accountCreated(discordID string) (time.Time, bool) {
	id, err := strconv.ParseUint(discordID, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	ms := int64(id>>22) + discordEpochMS
	return time.UnixMilli(ms).UTC(), true
}

// managerView flattens an application for the review table: form answers
// at the top level, the rubric score under "score", and the applicant's
// profile under "user_info".
func (h *Handler) managerView(ctx context.Context, app models.Application) map[string]any {
	view := map[string]any{
		"_id":          app.ID.Hex(),
		"user_id":      app.UserID,
		"form_type":    app.FormType,
		"status":       app.Status,
		"score":        app.ResultScore,
		"analysis":     app.Analysis,
		"submitted_at": app.SubmittedAt,
		"reviewed_at":  app.ReviewedAt,
		"reviewed_by":  app.ReviewedBy,
		"notes":        app.Notes,
		"reason":       app.Reason,
	}
	for k, v := range app.Data {
		if _, taken := view[k]; !taken {
			view[k] = v
		}
	}

	u, err := h.Users.ByDiscordID(ctx, app.UserID)
	if err != nil {
		return view
	}
	info := map[string]any{
		"username":      u.Username,
		"discriminator": u.Discriminator,
		"avatar":        u.Avatar,
		"email":         u.Email,
		"level":         u.Level,
		"xp":            u.XP,
		"badges":        u.Badges,
		"guild_roles":   u.GuildRoles,
		"joined_at":     u.JoinedAt,
		"last_login":    u.LastLogin,
	}
	if created, ok := accountCreated(app.UserID); ok {
		info["account_created"] = created
	}
	view["user_info"] = info
	return view
}

func (h *Handler) serveManagerList(w http.ResponseWriter, r *http.Request, status string) {
	page := paging.Parse(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	apps, err := h.Apps.List(ctx, status, page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("manager list: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load applications")
		return
	}

	views := make([]map[string]any, 0, len(apps))
	for _, a := range apps {
		views = append(views, h.managerView(ctx, a))
	}
	httpjson.OK(w, map[string]any{
		"applications": views,
		"total":        len(views),
		"skip":         page.Skip,
		"limit":        page.Limit,
	})
}

// ServeManagerPending handles GET /applications/manager/pending.
func (h *Handler) ServeManagerPending(w http.ResponseWriter, r *http.Request) {
	h.serveManagerList(w, r, models.ApplicationPending)
}

// ServeManagerAll handles GET /applications/manager/all.
func (h *Handler) ServeManagerAll(w http.ResponseWriter, r *http.Request) {
	h.serveManagerList(w, r, r.URL.Query().Get("status"))
}

// loadPending fetches the application and enforces it is still pending.
func (h *Handler) loadPending(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Application, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "application_id"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return nil, false
	}
	app, err := h.Apps.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Application not found")
		return nil, false
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load application")
		return nil, false
	}
	if app.Status != models.ApplicationPending {
		httpjson.Error(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot review application with status: %s", app.Status))
		return nil, false
	}
	return app, true
}

type acceptRequest struct {
	Notes string `json:"notes"`
}

// ServeAccept handles POST /applications/manager/accept/{application_id}:
// approves the application, awards XP and the Member badge, and — best
// effort — assigns the guild member role and DMs the applicant.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	app, ok := h.loadPending(ctx, w, r)
	if !ok {
		return
	}

	var req acceptRequest
	_ = httpjson.Decode(r, &req) // notes are optional; an empty body is fine

	if err := h.Apps.Decide(ctx, app.ID, models.ApplicationApproved, manager.DiscordID, req.Notes, ""); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusBadRequest, "Application already reviewed")
			return
		}
		h.Log.Error("accept: update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not accept application")
		return
	}

	if _, _, err := h.Users.AddXP(ctx, app.UserID, acceptXP); err != nil {
		h.Log.Warn("accept: awarding XP failed", zap.Error(err))
	}
	if err := h.Users.AddBadge(ctx, app.UserID, "Member"); err != nil && err != mongo.ErrNoDocuments {
		h.Log.Warn("accept: adding badge failed", zap.Error(err))
	}

	// Guild-side effects go through the bot when it is up. Acceptance
	// stands either way; role sync repairs the guild role later.
	if b, err := bridge.Get(); err == nil {
		if roleID := h.Checker.MemberRoleID(); roleID != "" {
			if err := b.AssignRole(app.UserID, roleID); err != nil {
				h.Log.Warn("accept: assigning member role failed",
					zap.String("discord_id", app.UserID), zap.Error(err))
			}
		}
		if err := b.DirectMessage(app.UserID,
			"🎉 Your Maestros membership application has been approved! Welcome aboard."); err != nil {
			h.Log.Debug("accept: DM failed", zap.String("discord_id", app.UserID), zap.Error(err))
		}
	}

	if err := h.Activity.Record(ctx, app.UserID, "application_approved", map[string]any{
		"application_id": app.ID.Hex(),
		"reviewed_by":    manager.DiscordID,
		"xp_awarded":     acceptXP,
	}); err != nil {
		h.Log.Warn("accept: recording activity failed", zap.Error(err))
	}

	h.Log.Info("application approved",
		zap.String("application_id", app.ID.Hex()),
		zap.String("reviewed_by", manager.DiscordID))

	httpjson.OK(w, map[string]any{
		"message":        "Application approved successfully",
		"application_id": app.ID.Hex(),
		"xp_awarded":     acceptXP,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// ServeReject handles POST /applications/manager/reject/{application_id}.
// Rejections always carry a reason for the applicant.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req rejectRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(strings.TrimSpace(req.Reason)) < 10 {
		httpjson.Error(w, http.StatusBadRequest, "Rejection reason must be at least 10 characters")
		return
	}

	app, ok := h.loadPending(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Apps.Decide(ctx, app.ID, models.ApplicationRejected, manager.DiscordID, "", req.Reason); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusBadRequest, "Application already reviewed")
			return
		}
		h.Log.Error("reject: update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not reject application")
		return
	}

	if err := h.Activity.Record(ctx, app.UserID, "application_rejected", map[string]any{
		"application_id": app.ID.Hex(),
		"reviewed_by":    manager.DiscordID,
		"reason":         req.Reason,
	}); err != nil {
		h.Log.Warn("reject: recording activity failed", zap.Error(err))
	}

	h.Log.Info("application rejected",
		zap.String("application_id", app.ID.Hex()),
		zap.String("reviewed_by", manager.DiscordID))

	httpjson.OK(w, map[string]any{
		"message":        "Application rejected successfully",
		"application_id": app.ID.Hex(),
	})
}

// ServeManagerStats handles GET /applications/manager/stats.
func (h *Handler) ServeManagerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts, err := h.Apps.StatusCounts(ctx)
	if err != nil {
		h.Log.Error("stats: counting failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	recent, err := h.Apps.CountSince(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		h.Log.Error("stats: recent count failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load stats")
		return
	}

	total := counts[models.ApplicationPending] + counts[models.ApplicationApproved] + counts[models.ApplicationRejected]
	var approvalRate float64
	if total > 0 {
		approvalRate = math.Round(float64(counts[models.ApplicationApproved])/float64(total)*10000) / 100
	}

	httpjson.OK(w, map[string]any{
		"total":         total,
		"pending":       counts[models.ApplicationPending],
		"approved":      counts[models.ApplicationApproved],
		"rejected":      counts[models.ApplicationRejected],
		"recent_week":   recent,
		"approval_rate": approvalRate,
	})
}

// ServeDelete handles DELETE /applications/manager/{application_id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	admin, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "application_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid application ID")
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

	if err := h.Apps.Delete(ctx, id); err != nil {
		h.Log.Error("delete: remove failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete application")
		return
	}

	if err := h.Activity.Record(ctx, app.UserID, "application_deleted", map[string]any{
		"application_id":  id.Hex(),
		"deleted_by":      admin.DiscordID,
		"previous_status": app.Status,
	}); err != nil {
		h.Log.Warn("delete: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{"message": "Application deleted successfully"})
}
