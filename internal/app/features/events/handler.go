// internal/app/features/events/handler.go

// Package events exposes community events: public listing, member
// registration, and the manager surface for creating and running them.
package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/paging"
	"github.com/maestros-community/backend/internal/app/system/sanitize"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

const registerXP = 25

// Handler holds the event endpoints' dependencies.
type Handler struct {
	Events   *eventstore.Store
	Users    *userstore.Store
	Activity *activitystore.Store
	Checker  *authz.Checker
	Log      *zap.Logger
}

// NewHandler constructs the events Handler.
func NewHandler(events *eventstore.Store, users *userstore.Store,
	activity *activitystore.Store, checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Users: users, Activity: activity, Checker: checker, Log: logger}
}

type eventRequest struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Game            string         `json:"game"`
	Date            time.Time      `json:"date"`
	MaxParticipants int            `json:"max_participants"`
	Prize           string         `json:"prize"`
	Rules           string         `json:"rules"`
	Status          string         `json:"status"`
	Rewards         map[string]any `json:"rewards"`
}

// validate enforces the creation constraints. Updates reuse individual
// checks as the fields appear.
func (req *eventRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" ||
		strings.TrimSpace(req.Game) == "" || req.Date.IsZero() || req.MaxParticipants == 0:
		return "Title, description, game, date and max_participants are required"
	case len(req.Title) < 5 || len(req.Title) > 100:
		return "Title must be between 5 and 100 characters"
	case len(req.Description) < 20:
		return "Description must be at least 20 characters"
	case req.MaxParticipants < 2 || req.MaxParticipants > 1000:
		return "Max participants must be between 2 and 1000"
	case req.Date.Before(time.Now()):
		return "Event date must be in the future"
	}
	return ""
}

// ServeCreate handles POST /events/create.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)

	var req eventRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}

	event := &models.Event{
		Title:           sanitize.Text(req.Title),
		Description:     sanitize.HTML(req.Description),
		Game:            sanitize.Text(req.Game),
		Date:            req.Date.UTC(),
		MaxParticipants: req.MaxParticipants,
		Prize:           sanitize.Text(req.Prize),
		Rules:           sanitize.HTML(req.Rules),
		Rewards:         req.Rewards,
		CreatedBy:       manager.DiscordID,
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	id, err := h.Events.Create(ctx, event)
	if err != nil {
		h.Log.Error("create event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create event")
		return
	}

	if err := h.Activity.Record(ctx, manager.DiscordID, "event_created", map[string]any{
		"event_id": id.Hex(), "event_title": event.Title,
	}); err != nil {
		h.Log.Warn("create event: recording activity failed", zap.Error(err))
	}

	h.Log.Info("event created",
		zap.String("event_id", id.Hex()), zap.String("created_by", manager.DiscordID))

	httpjson.OK(w, map[string]any{
		"message": "Event created successfully",
		"event":   event,
	})
}

// ServeList handles GET /events/list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	events, err := h.Events.List(ctx, r.URL.Query().Get("status"), page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("list events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}
	httpjson.OK(w, map[string]any{"events": events, "count": len(events)})
}

// ServeUpcoming handles GET /events/upcoming/list: the next five events.
func (h *Handler) ServeUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	events, err := h.Events.Upcoming(ctx, 5)
	if err != nil {
		h.Log.Error("upcoming events failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}
	httpjson.OK(w, map[string]any{"events": events})
}

// ServeByID handles GET /events/{event_id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	event, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	httpjson.OK(w, map[string]any{"event": event})
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "event_id"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Event not found")
		return nil, false
	}
	event, err := h.Events.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Event not found")
		return nil, false
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load event")
		return nil, false
	}
	return event, true
}

// ServeRegister handles POST /events/{event_id}/register. Successful
// signups earn XP; every failure mode is reported distinctly.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if event.Status == models.EventUpcoming && event.Date.Before(time.Now()) {
		httpjson.Error(w, http.StatusBadRequest, "Event has already started")
		return
	}

	switch err := h.Events.Register(ctx, event.ID, u.DiscordID); err {
	case nil:
	case eventstore.ErrAlreadyRegistered:
		httpjson.Error(w, http.StatusBadRequest, "Already registered for this event")
		return
	case eventstore.ErrEventFull:
		httpjson.Error(w, http.StatusBadRequest, fmt.Sprintf(
			"Event is full (%d/%d participants)", len(event.Participants), event.MaxParticipants))
		return
	case eventstore.ErrEventNotOpen:
		httpjson.Error(w, http.StatusBadRequest, "Event registration is closed")
		return
	default:
		h.Log.Error("register failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not register")
		return
	}

	oldLevel := u.Level
	_, newLevel, err := h.Users.AddXP(ctx, u.DiscordID, registerXP)
	if err != nil {
		h.Log.Warn("register: awarding XP failed", zap.Error(err))
		newLevel = u.Level
	}

	if err := h.Activity.Record(ctx, u.DiscordID, "event_registered", map[string]any{
		"event_id":          event.ID.Hex(),
		"event_title":       event.Title,
		"participant_count": len(event.Participants) + 1,
	}); err != nil {
		h.Log.Warn("register: recording activity failed", zap.Error(err))
	}

	httpjson.OK(w, map[string]any{
		"message":    "Registered for event successfully",
		"xp_awarded": registerXP,
		"level_up":   newLevel > oldLevel,
	})
}

// ServeUnregister handles POST /events/{event_id}/unregister.
func (h *Handler) ServeUnregister(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	switch err := h.Events.Unregister(ctx, event.ID, u.DiscordID); err {
	case nil:
	case eventstore.ErrNotRegistered:
		httpjson.Error(w, http.StatusBadRequest, "Not registered for this event")
		return
	case eventstore.ErrEventNotOpen:
		httpjson.Error(w, http.StatusBadRequest, "Event registration is closed")
		return
	default:
		h.Log.Error("unregister failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not unregister")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Unregistered from event successfully"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager surface                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeManagerAll handles GET /events/manager/all: every event, newest
// first, with the participant count precomputed for the table view.
func (h *Handler) ServeManagerAll(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	events, err := h.Events.List(ctx, "", page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("manager list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load events")
		return
	}

	views := make([]map[string]any, 0, len(events))
	for _, e := range events {
		views = append(views, map[string]any{
			"id":                e.ID.Hex(),
			"title":             e.Title,
			"description":       e.Description,
			"game":              e.Game,
			"date":              e.Date,
			"max_participants":  e.MaxParticipants,
			"prize":             e.Prize,
			"participants":      e.Participants,
			"participant_count": len(e.Participants),
			"winners":           e.Winners,
			"status":            e.Status,
			"created_by":        e.CreatedBy,
			"created_at":        e.CreatedAt,
		})
	}
	httpjson.OK(w, map[string]any{"events": views, "count": len(views)})
}

// ServeUpdate handles PUT /events/manager/{event_id}: partial update of
// the provided fields only.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	var req map[string]any
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set := bson.M{}
	if v, ok := req["title"].(string); ok {
		if len(v) < 5 || len(v) > 100 {
			httpjson.Error(w, http.StatusBadRequest, "Title must be between 5 and 100 characters")
			return
		}
		set["title"] = sanitize.Text(v)
	}
	if v, ok := req["description"].(string); ok {
		if len(v) < 20 {
			httpjson.Error(w, http.StatusBadRequest, "Description must be at least 20 characters")
			return
		}
		set["description"] = sanitize.HTML(v)
	}
	if v, ok := req["game"].(string); ok {
		set["game"] = sanitize.Text(v)
	}
	if v, ok := req["prize"].(string); ok {
		set["prize"] = sanitize.Text(v)
	}
	if v, ok := req["rules"].(string); ok {
		set["rules"] = sanitize.HTML(v)
	}
	if v, ok := req["date"].(string); ok {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		set["date"] = d.UTC()
	}
	if v, ok := req["max_participants"].(float64); ok {
		n := int(v)
		if n < 2 || n > 1000 {
			httpjson.Error(w, http.StatusBadRequest, "Max participants must be between 2 and 1000")
			return
		}
		set["max_participants"] = n
	}
	if v, ok := req["status"].(string); ok {
		switch v {
		case models.EventUpcoming, models.EventOngoing, models.EventCompleted, models.EventCancelled:
			set["status"] = v
		default:
			httpjson.Error(w, http.StatusBadRequest, "Invalid event status")
			return
		}
	}
	if len(set) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "No fields to update")
		return
	}
	set["updated_at"] = time.Now()
	set["updated_by"] = manager.DiscordID

	if err := h.Events.Update(ctx, event.ID, set); err != nil {
		h.Log.Error("update event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update event")
		return
	}

	updated, err := h.Events.ByID(ctx, event.ID)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load event")
		return
	}
	httpjson.OK(w, map[string]any{
		"message": "Event updated successfully",
		"event":   updated,
	})
}

// ServeDelete handles DELETE /events/manager/{event_id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "event_id"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Event not found")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Events.Delete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "Event not found")
			return
		}
		h.Log.Error("delete event failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete event")
		return
	}
	httpjson.OK(w, map[string]any{"message": "Event deleted successfully"})
}

type winnersRequest struct {
	Winners []string `json:"winners"`
}

// ServeSetWinners handles POST /events/manager/{event_id}/winners.
func (h *Handler) ServeSetWinners(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	event, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	var req winnersRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := h.Events.SetWinners(ctx, event.ID, req.Winners); err {
	case nil:
	case eventstore.ErrWinnersNotAllowed:
		httpjson.Error(w, http.StatusBadRequest, "Winners can only be set on a completed event")
		return
	case eventstore.ErrWinnerNotRegistered:
		httpjson.Error(w, http.StatusBadRequest, "All winners must have been participants")
		return
	default:
		h.Log.Error("set winners failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not set winners")
		return
	}

	httpjson.OK(w, map[string]any{"message": "Winners recorded successfully"})
}
