// internal/app/features/rules/handler.go

// Package rules serves the community rulebook. Rules live in Mongo and
// are mirrored to the guild's rules channels when the bot is connected.
package rules

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	rulestore "github.com/maestros-community/backend/internal/app/store/rules"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/sanitize"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Handler serves the rulebook endpoints.
type Handler struct {
	Rules   *rulestore.Store
	Checker *authz.Checker
	// RulesCategory is the Discord category holding the rules channels.
	// Empty disables channel discovery and mirroring.
	RulesCategory string
	Log           *zap.Logger
}

func NewHandler(rules *rulestore.Store, checker *authz.Checker, rulesCategory string, logger *zap.Logger) *Handler {
	return &Handler{Rules: rules, Checker: checker, RulesCategory: rulesCategory, Log: logger}
}

// ServeList handles GET /rules. active_only defaults to true.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active_only"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			activeOnly = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	rules, err := h.Rules.List(ctx, r.URL.Query().Get("category"), activeOnly)
	if err != nil {
		h.Log.Error("list rules failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load rules")
		return
	}
	httpjson.OK(w, map[string]any{"rules": rules, "count": len(rules)})
}

// ServeManagerAll handles GET /rules/manager/all: every rule, inactive
// ones included.
func (h *Handler) ServeManagerAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	rules, err := h.Rules.List(ctx, r.URL.Query().Get("category"), false)
	if err != nil {
		h.Log.Error("manager list rules failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load rules")
		return
	}
	httpjson.OK(w, map[string]any{"rules": rules, "count": len(rules)})
}

// defaultCategories is the channel list served when the bot is offline
// or no rules category is configured.
var defaultCategories = []map[string]string{
	{"id": "general", "name": "general", "display_name": "General"},
	{"id": "conduct", "name": "conduct", "display_name": "Conduct"},
	{"id": "gameplay", "name": "gameplay", "display_name": "Gameplay"},
}

func displayName(channel string) string {
	words := strings.FieldsFunc(channel, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ServeCategories handles GET /rules/categories/channels: the guild's
// rules channels when available, a static fallback otherwise.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil || h.RulesCategory == "" {
		httpjson.OK(w, map[string]any{"categories": defaultCategories})
		return
	}

	channels, err := b.Channels()
	if err != nil {
		httpjson.OK(w, map[string]any{"categories": defaultCategories})
		return
	}
	cats := []map[string]string{}
	for _, ch := range channels {
		if ch.Category != h.RulesCategory {
			continue
		}
		cats = append(cats, map[string]string{
			"id":           ch.ID,
			"name":         ch.Name,
			"display_name": displayName(ch.Name),
		})
	}
	if len(cats) == 0 {
		httpjson.OK(w, map[string]any{"categories": defaultCategories})
		return
	}
	httpjson.OK(w, map[string]any{"categories": cats})
}

// ServeByID handles GET /rules/{rule_id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rule_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	rule, err := h.Rules.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load rule")
		return
	}
	httpjson.OK(w, map[string]any{"rule": rule})
}

type ruleRequest struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

// ServeCreate handles POST /rules. The new rule is mirrored to the
// matching rules channel when the bot is up; failures there never block
// the write.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)

	var req ruleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.Description) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Category, title and description are required")
		return
	}

	rule := &models.Rule{
		Category:    sanitize.Text(req.Category),
		Title:       sanitize.Text(req.Title),
		Description: sanitize.HTML(req.Description),
		Order:       req.Order,
		Active:      true,
		CreatedBy:   manager.DiscordID,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if _, err := h.Rules.Create(ctx, rule); err != nil {
		h.Log.Error("create rule failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create rule")
		return
	}

	h.mirror(rule)

	httpjson.OK(w, map[string]any{
		"message": "Rule created successfully",
		"rule":    rule,
	})
}

// mirror posts the rule to the guild channel named after its category.
func (h *Handler) mirror(rule *models.Rule) {
	b, err := bridge.Get()
	if err != nil {
		return
	}
	channels, err := b.Channels()
	if err != nil {
		return
	}
	for _, ch := range channels {
		if ch.Name != rule.Category {
			continue
		}
		content := fmt.Sprintf("**%s**\n%s", rule.Title, rule.Description)
		if _, err := b.Announce(ch.ID, content, nil); err != nil {
			h.Log.Warn("mirroring rule to guild failed",
				zap.String("channel", ch.Name), zap.Error(err))
		}
		return
	}
}

// ServeUpdate handles PUT /rules/{rule_id}: only provided fields change.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rule_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	var req map[string]any
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set := bson.M{}
	if v, ok := req["category"].(string); ok && strings.TrimSpace(v) != "" {
		set["category"] = sanitize.Text(v)
	}
	if v, ok := req["title"].(string); ok && strings.TrimSpace(v) != "" {
		set["title"] = sanitize.Text(v)
	}
	if v, ok := req["description"].(string); ok && strings.TrimSpace(v) != "" {
		set["description"] = sanitize.HTML(v)
	}
	if v, ok := req["order"].(float64); ok {
		set["order"] = int(v)
	}
	if v, ok := req["active"].(bool); ok {
		set["active"] = v
	}
	if len(set) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Rules.Update(ctx, id, set); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "Rule not found")
			return
		}
		h.Log.Error("update rule failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update rule")
		return
	}

	rule, err := h.Rules.ByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load rule")
		return
	}
	httpjson.OK(w, map[string]any{
		"message": "Rule updated successfully",
		"rule":    rule,
	})
}

// ServeDelete handles DELETE /rules/{rule_id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "rule_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Rules.Delete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "Rule not found")
			return
		}
		h.Log.Error("delete rule failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete rule")
		return
	}
	httpjson.OK(w, map[string]any{"message": "Rule deleted successfully"})
}
