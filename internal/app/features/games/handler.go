// internal/app/features/games/handler.go

// Package games manages the community's game catalog.
package games

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	gamestore "github.com/maestros-community/backend/internal/app/store/games"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/sanitize"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Handler serves the game catalog endpoints.
type Handler struct {
	Games   *gamestore.Store
	Checker *authz.Checker
	Log     *zap.Logger
}

func NewHandler(games *gamestore.Store, checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{Games: games, Checker: checker, Log: logger}
}

// ServeList handles GET /games. active_only=false shows hidden games too.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active_only"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			activeOnly = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	games, err := h.Games.List(ctx, activeOnly)
	if err != nil {
		h.Log.Error("list games failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load games")
		return
	}
	httpjson.OK(w, map[string]any{"games": games, "count": len(games)})
}

// ServeByID handles GET /games/{game_id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "game_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid game ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	game, err := h.Games.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load game")
		return
	}
	httpjson.OK(w, map[string]any{"game": game})
}

type gameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Active      *bool  `json:"active"`
}

// ServeCreate handles POST /games.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)

	var req gameRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Game name is required")
		return
	}

	game := &models.Game{
		Name:        sanitize.Text(req.Name),
		Description: sanitize.HTML(req.Description),
		Image:       sanitize.Text(req.Image),
		Active:      true,
		CreatedBy:   manager.DiscordID,
	}
	if req.Active != nil {
		game.Active = *req.Active
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if _, err := h.Games.Create(ctx, game); err != nil {
		if err == gamestore.ErrDuplicateName {
			httpjson.Error(w, http.StatusBadRequest, "A game with this name already exists")
			return
		}
		h.Log.Error("create game failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create game")
		return
	}

	h.Log.Info("game created",
		zap.String("name", game.Name), zap.String("created_by", manager.DiscordID))

	httpjson.OK(w, map[string]any{
		"message": "Game created successfully",
		"game":    game,
	})
}

// ServeUpdate handles PUT /games/{game_id}: only provided fields change.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "game_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid game ID")
		return
	}

	var req map[string]any
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set := bson.M{}
	if v, ok := req["name"].(string); ok {
		if strings.TrimSpace(v) == "" {
			httpjson.Error(w, http.StatusBadRequest, "Game name is required")
			return
		}
		set["name"] = sanitize.Text(v)
	}
	if v, ok := req["description"].(string); ok {
		set["description"] = sanitize.HTML(v)
	}
	if v, ok := req["image"].(string); ok {
		set["image"] = sanitize.Text(v)
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
	switch err := h.Games.Update(ctx, id, set); err {
	case nil:
	case mongo.ErrNoDocuments:
		httpjson.Error(w, http.StatusNotFound, "Game not found")
		return
	case gamestore.ErrDuplicateName:
		httpjson.Error(w, http.StatusBadRequest, "A game with this name already exists")
		return
	default:
		h.Log.Error("update game failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update game")
		return
	}

	game, err := h.Games.ByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load game")
		return
	}
	httpjson.OK(w, map[string]any{
		"message": "Game updated successfully",
		"game":    game,
	})
}

// ServeDelete handles DELETE /games/{game_id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "game_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid game ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Games.Delete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "Game not found")
			return
		}
		h.Log.Error("delete game failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete game")
		return
	}
	httpjson.OK(w, map[string]any{"message": "Game deleted successfully"})
}
