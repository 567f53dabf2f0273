// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

// ServeRoot handles GET /, the service banner.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	httpjson.OK(w, map[string]any{
		"message": "Maestros Community API",
		"version": "1.0.0",
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Bot      string `json:"bot"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "bot":"online" }
//
// On DB failure: 503. A bot that has not reached READY degrades the bot
// field but does not fail the check; the API works without it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Bot:      "online",
	}
	if _, err := bridge.Get(); err != nil {
		resp.Bot = "offline"
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		httpjson.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	httpjson.OK(w, resp)
}

// ServeBotStatus handles GET /bot/status: latency and guild shape of the
// in-process bot. Always 200; fields degrade when the bot is offline.
func (h *Handler) ServeBotStatus(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.OK(w, map[string]any{"online": false})
		return
	}

	resp := map[string]any{
		"online":     true,
		"username":   b.Username(),
		"latency_ms": b.Latency().Milliseconds(),
	}
	if g, err := b.Guild(); err == nil {
		resp["guild"] = g
	}
	httpjson.OK(w, resp)
}
