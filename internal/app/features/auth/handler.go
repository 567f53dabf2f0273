// internal/app/features/auth/handler.go

// Package auth implements the Discord OAuth2 login flow and the session
// endpoints. The JWT plumbing itself lives in system/auth; this feature
// is the HTTP surface around it.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
)

// DefaultAPIBase is the Discord REST base used outside tests.
const DefaultAPIBase = "https://discord.com/api"

// stateCookie carries the OAuth state nonce between /login and /callback.
const stateCookie = "maestros_oauth_state"

// Endpoint is Discord's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// NewOAuthConfig builds the authorization-code config for Discord login.
func NewOAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"identify", "email", "guilds"},
		Endpoint:     Endpoint,
	}
}

// Handler holds the login flow dependencies.
type Handler struct {
	OAuth       *oauth2.Config
	Users       *userstore.Store
	Tokens      *sysauth.Manager
	Checker     *authz.Checker
	Cookies     *securecookie.SecureCookie
	APIBase     string // Discord REST base, overridable in tests
	GuildID     string
	FrontendURL string
	Log         *zap.Logger
}

// NewHandler constructs the auth Handler.
func NewHandler(oauthCfg *oauth2.Config, users *userstore.Store, tokens *sysauth.Manager,
	checker *authz.Checker, cookies *securecookie.SecureCookie,
	guildID, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{
		OAuth:       oauthCfg,
		Users:       users,
		Tokens:      tokens,
		Checker:     checker,
		Cookies:     cookies,
		APIBase:     DefaultAPIBase,
		GuildID:     guildID,
		FrontendURL: frontendURL,
		Log:         logger,
	}
}

// ServeLogin handles GET /auth/login: sets the state cookie and redirects
// the browser to Discord's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	encoded, err := h.Cookies.Encode(stateCookie, state)
	if err != nil {
		h.Log.Error("oauth: encoding state cookie failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not start login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// discordUser is the shape of GET /users/@me we care about.
type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	Email         string `json:"email"`
}

type discordGuild struct {
	ID string `json:"id"`
}

// redirectError sends the browser back to the frontend with an error tag.
// The callback never surfaces raw errors to the user agent.
func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, tag string) {
	http.Redirect(w, r, fmt.Sprintf("%s/?error=%s", h.FrontendURL, tag), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/callback: exchanges the code, verifies
// guild membership, upserts the user, and redirects to the frontend with
// a bearer token in the query string.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		h.redirectError(w, r, "auth_failed")
		return
	}
	var want string
	if err := h.Cookies.Decode(stateCookie, cookie.Value, &want); err != nil || state == "" || state != want {
		h.Log.Warn("oauth: state mismatch", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}
	// The nonce is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	token, err := h.OAuth.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.Log.Warn("oauth: token exchange failed", zap.Error(err))
		h.redirectError(w, r, "token_failed")
		return
	}
	client := h.OAuth.Client(ctx, token)

	var du discordUser
	if err := getJSON(client, h.APIBase+"/users/@me", &du); err != nil || du.ID == "" {
		h.Log.Warn("oauth: fetching user profile failed", zap.Error(err))
		h.redirectError(w, r, "user_info_failed")
		return
	}

	var guilds []discordGuild
	isMember := false
	if err := getJSON(client, h.APIBase+"/users/@me/guilds", &guilds); err == nil {
		for _, g := range guilds {
			if g.ID == h.GuildID {
				isMember = true
				break
			}
		}
	}

	// Guild roles come through the live bot. A bot that is still
	// connecting just means the first sync happens on the next login or
	// an explicit /auth/sync-roles.
	var guildRoles []string
	if isMember {
		if b, err := bridge.Get(); err == nil {
			if roles, err := b.MemberRoleIDs(du.ID); err == nil {
				guildRoles = roles
			} else {
				h.Log.Warn("oauth: fetching guild roles failed",
					zap.String("discord_id", du.ID), zap.Error(err))
			}
		}
	}

	user, err := h.Users.UpsertLogin(ctx, userstore.LoginIdentity{
		DiscordID:     du.ID,
		Username:      du.Username,
		Discriminator: du.Discriminator,
		Avatar:        du.Avatar,
		Email:         du.Email,
		GuildRoles:    guildRoles,
	})
	if err != nil {
		h.Log.Error("oauth: upserting user failed", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}

	bearer, err := h.Tokens.IssueToken(user.DiscordID)
	if err != nil {
		h.Log.Error("oauth: issuing token failed", zap.Error(err))
		h.redirectError(w, r, "auth_failed")
		return
	}

	h.Log.Info("user logged in",
		zap.String("discord_id", user.DiscordID),
		zap.String("username", user.Username),
		zap.Bool("guild_member", isMember))
	http.Redirect(w, r, fmt.Sprintf("%s/?token=%s", h.FrontendURL, bearer), http.StatusTemporaryRedirect)
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord api: %s returned %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ServeMe handles GET /auth/me: the current user plus the permission
// summary the frontend gates its UI on.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	httpjson.OK(w, map[string]any{
		"id":            u.ID.Hex(),
		"discord_id":    u.DiscordID,
		"username":      u.Username,
		"discriminator": u.Discriminator,
		"avatar":        u.Avatar,
		"roles":         u.Roles,
		"guild_roles":   u.GuildRoles,
		"xp":            u.XP,
		"level":         u.Level,
		"badges":        u.Badges,
		"joined_at":     u.JoinedAt,
		"last_login":    u.LastLogin,
		"permissions":   h.Checker.PermissionsFor(u),
	})
}

// ServeSyncRoles handles POST /auth/sync-roles: re-reads the member's
// guild roles through the live bot and stores them.
func (h *Handler) ServeSyncRoles(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)

	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	roles, err := b.MemberRoleIDs(u.DiscordID)
	if err != nil {
		h.Log.Warn("sync-roles: fetching member failed",
			zap.String("discord_id", u.DiscordID), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch guild member data")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Users.SetGuildRoles(ctx, u.DiscordID, roles); err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "Failed to sync roles")
		return
	}

	u.GuildRoles = roles
	httpjson.OK(w, map[string]any{
		"message":     "Roles synced successfully",
		"guild_roles": roles,
		"permissions": h.Checker.PermissionsFor(u),
	})
}

// ServeRefresh handles POST /auth/refresh: a fresh token for the caller.
func (h *Handler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
	u, _ := sysauth.CurrentUser(r)
	token, err := h.Tokens.IssueToken(u.DiscordID)
	if err != nil {
		h.Log.Error("refresh: issuing token failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not refresh token")
		return
	}
	httpjson.OK(w, map[string]any{"access_token": token, "token_type": "bearer"})
}

// ServeLogout handles POST /auth/logout. Tokens are bearer-only, so
// logout is a client-side discard; the endpoint exists for the frontend.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	httpjson.OK(w, map[string]any{"message": "Logged out successfully"})
}
