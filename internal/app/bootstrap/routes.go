// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	adminfeature "github.com/maestros-community/backend/internal/app/features/admin"
	announcementsfeature "github.com/maestros-community/backend/internal/app/features/announcements"
	applicationsfeature "github.com/maestros-community/backend/internal/app/features/applications"
	authfeature "github.com/maestros-community/backend/internal/app/features/auth"
	discordfeature "github.com/maestros-community/backend/internal/app/features/discord"
	eventsfeature "github.com/maestros-community/backend/internal/app/features/events"
	gamesfeature "github.com/maestros-community/backend/internal/app/features/games"
	healthfeature "github.com/maestros-community/backend/internal/app/features/health"
	moderationfeature "github.com/maestros-community/backend/internal/app/features/moderation"
	musicfeature "github.com/maestros-community/backend/internal/app/features/music"
	rulesfeature "github.com/maestros-community/backend/internal/app/features/rules"
	usersfeature "github.com/maestros-community/backend/internal/app/features/users"
	"github.com/maestros-community/backend/internal/app/music/saavn"
	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	announcementstore "github.com/maestros-community/backend/internal/app/store/announcements"
	appstore "github.com/maestros-community/backend/internal/app/store/applications"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	gamestore "github.com/maestros-community/backend/internal/app/store/games"
	rulestore "github.com/maestros-community/backend/internal/app/store/rules"
	syslogstore "github.com/maestros-community/backend/internal/app/store/syslogs"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	warningstore "github.com/maestros-community/backend/internal/app/store/warnings"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/ratelimit"
)

// corsMiddleware restricts browsers to the configured frontend origins.
// Credentialed requests are allowed so the bearer token survives redirects.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It creates the chi router, installs the
// global middleware chain (CORS, per-IP rate limiting, bearer-token user
// loading), and mounts one feature router per API area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	apps := appstore.New(db)
	events := eventstore.New(db)
	games := gamestore.New(db)
	rules := rulestore.New(db)
	activity := activitystore.New(db)
	warnings := warningstore.New(db)
	announcements := announcementstore.New(db)
	syslogs := syslogstore.New(db)

	checker := authz.New(appCfg.CEORoleID, appCfg.ManagerRoleID, appCfg.MemberRoleID, appCfg.AdminIDs)

	// Bearer tokens resolve to a fresh user document on every request, so
	// role changes and badge grants take effect immediately.
	tokens, err := sysauth.NewManager(appCfg.JWTSecret, appCfg.JWTExpiry, users, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	cookies := securecookie.New([]byte(appCfg.JWTSecret), nil)

	r := chi.NewRouter()

	r.Use(corsMiddleware(appCfg.CORSOrigins))

	limiter := ratelimit.New(appCfg.RateLimitPerMinute, time.Minute)
	r.Use(limiter.Middleware)

	// Global auth middleware: loads the bearer token's user into context if
	// present. Individual routes opt into RequireUser/RequireManager/etc.
	r.Use(tokens.LoadUser)

	// Service banner and health probes
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/", healthfeature.Routes(healthHandler))

	// Discord OAuth login and session endpoints
	oauthCfg := authfeature.NewOAuthConfig(appCfg.DiscordClientID, appCfg.DiscordClientSecret, appCfg.DiscordRedirectURI)
	authHandler := authfeature.NewHandler(oauthCfg, users, tokens, checker, cookies,
		appCfg.GuildID, appCfg.FrontendURL, logger)
	r.Mount("/auth", authfeature.Routes(authHandler))

	// User profiles, dashboard, leaderboard
	usersHandler := usersfeature.NewHandler(users, activity, apps, events, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Live guild state read through the bot bridge
	discordHandler := discordfeature.NewHandler(users, logger)
	r.Mount("/discord", discordfeature.Routes(discordHandler))

	// Membership applications and the manager review surface
	applicationsHandler := applicationsfeature.NewHandler(apps, users, activity, checker, logger)
	r.Mount("/applications", applicationsfeature.Routes(applicationsHandler))

	// Community events and registration
	eventsHandler := eventsfeature.NewHandler(events, users, activity, checker, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	// Game catalog
	gamesHandler := gamesfeature.NewHandler(games, checker, logger)
	r.Mount("/games", gamesfeature.Routes(gamesHandler))

	// Community rules, mirrored to Discord channels
	rulesHandler := rulesfeature.NewHandler(rules, checker, appCfg.RulesCategory, logger)
	r.Mount("/rules", rulesfeature.Routes(rulesHandler))

	// Admin surface
	adminHandler := adminfeature.NewHandler(users, apps, events, activity, syslogs, checker, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler))

	// Moderation heuristics and warnings
	moderationHandler := moderationfeature.NewHandler(warnings, activity, checker, logger)
	r.Mount("/moderation", moderationfeature.Routes(moderationHandler))

	// Announcement composer for managers
	announcementsHandler := announcementsfeature.NewHandler(announcements, checker, logger)
	r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

	// JioSaavn music lookups
	musicHandler := musicfeature.NewHandler(saavn.New(appCfg.SaavnBaseURL, logger), logger)
	r.Mount("/music", musicfeature.Routes(musicHandler))

	return r, nil
}
