// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the Maestros backend.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, discord_bot_token, etc.
//   - Environment variables: MAESTROS_MONGO_URI, MAESTROS_DISCORD_BOT_TOKEN, etc.
//   - Command-line flags: --mongo_uri, --discord_bot_token, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "maestros_community", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Discord bot
	{Name: "discord_bot_token", Default: "", Desc: "Discord bot token"},
	{Name: "discord_guild_id", Default: "", Desc: "Discord guild (server) ID this deployment serves"},
	{Name: "bot_status", Default: "Maestros Community", Desc: "Presence text for the bot"},

	// Authorization role IDs
	{Name: "ceo_role_id", Default: "", Desc: "Discord role ID for CEOs"},
	{Name: "manager_role_id", Default: "", Desc: "Discord role ID for managers"},
	{Name: "member_role_id", Default: "", Desc: "Discord role ID granted to approved members"},
	{Name: "admin_discord_ids", Default: "", Desc: "Comma-separated Discord user IDs with admin access"},

	// Discord OAuth2 login
	{Name: "discord_client_id", Default: "", Desc: "Discord OAuth2 client ID"},
	{Name: "discord_client_secret", Default: "", Desc: "Discord OAuth2 client secret"},
	{Name: "discord_redirect_uri", Default: "http://localhost:8080/auth/callback", Desc: "OAuth2 redirect URI registered with Discord"},

	// API tokens
	{Name: "jwt_secret_key", Default: "", Desc: "HS256 signing key for API bearer tokens"},
	{Name: "jwt_expiry", Default: "24h", Desc: "Bearer token lifetime (e.g., 24h, 30m)"},

	// Browser-facing configuration
	{Name: "cors_origins", Default: "http://localhost:3000", Desc: "Comma-separated allowed CORS origins"},
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Frontend URL the OAuth callback redirects to"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API"},

	// Rate limiting
	{Name: "rate_limit_per_minute", Default: 60, Desc: "Requests per client IP per minute"},

	// Rules mirroring
	{Name: "rules_category", Default: "", Desc: "Discord category whose channels define rule categories"},

	// Music service
	{Name: "saavn_base_url", Default: "", Desc: "JioSaavn base URL override (blank uses the public site)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MAESTROS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MAESTROS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		BotToken:  appValues.String("discord_bot_token"),
		GuildID:   appValues.String("discord_guild_id"),
		BotStatus: appValues.String("bot_status"),

		CEORoleID:     appValues.String("ceo_role_id"),
		ManagerRoleID: appValues.String("manager_role_id"),
		MemberRoleID:  appValues.String("member_role_id"),
		AdminIDs:      splitCSV(appValues.String("admin_discord_ids")),

		DiscordClientID:     appValues.String("discord_client_id"),
		DiscordClientSecret: appValues.String("discord_client_secret"),
		DiscordRedirectURI:  appValues.String("discord_redirect_uri"),

		JWTSecret: appValues.String("jwt_secret_key"),
		JWTExpiry: appValues.Duration("jwt_expiry", 24*time.Hour),

		CORSOrigins: splitCSV(appValues.String("cors_origins")),
		FrontendURL: appValues.String("frontend_url"),
		BaseURL:     appValues.String("base_url"),

		RateLimitPerMinute: appValues.Int("rate_limit_per_minute"),

		RulesCategory: appValues.String("rules_category"),

		SaavnBaseURL: appValues.String("saavn_base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret_key must be set")
	}
	if appCfg.BotToken == "" {
		return fmt.Errorf("discord_bot_token must be set")
	}
	if appCfg.GuildID == "" {
		return fmt.Errorf("discord_guild_id must be set")
	}

	// Role IDs are Discord snowflakes; catch copy-paste mistakes (role
	// names, mentions) before they silently break every permission check.
	for name, id := range map[string]string{
		"ceo_role_id":     appCfg.CEORoleID,
		"manager_role_id": appCfg.ManagerRoleID,
		"member_role_id":  appCfg.MemberRoleID,
	} {
		if id == "" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return fmt.Errorf("%s must be a numeric Discord role ID, got %q", name, id)
		}
	}
	for _, id := range appCfg.AdminIDs {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return fmt.Errorf("admin_discord_ids entries must be numeric Discord user IDs, got %q", id)
		}
	}

	if appCfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive, got %d", appCfg.RateLimitPerMinute)
	}

	return nil
}

// splitCSV splits a comma-separated config value, trimming whitespace and
// dropping empty entries. An empty input yields nil, not [""].
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
