// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request body size limits.
// AppConfig is where everything specific to this application lives: the
// MongoDB connection, Discord credentials, the role IDs that drive
// authorization, and the token settings for the JSON API.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Discord bot configuration
	BotToken  string // Bot token used by the in-process gateway session
	GuildID   string // The single guild this deployment serves
	BotStatus string // Presence text shown under the bot's name

	// Role IDs that drive authorization. These are Discord role snowflakes;
	// removing one from configuration removes it from every permission check.
	CEORoleID     string
	ManagerRoleID string
	MemberRoleID  string
	AdminIDs      []string // Discord user IDs with unconditional admin access

	// Discord OAuth2 (login flow) configuration
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Bearer token configuration for the JSON API
	JWTSecret string        // HS256 signing key (must be strong in production)
	JWTExpiry time.Duration // Token lifetime

	// Browser-facing configuration
	CORSOrigins []string // Allowed origins for the frontend
	FrontendURL string   // Where the OAuth callback redirects to
	BaseURL     string   // Public base URL of this API

	// Rate limiting
	RateLimitPerMinute int // Requests per client IP per minute

	// Rules channel mirroring
	RulesCategory string // Discord category whose channels list rule categories

	// Music service
	SaavnBaseURL string // JioSaavn endpoint base (blank means the public site)
}
