// internal/app/system/auth/auth.go

// Package auth issues and verifies the JWT bearer tokens the API uses.
//
// Tokens carry only the Discord ID (sub claim). The full user document is
// fetched fresh on every request so role changes, badge grants, and
// profile updates take effect immediately without re-login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/domain/models"
)

// ErrNoToken is returned by ParseToken for a blank token string.
var ErrNoToken = errors.New("no bearer token")

// UserFetcher loads the current user document for an authenticated request.
// Implemented by the userstore; an interface here keeps the import graph flat.
type UserFetcher interface {
	ByDiscordID(ctx context.Context, discordID string) (*models.User, error)
}

// Manager signs and verifies bearer tokens and resolves them to users.
type Manager struct {
	secret []byte
	expiry time.Duration
	fetch  UserFetcher
	log    *zap.Logger
}

// NewManager builds a token manager. The secret must be non-empty; a blank
// signing key would make every token forgeable.
func NewManager(secret string, expiry time.Duration, fetch UserFetcher, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret must not be empty")
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		expiry: expiry,
		fetch:  fetch,
		log:    logger,
	}, nil
}

// Expiry reports the configured token lifetime.
func (m *Manager) Expiry() time.Duration { return m.expiry }

// IssueToken creates a signed HS256 token whose subject is the Discord ID.
func (m *Manager) IssueToken(discordID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   discordID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken verifies the token and returns the Discord ID it was issued to.
func (m *Manager) ParseToken(token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return claims.Subject, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helpers                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user from the request context.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user into the request context, bypassing token
// verification. Only for handler tests.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// bearerToken pulls the token out of the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// LoadUser resolves a bearer token, if present, into a fresh user document
// in the request context. Requests without a token continue anonymously;
// RequireUser decides whether that is acceptable for a given route.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		discordID, err := m.ParseToken(token)
		if err != nil {
			// Invalid tokens stay anonymous rather than erroring here, so
			// public routes keep working with an expired token attached.
			next.ServeHTTP(w, r)
			return
		}
		u, err := m.fetch.ByDiscordID(r.Context(), discordID)
		if err != nil {
			m.log.Debug("token subject has no user record",
				zap.String("discord_id", discordID), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireUser rejects requests that did not authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"could not validate credentials"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
