// internal/app/system/authz/authz.go

// Package authz answers "what may this user do" from the user's synced
// guild roles plus the role IDs and admin list loaded at startup.
//
// Role IDs are immutable for the process lifetime. There is deliberately
// no fallback: removing a role ID from configuration removes that role
// from every check that referenced it.
package authz

import (
	"net/http"
	"strings"

	"github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Checker holds the configured authorization constants.
type Checker struct {
	ceoRoleID     string
	managerRoleID string
	memberRoleID  string
	adminIDs      map[string]struct{}
}

// New builds a Checker. adminIDs is the comma-separated admin_discord_ids
// value; blank entries are dropped.
func New(ceoRoleID, managerRoleID, memberRoleID string, adminIDs []string) *Checker {
	set := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Checker{
		ceoRoleID:     strings.TrimSpace(ceoRoleID),
		managerRoleID: strings.TrimSpace(managerRoleID),
		memberRoleID:  strings.TrimSpace(memberRoleID),
		adminIDs:      set,
	}
}

// MemberRoleID returns the configured member role, used when promoting an
// accepted applicant in the guild.
func (c *Checker) MemberRoleID() string { return c.memberRoleID }

// CEORoleID returns the configured CEO role ID.
func (c *Checker) CEORoleID() string { return c.ceoRoleID }

// ManagerRoleID returns the configured manager role ID.
func (c *Checker) ManagerRoleID() string { return c.managerRoleID }

func hasRole(u *models.User, roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range u.GuildRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user's Discord ID is on the configured admin list.
func (c *Checker) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	_, ok := c.adminIDs[u.DiscordID]
	return ok
}

// IsCEO reports whether the user carries the configured CEO guild role.
func (c *Checker) IsCEO(u *models.User) bool {
	return u != nil && hasRole(u, c.ceoRoleID)
}

// IsManager reports whether the user carries the configured manager guild role.
func (c *Checker) IsManager(u *models.User) bool {
	return u != nil && hasRole(u, c.managerRoleID)
}

// IsGuildMember reports whether the user carries the regular member role.
func (c *Checker) IsGuildMember(u *models.User) bool {
	return u != nil && hasRole(u, c.memberRoleID)
}

// CanManageApplications is the gate for the manager surfaces: application
// review, event/game/rule management, and announcements.
func (c *Checker) CanManageApplications(u *models.User) bool {
	return c.IsAdmin(u) || c.IsCEO(u) || c.IsManager(u)
}

// Permissions is the permission summary embedded in /auth/me responses.
type Permissions struct {
	IsAdmin               bool `json:"is_admin"`
	IsCEO                 bool `json:"is_ceo"`
	IsManager             bool `json:"is_manager"`
	CanManageApplications bool `json:"can_manage_applications"`
}

// PermissionsFor computes the permission summary for a user.
func (c *Checker) PermissionsFor(u *models.User) Permissions {
	return Permissions{
		IsAdmin:               c.IsAdmin(u),
		IsCEO:                 c.IsCEO(u),
		IsManager:             c.IsManager(u),
		CanManageApplications: c.CanManageApplications(u),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Route gates                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireAdmin allows only configured admins through.
func (c *Checker) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		if !c.IsAdmin(u) {
			httpjson.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager allows admins, CEOs, and managers through.
func (c *Checker) RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		if !c.CanManageApplications(u) {
			httpjson.Error(w, http.StatusForbidden, "manager or admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
