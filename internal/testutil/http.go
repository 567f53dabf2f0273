package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/domain/models"
)

// Role IDs used across handler tests, matching the authz.Checker the test
// builds. Keeping them here means every test agrees on which ID means what.
const (
	TestCEORoleID     = "role-ceo"
	TestManagerRoleID = "role-manager"
	TestMemberRoleID  = "role-member"
	TestAdminID       = "admin-1"
)

// AdminUser returns a user whose Discord ID is in the admin list.
func AdminUser() *models.User {
	return testUser(TestAdminID, "Test Admin", TestMemberRoleID)
}

// CEOUser returns a user carrying the CEO guild role.
func CEOUser() *models.User {
	return testUser(primitive.NewObjectID().Hex(), "Test CEO", TestCEORoleID, TestMemberRoleID)
}

// ManagerUser returns a user carrying the manager guild role.
func ManagerUser() *models.User {
	return testUser(primitive.NewObjectID().Hex(), "Test Manager", TestManagerRoleID, TestMemberRoleID)
}

// MemberUser returns a user carrying only the member guild role.
func MemberUser() *models.User {
	return testUser(primitive.NewObjectID().Hex(), "Test Member", TestMemberRoleID)
}

// OutsiderUser returns a logged-in user with no guild roles at all.
func OutsiderUser() *models.User {
	return testUser(primitive.NewObjectID().Hex(), "Test Outsider")
}

func testUser(discordID, username string, guildRoles ...string) *models.User {
	if guildRoles == nil {
		guildRoles = []string{}
	}
	return &models.User{
		ID:         primitive.NewObjectID(),
		DiscordID:  discordID,
		Username:   username,
		Roles:      []string{},
		GuildRoles: guildRoles,
		Badges:     []string{},
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers, bypassing the JWT middleware.
func WithUser(r *http.Request, u *models.User) *http.Request {
	return auth.WithTestUser(r, u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, u *models.User) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), u)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q; body: %s", expected, r.Body.String())
	}
}
