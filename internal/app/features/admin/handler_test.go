// internal/app/features/admin/handler_test.go
package admin

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	appstore "github.com/maestros-community/backend/internal/app/store/applications"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	syslogstore "github.com/maestros-community/backend/internal/app/store/syslogs"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/domain/models"
	"github.com/maestros-community/backend/internal/testutil"
)

func testHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	checker := authz.New(
		testutil.TestCEORoleID,
		testutil.TestManagerRoleID,
		testutil.TestMemberRoleID,
		[]string{testutil.TestAdminID},
	)
	h := NewHandler(
		userstore.New(db),
		appstore.New(db),
		eventstore.New(db),
		activitystore.New(db),
		syslogstore.New(db),
		checker,
		zap.NewNop(),
	)
	return h, testutil.NewFixtures(t, db)
}

func TestServeUsers(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateUser(ctx, "u-1", "One")
	f.CreateUser(ctx, "u-2", "Two")

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/admin/users"), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeUsers(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d", resp.Total)
	}
}

func TestServeReviewApprove(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateUser(ctx, "rev-1", "Hopeful")
	app := f.CreateApplication(ctx, "rev-1", nil)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPut, "/admin/applications/x/review?status=approved"),
		"application_id", app.ID.Hex())
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeReview(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"xp_awarded":100`)

	u, err := h.Users.ByDiscordID(ctx, "rev-1")
	if err != nil {
		t.Fatal(err)
	}
	if u.XP != approveXP {
		t.Errorf("xp = %d", u.XP)
	}

	reviewed, err := h.Apps.ByID(ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reviewed.Status != models.ApplicationApproved {
		t.Errorf("status = %q", reviewed.Status)
	}
}

func TestServeReviewInvalidStatus(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	app := f.CreateApplication(ctx, "rev-2", nil)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPut, "/admin/applications/x/review?status=maybe"),
		"application_id", app.ID.Hex())
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeReview(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid status. Must be 'approved' or 'rejected'")
}

func TestServeReviewAlreadyDecided(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	app := f.CreateApplication(ctx, "rev-3", nil)
	if err := h.Apps.Decide(ctx, app.ID, models.ApplicationRejected, "mgr", "", "weak answers"); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPut, "/admin/applications/x/review?status=approved"),
		"application_id", app.ID.Hex())
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeReview(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Application already rejected")
}

func TestServeAwardXP(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	f.CreateUserWithXP(ctx, "xp-1", "Veteran", 350, 1)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPost, "/admin/users/x/xp", `{"amount":150}`),
		"discord_id", "xp-1")
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeAwardXP(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		OldXP    int  `json:"old_xp"`
		NewXP    int  `json:"new_xp"`
		NewLevel int  `json:"new_level"`
		LevelUp  bool `json:"level_up"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// 350+150 = 500 XP, level 2.
	if resp.OldXP != 350 || resp.NewXP != 500 || resp.NewLevel != 2 || !resp.LevelUp {
		t.Errorf("response: %+v", resp)
	}
}

func TestServeAwardXPBounds(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	f.CreateUser(ctx, "xp-2", "Bounded")

	for body, want := range map[string]string{
		`{"amount":0}`:     "Amount must be positive",
		`{"amount":20000}`: "Cannot award more than 10000 XP at once",
	} {
		req := testutil.WithChiURLParam(
			testutil.NewJSONRequest(http.MethodPost, "/admin/users/x/xp", body),
			"discord_id", "xp-2")
		req = testutil.WithUser(req, testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.ServeAwardXP(rec, req)

		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, want)
	}
}

func TestServeAwardBadge(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	f.CreateUser(ctx, "bdg-1", "Collector")

	award := func(body string) *testutil.ResponseRecorder {
		req := testutil.WithChiURLParam(
			testutil.NewJSONRequest(http.MethodPost, "/admin/users/x/badge", body),
			"discord_id", "bdg-1")
		req = testutil.WithUser(req, testutil.AdminUser())
		rec := testutil.NewRecorder()
		h.ServeAwardBadge(rec, req)
		return rec
	}

	award(`{"badge":"VIP"}`).AssertStatus(t, http.StatusOK)

	dup := award(`{"badge":"VIP"}`)
	dup.AssertStatus(t, http.StatusBadRequest)
	dup.AssertContains(t, "User already has this badge")

	bogus := award(`{"badge":"Galactic Overlord"}`)
	bogus.AssertStatus(t, http.StatusBadRequest)
	bogus.AssertContains(t, "Invalid badge")
}

func TestServeRemoveBadge(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateUser(ctx, "bdg-2", "Stripped")
	if err := h.Users.AddBadge(ctx, "bdg-2", "VIP"); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodDelete, "/admin/users/x/badge", `{"badge":"VIP"}`),
		"discord_id", "bdg-2")
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeRemoveBadge(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	u, err := h.Users.ByDiscordID(ctx, "bdg-2")
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range u.Badges {
		if b == "VIP" {
			t.Error("badge still present after removal")
		}
	}
}

func TestServeLogs(t *testing.T) {
	h, _ := testHandler(t)
	ctx := testutil.TestContext(t)

	if err := h.Syslogs.Record(ctx, "startup", "info", nil); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/admin/logs"), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeLogs(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "startup")
}

func TestServeStats(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateUser(ctx, "st-1", "One")
	f.CreateApplication(ctx, "st-1", nil)
	f.CreateEvent(ctx, "Stats Event", 8)

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/admin/stats"), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeStats(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		TotalUsers          int64 `json:"total_users"`
		PendingApplications int64 `json:"pending_applications"`
		TotalEvents         int64 `json:"total_events"`
		UpcomingEvents      int64 `json:"upcoming_events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalUsers != 1 || resp.PendingApplications != 1 ||
		resp.TotalEvents != 1 || resp.UpcomingEvents != 1 {
		t.Errorf("stats: %+v", resp)
	}
}
