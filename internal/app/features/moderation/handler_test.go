// internal/app/features/moderation/handler_test.go
package moderation

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	warningstore "github.com/maestros-community/backend/internal/app/store/warnings"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
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
	h := NewHandler(warningstore.New(db), activitystore.New(db), checker, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestServeAnalyzeClean(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/moderation/analyze",
			`{"message":"good game everyone, see you next week"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeAnalyze(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		IsToxic         bool   `json:"is_toxic"`
		SuggestedAction string `json:"suggested_action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.IsToxic || resp.SuggestedAction != "none" {
		t.Errorf("analysis: %+v", resp)
	}
}

func TestServeAnalyzeToxic(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/moderation/analyze",
			`{"message":"buy my hack at https://example.com cheap scam"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeAnalyze(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		IsToxic         bool   `json:"is_toxic"`
		SuggestedAction string `json:"suggested_action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsToxic || resp.SuggestedAction != "ban" {
		t.Errorf("analysis: %+v", resp)
	}
}

func TestServeAnalyzeRequiresMessage(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/moderation/analyze", `{"message":"  "}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeAnalyze(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeAnalyzeApplication(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/moderation/analyze-application",
			`{"reason":"short","experience":"none"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeAnalyzeApplication(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "recommendation")
}

func TestServeIssueWarning(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	f.CreateUser(ctx, "warn-1", "Troublemaker")

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPost, "/moderation/warnings/x",
			`{"reason":"Spamming voice channels","severity":"medium"}`),
		"user_id", "warn-1")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeIssueWarning(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total_warnings":1`)

	warnings, err := h.Warnings.ByUser(ctx, "warn-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0].Severity != "medium" {
		t.Errorf("warnings: %+v", warnings)
	}

	logs, err := h.Activity.Recent(ctx, "warn-1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Action != "warning_issued" {
		t.Errorf("activity: %+v", logs)
	}
}

func TestServeIssueWarningValidation(t *testing.T) {
	h, _ := testHandler(t)

	for body, want := range map[string]string{
		`{"severity":"high"}`:                   "Warning reason is required",
		`{"reason":"ok","severity":"critical"}`: "Severity must be low, medium or high",
	} {
		req := testutil.WithChiURLParam(
			testutil.NewJSONRequest(http.MethodPost, "/moderation/warnings/x", body),
			"user_id", "warn-2")
		req = testutil.WithUser(req, testutil.ManagerUser())
		rec := testutil.NewRecorder()
		h.ServeIssueWarning(rec, req)

		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, want)
	}
}

func TestServeWarnings(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateWarning(ctx, "warn-3", "low")
	f.CreateWarning(ctx, "warn-3", "high")

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/moderation/warnings/x"), "user_id", "warn-3")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeWarnings(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d", resp.Count)
	}
}

func TestServeRevokeWarning(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	warning := f.CreateWarning(ctx, "warn-4", "medium")

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodDelete, "/moderation/warnings/revoke/x"),
		"warning_id", warning.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeRevokeWarning(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	count, err := h.Warnings.CountByUser(ctx, "warn-4")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("warnings left = %d, want 0", count)
	}
}

func TestServeRevokeWarningNotFound(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodDelete, "/moderation/warnings/revoke/x"),
		"warning_id", primitive.NewObjectID().Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeRevokeWarning(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeWarningsRespectsTimeout(t *testing.T) {
	h, _ := testHandler(t)
	timeouts.Configure(timeouts.Config{Short: time.Nanosecond})
	t.Cleanup(timeouts.Reset)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/moderation/warnings/x"), "user_id", "warn-5")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeWarnings(rec, req)

	rec.AssertStatus(t, http.StatusInternalServerError)
}
