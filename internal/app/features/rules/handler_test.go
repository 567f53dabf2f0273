// internal/app/features/rules/handler_test.go
package rules

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	rulestore "github.com/maestros-community/backend/internal/app/store/rules"
	"github.com/maestros-community/backend/internal/app/system/authz"
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
	return NewHandler(rulestore.New(db), checker, "", zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeListActiveOnly(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateRule(ctx, "conduct", "Be respectful", 1)
	hidden := f.CreateRule(ctx, "conduct", "Old rule", 2)
	if err := h.Rules.Update(ctx, hidden.ID, bson.M{"active": false}); err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/rules/"))

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d", resp.Count)
	}
}

func TestServeManagerAllIncludesInactive(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateRule(ctx, "conduct", "Be respectful", 1)
	hidden := f.CreateRule(ctx, "conduct", "Old rule", 2)
	if err := h.Rules.Update(ctx, hidden.ID, bson.M{"active": false}); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithUser(
		testutil.NewRequest(http.MethodGet, "/rules/manager/all"), testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeManagerAll(rec, req)

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

func TestServeCategoriesFallback(t *testing.T) {
	h, _ := testHandler(t)

	rec := testutil.NewRecorder()
	h.ServeCategories(rec, testutil.NewRequest(http.MethodGet, "/rules/categories/channels"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"display_name":"General"`)
	rec.AssertContains(t, "conduct")
	rec.AssertContains(t, "gameplay")
}

func TestServeCreate(t *testing.T) {
	h, _ := testHandler(t)
	ctx := testutil.TestContext(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/rules/",
			`{"category":"conduct","title":"No slurs","description":"Hate speech means an immediate ban.","order":1}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	rules, err := h.Rules.List(ctx, "conduct", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 || rules[0].Title != "No slurs" {
		t.Errorf("stored rules: %+v", rules)
	}
}

func TestServeCreateRequiresFields(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/rules/", `{"title":"Orphan"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeUpdate(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	rule := f.CreateRule(ctx, "general", "Use English", 1)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPut, "/rules/x", `{"order":5,"active":false}`),
		"rule_id", rule.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Rules.ByID(ctx, rule.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Order != 5 || got.Active {
		t.Errorf("updated: order=%d active=%v", got.Order, got.Active)
	}
}

func TestServeDeleteNotFound(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodDelete, "/rules/x"),
		"rule_id", "000000000000000000000000")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"general":        "General",
		"voice-conduct":  "Voice Conduct",
		"ranked_queues":  "Ranked Queues",
	}
	for in, want := range cases {
		if got := displayName(in); got != want {
			t.Errorf("displayName(%q) = %q, want %q", in, got, want)
		}
	}
}
