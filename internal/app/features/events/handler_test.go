// internal/app/features/events/handler_test.go
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	activitystore "github.com/maestros-community/backend/internal/app/store/activity"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
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
		eventstore.New(db),
		userstore.New(db),
		activitystore.New(db),
		checker,
		zap.NewNop(),
	)
	return h, testutil.NewFixtures(t, db)
}

func TestServeCreate(t *testing.T) {
	h, _ := testHandler(t)
	ctx := testutil.TestContext(t)

	date := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"title": "Friday Night Showdown",
		"description": "Weekly five-stack scrims against other community teams.",
		"game": "Valorant",
		"date": %q,
		"max_participants": 10,
		"prize": "Nitro"
	}`, date)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/events/create", body),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Friday Night Showdown")

	events, err := h.Events.List(ctx, models.EventUpcoming, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Status != models.EventUpcoming {
		t.Errorf("stored events: %+v", events)
	}
}

func TestServeCreateRejectsPastDate(t *testing.T) {
	h, _ := testHandler(t)

	date := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"title": "Yesterday's Event",
		"description": "This one should never have been scheduled.",
		"game": "Valorant",
		"date": %q,
		"max_participants": 10
	}`, date)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/events/create", body),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Event date must be in the future")
}

func TestServeCreateRejectsShortTitle(t *testing.T) {
	h, _ := testHandler(t)

	date := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"title": "Cup",
		"description": "A title that short will not fit on the events page.",
		"game": "Valorant",
		"date": %q,
		"max_participants": 10
	}`, date)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/events/create", body),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "between 5 and 100")
}

func TestServeRegister(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	stored := f.CreateUser(ctx, "reg-1", "Player")
	ev := f.CreateEvent(ctx, "Open Bracket", 8)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPost, "/events/x/register"), "event_id", ev.ID.Hex())
	req = testutil.WithUser(req, &stored)
	rec := testutil.NewRecorder()
	h.ServeRegister(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"xp_awarded":25`)

	got, err := h.Events.ByID(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Participants) != 1 || got.Participants[0] != "reg-1" {
		t.Errorf("participants: %v", got.Participants)
	}

	logs, err := h.Activity.Recent(ctx, "reg-1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Action != "event_registered" {
		t.Errorf("activity: %+v", logs)
	}
}

func TestServeRegisterDuplicate(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	stored := f.CreateUser(ctx, "reg-2", "Keen")
	ev := f.CreateEvent(ctx, "Open Bracket", 8)

	register := func() *testutil.ResponseRecorder {
		req := testutil.WithChiURLParam(
			testutil.NewRequest(http.MethodPost, "/events/x/register"), "event_id", ev.ID.Hex())
		req = testutil.WithUser(req, &stored)
		rec := testutil.NewRecorder()
		h.ServeRegister(rec, req)
		return rec
	}

	register().AssertStatus(t, http.StatusOK)

	rec := register()
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Already registered for this event")
}

func TestServeRegisterFull(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	ev := f.CreateEvent(ctx, "Tiny Lobby", 2)
	for i := 0; i < 2; i++ {
		if err := h.Events.Register(ctx, ev.ID, fmt.Sprintf("seed-%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	stored := f.CreateUser(ctx, "reg-3", "Late")

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPost, "/events/x/register"), "event_id", ev.ID.Hex())
	req = testutil.WithUser(req, &stored)
	rec := testutil.NewRecorder()
	h.ServeRegister(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Event is full (2/2 participants)")
}

func TestServeUnregisterNotRegistered(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	ev := f.CreateEvent(ctx, "Open Bracket", 8)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodPost, "/events/x/unregister"), "event_id", ev.ID.Hex())
	req = testutil.WithUser(req, testutil.MemberUser())
	rec := testutil.NewRecorder()
	h.ServeUnregister(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Not registered for this event")
}

func TestServeUpcoming(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateEvent(ctx, "Next Week", 8)
	stale := f.CreateEvent(ctx, "Missed It", 8)
	if err := h.Events.Update(ctx, stale.ID, bson.M{"date": time.Now().Add(-24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}

	rec := testutil.NewRecorder()
	h.ServeUpcoming(rec, testutil.NewRequest(http.MethodGet, "/events/upcoming/list"))

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Title != "Next Week" {
		t.Errorf("upcoming: %+v", resp.Events)
	}
}

func TestServeUpdate(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	ev := f.CreateEvent(ctx, "Old Title Cup", 8)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPut, "/events/manager/x",
			`{"title":"Renamed Cup","status":"completed"}`),
		"event_id", ev.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Events.ByID(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Renamed Cup" || got.Status != models.EventCompleted {
		t.Errorf("updated: title=%q status=%q", got.Title, got.Status)
	}
}

func TestServeUpdateRejectsBadStatus(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	ev := f.CreateEvent(ctx, "Status Check", 8)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPut, "/events/manager/x", `{"status":"postponed"}`),
		"event_id", ev.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid event status")
}

func TestServeDeleteNotFound(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodDelete, "/events/manager/x"),
		"event_id", "000000000000000000000000")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeSetWinners(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	ev := f.CreateEvent(ctx, "Season Final", 8)
	if err := h.Events.Register(ctx, ev.ID, "champ-1"); err != nil {
		t.Fatal(err)
	}
	if err := h.Events.Update(ctx, ev.ID, bson.M{"status": models.EventCompleted}); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPost, "/events/manager/x/winners", `{"winners":["champ-1"]}`),
		"event_id", ev.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeSetWinners(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Events.ByID(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Winners) != 1 || got.Winners[0] != "champ-1" {
		t.Errorf("winners: %v", got.Winners)
	}
}

func TestServeSetWinnersRequiresParticipant(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	ev := f.CreateEvent(ctx, "Season Final", 8)
	if err := h.Events.Update(ctx, ev.ID, bson.M{"status": models.EventCompleted}); err != nil {
		t.Fatal(err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPost, "/events/manager/x/winners", `{"winners":["ghost"]}`),
		"event_id", ev.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeSetWinners(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "participants")
}
