// internal/app/features/games/handler_test.go
package games

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	gamestore "github.com/maestros-community/backend/internal/app/store/games"
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
	return NewHandler(gamestore.New(db), checker, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestServeList(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateGame(ctx, "Valorant")
	f.CreateGame(ctx, "Apex Legends")

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/games/"))

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Games []struct {
			Name string `json:"name"`
		} `json:"games"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d", resp.Count)
	}
	// Alphabetical order.
	if resp.Games[0].Name != "Apex Legends" {
		t.Errorf("first game = %q", resp.Games[0].Name)
	}
}

func TestServeByIDInvalid(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodGet, "/games/bogus"), "game_id", "bogus")
	rec := testutil.NewRecorder()
	h.ServeByID(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid game ID")
}

func TestServeCreate(t *testing.T) {
	h, _ := testHandler(t)
	ctx := testutil.TestContext(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/games/",
			`{"name":"Rocket League","description":"Cars that play football."}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Rocket League")

	games, err := h.Games.List(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || !games[0].Active {
		t.Errorf("stored games: %+v", games)
	}
}

func TestServeCreateRequiresName(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithUser(
		testutil.NewJSONRequest(http.MethodPost, "/games/", `{"description":"no name"}`),
		testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Game name is required")
}

func TestServeUpdate(t *testing.T) {
	h, f := testHandler(t)
	ctx := testutil.TestContext(t)
	game := f.CreateGame(ctx, "Valorant")

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(http.MethodPut, "/games/x", `{"active":false}`),
		"game_id", game.ID.Hex())
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	got, err := h.Games.ByID(ctx, game.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("game still active after update")
	}
}

func TestServeDeleteNotFound(t *testing.T) {
	h, _ := testHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewRequest(http.MethodDelete, "/games/x"),
		"game_id", "000000000000000000000000")
	req = testutil.WithUser(req, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}
