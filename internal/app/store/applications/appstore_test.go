package appstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/maestros-community/backend/internal/domain/models"
	"github.com/maestros-community/backend/internal/testutil"
)

func TestCreateAndPendingByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	app := &models.Application{
		UserID:   "111",
		FormType: "membership",
		Data:     map[string]any{"why_join": "because"},
	}
	id, err := store.Create(ctx, app)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.PendingByUser(ctx, "111")
	if err != nil {
		t.Fatalf("pending by user: %v", err)
	}
	if got.ID != id {
		t.Errorf("id mismatch")
	}
	if got.Status != models.ApplicationPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.SubmittedAt.IsZero() {
		t.Error("submitted_at not set")
	}
}

func TestDecide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	app := fx.CreateApplication(ctx, "111", nil)

	if err := store.Decide(ctx, app.ID, models.ApplicationApproved, "mgr-1", "welcome", ""); err != nil {
		t.Fatalf("decide: %v", err)
	}

	got, err := store.ByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != models.ApplicationApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.ReviewedBy != "mgr-1" || got.ReviewedAt == nil {
		t.Error("reviewer metadata not recorded")
	}

	// Deciding an already-decided application fails.
	err = store.Decide(ctx, app.ID, models.ApplicationRejected, "mgr-2", "", "nope")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("double decide: got %v, want ErrNoDocuments", err)
	}
}

func TestPendingQueueOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	for _, userID := range []string{"1", "2", "3"} {
		if _, err := store.Create(ctx, &models.Application{UserID: userID, FormType: "membership"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	queue, err := store.Pending(ctx, 10, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("got %d pending, want 3", len(queue))
	}
	// Oldest submission first.
	if queue[0].UserID != "1" || queue[2].UserID != "3" {
		t.Errorf("queue out of order: %s, %s, %s", queue[0].UserID, queue[1].UserID, queue[2].UserID)
	}
}

func TestStatusCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	a1 := fx.CreateApplication(ctx, "1", nil)
	fx.CreateApplication(ctx, "2", nil)
	if err := store.Decide(ctx, a1.ID, models.ApplicationRejected, "mgr", "", "reason"); err != nil {
		t.Fatalf("decide: %v", err)
	}

	counts, err := store.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[models.ApplicationPending] != 1 || counts[models.ApplicationRejected] != 1 || counts[models.ApplicationApproved] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
