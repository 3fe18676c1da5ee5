package verificationstore_test

import (
	"errors"
	"testing"
	"time"

	verificationstore "github.com/dalemusser/intikhab/internal/app/store/verifications"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
)

func newRequest(id, userID string, at time.Time) models.PoetVerificationRequest {
	return models.PoetVerificationRequest{
		ID:           id,
		UserID:       userID,
		FullName:     "Parveen Shakir",
		Bio:          "bio",
		SampleGhazal: "khushbu",
		Status:       models.VerificationPending,
		SubmittedAt:  at,
	}
}

func TestStore_ListPendingNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"r1", "r2", "r3"} {
		if err := store.Create(ctx, newRequest(id, "u-"+id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Decide(ctx, "r2", models.VerificationRejected, "admin", now); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	got, err := store.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r1" {
		t.Errorf("ListPending = %+v", got)
	}

	pending, err := store.HasPending(ctx, "u-r1")
	if err != nil || !pending {
		t.Errorf("HasPending(u-r1) = %v, %v", pending, err)
	}
	pending, err = store.HasPending(ctx, "u-r2")
	if err != nil || pending {
		t.Errorf("HasPending(u-r2) = %v, %v", pending, err)
	}
}

func TestStore_DecideIsOneShot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	if err := store.Create(ctx, newRequest("r1", "u1", now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Decide(ctx, "r1", models.VerificationApproved, "admin", now); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if err := store.Decide(ctx, "r1", models.VerificationRejected, "admin", now); !errors.Is(err, verificationstore.ErrAlreadyDecided) {
		t.Errorf("second Decide err = %v, want ErrAlreadyDecided", err)
	}
	if err := store.Decide(ctx, "missing", models.VerificationApproved, "admin", now); !errors.Is(err, verificationstore.ErrNotFound) {
		t.Errorf("Decide(missing) err = %v, want ErrNotFound", err)
	}
	if err := store.Decide(ctx, "r1", models.VerificationPending, "admin", now); !errors.Is(err, verificationstore.ErrAlreadyDecided) {
		t.Errorf("Decide(pending) err = %v, want ErrAlreadyDecided", err)
	}

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.VerificationApproved || got.DecidedBy != "admin" || got.DecidedAt == nil {
		t.Errorf("got %+v", got)
	}
}
