package poetstore_test

import (
	"errors"
	"testing"

	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
)

func TestStore_UpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poetstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := models.Poet{ID: "iqbal", Name: "Allama Iqbal", Bio: "Poet of the East", Verified: true}
	if inserted, err := store.Upsert(ctx, p); err != nil || !inserted {
		t.Fatalf("Upsert = %v, %v", inserted, err)
	}

	got, err := store.GetByID(ctx, "iqbal")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Allama Iqbal" || got.FollowerCount != 0 || got.Followers == nil {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, poetstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	many, err := store.GetMany(ctx, []string{"iqbal", "missing"})
	if err != nil || len(many) != 1 {
		t.Errorf("GetMany = %d, %v", len(many), err)
	}
}

func TestStore_EnsureForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poetstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureForUser(ctx, "uid-9", "Parveen Shakir", "bio one"); err != nil {
		t.Fatalf("EnsureForUser failed: %v", err)
	}
	if err := store.EnsureForUser(ctx, "uid-9", "Other Name", "bio two"); err != nil {
		t.Fatalf("second EnsureForUser failed: %v", err)
	}
	got, err := store.GetByID(ctx, "uid-9")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Parveen Shakir" || !got.Verified {
		t.Errorf("got %+v", got)
	}
}
