package ghazalstore_test

import (
	"errors"
	"testing"

	ghazalstore "github.com/dalemusser/intikhab/internal/app/store/ghazals"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
)

func TestStore_ReadPaths(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ghazalstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g1 := fx.CreateGhazal(ctx, "Dil-e-nadan", "ghalib")
	g2 := fx.CreateGhazal(ctx, "Koi ummeed bar nahin aati", "ghalib")
	fx.CreateGhazal(ctx, "Gulon mein rang bhare", "faiz")

	got, err := store.GetByID(ctx, g1.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Dil-e-nadan" {
		t.Errorf("Title = %q", got.Title)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, ghazalstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	many, err := store.GetMany(ctx, []string{g1.ID, g2.ID, "missing"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(many) != 2 {
		t.Errorf("GetMany returned %d, want 2", len(many))
	}

	byPoet, err := store.ListByPoet(ctx, "ghalib", 10)
	if err != nil {
		t.Fatalf("ListByPoet failed: %v", err)
	}
	if len(byPoet) != 2 {
		t.Errorf("ListByPoet returned %d, want 2", len(byPoet))
	}
	one, err := store.ListByPoet(ctx, "ghalib", 1)
	if err != nil || len(one) != 1 {
		t.Errorf("ListByPoet limit 1 = %d, %v", len(one), err)
	}
}

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ghazalstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := models.Ghazal{ID: "g-seed", Title: "Aaj baazar mein", Poet: "faiz", Content: "..."}
	if inserted, err := store.Upsert(ctx, g); err != nil || !inserted {
		t.Fatalf("Upsert = %v, %v", inserted, err)
	}
	g.Title = "Aaj bazaar mein pa-ba-jaulan chalo"
	if inserted, err := store.Upsert(ctx, g); err != nil || inserted {
		t.Fatalf("second Upsert = %v, %v", inserted, err)
	}
	got, err := store.GetByID(ctx, "g-seed")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != g.Title {
		t.Errorf("Title = %q", got.Title)
	}
}
