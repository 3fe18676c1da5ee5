package coupletstore_test

import (
	"errors"
	"fmt"
	"testing"

	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	"github.com/dalemusser/intikhab/internal/app/system/paging"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_PageWalksWholeFeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := coupletstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 23; i++ {
		fx.CreateCoupletWithCount(ctx, fmt.Sprintf("sher %d", i), "Mir", "", int64(i%5))
	}

	seen := map[string]bool{}
	var cursor *paging.Cursor
	var sizes []int
	var last *models.Couplet
	for {
		p, err := store.Page(ctx, cursor, 10)
		if err != nil {
			t.Fatalf("Page failed: %v", err)
		}
		sizes = append(sizes, len(p.Items))
		for i := range p.Items {
			c := p.Items[i]
			if seen[c.ID] {
				t.Fatalf("couplet %s returned twice", c.ID)
			}
			seen[c.ID] = true
			if last != nil && last.IntikhabCount < c.IntikhabCount {
				t.Errorf("ranking not descending: %d then %d", last.IntikhabCount, c.IntikhabCount)
			}
			last = &c
		}
		if p.Exhausted {
			break
		}
		cursor = p.NextCursor
	}

	if fmt.Sprint(sizes) != "[10 10 3]" {
		t.Errorf("page sizes = %v, want [10 10 3]", sizes)
	}
	if len(seen) != 23 {
		t.Errorf("saw %d couplets, want 23", len(seen))
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := coupletstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCouplet(ctx, "hazaron khwahishen aisi", "Ghalib", "g1")
	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Content != c.Content || got.GhazalID != "g1" {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, coupletstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_UpsertKeepsCounters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := coupletstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := models.Couplet{ID: "seed-1", Content: "v1", Poet: "Faiz"}
	inserted, err := store.Upsert(ctx, c)
	if err != nil || !inserted {
		t.Fatalf("first Upsert = %v, %v", inserted, err)
	}

	_, err = db.Collection("couplets").UpdateOne(ctx, bson.M{"_id": "seed-1"},
		bson.M{"$set": bson.M{"intikhab_count": 2, "saved_by": bson.A{"u1", "u2"}}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	c.Content = "v2"
	inserted, err = store.Upsert(ctx, c)
	if err != nil || inserted {
		t.Fatalf("second Upsert = %v, %v", inserted, err)
	}

	got, err := store.GetByID(ctx, "seed-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Content != "v2" || got.IntikhabCount != 2 || len(got.SavedBy) != 2 {
		t.Errorf("got %+v", got)
	}
}
