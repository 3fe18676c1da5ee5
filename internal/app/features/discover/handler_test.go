package discover_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/intikhab/internal/app/features/discover"
	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestServeCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	h := discover.NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

	popular := fx.CreateUser(ctx, "popular")
	hidden := fx.CreateUser(ctx, "hidden")
	quiet := fx.CreateUser(ctx, "quiet")
	set := func(id string, update bson.M) {
		if _, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	set(popular.ID, bson.M{"follower_count": 7, "intikhab.Intikhab-e-popular.items": bson.A{
		bson.M{"type": "couplet", "id": "c1", "poet": "Ghalib"},
	}})
	set(hidden.ID, bson.M{"follower_count": 20, "intikhab.Intikhab-e-hidden.is_public": false})
	set(quiet.ID, bson.M{"follower_count": 1})

	rec := testutil.NewRecorder()
	h.ServeCollections(rec, testutil.NewRequest("GET", "/discover/collections", ""))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Collections []struct {
			OwnerID        string `json:"owner_id"`
			Username       string `json:"username"`
			CollectionName string `json:"collection_name"`
			FollowerCount  int64  `json:"follower_count"`
			ItemCount      int    `json:"item_count"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Collections) != 2 {
		t.Fatalf("got %d collections, want 2 (private excluded)", len(body.Collections))
	}
	first := body.Collections[0]
	if first.OwnerID != popular.ID || first.CollectionName != "Intikhab-e-popular" || first.FollowerCount != 7 || first.ItemCount != 1 {
		t.Errorf("first row = %+v", first)
	}
	if body.Collections[1].Username != "quiet" {
		t.Errorf("second row = %+v", body.Collections[1])
	}
}

func TestServeCouplets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	h := discover.NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)

	g := fx.CreateGhazal(ctx, "Koi umeed bar nahin aati", "mirza-ghalib")
	for i := 0; i < 7; i++ {
		fx.CreateCoupletWithCount(ctx, "misra", "mirza-ghalib", g.ID, int64(i))
	}

	rec := testutil.NewRecorder()
	h.ServeCouplets(rec, testutil.NewRequest("GET", "/discover/couplets", ""))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Couplets []struct {
			IntikhabCount int64  `json:"intikhab_count"`
			GhazalTitle   string `json:"ghazal_title"`
		} `json:"couplets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Couplets) != discover.TrendingLimit {
		t.Fatalf("got %d couplets, want %d", len(body.Couplets), discover.TrendingLimit)
	}
	if body.Couplets[0].IntikhabCount != 6 || body.Couplets[0].GhazalTitle != g.Title {
		t.Errorf("first row = %+v", body.Couplets[0])
	}
}
