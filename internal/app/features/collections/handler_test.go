package collections_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/intikhab/internal/app/features/collections"
	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.uber.org/zap"
)

const collName = models.CollectionName("Intikhab-e-amna")

type fakeMembership struct {
	following map[string]bool
}

func (f *fakeMembership) ListItems(_ context.Context, userID string, name models.CollectionName) ([]itemrefs.HydratedItem, error) {
	if userID != "u1" || name != collName {
		return nil, apperr.New(apperr.NotFound, "ListItems", "collection not found")
	}
	return []itemrefs.HydratedItem{{
		Ref:     models.ItemRef{Type: models.ItemCouplet, ID: "c1", Poet: "Ghalib"},
		Couplet: &models.Couplet{ID: "c1", Content: "dil-e-nadan", Poet: "Ghalib"},
	}}, nil
}

func (f *fakeMembership) ToggleFollow(_ context.Context, actorID, targetID string, name models.CollectionName) (*mutation.Outcome, error) {
	if actorID == targetID {
		return nil, apperr.New(apperr.InvalidOperation, "ToggleFollow", "cannot follow your own collection")
	}
	f.following[actorID] = !f.following[actorID]
	out := mutation.Begin("membership.ToggleFollow")
	_ = out.Commit(true, f.following[actorID])
	return out, nil
}

func newTestHandler() *collections.Handler {
	logger := zap.NewNop()
	return collections.NewHandler(&fakeMembership{following: map[string]bool{}}, errorsfeature.NewErrorLogger(logger), logger)
}

func TestServeItems(t *testing.T) {
	h := newTestHandler()

	req := testutil.WithChiURLParams(testutil.NewRequest("GET", "/collections/u1/x/items", ""),
		"userID", "u1", "name", "Intikhab-e-amna")
	rec := testutil.NewRecorder()
	h.ServeItems(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		CollectionName string                  `json:"collection_name"`
		Items          []itemrefs.HydratedItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.CollectionName != string(collName) || len(body.Items) != 1 || body.Items[0].Couplet.ID != "c1" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestServeItems_EscapedNameAndMissing(t *testing.T) {
	h := newTestHandler()

	req := testutil.WithChiURLParams(testutil.NewRequest("GET", "/", ""), "userID", "u1", "name", "Intikhab-e-%61mna")
	rec := testutil.NewRecorder()
	h.ServeItems(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.WithChiURLParams(testutil.NewRequest("GET", "/", ""), "userID", "u9", "name", "Intikhab-e-nobody")
	rec = testutil.NewRecorder()
	h.ServeItems(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleFollow_Toggles(t *testing.T) {
	h := newTestHandler()

	for _, want := range []bool{true, false} {
		req := testutil.WithChiURLParams(testutil.NewAuthenticatedRequest("POST", "/", "", "u2"),
			"userID", "u1", "name", string(collName))
		rec := testutil.NewRecorder()
		h.HandleFollow(rec, req)
		rec.AssertStatus(t, http.StatusOK)

		var out mutation.Outcome
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if out.State != mutation.Committed || out.Active != want {
			t.Errorf("outcome: got state %q active %v, want committed %v", out.State, out.Active, want)
		}
	}
}

func TestRoutes_FollowRequiresSession(t *testing.T) {
	logger := zap.NewNop()
	sm := testutil.NewSessionManager(t)
	router := collections.Routes(collections.NewHandler(&fakeMembership{following: map[string]bool{}}, errorsfeature.NewErrorLogger(logger), logger), sm)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("POST", "/u1/Intikhab-e-amna/follow", ""))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/u1/Intikhab-e-amna/follow", "", "u1"))
	rec.AssertStatus(t, http.StatusBadRequest)
}
