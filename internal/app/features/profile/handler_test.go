package profile_test

import (
	"encoding/json"
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/features/profile"
	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	"github.com/dalemusser/intikhab/internal/app/system/countersync"
	"github.com/dalemusser/intikhab/internal/app/system/membership"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	couplets := coupletstore.New(db)
	svc := membership.New(
		userstore.New(db, logger),
		couplets,
		poetstore.New(db),
		countersync.New(db, logger, false),
		itemrefs.New(couplets, logger),
		logger,
	)
	return profile.NewHandler(svc, errorsfeature.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func decodeOutcome(t *testing.T, rec *testutil.ResponseRecorder) mutation.Outcome {
	t.Helper()
	var out mutation.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return out
}

func TestAddAndRemoveItem(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "amna")
	c := fx.CreateCouplet(ctx, "hazaron khwahishen aisi", "Ghalib", "")

	rec := testutil.NewRecorder()
	h.HandleAddItem(rec, testutil.NewAuthenticatedRequest("POST", "/me/collection/items", `{"couplet_id":"`+c.ID+`"}`, u.ID))
	rec.AssertStatus(t, http.StatusOK)
	if out := decodeOutcome(t, rec); out.State != mutation.Committed || !out.Changed {
		t.Errorf("add outcome: %+v", out)
	}

	rec = testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest("GET", "/me", "", u.ID))
	rec.AssertStatus(t, http.StatusOK)
	var p membership.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to parse profile: %v", err)
	}
	if len(p.Items) != 1 || p.Items[0].Couplet.ID != c.ID {
		t.Fatalf("profile items: got %+v", p.Items)
	}
	if p.Items[0].Couplet.IntikhabCount != 1 {
		t.Errorf("intikhab_count: got %d, want 1", p.Items[0].Couplet.IntikhabCount)
	}

	req := testutil.WithChiURLParams(testutil.NewAuthenticatedRequest("DELETE", "/me/collection/items/"+c.ID, "", u.ID), "coupletID", c.ID)
	rec = testutil.NewRecorder()
	h.HandleRemoveItem(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	if out := decodeOutcome(t, rec); !out.Changed || out.Active {
		t.Errorf("remove outcome: %+v", out)
	}
}

func TestAddItem_UnknownCouplet(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "bilal")

	rec := testutil.NewRecorder()
	h.HandleAddItem(rec, testutil.NewAuthenticatedRequest("POST", "/me/collection/items", `{"couplet_id":"nope"}`, u.ID))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestRoutes_RequireSession(t *testing.T) {
	h, _ := newTestHandler(t)
	router := profile.Routes(h, testutil.NewSessionManager(t))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/", ""))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
