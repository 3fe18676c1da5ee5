package devicestore_test

import (
	"errors"
	"testing"

	devicestore "github.com/dalemusser/intikhab/internal/app/store/devices"
	"github.com/dalemusser/intikhab/internal/testutil"
)

func TestStore_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := devicestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Register(ctx, "u1", "tok-1", "iOS"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// The same device signing in as someone else moves the token.
	if err := store.Register(ctx, "u2", "tok-1", "ios"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u1, err := store.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(u1) != 0 {
		t.Errorf("u1 tokens = %+v, want none", u1)
	}
	u2, err := store.ListForUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(u2) != 1 || u2[0].Platform != "ios" {
		t.Errorf("u2 tokens = %+v", u2)
	}
}

func TestStore_RegisterValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := devicestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Register(ctx, "u1", "  ", "ios"); !errors.Is(err, devicestore.ErrEmptyToken) {
		t.Errorf("err = %v, want ErrEmptyToken", err)
	}
	if err := store.Register(ctx, "u1", "tok", "symbian"); err == nil {
		t.Error("expected platform error")
	}
}
