package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/intikhab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "generic error",
			err:  errors.New("some random error"),
			want: false,
		},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "command error code 51",
			err:  mongo.CommandError{Code: 51, Message: "Illegal operation"},
			want: true,
		},
		{
			name: "command error code 263",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "other command error code",
			err:  mongo.CommandError{Code: 100, Message: "Some other error"},
			want: false,
		},
		{
			name: "error with transaction and replica set keywords",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "error with session and not supported keywords",
			err:  errors.New("session operations are not supported on this server"),
			want: true,
		},
		{
			name: "error with only one keyword",
			err:  errors.New("transaction failed"),
			want: false,
		},
		{
			name: "transient error naming transaction and session",
			err:  errors.New("transaction 4 of session abc was aborted: write conflict"),
			want: false,
		},
		{
			name: "error with illegal operation keywords",
			err:  errors.New("illegal operation during transaction"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotSupported_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "uppercase TRANSACTION and REPLICA SET",
			err:  errors.New("TRANSACTION FAILED on REPLICA SET"),
			want: true,
		},
		{
			name: "mixed case Session and Not Supported",
			err:  errors.New("Session Operations Not Supported"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func countDocs(t *testing.T, coll *mongo.Collection) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	return n
}

func insertTwo(coll *mongo.Collection) Fn {
	return func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"_id": "a"}); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, bson.M{"_id": "b"})
		return err
	}
}

func TestRun_AppliesWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("txn_run")

	core, logs := observer.New(zap.WarnLevel)
	require.NoError(t, Run(ctx, db, zap.New(core), insertTwo(coll)))
	assert.Equal(t, int64(2), countDocs(t, coll))

	if testutil.SupportsTransactions(t, db) {
		assert.Zero(t, logs.Len(), "no fallback on a replica set")
	} else {
		assert.Equal(t, 1, logs.FilterMessageSnippet("without a transaction").Len())
	}
}

func TestRun_ReturnsBodyError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunStrict_WithoutReplicaSetRefuses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if testutil.SupportsTransactions(t, db) {
		t.Skip("server supports transactions")
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("txn_strict")

	err := RunStrict(ctx, db, insertTwo(coll))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.Zero(t, countDocs(t, coll))
}

func TestRunStrict_RollsBackOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if !testutil.SupportsTransactions(t, db) {
		t.Skip("server does not support transactions")
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("txn_rollback")
	require.NoError(t, db.CreateCollection(ctx, coll.Name()))

	boom := errors.New("second write failed")
	err := RunStrict(ctx, db, func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"_id": "a"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countDocs(t, coll), "first write must be rolled back")

	require.NoError(t, RunStrict(ctx, db, insertTwo(coll)))
	assert.Equal(t, int64(2), countDocs(t, coll))
}
