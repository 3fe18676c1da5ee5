// Package txn runs a group of MongoDB writes as one all-or-nothing unit.
//
// The store's multi-document transaction is the only atomicity boundary the
// app relies on. Transactions need a replica set; on a standalone server
// Run falls back to executing the writes without one (logging a warning),
// while RunStrict refuses with ErrNotSupported.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNotSupported is returned by RunStrict when the deployment cannot run
// multi-document transactions.
var ErrNotSupported = errors.New("multi-document transactions are not supported by this deployment")

// Fn is the body of a transaction. It must use the ctx it is given so its
// operations join the session.
type Fn func(ctx context.Context) error

// Run executes fn inside a transaction. If the server does not support
// transactions, fn is run again without one.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Fn) error {
	err := run(ctx, db, fn)
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("transactions not supported; running writes without a transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// RunStrict executes fn inside a transaction and never falls back.
func RunStrict(ctx context.Context, db *mongo.Database, fn Fn) error {
	err := run(ctx, db, fn)
	if err != nil && IsNotSupported(err) {
		return fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	return err
}

func run(ctx context.Context, db *mongo.Database, fn Fn) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Server error codes returned when transactions are unavailable:
// 20 IllegalOperation, 51 (legacy) and 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone server, unsupported session state).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}
