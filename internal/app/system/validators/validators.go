// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/intikhab/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("couplets", coupletsSchema())
	ensure("ghazals", ghazalsSchema())
	ensure("poets", poetsSchema())
	ensure("poet_verification_requests", verificationsSchema())
	ensure("device_tokens", devicesSchema())

	// No validators; the collections still need to exist before the first
	// transaction touches them.
	ensure("credentials", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			logger.Debug("collection exists", zap.String("collection", name))
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	counter  = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	idList   = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "account_type", "intikhab"},
			"properties": bson.M{
				"username":           nonBlank,
				"username_ci":        nonBlank,
				"email":              bson.M{"bsonType": "string"},
				"account_type":       bson.M{"enum": bson.A{string(models.AccountCurator), string(models.AccountPoet)}},
				"primary_collection": bson.M{"bsonType": "string"},
				"intikhab":           bson.M{"bsonType": "object"},
				"followed_intikhab":  idList,
				"followed_poets":     idList,
				"follower_count":     counter,
			},
		},
	}
}

func coupletsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"content", "poet"},
			"properties": bson.M{
				"content":        nonBlank,
				"poet":           nonBlank,
				"ghazal_id":      bson.M{"bsonType": "string"},
				"intikhab_count": counter,
				"saved_by":       idList,
			},
		},
	}
}

func ghazalsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "poet"},
			"properties": bson.M{
				"title":          nonBlank,
				"poet":           nonBlank,
				"content":        bson.M{"bsonType": "string"},
				"intikhab_count": counter,
			},
		},
	}
}

func poetsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"properties": bson.M{
				"name":           bson.M{"bsonType": "string"},
				"bio":            bson.M{"bsonType": "string"},
				"verified":       bson.M{"bsonType": "bool"},
				"followers":      idList,
				"follower_count": counter,
			},
		},
	}
}

func verificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "full_name", "status", "submitted_at"},
			"properties": bson.M{
				"user_id":   nonBlank,
				"full_name": nonBlank,
				"status": bson.M{"enum": bson.A{
					string(models.VerificationPending),
					string(models.VerificationApproved),
					string(models.VerificationRejected),
				}},
				"submitted_at": bson.M{"bsonType": "date"},
				"decided_at":   bson.M{"bsonType": "date"},
				"decided_by":   bson.M{"bsonType": "string"},
			},
		},
	}
}

func devicesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "platform"},
			"properties": bson.M{
				"user_id":  nonBlank,
				"platform": bson.M{"enum": bson.A{"ios", "android", "web"}},
			},
		},
	}
}
