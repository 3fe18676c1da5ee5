package trending

import (
	"context"

	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Couplet is a top-ranked couplet with the title and poet of its ghazal
// when the ghazal exists.
//
// Fields:
//   - Couplet:     the couplet document
//   - GhazalTitle: title of the referenced ghazal, "" when ghazal_id is
//     unset or dangling
//   - GhazalPoet:  poet of the referenced ghazal, same rules
type Couplet struct {
	models.Couplet `bson:",inline"`
	GhazalTitle    string `bson:"ghazal_title,omitempty" json:"ghazal_title,omitempty"`
	GhazalPoet     string `bson:"ghazal_poet,omitempty" json:"ghazal_poet,omitempty"`
}

// TopCouplets returns the limit most saved couplets, joined to ghazals:
//
//  1. sort couplets by intikhab_count desc, _id asc and limit
//  2. `$lookup` into `ghazals` on ghazal_id
//  3. lift the ghazal's title and poet onto the row
func TopCouplets(ctx context.Context, db *mongo.Database, limit int) ([]Couplet, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "intikhab_count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "ghazals",
			"localField":   "ghazal_id",
			"foreignField": "_id",
			"as":           "ghazal",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$ghazal", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{
			"ghazal_title": "$ghazal.title",
			"ghazal_poet":  "$ghazal.poet",
		}}},
		{{Key: "$project", Value: bson.M{"ghazal": 0}}},
	}

	cur, err := db.Collection("couplets").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Couplet{}
	for cur.Next(ctx) {
		var row Couplet
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, cur.Err()
}
