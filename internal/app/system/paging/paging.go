// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is the page size used when the client does not ask for one.
const DefaultPageSize = 10

// MaxPageSize caps client-requested page sizes.
const MaxPageSize = 50

// RankField is the descending numeric field ranked feeds sort on.
const RankField = "intikhab_count"

// ErrBadCursor is returned when a cursor fails authentication or decoding.
var ErrBadCursor = errors.New("paging: invalid cursor")

// ParseLimit reads the "limit" query parameter, falling back to def and
// clamping to [1, MaxPageSize].
func ParseLimit(r *http.Request, def int) int {
	s := query.Get(r, "limit")
	if s == "" {
		return clamp(def)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return clamp(def)
	}
	return clamp(n)
}

func clamp(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

// Cursor is the position of the last document of a page in
// (RankField desc, _id asc) order.
type Cursor struct {
	Count int64  `json:"c"`
	ID    string `json:"i"`
}

// Page is one slice of a ranked feed.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *Cursor `json:"-"`
	Exhausted  bool    `json:"exhausted"`
}

// Build turns fetched rows into a Page. A fetch shorter than limit
// (including zero rows) exhausts the feed.
func Build[T any](rows []T, limit int, pos func(T) Cursor) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	p := Page[T]{Items: rows, Exhausted: len(rows) < limit}
	if len(rows) > 0 {
		c := pos(rows[len(rows)-1])
		p.NextCursor = &c
	}
	return p
}

// Window returns the filter selecting documents strictly after c, or nil for
// the first page.
func Window(c *Cursor) bson.M {
	if c == nil {
		return nil
	}
	return bson.M{"$or": []bson.M{
		{RankField: bson.M{"$lt": c.Count}},
		{RankField: c.Count, "_id": bson.M{"$gt": c.ID}},
	}}
}

// FindOptions sorts by RankField descending with _id as the tie-break.
func FindOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: RankField, Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
}

const cursorName = "feed-cursor"

// Codec turns cursors into opaque, signed strings so clients cannot forge
// positions.
type Codec struct {
	sc *securecookie.SecureCookie
}

// NewCodec returns a Codec signing with hashKey (32 or 64 bytes recommended).
func NewCodec(hashKey []byte) *Codec {
	sc := securecookie.New(hashKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)
	return &Codec{sc: sc}
}

// Encode returns "" for a nil cursor.
func (c *Codec) Encode(cur *Cursor) (string, error) {
	if cur == nil {
		return "", nil
	}
	return c.sc.Encode(cursorName, cur)
}

// Decode returns nil for "" (first page) and ErrBadCursor for anything that
// was not produced by Encode with the same key.
func (c *Codec) Decode(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	var cur Cursor
	if err := c.sc.Decode(cursorName, s, &cur); err != nil {
		return nil, ErrBadCursor
	}
	return &cur, nil
}
