package paging

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name string
		url  string
		def  int
		want int
	}{
		{"missing uses default", "/feed", 10, 10},
		{"explicit", "/feed?limit=25", 10, 25},
		{"not a number", "/feed?limit=abc", 10, 10},
		{"zero clamps to one", "/feed?limit=0", 10, 1},
		{"negative clamps to one", "/feed?limit=-4", 10, 1},
		{"too large", "/feed?limit=1000", 10, MaxPageSize},
		{"bad default clamps", "/feed", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := ParseLimit(r, tt.def); got != tt.want {
				t.Errorf("ParseLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

type row struct {
	id    string
	count int64
}

func pos(r row) Cursor { return Cursor{Count: r.count, ID: r.id} }

func TestBuild(t *testing.T) {
	t.Run("full page is not exhausted", func(t *testing.T) {
		p := Build([]row{{"a", 5}, {"b", 3}}, 2, pos)
		if p.Exhausted {
			t.Error("expected not exhausted")
		}
		if p.NextCursor == nil || p.NextCursor.ID != "b" || p.NextCursor.Count != 3 {
			t.Errorf("NextCursor = %+v", p.NextCursor)
		}
	})
	t.Run("short page is exhausted", func(t *testing.T) {
		p := Build([]row{{"a", 5}}, 2, pos)
		if !p.Exhausted {
			t.Error("expected exhausted")
		}
	})
	t.Run("empty page", func(t *testing.T) {
		p := Build[row](nil, 2, pos)
		if !p.Exhausted || p.NextCursor != nil {
			t.Errorf("got %+v", p)
		}
		if p.Items == nil {
			t.Error("Items should be an empty slice, not nil")
		}
	})
}

func TestWindow(t *testing.T) {
	if Window(nil) != nil {
		t.Error("Window(nil) should be nil")
	}

	w := Window(&Cursor{Count: 4, ID: "x"})
	or, ok := w["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("unexpected window: %#v", w)
	}
	if or[1]["_id"].(bson.M)["$gt"] != "x" {
		t.Errorf("tie-break clause = %#v", or[1])
	}
}

func TestCodec(t *testing.T) {
	c := NewCodec([]byte("0123456789abcdef0123456789abcdef"))

	s, err := c.Encode(&Cursor{Count: 7, ID: "c-1"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Count != 7 || got.ID != "c-1" {
		t.Errorf("Decode() = %+v", got)
	}

	if s, _ := c.Encode(nil); s != "" {
		t.Errorf("Encode(nil) = %q, want empty", s)
	}
	if cur, err := c.Decode(""); cur != nil || err != nil {
		t.Errorf("Decode(\"\") = %v, %v", cur, err)
	}
}

func TestCodec_RejectsForeignCursor(t *testing.T) {
	a := NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	b := NewCodec([]byte("fedcba9876543210fedcba9876543210"))

	s, err := a.Encode(&Cursor{Count: 1, ID: "x"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := b.Decode(s); err != ErrBadCursor {
		t.Errorf("Decode with other key err = %v, want ErrBadCursor", err)
	}
	if _, err := a.Decode("garbage"); err != ErrBadCursor {
		t.Errorf("Decode(garbage) err = %v, want ErrBadCursor", err)
	}
}
