package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", cause, Internal},
		{"not found", New(NotFound, "op", "missing"), NotFound},
		{"wrapped sync failure", Wrap(SyncFailed, "countersync.Save", cause), SyncFailed},
		{"fmt wrapped", fmt.Errorf("outer: %w", New(PermissionDenied, "", "nope")), PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap_NilIsNil(t *testing.T) {
	if err := Wrap(SyncFailed, "op", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(SyncFailed, "op", nil, "x"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("network down")
	err := Wrap(SyncFailed, "countersync.Follow", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !Is(err, SyncFailed) {
		t.Error("expected SyncFailed kind")
	}
	if Is(nil, SyncFailed) {
		t.Error("nil error must not match a kind")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(errors.New("secret detail")); got != "internal error" {
		t.Errorf("Message(plain) = %q", got)
	}
	if got := Message(New(InvalidOperation, "op", "cannot follow yourself")); got != "cannot follow yourself" {
		t.Errorf("Message(app) = %q", got)
	}
	if got := Message(Wrap(NotFound, "op", errors.New("x"))); got != "not_found" {
		t.Errorf("Message(no msg) = %q", got)
	}
}
