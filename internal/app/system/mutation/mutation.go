// Package mutation tracks the outcome of a mutating call so clients that
// applied an optimistic update can reconcile it.
//
// An Outcome starts pending and settles exactly once, as committed or
// failed. Settling twice is an error.
package mutation

import (
	"errors"
	"time"
)

// State is the lifecycle state of an Outcome.
type State string

const (
	Pending   State = "pending"
	Committed State = "committed"
	Failed    State = "failed"
)

// ErrSettled is returned when an already settled Outcome is settled again.
var ErrSettled = errors.New("mutation: outcome already settled")

// Outcome is the result of one mutation as reported to the client.
type Outcome struct {
	Op        string    `json:"op"`
	State     State     `json:"state"`
	Changed   bool      `json:"changed"`         // false when the call was a no-op
	Active    bool      `json:"active"`          // relationship present after the call
	Error     string    `json:"error,omitempty"` // client-safe message when failed
	StartedAt time.Time `json:"started_at"`
	SettledAt time.Time `json:"settled_at"`

	err error
	now func() time.Time
}

// Begin returns a pending Outcome for op.
func Begin(op string) *Outcome {
	return begin(op, time.Now)
}

func begin(op string, now func() time.Time) *Outcome {
	return &Outcome{Op: op, State: Pending, StartedAt: now().UTC(), now: now}
}

// Commit settles o as committed.
func (o *Outcome) Commit(changed, active bool) error {
	if o.State != Pending {
		return ErrSettled
	}
	o.State = Committed
	o.Changed = changed
	o.Active = active
	o.SettledAt = o.now().UTC()
	return nil
}

// Fail settles o as failed with err. msg is the client-safe text.
func (o *Outcome) Fail(err error, msg string) error {
	if o.State != Pending {
		return ErrSettled
	}
	o.State = Failed
	o.err = err
	o.Error = msg
	o.SettledAt = o.now().UTC()
	return nil
}

// Settled reports whether o has left the pending state.
func (o *Outcome) Settled() bool { return o.State != Pending }

// Err returns the failure cause, or nil unless o failed.
func (o *Outcome) Err() error { return o.err }
