package devices_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/intikhab/internal/app/features/devices"
	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type call struct {
	userID, token, platform string
}

type chanRegistrar struct {
	calls chan call
	err   error
}

func (c *chanRegistrar) Register(ctx context.Context, userID, token, platform string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.calls <- call{userID, token, platform}
	return c.err
}

func waitCall(t *testing.T, calls <-chan call) call {
	t.Helper()
	select {
	case c := <-calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("registration was not attempted")
		return call{}
	}
}

func TestHandleRegister(t *testing.T) {
	reg := &chanRegistrar{calls: make(chan call, 1)}
	logger := zap.NewNop()
	h := devices.NewHandler(reg, errorsfeature.NewErrorLogger(logger), logger)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewAuthenticatedRequest("POST", "/devices", `{"token":"tok-1","platform":"ios"}`, "u1"))
	rec.AssertStatus(t, http.StatusAccepted)

	got := waitCall(t, reg.calls)
	if got != (call{"u1", "tok-1", "ios"}) {
		t.Errorf("register call: %+v", got)
	}
}

func TestHandleRegister_FailureIsLoggedOnly(t *testing.T) {
	reg := &chanRegistrar{calls: make(chan call, 1), err: errors.New("platform must be ios, android or web")}
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	h := devices.NewHandler(reg, errorsfeature.NewErrorLogger(logger), logger)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewAuthenticatedRequest("POST", "/devices", `{"token":"tok-1","platform":"fax"}`, "u1"))
	rec.AssertStatus(t, http.StatusAccepted)
	waitCall(t, reg.calls)

	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessage("device registration failed").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected the failure to be logged")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleRegister_EmptyToken(t *testing.T) {
	reg := &chanRegistrar{calls: make(chan call, 1)}
	logger := zap.NewNop()
	h := devices.NewHandler(reg, errorsfeature.NewErrorLogger(logger), logger)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewAuthenticatedRequest("POST", "/devices", `{"token":"  ","platform":"ios"}`, "u1"))
	rec.AssertStatus(t, http.StatusBadRequest)
	if len(reg.calls) != 0 {
		t.Error("empty token must not be registered")
	}
}

func TestRoutes_RequireSession(t *testing.T) {
	logger := zap.NewNop()
	h := devices.NewHandler(&chanRegistrar{calls: make(chan call, 1)}, errorsfeature.NewErrorLogger(logger), logger)
	router := devices.Routes(h, testutil.NewSessionManager(t))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("POST", "/", `{"token":"t","platform":"ios"}`))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
