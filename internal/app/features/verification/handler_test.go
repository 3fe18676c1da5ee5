package verification_test

import (
	"context"
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/features/verification"
	"github.com/dalemusser/intikhab/internal/app/store/audit"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auditlog"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	verificationsvc "github.com/dalemusser/intikhab/internal/app/system/verification"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.uber.org/zap"
)

type fakeSubmitter struct{}

func (fakeSubmitter) Submit(_ context.Context, sess auth.Session, in verificationsvc.Submission) (*models.PoetVerificationRequest, error) {
	if in.FullName == "" {
		return nil, apperr.New(apperr.InvalidOperation, "verification.Submit", "full name, bio and sample ghazal are required")
	}
	return &models.PoetVerificationRequest{
		ID:       "req-1",
		UserID:   sess.UserID,
		FullName: in.FullName,
		Status:   models.VerificationPending,
	}, nil
}

type memSink struct{ events []audit.Event }

func (m *memSink) Log(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func newTestHandler() (*verification.Handler, *memSink) {
	logger := zap.NewNop()
	sink := &memSink{}
	al := auditlog.New(sink, logger, auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
	return verification.NewHandler(fakeSubmitter{}, al, errorsfeature.NewErrorLogger(logger), logger), sink
}

func TestHandleSubmit(t *testing.T) {
	h, sink := newTestHandler()

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec, testutil.NewAuthenticatedRequest("POST", "/verification-requests",
		`{"fullName":"Parveen Shakir","bio":"Khushbu","sampleGhazal":"kuch to hawa bhi sard thi"}`, "u1"))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"pending"`)

	if len(sink.events) != 1 {
		t.Fatalf("audit events: got %d, want 1", len(sink.events))
	}
	e := sink.events[0]
	if e.EventType != audit.EventVerificationSubmitted || e.UserID != "u1" || e.Details["request_id"] != "req-1" {
		t.Errorf("audit event: %+v", e)
	}
}

func TestHandleSubmit_Invalid(t *testing.T) {
	h, sink := newTestHandler()

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec, testutil.NewAuthenticatedRequest("POST", "/verification-requests", `{"bio":"x"}`, "u1"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.HandleSubmit(rec, testutil.NewAuthenticatedRequest("POST", "/verification-requests", `not json`, "u1"))
	rec.AssertStatus(t, http.StatusBadRequest)

	if len(sink.events) != 0 {
		t.Errorf("failed submissions must not be audited, got %d events", len(sink.events))
	}
}

func TestRoutes_RequireSession(t *testing.T) {
	h, _ := newTestHandler()
	router := verification.Routes(h, testutil.NewSessionManager(t))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("POST", "/", `{"fullName":"x"}`))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
