// Package verification runs the poet verification workflow: curators submit
// a request, admins approve or reject it. Approval also makes the requester
// a poet and creates their poet profile, in the same transaction.
package verification

import (
	"context"
	"errors"
	"time"

	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	verificationstore "github.com/dalemusser/intikhab/internal/app/store/verifications"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/app/system/txn"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Text limits, in bytes after sanitizing.
const (
	MaxFullName     = 200
	MaxBio          = 4000
	MaxSampleGhazal = 20000
)

// DefaultListLimit bounds ListPending.
const DefaultListLimit = 100

// Requests is the verification request store.
type Requests interface {
	Create(ctx context.Context, req models.PoetVerificationRequest) error
	GetByID(ctx context.Context, id string) (*models.PoetVerificationRequest, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]models.PoetVerificationRequest, error)
	Decide(ctx context.Context, id string, status models.VerificationStatus, by string, at time.Time) error
}

// Accounts reads and updates user account types.
type Accounts interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetAccountType(ctx context.Context, id string, t models.AccountType) error
}

// PoetProfiles creates poet profiles for approved users.
type PoetProfiles interface {
	EnsureForUser(ctx context.Context, userID, name, bio string) error
}

// Runner runs fn as one transaction.
type Runner func(ctx context.Context, fn txn.Fn) error

// Service is the verification workflow.
type Service struct {
	requests Requests
	accounts Accounts
	poets    PoetProfiles
	run      Runner
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

// New returns a Service.
func New(requests Requests, accounts Accounts, poets PoetProfiles, run Runner, log *zap.Logger) *Service {
	return &Service{
		requests: requests,
		accounts: accounts,
		poets:    poets,
		run:      run,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submission is the curator's input.
type Submission struct {
	FullName     string `json:"fullName"`
	Bio          string `json:"bio"`
	SampleGhazal string `json:"sampleGhazal"`
}

func (s Submission) clean() Submission {
	return Submission{
		FullName:     normalize.Name(htmlsanitize.PlainText(s.FullName)),
		Bio:          htmlsanitize.PlainText(s.Bio),
		SampleGhazal: htmlsanitize.PlainText(s.SampleGhazal),
	}
}

func (s Submission) validate(op string) error {
	if s.FullName == "" || s.Bio == "" || s.SampleGhazal == "" {
		return apperr.New(apperr.InvalidOperation, op, "full name, bio and sample ghazal are required")
	}
	if len(s.FullName) > MaxFullName || len(s.Bio) > MaxBio || len(s.SampleGhazal) > MaxSampleGhazal {
		return apperr.New(apperr.InvalidOperation, op, "submission is too long")
	}
	return nil
}

// Submit creates a pending request for the signed-in curator.
func (s *Service) Submit(ctx context.Context, sess auth.Session, in Submission) (*models.PoetVerificationRequest, error) {
	const op = "verification.Submit"
	if !sess.SignedIn() {
		return nil, apperr.New(apperr.Unauthenticated, op, "sign in to continue")
	}
	in = in.clean()
	if err := in.validate(op); err != nil {
		return nil, err
	}

	u, err := s.accounts.GetByID(ctx, sess.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.Wrapf(apperr.NotFound, op, err, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	if u.AccountType == models.AccountPoet {
		return nil, apperr.New(apperr.InvalidOperation, op, "account is already a verified poet")
	}
	pending, err := s.requests.HasPending(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	if pending {
		return nil, apperr.New(apperr.InvalidOperation, op, "a verification request is already pending")
	}

	req := models.PoetVerificationRequest{
		ID:           s.newID(),
		UserID:       sess.UserID,
		FullName:     in.FullName,
		Bio:          in.Bio,
		SampleGhazal: in.SampleGhazal,
		Status:       models.VerificationPending,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	s.log.Info("verification request submitted",
		zap.String("user_id", req.UserID),
		zap.String("request_id", req.ID))
	return &req, nil
}

func requireAdmin(op string, sess auth.Session) error {
	if !sess.SignedIn() {
		return apperr.New(apperr.Unauthenticated, op, "sign in to continue")
	}
	if !sess.IsAdmin {
		return apperr.New(apperr.PermissionDenied, op, "admins only")
	}
	return nil
}

// ListPending returns pending requests, newest first. Admins only.
func (s *Service) ListPending(ctx context.Context, sess auth.Session, limit int) ([]models.PoetVerificationRequest, error) {
	const op = "verification.ListPending"
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	out, err := s.requests.ListPending(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return out, nil
}

// Approve marks the request approved, makes the requester a poet and creates
// their poet profile. Admins only.
func (s *Service) Approve(ctx context.Context, sess auth.Session, id string) (*models.PoetVerificationRequest, error) {
	return s.decide(ctx, "verification.Approve", sess, id, models.VerificationApproved)
}

// Reject marks the request rejected. The account type is left alone.
// Admins only.
func (s *Service) Reject(ctx context.Context, sess auth.Session, id string) (*models.PoetVerificationRequest, error) {
	return s.decide(ctx, "verification.Reject", sess, id, models.VerificationRejected)
}

func (s *Service) decide(ctx context.Context, op string, sess auth.Session, id string, status models.VerificationStatus) (*models.PoetVerificationRequest, error) {
	if err := requireAdmin(op, sess); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, verificationstore.ErrNotFound) {
		return nil, apperr.Wrapf(apperr.NotFound, op, err, "verification request not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	if !req.Status.CanBecome(status) {
		return nil, apperr.New(apperr.InvalidOperation, op, "request has already been decided")
	}

	at := s.now().UTC()
	err = s.run(ctx, func(ctx context.Context) error {
		if err := s.requests.Decide(ctx, id, status, sess.UserID, at); err != nil {
			return err
		}
		if status != models.VerificationApproved {
			return nil
		}
		if err := s.accounts.SetAccountType(ctx, req.UserID, models.AccountPoet); err != nil {
			return err
		}
		return s.poets.EnsureForUser(ctx, req.UserID, req.FullName, req.Bio)
	})
	switch {
	case errors.Is(err, verificationstore.ErrAlreadyDecided):
		return nil, apperr.Wrapf(apperr.InvalidOperation, op, err, "request has already been decided")
	case errors.Is(err, userstore.ErrNotFound):
		return nil, apperr.Wrapf(apperr.SyncFailed, op, err, "requesting user no longer exists")
	case err != nil:
		s.log.Error("verification decision failed",
			zap.String("request_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, apperr.Wrap(apperr.SyncFailed, op, err)
	}

	req.Status = status
	req.DecidedAt = &at
	req.DecidedBy = sess.UserID
	s.log.Info("verification request decided",
		zap.String("request_id", id),
		zap.String("user_id", req.UserID),
		zap.String("status", string(status)),
		zap.String("admin_id", sess.UserID))
	return req, nil
}
