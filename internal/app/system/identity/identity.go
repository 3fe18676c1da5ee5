// Package identity is the email/password and Google identity provider.
//
// It owns credentials only. Profile documents are created by listeners
// registered with OnAuthStateChanged; the bootstrap subscribes the default
// collection bootstrap to SignedUp and SignedIn.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	credentialstore "github.com/dalemusser/intikhab/internal/app/store/credentials"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLen   = 6
	MaxPasswordBytes = 72
)

// EventType is the kind of auth state change.
type EventType int

const (
	SignedUp EventType = iota + 1
	SignedIn
	SignedOut
)

func (t EventType) String() string {
	switch t {
	case SignedUp:
		return "signed_up"
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Principal is an authenticated identity.
type Principal struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`     // requested at sign-up
	DisplayName string `json:"display_name,omitempty"` // stored on the credential
	Provider    string `json:"provider"`
	Linked      bool   `json:"-"` // Google was linked to an existing credential
}

// AuthEvent is delivered to listeners.
type AuthEvent struct {
	Type      EventType
	Principal Principal
	At        time.Time
}

// Listener handles an AuthEvent. Errors are logged and do not fail the
// operation that emitted the event.
type Listener func(ctx context.Context, ev AuthEvent) error

// Credentials is the credential store.
type Credentials interface {
	Create(ctx context.Context, cred models.Credential) (models.Credential, error)
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByGoogleSubject(ctx context.Context, sub string) (*models.Credential, error)
	LinkGoogle(ctx context.Context, id, sub string) error
	TouchSignIn(ctx context.Context, id string) error
}

// Usernames reports whether a username is in use.
type Usernames interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Provider signs users up, in and out.
type Provider struct {
	creds     Credentials
	usernames Usernames
	google    GoogleExchanger
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New returns a Provider. google may be nil when Google sign-in is not
// configured.
func New(creds Credentials, usernames Usernames, google GoogleExchanger, log *zap.Logger) *Provider {
	return &Provider{
		creds:     creds,
		usernames: usernames,
		google:    google,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
		listeners: make(map[int]Listener),
	}
}

// OnAuthStateChanged registers fn and returns a func that removes it.
// Listeners run synchronously in registration order.
func (p *Provider) OnAuthStateChanged(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) emit(ctx context.Context, t EventType, pr Principal) {
	p.mu.RLock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.RUnlock()

	ev := AuthEvent{Type: t, Principal: pr, At: p.now().UTC()}
	for _, fn := range fns {
		if err := fn(ctx, ev); err != nil {
			p.log.Error("auth listener failed",
				zap.Stringer("event", t),
				zap.String("user_id", pr.UserID),
				zap.Error(err))
		}
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validatePassword(op, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return apperr.New(apperr.InvalidOperation, op, "password must be at least 6 characters")
	}
	if len(password) > MaxPasswordBytes {
		return apperr.New(apperr.InvalidOperation, op, "password is too long")
	}
	return nil
}

// SignUp creates a password credential and emits SignedUp.
func (p *Provider) SignUp(ctx context.Context, email, password, username string) (Principal, error) {
	const op = "identity.SignUp"
	email = normalize.Email(email)
	if !validEmail(email) {
		return Principal{}, apperr.New(apperr.InvalidOperation, op, "a valid email is required")
	}
	if err := validatePassword(op, password); err != nil {
		return Principal{}, err
	}
	username, err := normalize.Username(username)
	if err != nil {
		return Principal{}, apperr.Wrapf(apperr.InvalidOperation, op, err, "%s", err.Error())
	}
	taken, err := p.usernames.UsernameTaken(ctx, username)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.Internal, op, err)
	}
	if taken {
		return Principal{}, apperr.New(apperr.InvalidOperation, op, "username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.Internal, op, err)
	}
	cred, err := p.creds.Create(ctx, models.Credential{
		ID:           p.newID(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  username,
		Provider:     models.ProviderPassword,
	})
	if errors.Is(err, credentialstore.ErrDuplicateEmail) {
		return Principal{}, apperr.Wrapf(apperr.InvalidOperation, op, err, "an account with this email already exists")
	}
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.Internal, op, err)
	}

	pr := principalOf(&cred)
	pr.Username = username
	p.log.Info("user signed up", zap.String("user_id", pr.UserID), zap.String("provider", pr.Provider))
	p.emit(ctx, SignedUp, pr)
	return pr, nil
}

// errBadCredentials is shared by unknown email and wrong password so the
// two cannot be told apart.
var errBadCredentials = errors.New("invalid email or password")

// SignIn verifies an email and password and emits SignedIn.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Principal, error) {
	const op = "identity.SignIn"
	cred, err := p.creds.GetByEmail(ctx, email)
	if errors.Is(err, credentialstore.ErrNotFound) {
		// Spend comparable time on unknown emails.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Principal{}, apperr.Wrapf(apperr.Unauthenticated, op, errBadCredentials, "invalid email or password")
	}
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.Internal, op, err)
	}
	if cred.PasswordHash == "" {
		return Principal{}, apperr.Wrapf(apperr.Unauthenticated, op, errBadCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Principal{}, apperr.Wrapf(apperr.Unauthenticated, op, errBadCredentials, "invalid email or password")
	}

	if err := p.creds.TouchSignIn(ctx, cred.ID); err != nil {
		p.log.Warn("failed to record sign-in", zap.String("user_id", cred.ID), zap.Error(err))
	}
	pr := principalOf(cred)
	p.emit(ctx, SignedIn, pr)
	return pr, nil
}

// SignOut emits SignedOut. Session teardown is the caller's job.
func (p *Provider) SignOut(ctx context.Context, pr Principal) {
	if pr.UserID == "" {
		return
	}
	p.emit(ctx, SignedOut, pr)
}

func principalOf(c *models.Credential) Principal {
	return Principal{
		UserID:      c.ID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Provider:    c.Provider,
	}
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("intikhab-dummy-password"), bcrypt.DefaultCost)

// PreferredUsername picks the username for pr's profile: the one given at
// sign-up, else one derived from the display name, else from the email.
func PreferredUsername(pr Principal) string {
	candidates := []string{
		pr.Username,
		strings.Join(strings.Fields(pr.DisplayName), "_"),
		normalize.UsernameFromEmail(pr.Email),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if u, err := normalize.Username(c); err == nil {
			return u
		}
	}
	id := strings.ReplaceAll(pr.UserID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "user_" + id
}

// UsernameCandidates returns PreferredUsername(pr) followed by variants
// suffixed with growing fragments of the user id, to try in order when a
// name is taken. The list depends only on pr, so a repeated bootstrap for
// the same user walks the same names.
func UsernameCandidates(pr Principal) []string {
	base := PreferredUsername(pr)
	out := []string{base}
	id := strings.ReplaceAll(pr.UserID, "-", "")
	seen := map[string]bool{base: true}
	for _, n := range []int{6, 12} {
		if n > len(id) {
			n = len(id)
		}
		if n == 0 {
			break
		}
		suffix := "_" + id[:n]
		head := []rune(base)
		if keep := normalize.MaxUsernameRunes - utf8.RuneCountInString(suffix); len(head) > keep {
			head = head[:keep]
		}
		u, err := normalize.Username(string(head) + suffix)
		if err != nil || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
