package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	credentialstore "github.com/dalemusser/intikhab/internal/app/store/credentials"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProfile is the subset of Google's userinfo the provider uses.
type GoogleProfile struct {
	Subject       string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleExchanger runs the OAuth code flow.
type GoogleExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleProfile, error)
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth is the GoogleExchanger backed by Google's endpoints.
type GoogleOAuth struct {
	cfg     *oauth2.Config
	infoURL string
}

// NewGoogleOAuth returns nil when clientID or clientSecret is empty.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleOAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		infoURL: googleUserInfoURL,
	}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.infoURL, nil)
	if err != nil {
		return GoogleProfile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GoogleProfile{}, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}

	var info GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode user info: %w", err)
	}
	return info, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (p *Provider) GoogleEnabled() bool { return p.google != nil }

// GoogleAuthURL returns the consent screen URL for state.
func (p *Provider) GoogleAuthURL(state string) (string, error) {
	if p.google == nil {
		return "", apperr.New(apperr.InvalidOperation, "identity.GoogleAuthURL", "google sign-in is not configured")
	}
	return p.google.AuthCodeURL(state), nil
}

// SignInGoogle exchanges code and signs the Google account in. A new
// account emits SignedUp; an existing one, including one linked by email
// on this call, emits SignedIn.
func (p *Provider) SignInGoogle(ctx context.Context, code string) (Principal, EventType, error) {
	const op = "identity.SignInGoogle"
	if p.google == nil {
		return Principal{}, 0, apperr.New(apperr.InvalidOperation, op, "google sign-in is not configured")
	}
	prof, err := p.google.Exchange(ctx, code)
	if err != nil {
		return Principal{}, 0, apperr.Wrapf(apperr.Unauthenticated, op, err, "google sign-in failed")
	}
	if prof.Subject == "" || !prof.EmailVerified {
		return Principal{}, 0, apperr.New(apperr.Unauthenticated, op, "google account email is not verified")
	}

	cred, err := p.creds.GetByGoogleSubject(ctx, prof.Subject)
	if err == nil {
		return p.googleSignedIn(ctx, cred, false), SignedIn, nil
	}
	if !errors.Is(err, credentialstore.ErrNotFound) {
		return Principal{}, 0, apperr.Wrap(apperr.Internal, op, err)
	}

	cred, err = p.creds.GetByEmail(ctx, prof.Email)
	switch {
	case err == nil:
		if err := p.creds.LinkGoogle(ctx, cred.ID, prof.Subject); err != nil {
			return Principal{}, 0, apperr.Wrap(apperr.Internal, op, err)
		}
		p.log.Info("google account linked", zap.String("user_id", cred.ID))
		return p.googleSignedIn(ctx, cred, true), SignedIn, nil
	case !errors.Is(err, credentialstore.ErrNotFound):
		return Principal{}, 0, apperr.Wrap(apperr.Internal, op, err)
	}

	created, err := p.creds.Create(ctx, models.Credential{
		ID:            p.newID(),
		Email:         prof.Email,
		GoogleSubject: prof.Subject,
		DisplayName:   normalize.Name(prof.Name),
		Provider:      models.ProviderGoogle,
	})
	if err != nil {
		return Principal{}, 0, apperr.Wrap(apperr.Internal, op, err)
	}
	pr := principalOf(&created)
	p.log.Info("user signed up", zap.String("user_id", pr.UserID), zap.String("provider", pr.Provider))
	p.emit(ctx, SignedUp, pr)
	return pr, SignedUp, nil
}

func (p *Provider) googleSignedIn(ctx context.Context, cred *models.Credential, linked bool) Principal {
	if err := p.creds.TouchSignIn(ctx, cred.ID); err != nil {
		p.log.Warn("failed to record sign-in", zap.String("user_id", cred.ID), zap.Error(err))
	}
	pr := principalOf(cred)
	pr.Linked = linked
	p.emit(ctx, SignedIn, pr)
	return pr
}
