package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"tourvisto/pkg/identity"
)

// Identity is the signed-in user a trip is attributed to.
type Identity struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
}

// Session is the authentication capability handed to nav, layout and the
// trip form. CurrentIdentity returns (nil, nil) when nobody is signed in.
type Session interface {
	CurrentIdentity(ctx context.Context) (*Identity, error)
	Logout(ctx context.Context) error
}

// AccountClient is the subset of the provider API a session needs.
type AccountClient interface {
	GetAccount(ctx context.Context, sessionID string) (*identity.Account, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Provider is a session backed by the authentication provider. It lives for
// one request and remembers the identity after the first successful lookup.
type Provider struct {
	client    AccountClient
	sessionID string

	mu       sync.Mutex
	resolved bool
	identity *Identity
}

func NewProvider(client AccountClient, sessionID string) *Provider {
	return &Provider{client: client, sessionID: sessionID}
}

// CurrentIdentity asks the provider once per Provider; provider errors are
// not remembered, so a later call retries.
func (p *Provider) CurrentIdentity(ctx context.Context) (*Identity, error) {
	if p.sessionID == "" {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return p.identity, nil
	}

	a, err := p.client.GetAccount(ctx, p.sessionID)
	switch {
	case errors.Is(err, identity.ErrNoSession):
		p.identity = nil
	case err != nil:
		return nil, err
	default:
		p.identity = &Identity{ID: a.ID, Name: a.Name, Email: a.Email, ImageURL: a.Avatar()}
	}
	p.resolved = true
	return p.identity, nil
}

func (p *Provider) Logout(ctx context.Context) error {
	if p.sessionID == "" {
		return nil
	}
	if err := p.client.DeleteSession(ctx, p.sessionID); err != nil {
		return err
	}
	p.mu.Lock()
	p.resolved, p.identity = true, nil
	p.mu.Unlock()
	return nil
}

// Anonymous is the session of a request without a valid session token.
type Anonymous struct{}

func (Anonymous) CurrentIdentity(context.Context) (*Identity, error) { return nil, nil }
func (Anonymous) Logout(context.Context) error                       { return nil }

// Resolver turns the session cookie (or a bearer token) into a Session.
type Resolver struct {
	Client     AccountClient
	Secret     string
	CookieName string
	Now        func() time.Time
}

// Resolve returns the request's session and the raw token it was built from.
// Missing or invalid tokens yield Anonymous and an empty token.
func (rs Resolver) Resolve(r *http.Request) (Session, string) {
	token := rs.token(r)
	if token == "" {
		return Anonymous{}, ""
	}
	now := time.Now
	if rs.Now != nil {
		now = rs.Now
	}
	vs, err := identity.VerifySessionToken(token, rs.Secret, now())
	if err != nil {
		return Anonymous{}, ""
	}
	return NewProvider(rs.Client, vs.SessionID), token
}

func (rs Resolver) token(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if rs.CookieName == "" {
		return ""
	}
	c, err := r.Cookie(rs.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
