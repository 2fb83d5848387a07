// Package session holds the signed-in identity and its ID token in memory.
// Nothing is written to disk.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskdash/internal/service"
)

// ErrSignedOut is returned by Token when there is no session.
var ErrSignedOut = errors.New("not signed in")

// ErrExpired is returned by Token once the ID token has expired.
var ErrExpired = errors.New("session expired")

type idClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithVerifier checks tokens with v on SignIn instead of only decoding them.
func WithVerifier(v service.Verifier) Option {
	return func(m *Manager) { m.verifier = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager is an in-memory session. It implements state.SessionSource and
// oauth2.TokenSource.
type Manager struct {
	verifier service.Verifier
	now      func() time.Time

	// notifyMu orders deliveries: it is held while a change is applied and
	// its listeners run, and while a new listener gets its first value.
	notifyMu sync.Mutex

	mu        sync.Mutex
	identity  *service.Identity
	token     string
	expiry    time.Time
	listeners map[int]func(*service.Identity)
	nextID    int
}

// NewManager creates a signed-out session.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		now:       time.Now,
		listeners: make(map[int]func(*service.Identity)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SignIn starts a session for the ID token and notifies listeners.
func (m *Manager) SignIn(ctx context.Context, idToken string) (service.Identity, error) {
	var claims idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return service.Identity{}, service.Unauthorized(err)
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
		if !m.now().Before(expiry) {
			return service.Identity{}, service.Unauthorized(ErrExpired)
		}
	}

	var id service.Identity
	if m.verifier != nil {
		verified, err := m.verifier.Verify(ctx, idToken)
		if err != nil {
			return service.Identity{}, err
		}
		id = verified
	} else {
		id = service.Identity{
			UID:         claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.Name,
			PhotoURL:    claims.Picture,
		}
		if id.UID == "" {
			id.UID = claims.UserID
		}
		if id.UID == "" {
			return service.Identity{}, service.Unauthorized(errors.New("token has no subject"))
		}
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.identity = &id
	m.token = idToken
	m.expiry = expiry
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range listeners {
		cp := id
		fn(&cp)
	}
	return id, nil
}

// SignOut ends the session and notifies listeners. Signing out while
// signed out does nothing.
func (m *Manager) SignOut() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return
	}
	m.identity = nil
	m.token = ""
	m.expiry = time.Time{}
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// Current returns the signed-in identity, or nil.
func (m *Manager) Current() *service.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

// OnSessionChange calls fn with the current session now and after every
// sign-in or sign-out, until unsubscribe is called. Listeners must not
// sign in or out from inside fn.
func (m *Manager) OnSessionChange(fn func(*service.Identity)) (unsubscribe func()) {
	m.notifyMu.Lock()
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	fn(m.Current())
	m.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Token implements oauth2.TokenSource with the session's ID token as the
// bearer credential.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil, ErrSignedOut
	}
	if !m.expiry.IsZero() && !m.now().Before(m.expiry) {
		return nil, ErrExpired
	}
	return &oauth2.Token{AccessToken: m.token, TokenType: "Bearer", Expiry: m.expiry}, nil
}

// TokenSource returns m as an oauth2.TokenSource.
func (m *Manager) TokenSource() oauth2.TokenSource { return m }

func (m *Manager) snapshotListeners() []func(*service.Identity) {
	out := make([]func(*service.Identity), 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}
