// Package session tracks the signed-in user and their access token. A Manager
// is created once and passed to the components that need it; state changes
// are delivered to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrMissingCredentials is returned when email or password is blank.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrUnavailable wraps transport failures reaching the identity service.
	ErrUnavailable = errors.New("identity service unreachable")
)

// User is the profile of the signed-in user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Tokens is what the identity service returns on a successful sign-in.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// State is the session as seen by subscribers.
type State struct {
	User     User `json:"user"`
	SignedIn bool `json:"signedIn"`
}

// Backend is the identity service.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	SignUp(ctx context.Context, email, password, name string) error
	SignOut(ctx context.Context, accessToken string) error
}

// Manager holds at most one session.
type Manager struct {
	backend Backend
	clock   clockwork.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	tokens  *Tokens
	expires time.Time // zero when the token carries no exp claim
	expiry  clockwork.Timer
	subs    map[int]func(State)
	nextSub int
}

// NewManager creates a signed-out Manager.
func NewManager(backend Backend, clock clockwork.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		backend: backend,
		clock:   clock,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}
}

// SignIn authenticates with email and password and replaces any current session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	tokens, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Warn("sign in failed", "error", err)
		return fmt.Errorf("sign in: %w", err)
	}

	expires, _ := tokenExpiry(tokens.AccessToken)

	m.mu.Lock()
	current := &tokens
	m.tokens = current
	m.expires = expires
	m.stopExpiryLocked()
	if !expires.IsZero() {
		m.expiry = m.clock.AfterFunc(expires.Sub(m.clock.Now()), func() { m.expire(current) })
	}
	m.mu.Unlock()

	m.logger.Info("signed in", "user_id", tokens.User.ID)
	m.notify()
	return nil
}

// SignUp registers a new account and then signs in with it.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	if err := m.backend.SignUp(ctx, email, password, strings.TrimSpace(name)); err != nil {
		m.logger.Warn("sign up failed", "error", err)
		return fmt.Errorf("sign up: %w", err)
	}
	return m.SignIn(ctx, email, password)
}

// SignOut ends the session. Local state is cleared even when the identity
// service rejects the logout; the error is still returned.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	tokens := m.tokens
	m.tokens = nil
	m.expires = time.Time{}
	m.stopExpiryLocked()
	m.mu.Unlock()

	if tokens == nil {
		return nil
	}
	m.notify()

	if err := m.backend.SignOut(ctx, tokens.AccessToken); err != nil {
		m.logger.Warn("sign out failed", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	m.logger.Info("signed out", "user_id", tokens.User.ID)
	return nil
}

// expire ends the session held in tokens once its access token lapses and
// tells subscribers. A session replaced since the timer was set is left alone.
func (m *Manager) expire(tokens *Tokens) {
	m.mu.Lock()
	if m.tokens != tokens {
		m.mu.Unlock()
		return
	}
	m.tokens = nil
	m.expires = time.Time{}
	m.expiry = nil
	m.mu.Unlock()

	m.logger.Info("session expired", "user_id", tokens.User.ID)
	m.notify()
}

func (m *Manager) stopExpiryLocked() {
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
}

// Current returns the signed-in user. An expired access token counts as
// signed out.
func (m *Manager) Current() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validLocked() {
		return User{}, false
	}
	return m.tokens.User, true
}

// AccessToken returns the bearer token for the current session, if any.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.validLocked() {
		return "", false
	}
	return m.tokens.AccessToken, true
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Subscribe registers fn for state changes and calls it once with the
// current state. The returned func removes the subscription; calling it more
// than once is safe.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	st := m.stateLocked()
	m.mu.Unlock()

	fn(st)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// notify delivers the current state to every subscriber outside the lock so
// callbacks may call back into the Manager.
func (m *Manager) notify() {
	m.mu.Lock()
	st := m.stateLocked()
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (m *Manager) stateLocked() State {
	if !m.validLocked() {
		return State{}
	}
	return State{User: m.tokens.User, SignedIn: true}
}

func (m *Manager) validLocked() bool {
	if m.tokens == nil || m.tokens.AccessToken == "" {
		return false
	}
	return m.expires.IsZero() || m.clock.Now().Before(m.expires)
}
