package client

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SessionState is the session lifecycle state.
type SessionState string

const (
	StateUnauthenticated         SessionState = "unauthenticated"
	StateAuthenticating          SessionState = "authenticating"
	StateAuthenticatedUnverified SessionState = "authenticated_unverified"
	StateAuthenticatedVerified   SessionState = "authenticated_verified"
)

// SessionEvent is pushed to OnChange subscribers on every transition.
type SessionEvent struct {
	State   SessionState
	Session *Session // nil unless authenticated
}

const minPasswordLength = 6

// SessionManager owns the current session and its lifecycle:
// Unauthenticated -> Authenticating -> AuthenticatedUnverified |
// AuthenticatedVerified -> Unauthenticated. It persists tokens in the
// injected TokenStore and clears exactly those keys on teardown.
type SessionManager struct {
	backend Backend
	store   TokenStore
	logger  *zap.Logger

	mu          sync.RWMutex
	state       SessionState
	session     *Session
	pendingMail string // email awaiting verification after sign-up
	seed        ProfileSeed
	subscribers []func(SessionEvent)
}

// SessionManagerOption is a functional option for the session manager.
type SessionManagerOption func(*SessionManager)

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *zap.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		m.logger = logger
	}
}

// NewSessionManager creates a session manager starting Unauthenticated.
func NewSessionManager(backend Backend, store TokenStore, opts ...SessionManagerOption) *SessionManager {
	m := &SessionManager{
		backend: backend,
		store:   store,
		logger:  zap.NewNop(),
		state:   StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the active session, if any.
func (m *SessionManager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, false
	}
	s := *m.session
	return &s, true
}

// PendingVerificationEmail returns the address awaiting confirmation
// after a sign-up, or empty.
func (m *SessionManager) PendingVerificationEmail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingMail
}

// Seed returns the profile fields collected at sign-up, for prefilling
// the setup form.
func (m *SessionManager) Seed() ProfileSeed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seed
}

// AccessToken implements TokenSource for the HTTP backend.
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Tokens.AccessToken
}

// OnChange registers a subscriber for session transitions. Subscribers
// are invoked synchronously from the mutating call, outside the lock.
func (m *SessionManager) OnChange(fn func(SessionEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *SessionManager) notify() {
	m.mu.RLock()
	event := SessionEvent{State: m.state}
	if m.session != nil {
		s := *m.session
		event.Session = &s
	}
	subs := make([]func(SessionEvent), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}

// SignUp registers a new account. Validation runs before any network
// call. On success no session is granted; the email must be confirmed
// first and the manager records it as pending.
func (m *SessionManager) SignUp(ctx context.Context, email, password string, seed ProfileSeed) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	if err := m.backend.SignUp(ctx, email, password); err != nil {
		return err
	}

	m.mu.Lock()
	m.pendingMail = email
	m.seed = seed
	m.mu.Unlock()

	m.logger.Info("Account registered, verification pending", zap.String("email", email))
	m.notify()
	return nil
}

// SignIn authenticates and establishes the session.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()
	m.notify()

	session, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.state = StateUnauthenticated
		m.session = nil
		m.mu.Unlock()
		m.notify()
		return err
	}

	m.establish(session)
	m.notify()
	return nil
}

// establish stores the session, derives the state from the verified
// flag, and persists the tokens.
func (m *SessionManager) establish(session *Session) {
	m.mu.Lock()
	m.session = session
	m.pendingMail = ""
	if session.EmailVerified {
		m.state = StateAuthenticatedVerified
	} else {
		m.state = StateAuthenticatedUnverified
	}
	m.mu.Unlock()

	if err := m.store.Save(session.Tokens); err != nil {
		m.logger.Warn("Failed to persist session tokens", zap.Error(err))
	}
}

// SignOut ends the session. The backend call is best-effort: whatever
// happens remotely, the local session and the persisted tokens are
// cleared and the final state is Unauthenticated. Never returns an
// error.
func (m *SessionManager) SignOut(ctx context.Context) {
	m.mu.RLock()
	var refreshToken string
	if m.session != nil {
		refreshToken = m.session.Tokens.RefreshToken
	}
	signedIn := m.session != nil
	m.mu.RUnlock()

	if signedIn {
		if err := m.backend.SignOut(ctx, refreshToken); err != nil {
			// Local invalidation is the fallback; the server-side session
			// expires on its own schedule.
			m.logger.Warn("Remote sign-out failed, invalidating locally", zap.Error(err))
		}
	}

	m.teardown()
	m.notify()
}

// teardown clears the session and exactly the keys this manager owns in
// the token store.
func (m *SessionManager) teardown() {
	m.mu.Lock()
	m.session = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Failed to clear token store", zap.Error(err))
	}
}

// Resume restores a session from persisted tokens at startup. Returns
// false when no usable tokens exist; expired or revoked tokens are
// cleared silently.
func (m *SessionManager) Resume(ctx context.Context) (bool, error) {
	tokens, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if tokens == nil || tokens.RefreshToken == "" {
		return false, nil
	}

	fresh, err := m.backend.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		if IsTransport(err) {
			return false, err
		}
		// Stale tokens; drop them
		_ = m.store.Clear()
		return false, nil
	}

	m.mu.Lock()
	m.session = &Session{Tokens: *fresh}
	m.mu.Unlock()

	account, err := m.backend.Me(ctx)
	if err != nil {
		m.teardown()
		return false, err
	}

	m.establish(&Session{
		AccountID:     account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Tokens:        *fresh,
	})
	m.notify()
	return true, nil
}

// RefreshSession exchanges the refresh token for a new pair. A rejected
// refresh is a remote sign-out: the session is torn down.
func (m *SessionManager) RefreshSession(ctx context.Context) error {
	m.mu.RLock()
	if m.session == nil {
		m.mu.RUnlock()
		return ErrUnauthorized
	}
	refreshToken := m.session.Tokens.RefreshToken
	m.mu.RUnlock()

	fresh, err := m.backend.Refresh(ctx, refreshToken)
	if err != nil {
		if !IsTransport(err) {
			m.teardown()
			m.notify()
		}
		return err
	}

	m.mu.Lock()
	m.session.Tokens = *fresh
	m.mu.Unlock()

	if err := m.store.Save(*fresh); err != nil {
		m.logger.Warn("Failed to persist refreshed tokens", zap.Error(err))
	}
	m.notify()
	return nil
}

// CompleteVerification redeems an emailed verification token and, when a
// session is active, promotes it to verified. This is the out-of-band
// transition from AuthenticatedUnverified to AuthenticatedVerified.
func (m *SessionManager) CompleteVerification(ctx context.Context, token string) error {
	if err := m.backend.VerifyEmail(ctx, token); err != nil {
		return err
	}

	m.mu.Lock()
	m.pendingMail = ""
	if m.session != nil {
		m.session.EmailVerified = true
		m.state = StateAuthenticatedVerified
	}
	m.mu.Unlock()

	m.notify()
	return nil
}

// ResendVerification requests a fresh verification email for the pending
// address (or the given one).
func (m *SessionManager) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		email = m.PendingVerificationEmail()
	}
	if email == "" {
		return ErrInvalidEmail
	}
	return m.backend.ResendVerification(ctx, email)
}

var _ TokenSource = (*SessionManager)(nil)
