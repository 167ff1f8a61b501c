package client

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// View is the top-level screen the presentation layer should render.
type View string

const (
	ViewPublicHomepage      View = "public_homepage"
	ViewVerificationPending View = "verification_pending"
	ViewProfileSetup        View = "profile_setup"
	ViewDashboard           View = "dashboard"
)

// LifecycleController decides which top-level view to show from the
// session state and the fetched profile, and performs the idempotent
// profile create on first verified access.
type LifecycleController struct {
	backend  Backend
	sessions *SessionManager
	logger   *zap.Logger

	mu            sync.RWMutex
	profile       *Profile
	linkTriggered bool // user arrived through an emailed verification link
}

// LifecycleOption is a functional option for the controller.
type LifecycleOption func(*LifecycleController)

// WithLifecycleLogger sets the logger.
func WithLifecycleLogger(logger *zap.Logger) LifecycleOption {
	return func(c *LifecycleController) {
		c.logger = logger
	}
}

// NewLifecycleController creates a controller bound to a session
// manager. It drops cached profile state whenever the session changes.
func NewLifecycleController(backend Backend, sessions *SessionManager, opts ...LifecycleOption) *LifecycleController {
	c := &LifecycleController{
		backend:  backend,
		sessions: sessions,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	sessions.OnChange(func(event SessionEvent) {
		if event.State == StateUnauthenticated || event.State == StateAuthenticating {
			c.mu.Lock()
			c.profile = nil
			c.mu.Unlock()
		}
	})

	return c
}

// MarkLinkTriggered records that the user navigated in via a
// verification link, which routes unverified sessions to the pending
// screen instead of the public homepage.
func (c *LifecycleController) MarkLinkTriggered() {
	c.mu.Lock()
	c.linkTriggered = true
	c.mu.Unlock()
}

// CurrentView is a pure function of the session state and the cached
// profile. A verified session with no profile, or with an incomplete
// one, routes to setup; any earlier profile fetch failure also lands
// there rather than granting dashboard access.
func (c *LifecycleController) CurrentView() View {
	state := c.sessions.State()

	c.mu.RLock()
	profile := c.profile
	linkTriggered := c.linkTriggered
	c.mu.RUnlock()

	switch state {
	case StateUnauthenticated, StateAuthenticating:
		return ViewPublicHomepage
	case StateAuthenticatedUnverified:
		if linkTriggered {
			return ViewVerificationPending
		}
		return ViewPublicHomepage
	case StateAuthenticatedVerified:
		if profile == nil || !profile.Completed {
			return ViewProfileSetup
		}
		return ViewDashboard
	default:
		return ViewPublicHomepage
	}
}

// Profile returns the cached profile, if fetched.
func (c *LifecycleController) Profile() (*Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil, false
	}
	p := *c.profile
	return &p, true
}

// ShowReminderBanner reports whether the non-blocking "finish your
// profile" reminder applies: setup was skipped rather than completed.
func (c *LifecycleController) ShowReminderBanner() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile != nil && c.profile.Skipped
}

// Refresh loads the profile for a verified session, creating the row on
// first access. Fetch or create failures log and leave the profile
// absent, so CurrentView falls back to setup.
func (c *LifecycleController) Refresh(ctx context.Context) error {
	if c.sessions.State() != StateAuthenticatedVerified {
		return nil
	}

	profile, err := c.backend.GetProfile(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("Profile fetch failed, routing to setup", zap.Error(err))
			c.setProfile(nil)
			return err
		}
		// First verified access: create the row. A duplicate-key race with
		// another tab is success by contract.
		profile, err = c.backend.EnsureProfile(ctx)
		if err != nil {
			c.logger.Warn("Profile create failed, routing to setup", zap.Error(err))
			c.setProfile(nil)
			return err
		}
	}

	c.setProfile(profile)
	return nil
}

// Complete submits the setup form and caches the result.
func (c *LifecycleController) Complete(ctx context.Context, details ProfileDetails) error {
	profile, err := c.backend.CompleteProfile(ctx, details)
	if err != nil {
		return err
	}
	c.setProfile(profile)
	return nil
}

// Skip marks setup as skipped. The profile counts as completed for
// routing but keeps the skipped flag for the reminder banner.
func (c *LifecycleController) Skip(ctx context.Context) error {
	profile, err := c.backend.SkipProfile(ctx)
	if err != nil {
		return err
	}
	c.setProfile(profile)
	return nil
}

func (c *LifecycleController) setProfile(p *Profile) {
	c.mu.Lock()
	c.profile = p
	c.mu.Unlock()
}
