package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInManager(t *testing.T, verified bool) *SessionManager {
	t.Helper()
	backend := &fakeBackend{
		signInFn: func(ctx context.Context, email, password string) (*Session, error) {
			s := newVerifiedSession()
			s.EmailVerified = verified
			return s, nil
		},
	}
	m := NewSessionManager(backend, NewMemoryTokenStore())
	require.NoError(t, m.SignIn(context.Background(), "grace@school.edu", "secret123"))
	return m
}

func TestLifecycleController_ViewRouting(t *testing.T) {
	completed := &Profile{ID: uuid.New(), Completed: true}
	skipped := &Profile{ID: uuid.New(), Completed: true, Skipped: true}
	incomplete := &Profile{ID: uuid.New()}

	tests := []struct {
		name          string
		verified      bool
		signedIn      bool
		linkTriggered bool
		profile       *Profile
		want          View
	}{
		{name: "signed out", want: ViewPublicHomepage},
		{name: "unverified without link", signedIn: true, want: ViewPublicHomepage},
		{name: "unverified via link", signedIn: true, linkTriggered: true, want: ViewVerificationPending},
		{name: "verified no profile", signedIn: true, verified: true, want: ViewProfileSetup},
		{name: "verified incomplete profile", signedIn: true, verified: true, profile: incomplete, want: ViewProfileSetup},
		{name: "verified completed profile", signedIn: true, verified: true, profile: completed, want: ViewDashboard},
		{name: "verified skipped profile", signedIn: true, verified: true, profile: skipped, want: ViewDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions *SessionManager
			if tt.signedIn {
				sessions = signedInManager(t, tt.verified)
			} else {
				sessions = NewSessionManager(&fakeBackend{}, NewMemoryTokenStore())
			}

			c := NewLifecycleController(&fakeBackend{}, sessions)
			if tt.linkTriggered {
				c.MarkLinkTriggered()
			}
			if tt.profile != nil {
				c.setProfile(tt.profile)
			}

			assert.Equal(t, tt.want, c.CurrentView())
		})
	}
}

func TestLifecycleController_RefreshCreatesProfileOnFirstAccess(t *testing.T) {
	accountID := uuid.New()
	ensureCalls := 0
	backend := &fakeBackend{
		getProfileFn: func(ctx context.Context) (*Profile, error) {
			return nil, &APIError{Code: "ERR_NOT_FOUND", HTTPStatus: 404, wrapped: ErrNotFound}
		},
		ensureProfileFn: func(ctx context.Context) (*Profile, error) {
			ensureCalls++
			return &Profile{ID: uuid.New(), AccountID: accountID}, nil
		},
	}

	c := NewLifecycleController(backend, signedInManager(t, true))
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, 1, ensureCalls)
	profile, ok := c.Profile()
	require.True(t, ok)
	assert.Equal(t, accountID, profile.AccountID)
	// Fresh row is not completed yet
	assert.Equal(t, ViewProfileSetup, c.CurrentView())
}

func TestLifecycleController_RefreshFailureRoutesToSetup(t *testing.T) {
	backend := &fakeBackend{
		getProfileFn: func(ctx context.Context) (*Profile, error) {
			return nil, &TransportError{Err: errors.New("timeout")}
		},
	}

	c := NewLifecycleController(backend, signedInManager(t, true))
	c.setProfile(&Profile{Completed: true})

	err := c.Refresh(context.Background())
	require.Error(t, err)
	// A failed fetch never grants dashboard access on stale state
	_, ok := c.Profile()
	assert.False(t, ok)
	assert.Equal(t, ViewProfileSetup, c.CurrentView())
}

func TestLifecycleController_RefreshSkippedWhenUnverified(t *testing.T) {
	calls := 0
	backend := &fakeBackend{
		getProfileFn: func(ctx context.Context) (*Profile, error) {
			calls++
			return nil, nil
		},
	}

	c := NewLifecycleController(backend, signedInManager(t, false))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Zero(t, calls, "unverified sessions must not fetch the profile")
}

func TestLifecycleController_SkipRoutesToDashboardWithBanner(t *testing.T) {
	backend := &fakeBackend{
		skipProfileFn: func(ctx context.Context) (*Profile, error) {
			return &Profile{ID: uuid.New(), Completed: true, Skipped: true}, nil
		},
	}

	c := NewLifecycleController(backend, signedInManager(t, true))
	require.NoError(t, c.Skip(context.Background()))

	assert.Equal(t, ViewDashboard, c.CurrentView())
	assert.True(t, c.ShowReminderBanner())
}

func TestLifecycleController_CompleteClearsBanner(t *testing.T) {
	backend := &fakeBackend{
		completeProfileFn: func(ctx context.Context, details ProfileDetails) (*Profile, error) {
			return &Profile{ID: uuid.New(), FirstName: details.FirstName, Completed: true}, nil
		},
	}

	c := NewLifecycleController(backend, signedInManager(t, true))
	c.setProfile(&Profile{Completed: true, Skipped: true})
	require.True(t, c.ShowReminderBanner())

	require.NoError(t, c.Complete(context.Background(), ProfileDetails{FirstName: "Grace", Age: 16}))

	assert.Equal(t, ViewDashboard, c.CurrentView())
	assert.False(t, c.ShowReminderBanner())
}

func TestLifecycleController_SignOutDropsCachedProfile(t *testing.T) {
	sessions := signedInManager(t, true)
	c := NewLifecycleController(&fakeBackend{}, sessions)
	c.setProfile(&Profile{Completed: true})
	require.Equal(t, ViewDashboard, c.CurrentView())

	sessions.SignOut(context.Background())

	assert.Equal(t, ViewPublicHomepage, c.CurrentView())
	_, ok := c.Profile()
	assert.False(t, ok, "cached profile must not leak across sessions")
}
