package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("creates account with valid email and password", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")

		require.NoError(t, err)
		assert.NotNil(t, account)
		assert.Equal(t, "student@school.edu", account.Email)
		assert.NotEmpty(t, account.PasswordHash)
		assert.Equal(t, AccountStatusPending, account.Status)
		assert.False(t, account.EmailVerified)
		assert.NotEmpty(t, account.VerificationToken)
		assert.NotNil(t, account.VerificationExpiresAt)
		assert.NotNil(t, account.PasswordChangedAt)

		// Should have domain event
		events := account.GetDomainEvents()
		assert.Len(t, events, 1)
		_, ok := events[0].(*AccountRegisteredEvent)
		assert.True(t, ok)
	})

	t.Run("normalizes email to lowercase", func(t *testing.T) {
		account, err := NewAccount("Student@School.EDU", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "student@school.edu", account.Email)
	})

	t.Run("trims email whitespace", func(t *testing.T) {
		account, err := NewAccount("  student@school.edu  ", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "student@school.edu", account.Email)
	})

	t.Run("fails with empty email", func(t *testing.T) {
		_, err := NewAccount("", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with invalid email format", func(t *testing.T) {
		_, err := NewAccount("not-an-email", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email format")
	})

	t.Run("fails with empty password", func(t *testing.T) {
		_, err := NewAccount("student@school.edu", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewAccount("student@school.edu", "abc12")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})
}

func TestAccountConfirmEmail(t *testing.T) {
	t.Run("confirms email with valid token", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		account.ClearDomainEvents()

		token := account.VerificationToken
		err = account.ConfirmEmail(token)

		require.NoError(t, err)
		assert.True(t, account.EmailVerified)
		assert.Equal(t, AccountStatusActive, account.Status)
		assert.Empty(t, account.VerificationToken)
		assert.Nil(t, account.VerificationExpiresAt)

		events := account.GetDomainEvents()
		assert.Len(t, events, 1)
		_, ok := events[0].(*AccountEmailConfirmedEvent)
		assert.True(t, ok)
	})

	t.Run("fails with wrong token", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		err = account.ConfirmEmail("bogus")

		assert.Error(t, err)
		assert.False(t, account.EmailVerified)
	})

	t.Run("fails with expired token", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		expired := time.Now().Add(-time.Hour)
		account.VerificationExpiresAt = &expired

		err = account.ConfirmEmail(account.VerificationToken)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
		assert.False(t, account.EmailVerified)
	})

	t.Run("fails when already confirmed", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		require.NoError(t, account.ConfirmEmail(account.VerificationToken))

		err = account.ConfirmEmail("anything")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already confirmed")
	})
}

func TestAccountRefreshVerificationToken(t *testing.T) {
	t.Run("issues a fresh token", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		old := account.VerificationToken
		require.NoError(t, account.RefreshVerificationToken())

		assert.NotEmpty(t, account.VerificationToken)
		assert.NotEqual(t, old, account.VerificationToken)
	})

	t.Run("fails when already confirmed", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		require.NoError(t, account.ConfirmEmail(account.VerificationToken))

		err = account.RefreshVerificationToken()

		assert.Error(t, err)
	})
}

func TestAccountPassword(t *testing.T) {
	t.Run("verifies correct password", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		assert.True(t, account.VerifyPassword("secret1"))
		assert.False(t, account.VerifyPassword("wrong"))
	})

	t.Run("changes password with correct old password", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		account.ClearDomainEvents()

		err = account.ChangePassword("secret1", "newsecret2")

		require.NoError(t, err)
		assert.True(t, account.VerifyPassword("newsecret2"))
		assert.False(t, account.VerifyPassword("secret1"))

		events := account.GetDomainEvents()
		assert.Len(t, events, 1)
		_, ok := events[0].(*AccountPasswordChangedEvent)
		assert.True(t, ok)
	})

	t.Run("fails to change password with wrong old password", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		err = account.ChangePassword("wrong", "newsecret2")

		assert.Error(t, err)
		assert.True(t, account.VerifyPassword("secret1"))
	})
}

func TestAccountLockout(t *testing.T) {
	newConfirmed := func(t *testing.T) *Account {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		require.NoError(t, account.ConfirmEmail(account.VerificationToken))
		return account
	}

	t.Run("locks after max failed attempts", func(t *testing.T) {
		account := newConfirmed(t)

		locked := false
		for i := 0; i < 5; i++ {
			locked = account.RecordLoginFailure(5, 15*time.Minute)
		}

		assert.True(t, locked)
		assert.True(t, account.IsLocked())
		assert.False(t, account.CanLogin())
	})

	t.Run("does not lock below max attempts", func(t *testing.T) {
		account := newConfirmed(t)

		locked := account.RecordLoginFailure(5, 15*time.Minute)

		assert.False(t, locked)
		assert.False(t, account.IsLocked())
		assert.True(t, account.CanLogin())
	})

	t.Run("expired lock no longer blocks login", func(t *testing.T) {
		account := newConfirmed(t)
		require.NoError(t, account.Lock(time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		assert.False(t, account.IsLocked())
	})

	t.Run("login success resets failed attempts", func(t *testing.T) {
		account := newConfirmed(t)
		account.RecordLoginFailure(5, 15*time.Minute)
		account.RecordLoginFailure(5, 15*time.Minute)

		account.RecordLoginSuccess("127.0.0.1")

		assert.Equal(t, 0, account.FailedAttempts)
		assert.NotNil(t, account.LastLoginAt)
		assert.Equal(t, "127.0.0.1", account.LastLoginIP)
	})

	t.Run("unlock restores active status", func(t *testing.T) {
		account := newConfirmed(t)
		require.NoError(t, account.Lock(time.Hour))

		require.NoError(t, account.Unlock())

		assert.Equal(t, AccountStatusActive, account.Status)
		assert.True(t, account.CanLogin())
	})
}

func TestAccountCanLogin(t *testing.T) {
	t.Run("pending account cannot login", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)

		assert.False(t, account.CanLogin())
	})

	t.Run("deactivated account cannot login", func(t *testing.T) {
		account, err := NewAccount("student@school.edu", "secret1")
		require.NoError(t, err)
		require.NoError(t, account.ConfirmEmail(account.VerificationToken))
		require.NoError(t, account.Deactivate())

		assert.False(t, account.CanLogin())
	})
}
