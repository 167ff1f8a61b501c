package identity

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountStatusPending     AccountStatus = "pending"     // Registered, email not yet confirmed
	AccountStatusActive      AccountStatus = "active"      // Email confirmed, normal status
	AccountStatusLocked      AccountStatus = "locked"      // Locked due to failed login attempts
	AccountStatusDeactivated AccountStatus = "deactivated" // Manually deactivated
)

// Password cost for bcrypt
const bcryptCost = 12

// Verification tokens are valid for this long after issuance.
const VerificationTokenTTL = 24 * time.Hour

// Account represents a registered user of the platform.
// It is the aggregate root for authentication and account lifecycle.
type Account struct {
	shared.BaseAggregateRoot
	Email                 string
	PasswordHash          string
	Status                AccountStatus
	EmailVerified         bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	LastLoginAt           *time.Time
	LastLoginIP           string
	FailedAttempts        int
	LockedUntil           *time.Time
	PasswordChangedAt     *time.Time
}

// NewAccount registers a new account. The account starts pending with a
// fresh email verification token; it cannot sign in until the email is
// confirmed.
func NewAccount(email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	account := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      passwordHash,
		Status:            AccountStatusPending,
		PasswordChangedAt: &now,
	}
	account.issueVerificationToken()

	account.AddDomainEvent(NewAccountRegisteredEvent(account))

	return account, nil
}

// issueVerificationToken generates a new one-time email verification token.
func (a *Account) issueVerificationToken() {
	a.VerificationToken = generateToken()
	expires := time.Now().Add(VerificationTokenTTL)
	a.VerificationExpiresAt = &expires
}

// RefreshVerificationToken replaces the current verification token with a
// fresh one. Used when the user requests the confirmation email again.
func (a *Account) RefreshVerificationToken() error {
	if a.EmailVerified {
		return shared.NewDomainError("EMAIL_ALREADY_CONFIRMED", "Email address is already confirmed")
	}
	a.issueVerificationToken()
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// ConfirmEmail confirms the account's email address with a verification
// token. A confirmed account transitions from pending to active.
func (a *Account) ConfirmEmail(token string) error {
	if a.EmailVerified {
		return shared.NewDomainError("EMAIL_ALREADY_CONFIRMED", "Email address is already confirmed")
	}
	if a.VerificationToken == "" || token != a.VerificationToken {
		return shared.NewDomainError("INVALID_VERIFICATION_TOKEN", "Verification token is invalid")
	}
	if a.VerificationExpiresAt != nil && time.Now().After(*a.VerificationExpiresAt) {
		return shared.NewDomainError("VERIFICATION_TOKEN_EXPIRED", "Verification token has expired")
	}

	a.EmailVerified = true
	a.VerificationToken = ""
	a.VerificationExpiresAt = nil
	if a.Status == AccountStatusPending {
		a.Status = AccountStatusActive
	}
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountEmailConfirmedEvent(a))

	return nil
}

// ChangePassword changes the account's password after verifying the old one
func (a *Account) ChangePassword(oldPassword, newPassword string) error {
	if !a.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return a.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (a *Account) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	a.PasswordHash = passwordHash
	now := time.Now()
	a.PasswordChangedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountPasswordChangedEvent(a))

	return nil
}

// VerifyPassword verifies if the provided password matches
func (a *Account) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// Deactivate deactivates the account
func (a *Account) Deactivate() error {
	if a.Status == AccountStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "Account is already deactivated")
	}

	a.Status = AccountStatusDeactivated
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountDeactivatedEvent(a))

	return nil
}

// Lock locks the account for the given duration
func (a *Account) Lock(duration time.Duration) error {
	if a.Status == AccountStatusDeactivated {
		return shared.NewDomainError("ACCOUNT_DEACTIVATED", "Cannot lock a deactivated account")
	}

	a.Status = AccountStatusLocked
	if duration > 0 {
		lockedUntil := time.Now().Add(duration)
		a.LockedUntil = &lockedUntil
	}
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Unlock unlocks the account
func (a *Account) Unlock() error {
	if a.Status != AccountStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "Account is not locked")
	}

	a.Status = AccountStatusActive
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// RecordLoginSuccess records a successful login
func (a *Account) RecordLoginSuccess(ip string) {
	now := time.Now()
	a.LastLoginAt = &now
	a.LastLoginIP = ip
	a.FailedAttempts = 0
	a.UpdatedAt = now
	a.IncrementVersion()
}

// RecordLoginFailure records a failed login attempt.
// Returns true if the account was locked as a result.
func (a *Account) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	a.FailedAttempts++
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	if a.FailedAttempts >= maxAttempts {
		_ = a.Lock(lockDuration)
		return true
	}

	return false
}

// IsActive returns true if the account is active
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsLocked returns true if the account is currently locked
func (a *Account) IsLocked() bool {
	if a.Status != AccountStatusLocked {
		return false
	}

	// Expired locks no longer count
	if a.LockedUntil != nil && time.Now().After(*a.LockedUntil) {
		return false
	}

	return true
}

// IsDeactivated returns true if the account is deactivated
func (a *Account) IsDeactivated() bool {
	return a.Status == AccountStatusDeactivated
}

// IsPending returns true if the account is awaiting email confirmation
func (a *Account) IsPending() bool {
	return a.Status == AccountStatusPending
}

// CanLogin returns true if the account is allowed to sign in
func (a *Account) CanLogin() bool {
	if a.Status == AccountStatusDeactivated {
		return false
	}
	if !a.EmailVerified {
		return false
	}
	if a.IsLocked() {
		return false
	}
	return true
}

// Validation functions

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// time-derived token rather than panicking
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(bytes)
}
