package identity

import (
	"time"

	"github.com/google/uuid"
)

// SignUpInput contains the input for account registration
type SignUpInput struct {
	Email    string
	Password string
	IP       string
}

// SignUpResult is returned after a successful registration. No session
// tokens are issued until the email address is confirmed.
type SignUpResult struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
}

// LoginInput contains login credentials
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// AccountInfo contains account information returned to clients
type AccountInfo struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string      `json:"access_token"`
	RefreshToken          string      `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time   `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time   `json:"refresh_token_expires_at"`
	TokenType             string      `json:"token_type"`
	Account               AccountInfo `json:"account"`
}

// VerifyEmailInput contains the one-time verification token
type VerifyEmailInput struct {
	Token string
}

// ResendVerificationInput contains the email to re-send verification to
type ResendVerificationInput struct {
	Email string
}

// RefreshTokenInput contains the refresh token
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the rotated token pair
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput identifies the tokens to revoke on sign-out
type LogoutInput struct {
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

// GetCurrentUserInput identifies the account to load
type GetCurrentUserInput struct {
	UserID uuid.UUID
}

// CurrentUserResult contains the current account's information
type CurrentUserResult struct {
	Account AccountInfo `json:"account"`
}

// ChangePasswordInput contains input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}
