// Package identity implements the account and session use cases:
// registration, email verification, login with lockout, token refresh,
// and sign-out with token revocation.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/identity"
	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles authentication and account lifecycle operations
type AuthService struct {
	accountRepo    identity.AccountRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	mailer         Mailer
	eventPublisher shared.EventPublisher
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	accountRepo identity.AccountRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	mailer Mailer,
	eventPublisher shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accountRepo:    accountRepo,
		jwtService:     jwtService,
		blacklist:      blacklist,
		mailer:         mailer,
		eventPublisher: eventPublisher,
		config:         config,
		logger:         logger,
	}
}

// SignUp registers a new account. The account starts unverified and no
// session tokens are issued; a verification email is sent instead.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	// Validation happens before any persistence
	account, err := identity.NewAccount(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, account.Email)
	if err != nil {
		s.logger.Error("Failed to check email uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register account")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_ALREADY_REGISTERED", "This email address is already registered")
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// A concurrent signup with the same email won the race
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_ALREADY_REGISTERED", "This email address is already registered")
		}
		s.logger.Error("Failed to create account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register account")
	}

	if err := s.mailer.SendVerificationEmail(ctx, account.Email, account.VerificationToken); err != nil {
		// The account exists; the user can request a resend
		s.logger.Warn("Failed to send verification email",
			zap.String("email", account.Email),
			zap.Error(err))
	}

	s.publishDomainEvents(ctx, account)
	s.logger.Info("Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email))

	return &SignUpResult{
		AccountID: account.ID,
		Email:     account.Email,
	}, nil
}

// Login authenticates an account and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := s.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("Login attempt for unknown email", zap.String("email", input.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if account.IsLocked() {
		s.logger.Warn("Login attempt for locked account", zap.String("email", input.Email))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	}
	if account.IsDeactivated() {
		s.logger.Warn("Login attempt for deactivated account", zap.String("email", input.Email))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	if !account.VerifyPassword(input.Password) {
		locked := account.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.accountRepo.Update(ctx, account); err != nil {
			s.logger.Error("Failed to update account after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", input.Email),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("email", input.Email),
			zap.Int("failed_attempts", account.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	// Correct credentials but unconfirmed email: distinct error so the
	// client can offer the resend-verification flow
	if !account.EmailVerified {
		s.logger.Warn("Login attempt for unconfirmed email", zap.String("email", input.Email))
		return nil, shared.NewDomainError("EMAIL_UNCONFIRMED", "Please confirm your email address before signing in")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	account.RecordLoginSuccess(input.IP)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		// Don't fail the login, just log the error
		s.logger.Error("Failed to update account after successful login", zap.Error(err))
	}

	s.logger.Info("Account logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		Account:               toAccountInfo(account),
	}, nil
}

// VerifyEmail consumes a one-time verification token and marks the
// account's email as confirmed.
func (s *AuthService) VerifyEmail(ctx context.Context, input VerifyEmailInput) (*CurrentUserResult, error) {
	if input.Token == "" {
		return nil, shared.NewDomainError("INVALID_VERIFICATION_TOKEN", "Verification token is invalid")
	}

	account, err := s.accountRepo.FindByVerificationToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_VERIFICATION_TOKEN", "Verification token is invalid")
		}
		return nil, err
	}

	if err := account.ConfirmEmail(input.Token); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update account after email confirmation", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to confirm email")
	}

	s.publishDomainEvents(ctx, account)
	s.logger.Info("Email confirmed", zap.String("account_id", account.ID.String()))

	return &CurrentUserResult{Account: toAccountInfo(account)}, nil
}

// ResendVerification re-issues the verification token and sends a fresh
// email. The response is identical whether or not the account exists, to
// avoid email enumeration.
func (s *AuthService) ResendVerification(ctx context.Context, input ResendVerificationInput) error {
	account, err := s.accountRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Verification resend for unknown email", zap.String("email", input.Email))
			return nil
		}
		return err
	}

	if account.EmailVerified {
		s.logger.Info("Verification resend for already-confirmed email",
			zap.String("account_id", account.ID.String()))
		return nil
	}

	if err := account.RefreshVerificationToken(); err != nil {
		return nil
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update verification token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to resend verification email")
	}

	if err := s.mailer.SendVerificationEmail(ctx, account.Email, account.VerificationToken); err != nil {
		s.logger.Warn("Failed to send verification email",
			zap.String("email", account.Email),
			zap.Error(err))
	}

	return nil
}

// RefreshToken rotates the token pair using a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, refreshClaims.ID)
		if err != nil {
			s.logger.Error("Failed to check token blacklist", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to validate refresh token")
		}
		if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}

		invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, refreshClaims.UserID, refreshClaims.GetIssuedAtTime())
		if err != nil {
			s.logger.Error("Failed to check user token invalidation", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to validate refresh token")
		}
		if invalidated {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	userID, err := uuid.Parse(refreshClaims.UserID)
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}

	account, err := s.accountRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Account not found during token refresh", zap.String("account_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	if !account.CanLogin() {
		s.logger.Warn("Token refresh for inactive account", zap.String("account_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	// The new access token carries the account's current state
	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, account.Email, account.EmailVerified)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	s.logger.Info("Token refreshed", zap.String("account_id", userID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout revokes the presented tokens. It never fails the client
// sign-out: revocation errors are logged and swallowed so the client can
// always clear its local session.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}

	if input.AccessJTI != "" && input.AccessTTL > 0 {
		if err := s.blacklist.AddToBlacklist(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			s.logger.Warn("Failed to blacklist access token on logout",
				zap.String("account_id", input.UserID.String()),
				zap.Error(err))
		}
	}

	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Warn("Failed to blacklist refresh token on logout",
					zap.String("account_id", input.UserID.String()),
					zap.Error(err))
			}
		}
	}

	s.logger.Info("Account logged out", zap.String("account_id", input.UserID.String()))

	return nil
}

// GetCurrentUser retrieves the current account's information
func (s *AuthService) GetCurrentUser(ctx context.Context, input GetCurrentUserInput) (*CurrentUserResult, error) {
	account, err := s.accountRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	return &CurrentUserResult{Account: toAccountInfo(account)}, nil
}

// ChangePassword changes an account's password. All outstanding tokens
// for the account are invalidated.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	account, err := s.accountRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}

	if err := account.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update account after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	if s.blacklist != nil {
		ttl := s.jwtService.GetRefreshTokenExpiration()
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, account.ID.String(), ttl); err != nil {
			s.logger.Warn("Failed to invalidate outstanding tokens after password change",
				zap.String("account_id", account.ID.String()),
				zap.Error(err))
		}
	}

	s.publishDomainEvents(ctx, account)
	s.logger.Info("Password changed", zap.String("account_id", account.ID.String()))

	return nil
}

// toAccountInfo maps a domain account to its DTO
func toAccountInfo(account *identity.Account) AccountInfo {
	return AccountInfo{
		ID:            account.ID,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Status:        string(account.Status),
		CreatedAt:     account.CreatedAt,
		LastLoginAt:   account.LastLoginAt,
	}
}

// mapTokenError maps JWT validation errors to domain errors
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrInvalidToken):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}

// publishDomainEvents publishes all domain events collected on the account
func (s *AuthService) publishDomainEvents(ctx context.Context, account *identity.Account) {
	if s.eventPublisher == nil {
		return
	}
	events := account.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	account.ClearDomainEvents()
}
