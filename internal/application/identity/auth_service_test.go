package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/identity"
	"github.com/scholarconnect/backend/internal/domain/shared"
	"github.com/scholarconnect/backend/internal/infrastructure/auth"
	"github.com/scholarconnect/backend/internal/infrastructure/config"
)

// ============================================================================
// Mocks
// ============================================================================

// MockAccountRepository is a mock implementation of identity.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByVerificationToken(ctx context.Context, token string) (*identity.Account, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var _ identity.AccountRepository = (*MockAccountRepository)(nil)

// MockMailer is a mock implementation of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

var _ Mailer = (*MockMailer)(nil)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-auth-service",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "scholarconnect-test",
		MaxRefreshCount:        10,
	})
}

func newTestAuthService() (*AuthService, *MockAccountRepository, *MockMailer, *auth.InMemoryTokenBlacklist) {
	mockRepo := new(MockAccountRepository)
	mockMailer := new(MockMailer)
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := NewAuthService(
		mockRepo,
		newTestJWTService(),
		blacklist,
		mockMailer,
		nil,
		DefaultAuthServiceConfig(),
		zap.NewNop(),
	)
	return service, mockRepo, mockMailer, blacklist
}

func createVerifiedAccount(t *testing.T, email, password string) *identity.Account {
	t.Helper()
	account, err := identity.NewAccount(email, password)
	require.NoError(t, err)
	require.NoError(t, account.ConfirmEmail(account.VerificationToken))
	account.ClearDomainEvents()
	return account
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

// ============================================================================
// SignUp Tests
// ============================================================================

func TestAuthService_SignUp_Success(t *testing.T) {
	service, mockRepo, mockMailer, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("ExistsByEmail", ctx, "new@school.edu").Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*identity.Account")).Return(nil)
	mockMailer.On("SendVerificationEmail", ctx, "new@school.edu", mock.AnythingOfType("string")).Return(nil)

	result, err := service.SignUp(ctx, SignUpInput{
		Email:    "New@School.EDU",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.AccountID)
	assert.Equal(t, "new@school.edu", result.Email)
	mockRepo.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestAuthService_SignUp_ValidationBeforePersistence(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := service.SignUp(ctx, SignUpInput{Email: "new@school.edu", Password: "short"})
	assertDomainErrorCode(t, err, "INVALID_PASSWORD")

	_, err = service.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "secret1"})
	assertDomainErrorCode(t, err, "INVALID_EMAIL")

	mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("ExistsByEmail", ctx, "taken@school.edu").Return(true, nil)

	_, err := service.SignUp(ctx, SignUpInput{Email: "taken@school.edu", Password: "secret1"})

	assertDomainErrorCode(t, err, "EMAIL_ALREADY_REGISTERED")
	assert.Contains(t, err.Error(), "already registered")
}

func TestAuthService_SignUp_DuplicateRace(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("ExistsByEmail", ctx, "raced@school.edu").Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*identity.Account")).Return(shared.ErrAlreadyExists)

	_, err := service.SignUp(ctx, SignUpInput{Email: "raced@school.edu", Password: "secret1"})

	assertDomainErrorCode(t, err, "EMAIL_ALREADY_REGISTERED")
}

func TestAuthService_SignUp_MailFailureDoesNotFailSignup(t *testing.T) {
	service, mockRepo, mockMailer, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("ExistsByEmail", ctx, "new@school.edu").Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*identity.Account")).Return(nil)
	mockMailer.On("SendVerificationEmail", ctx, "new@school.edu", mock.AnythingOfType("string")).
		Return(assert.AnError)

	result, err := service.SignUp(ctx, SignUpInput{Email: "new@school.edu", Password: "secret1"})

	require.NoError(t, err)
	assert.NotNil(t, result)
}

// ============================================================================
// Login Tests
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	result, err := service.Login(ctx, LoginInput{
		Email:    "student@school.edu",
		Password: "secret1",
		IP:       "192.0.2.1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, account.ID, result.Account.ID)
	assert.True(t, result.Account.EmailVerified)
	assert.NotNil(t, account.LastLoginAt)
	assert.Equal(t, "192.0.2.1", account.LastLoginIP)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "ghost@school.edu").Return(nil, shared.ErrNotFound)

	_, err := service.Login(ctx, LoginInput{Email: "ghost@school.edu", Password: "secret1"})

	assertDomainErrorCode(t, err, "INVALID_CREDENTIALS")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	_, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "wrong-password"})

	assertDomainErrorCode(t, err, "INVALID_CREDENTIALS")
	assert.Equal(t, 1, account.FailedAttempts)
}

func TestAuthService_Login_UnconfirmedEmail(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	account, err := identity.NewAccount("pending@school.edu", "secret1")
	require.NoError(t, err)

	mockRepo.On("FindByEmail", ctx, "pending@school.edu").Return(account, nil)

	_, err = service.Login(ctx, LoginInput{Email: "pending@school.edu", Password: "secret1"})

	assertDomainErrorCode(t, err, "EMAIL_UNCONFIRMED")
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	cfg := DefaultAuthServiceConfig()
	for i := 0; i < cfg.MaxLoginAttempts-1; i++ {
		_, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "wrong"})
		assertDomainErrorCode(t, err, "INVALID_CREDENTIALS")
	}

	// The final failed attempt locks the account
	_, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "wrong"})
	assertDomainErrorCode(t, err, "ACCOUNT_LOCKED")
	assert.True(t, account.IsLocked())

	// Even the correct password is rejected while locked
	_, err = service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "secret1"})
	assertDomainErrorCode(t, err, "ACCOUNT_LOCKED")
}

// ============================================================================
// VerifyEmail Tests
// ============================================================================

func TestAuthService_VerifyEmail_Success(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	account, err := identity.NewAccount("pending@school.edu", "secret1")
	require.NoError(t, err)
	token := account.VerificationToken

	mockRepo.On("FindByVerificationToken", ctx, token).Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	result, err := service.VerifyEmail(ctx, VerifyEmailInput{Token: token})

	require.NoError(t, err)
	assert.True(t, result.Account.EmailVerified)
	assert.Equal(t, string(identity.AccountStatusActive), result.Account.Status)
	// One-time token is consumed
	assert.Empty(t, account.VerificationToken)
}

func TestAuthService_VerifyEmail_UnknownToken(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("FindByVerificationToken", ctx, "bogus").Return(nil, shared.ErrNotFound)

	_, err := service.VerifyEmail(ctx, VerifyEmailInput{Token: "bogus"})

	assertDomainErrorCode(t, err, "INVALID_VERIFICATION_TOKEN")
}

func TestAuthService_VerifyEmail_EmptyToken(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()

	_, err := service.VerifyEmail(context.Background(), VerifyEmailInput{Token: ""})

	assertDomainErrorCode(t, err, "INVALID_VERIFICATION_TOKEN")
	mockRepo.AssertNotCalled(t, "FindByVerificationToken", mock.Anything, mock.Anything)
}

// ============================================================================
// ResendVerification Tests
// ============================================================================

func TestAuthService_ResendVerification_RotatesToken(t *testing.T) {
	service, mockRepo, mockMailer, _ := newTestAuthService()
	ctx := context.Background()

	account, err := identity.NewAccount("pending@school.edu", "secret1")
	require.NoError(t, err)
	originalToken := account.VerificationToken

	mockRepo.On("FindByEmail", ctx, "pending@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)
	mockMailer.On("SendVerificationEmail", ctx, "pending@school.edu", mock.AnythingOfType("string")).Return(nil)

	err = service.ResendVerification(ctx, ResendVerificationInput{Email: "pending@school.edu"})

	require.NoError(t, err)
	assert.NotEqual(t, originalToken, account.VerificationToken)
	mockMailer.AssertExpectations(t)
}

func TestAuthService_ResendVerification_UnknownEmailNoEnumeration(t *testing.T) {
	service, mockRepo, mockMailer, _ := newTestAuthService()
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "ghost@school.edu").Return(nil, shared.ErrNotFound)

	err := service.ResendVerification(ctx, ResendVerificationInput{Email: "ghost@school.edu"})

	require.NoError(t, err)
	mockMailer.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResendVerification_AlreadyConfirmed(t *testing.T) {
	service, mockRepo, mockMailer, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)

	err := service.ResendVerification(ctx, ResendVerificationInput{Email: "student@school.edu"})

	require.NoError(t, err)
	mockMailer.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// RefreshToken Tests
// ============================================================================

func TestAuthService_RefreshToken_RotatesPair(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)
	mockRepo.On("FindByID", ctx, account.ID).Return(account, nil)

	login, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "secret1"})
	require.NoError(t, err)

	result, err := service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, login.RefreshToken, result.RefreshToken)
}

func TestAuthService_RefreshToken_InvalidToken(t *testing.T) {
	service, _, _, _ := newTestAuthService()

	_, err := service.RefreshToken(context.Background(), RefreshTokenInput{RefreshToken: "garbage"})

	assertDomainErrorCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_RefreshToken_RevokedToken(t *testing.T) {
	service, mockRepo, _, blacklist := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	login, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "secret1"})
	require.NoError(t, err)

	// Sign out revokes the refresh token
	err = service.Logout(ctx, LogoutInput{UserID: account.ID, RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	_, err = service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assertDomainErrorCode(t, err, "TOKEN_REVOKED")
	_ = blacklist
}

func TestAuthService_RefreshToken_InactiveAccount(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByEmail", ctx, "student@school.edu").Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)
	mockRepo.On("FindByID", ctx, account.ID).Return(account, nil)

	login, err := service.Login(ctx, LoginInput{Email: "student@school.edu", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, account.Deactivate())

	_, err = service.RefreshToken(ctx, RefreshTokenInput{RefreshToken: login.RefreshToken})
	assertDomainErrorCode(t, err, "ACCOUNT_INACTIVE")
}

// ============================================================================
// Logout Tests
// ============================================================================

func TestAuthService_Logout_NeverFails(t *testing.T) {
	service, _, _, _ := newTestAuthService()
	ctx := context.Background()

	// Garbage tokens and empty input still succeed
	assert.NoError(t, service.Logout(ctx, LogoutInput{UserID: uuid.New()}))
	assert.NoError(t, service.Logout(ctx, LogoutInput{
		UserID:       uuid.New(),
		AccessJTI:    "some-jti",
		AccessTTL:    time.Minute,
		RefreshToken: "garbage",
	}))
}

func TestAuthService_Logout_BlacklistsAccessJTI(t *testing.T) {
	service, _, _, blacklist := newTestAuthService()
	ctx := context.Background()

	err := service.Logout(ctx, LogoutInput{
		UserID:    uuid.New(),
		AccessJTI: "access-jti-1",
		AccessTTL: time.Minute,
	})
	require.NoError(t, err)

	revoked, err := blacklist.IsBlacklisted(ctx, "access-jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

// ============================================================================
// ChangePassword Tests
// ============================================================================

func TestAuthService_ChangePassword_Success(t *testing.T) {
	service, mockRepo, _, blacklist := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByID", ctx, account.ID).Return(account, nil)
	mockRepo.On("Update", ctx, account).Return(nil)

	err := service.ChangePassword(ctx, ChangePasswordInput{
		UserID:      account.ID,
		OldPassword: "secret1",
		NewPassword: "newsecret2",
	})

	require.NoError(t, err)
	assert.True(t, account.VerifyPassword("newsecret2"))

	// Tokens issued before the change are invalidated
	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, account.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)
}

func TestAuthService_ChangePassword_WrongOldPassword(t *testing.T) {
	service, mockRepo, _, _ := newTestAuthService()
	ctx := context.Background()
	account := createVerifiedAccount(t, "student@school.edu", "secret1")

	mockRepo.On("FindByID", ctx, account.ID).Return(account, nil)

	err := service.ChangePassword(ctx, ChangePasswordInput{
		UserID:      account.ID,
		OldPassword: "wrong",
		NewPassword: "newsecret2",
	})

	assertDomainErrorCode(t, err, "INVALID_PASSWORD")
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
