// Package profile implements the onboarding and avatar use cases built
// on top of the profile aggregate.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/domain/profile"
	"github.com/scholarconnect/backend/internal/domain/shared"
)

// AllowedAvatarContentTypes is the whitelist of content types accepted
// for avatar uploads, mapped to the file extension used for the object
// key. SVG is excluded because it can carry scripts.
var AllowedAvatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStorage defines the interface for avatar object storage.
// It is implemented by the infrastructure layer (S3-compatible storage
// or an in-memory stub).
type AvatarStorage interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	// UploadURLExpiry is the duration for which avatar upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which avatar download URLs are valid
	DownloadURLExpiry time.Duration
}

// DefaultProfileServiceConfig returns the default configuration
func DefaultProfileServiceConfig() ProfileServiceConfig {
	return ProfileServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// ProfileService handles profile lifecycle and avatar operations
type ProfileService struct {
	profileRepo    profile.Repository
	storage        AvatarStorage
	eventPublisher shared.EventPublisher
	config         ProfileServiceConfig
	logger         *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	profileRepo profile.Repository,
	storage AvatarStorage,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo:    profileRepo,
		storage:        storage,
		eventPublisher: eventPublisher,
		config:         DefaultProfileServiceConfig(),
		logger:         logger,
	}
}

// SetConfig sets the service configuration
func (s *ProfileService) SetConfig(config ProfileServiceConfig) {
	s.config = config
}

// EnsureProfile creates the minimal profile row for an account if it does
// not exist yet. The operation is idempotent: a concurrent create that
// loses the race falls back to returning the profile the winner created.
func (s *ProfileService) EnsureProfile(ctx context.Context, accountID uuid.UUID, email string) (*ProfileResponse, error) {
	existing, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err == nil {
		return s.toResponse(ctx, existing), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	p, err := profile.New(accountID, email)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.Create(ctx, p); err != nil {
		// A concurrent request created the profile first. That is the
		// outcome we wanted, so fetch and return it.
		if errors.Is(err, shared.ErrAlreadyExists) {
			winner, findErr := s.profileRepo.FindByAccountID(ctx, accountID)
			if findErr != nil {
				return nil, findErr
			}
			return s.toResponse(ctx, winner), nil
		}
		return nil, err
	}

	s.publishDomainEvents(ctx, p)
	s.logger.Info("Profile created", zap.String("account_id", accountID.String()))

	return s.toResponse(ctx, p), nil
}

// GetByAccountID retrieves the full profile for an account
func (s *ProfileService) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*ProfileResponse, error) {
	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}
	return s.toResponse(ctx, p), nil
}

// GetDisplay returns the reduced author view for an account, used when
// assembling feed entries and comments.
func (s *ProfileService) GetDisplay(ctx context.Context, accountID uuid.UUID) (*DisplayResponse, error) {
	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	return &DisplayResponse{
		AccountID:   p.AccountID,
		DisplayName: p.DisplayName(),
		AvatarURL:   s.resolveAvatarURL(ctx, p.AvatarKey),
	}, nil
}

// Complete fills in the student's details and marks the profile completed
func (s *ProfileService) Complete(ctx context.Context, accountID uuid.UUID, input CompleteProfileInput) (*ProfileResponse, error) {
	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	err = p.Complete(profile.Details{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Age:            input.Age,
		School:         input.School,
		GraduationYear: input.GraduationYear,
	})
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, p)
	s.logger.Info("Profile completed", zap.String("account_id", accountID.String()))

	return s.toResponse(ctx, p), nil
}

// Skip marks onboarding as done without collecting details
func (s *ProfileService) Skip(ctx context.Context, accountID uuid.UUID) (*ProfileResponse, error) {
	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	p.Skip()

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, p)
	s.logger.Info("Profile onboarding skipped", zap.String("account_id", accountID.String()))

	return s.toResponse(ctx, p), nil
}

// RequestAvatarUpload generates a presigned upload URL for a new avatar.
// The object key is namespaced under the owning account so that a
// confirm call can verify ownership from the key alone.
func (s *ProfileService) RequestAvatarUpload(ctx context.Context, accountID uuid.UUID, input RequestAvatarUploadInput) (*AvatarUploadResponse, error) {
	if _, err := s.profileRepo.FindByAccountID(ctx, accountID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	ext, ok := AllowedAvatarContentTypes[strings.ToLower(strings.TrimSpace(input.ContentType))]
	if !ok {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			"Avatar must be a JPEG, PNG, GIF, or WebP image")
	}

	objectKey := fmt.Sprintf("avatars/%s/%s%s", accountID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, objectKey, input.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to generate avatar upload URL",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &AvatarUploadResponse{
		ObjectKey: objectKey,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmAvatar verifies the uploaded object and records it as the
// account's avatar. The previous avatar object, if any, is deleted from
// storage on a best-effort basis.
func (s *ProfileService) ConfirmAvatar(ctx context.Context, accountID uuid.UUID, input ConfirmAvatarInput) (*ProfileResponse, error) {
	objectKey := strings.TrimSpace(input.ObjectKey)

	expectedPrefix := fmt.Sprintf("avatars/%s/", accountID)
	if !strings.HasPrefix(objectKey, expectedPrefix) {
		return nil, shared.NewDomainError("INVALID_AVATAR_KEY", "Avatar key does not belong to this account")
	}

	exists, err := s.storage.ObjectExists(ctx, objectKey)
	if err != nil {
		s.logger.Error("Failed to check avatar object",
			zap.String("object_key", objectKey),
			zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to verify uploaded avatar")
	}
	if !exists {
		return nil, shared.NewDomainError("AVATAR_NOT_UPLOADED", "Avatar upload has not completed")
	}

	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	previous, err := p.SetAvatar(objectKey)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	if previous != "" && previous != objectKey {
		if err := s.storage.DeleteObject(ctx, previous); err != nil {
			// The old object is orphaned but the profile is consistent
			s.logger.Warn("Failed to delete previous avatar object",
				zap.String("object_key", previous),
				zap.Error(err))
		}
	}

	s.publishDomainEvents(ctx, p)
	s.logger.Info("Avatar updated",
		zap.String("account_id", accountID.String()),
		zap.String("object_key", objectKey))

	return s.toResponse(ctx, p), nil
}

// RemoveAvatar clears the account's avatar and deletes the stored object
func (s *ProfileService) RemoveAvatar(ctx context.Context, accountID uuid.UUID) (*ProfileResponse, error) {
	p, err := s.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PROFILE_NOT_FOUND", "Profile not found")
		}
		return nil, err
	}

	previous := p.RemoveAvatar()
	if previous == "" {
		return s.toResponse(ctx, p), nil
	}

	if err := s.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	if err := s.storage.DeleteObject(ctx, previous); err != nil {
		s.logger.Warn("Failed to delete removed avatar object",
			zap.String("object_key", previous),
			zap.Error(err))
	}

	s.publishDomainEvents(ctx, p)
	s.logger.Info("Avatar removed", zap.String("account_id", accountID.String()))

	return s.toResponse(ctx, p), nil
}

// toResponse maps a profile to its response DTO and resolves the avatar
// download URL.
func (s *ProfileService) toResponse(ctx context.Context, p *profile.Profile) *ProfileResponse {
	resp := ToProfileResponse(p)
	resp.AvatarURL = s.resolveAvatarURL(ctx, p.AvatarKey)
	return &resp
}

// resolveAvatarURL presigns a download URL for the given avatar key.
// Presign failures degrade to an empty URL rather than failing the
// whole request.
func (s *ProfileService) resolveAvatarURL(ctx context.Context, avatarKey string) string {
	if avatarKey == "" || s.storage == nil {
		return ""
	}
	url, _, err := s.storage.GenerateDownloadURL(ctx, avatarKey, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Warn("Failed to presign avatar download URL",
			zap.String("object_key", avatarKey),
			zap.Error(err))
		return ""
	}
	return url
}

// publishDomainEvents publishes all domain events collected on the profile
func (s *ProfileService) publishDomainEvents(ctx context.Context, p *profile.Profile) {
	if s.eventPublisher == nil {
		return
	}
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}
