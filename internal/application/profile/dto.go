package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/profile"
)

// CompleteProfileInput carries the details a student submits to complete
// their profile.
type CompleteProfileInput struct {
	FirstName      string `json:"first_name" binding:"required,max=100"`
	LastName       string `json:"last_name" binding:"required,max=100"`
	Age            int    `json:"age" binding:"required"`
	School         string `json:"school" binding:"required,max=200"`
	GraduationYear int    `json:"graduation_year" binding:"required"`
}

// RequestAvatarUploadInput carries the metadata needed to presign an
// avatar upload.
type RequestAvatarUploadInput struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// AvatarUploadResponse returns a presigned upload URL and the object key
// the client must confirm once the upload finishes.
type AvatarUploadResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmAvatarInput confirms that an avatar object has been uploaded.
type ConfirmAvatarInput struct {
	ObjectKey string `json:"object_key" binding:"required,max=500"`
}

// ProfileResponse is the full profile representation returned to the
// profile owner.
type ProfileResponse struct {
	ID                   uuid.UUID `json:"id"`
	AccountID            uuid.UUID `json:"account_id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	DisplayName          string    `json:"display_name"`
	Age                  *int      `json:"age,omitempty"`
	School               string    `json:"school,omitempty"`
	GraduationYear       *int      `json:"graduation_year,omitempty"`
	AvatarKey            string    `json:"avatar_key,omitempty"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	ProfileCompleted     bool      `json:"profile_completed"`
	ProfileSkipped       bool      `json:"profile_skipped"`
	NeedsParentalConsent bool      `json:"needs_parental_consent"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DisplayResponse is the reduced author view embedded in feed entries
// and comments.
type DisplayResponse struct {
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// ToProfileResponse converts a domain profile to a response DTO.
// The avatar URL is resolved separately since it requires storage access.
func ToProfileResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                   p.ID,
		AccountID:            p.AccountID,
		Email:                p.Email,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		DisplayName:          p.DisplayName(),
		Age:                  p.Age,
		School:               p.School,
		GraduationYear:       p.GraduationYear,
		AvatarKey:            p.AvatarKey,
		ProfileCompleted:     p.Completed,
		ProfileSkipped:       p.Skipped,
		NeedsParentalConsent: p.NeedsParentalConsent(),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
