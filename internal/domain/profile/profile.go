package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

const (
	// MinAge and MaxAge bound the ages the platform accepts.
	MinAge = 10
	MaxAge = 18

	// ParentalConsentAge is the age below which parental consent is required.
	ParentalConsentAge = 16
)

// Profile holds a student's public-facing details. Exactly one profile
// exists per account; it is created in a minimal state at registration
// and later completed or explicitly skipped by the student.
type Profile struct {
	shared.BaseAggregateRoot
	AccountID      uuid.UUID
	Email          string
	FirstName      string
	LastName       string
	Age            *int
	School         string
	GraduationYear *int
	AvatarKey      string
	Completed      bool
	Skipped        bool
}

// Details carries the fields a student fills in when completing a profile.
type Details struct {
	FirstName      string
	LastName       string
	Age            int
	School         string
	GraduationYear int
}

// New creates the minimal profile row for a freshly registered account.
// The profile starts neither completed nor skipped; the onboarding flow
// decides which.
func New(accountID uuid.UUID, email string) (*Profile, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_ID", "Account ID cannot be empty")
	}

	p := &Profile{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		Email:             strings.ToLower(strings.TrimSpace(email)),
	}

	p.AddDomainEvent(NewProfileCreatedEvent(p))

	return p, nil
}

// Complete fills in the student's details and marks the profile completed.
// Completing always clears the skipped flag, so a student who skipped
// onboarding and later fills in their details ends up completed.
func (p *Profile) Complete(d Details) error {
	if err := validateDetails(d); err != nil {
		return err
	}

	p.FirstName = strings.TrimSpace(d.FirstName)
	p.LastName = strings.TrimSpace(d.LastName)
	age := d.Age
	p.Age = &age
	p.School = strings.TrimSpace(d.School)
	year := d.GraduationYear
	p.GraduationYear = &year
	p.Completed = true
	p.Skipped = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProfileCompletedEvent(p))

	return nil
}

// Skip marks onboarding as done without collecting details. The profile
// counts as completed for gating purposes but remembers it was skipped.
func (p *Profile) Skip() {
	p.Completed = true
	p.Skipped = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProfileSkippedEvent(p))
}

// SetAvatar records the storage key of the student's avatar image.
// Returns the key of the previous avatar so callers can delete the old
// object, or an empty string if there was none.
func (p *Profile) SetAvatar(key string) (previous string, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", shared.NewDomainError("INVALID_AVATAR", "Avatar key cannot be empty")
	}
	if len(key) > 500 {
		return "", shared.NewDomainError("INVALID_AVATAR", "Avatar key cannot exceed 500 characters")
	}

	previous = p.AvatarKey
	p.AvatarKey = key
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProfileAvatarChangedEvent(p))

	return previous, nil
}

// RemoveAvatar clears the avatar. Returns the key of the removed object.
func (p *Profile) RemoveAvatar() string {
	previous := p.AvatarKey
	p.AvatarKey = ""
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	if previous != "" {
		p.AddDomainEvent(NewProfileAvatarChangedEvent(p))
	}

	return previous
}

// NeedsParentalConsent reports whether the student's age requires
// parental consent. Unknown ages require no consent.
func (p *Profile) NeedsParentalConsent() bool {
	return p.Age != nil && *p.Age < ParentalConsentAge
}

// DisplayName returns the student's full name, falling back to the email
// local part when the profile has no name yet.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}

func validateDetails(d Details) error {
	if strings.TrimSpace(d.FirstName) == "" {
		return shared.NewDomainError("INVALID_NAME", "First name cannot be empty")
	}
	if len(d.FirstName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "First name cannot exceed 100 characters")
	}
	if strings.TrimSpace(d.LastName) == "" {
		return shared.NewDomainError("INVALID_NAME", "Last name cannot be empty")
	}
	if len(d.LastName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Last name cannot exceed 100 characters")
	}
	if d.Age < MinAge || d.Age > MaxAge {
		return shared.NewDomainError("INVALID_AGE", "Age must be between 10 and 18")
	}
	if strings.TrimSpace(d.School) == "" {
		return shared.NewDomainError("INVALID_SCHOOL", "School cannot be empty")
	}
	if len(d.School) > 200 {
		return shared.NewDomainError("INVALID_SCHOOL", "School cannot exceed 200 characters")
	}
	currentYear := time.Now().Year()
	if d.GraduationYear < currentYear || d.GraduationYear > currentYear+10 {
		return shared.NewDomainError("INVALID_GRADUATION_YEAR", "Graduation year is out of range")
	}
	return nil
}
