package profile

import (
	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// Aggregate type constant for Profile
const AggregateTypeProfile = "Profile"

// Profile domain event types
const (
	EventTypeProfileCreated       = "ProfileCreated"
	EventTypeProfileCompleted     = "ProfileCompleted"
	EventTypeProfileSkipped       = "ProfileSkipped"
	EventTypeProfileAvatarChanged = "ProfileAvatarChanged"
)

// ProfileCreatedEvent is published when a minimal profile row is created
type ProfileCreatedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
}

// NewProfileCreatedEvent creates a new ProfileCreatedEvent
func NewProfileCreatedEvent(p *Profile) *ProfileCreatedEvent {
	return &ProfileCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileCreated, AggregateTypeProfile, p.ID),
		AccountID:       p.AccountID,
		Email:           p.Email,
	}
}

// ProfileCompletedEvent is published when a student completes their profile
type ProfileCompletedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	School    string    `json:"school"`
}

// NewProfileCompletedEvent creates a new ProfileCompletedEvent
func NewProfileCompletedEvent(p *Profile) *ProfileCompletedEvent {
	return &ProfileCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileCompleted, AggregateTypeProfile, p.ID),
		AccountID:       p.AccountID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		School:          p.School,
	}
}

// ProfileSkippedEvent is published when a student skips profile onboarding
type ProfileSkippedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
}

// NewProfileSkippedEvent creates a new ProfileSkippedEvent
func NewProfileSkippedEvent(p *Profile) *ProfileSkippedEvent {
	return &ProfileSkippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileSkipped, AggregateTypeProfile, p.ID),
		AccountID:       p.AccountID,
	}
}

// ProfileAvatarChangedEvent is published when an avatar is set or removed
type ProfileAvatarChangedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	AvatarKey string    `json:"avatar_key"`
}

// NewProfileAvatarChangedEvent creates a new ProfileAvatarChangedEvent
func NewProfileAvatarChangedEvent(p *Profile) *ProfileAvatarChangedEvent {
	return &ProfileAvatarChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileAvatarChanged, AggregateTypeProfile, p.ID),
		AccountID:       p.AccountID,
		AvatarKey:       p.AvatarKey,
	}
}
