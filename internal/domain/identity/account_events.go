package identity

import (
	"time"

	"github.com/scholarconnect/backend/internal/domain/shared"
)

// Aggregate type constant for Account
const AggregateTypeAccount = "Account"

// Account domain event types
const (
	EventTypeAccountRegistered      = "AccountRegistered"
	EventTypeAccountEmailConfirmed  = "AccountEmailConfirmed"
	EventTypeAccountPasswordChanged = "AccountPasswordChanged"
	EventTypeAccountDeactivated     = "AccountDeactivated"
)

// AccountRegisteredEvent is published when a new account is registered
type AccountRegisteredEvent struct {
	shared.BaseDomainEvent
	Email  string        `json:"email"`
	Status AccountStatus `json:"status"`
}

// NewAccountRegisteredEvent creates a new AccountRegisteredEvent
func NewAccountRegisteredEvent(account *Account) *AccountRegisteredEvent {
	return &AccountRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountRegistered, AggregateTypeAccount, account.ID),
		Email:           account.Email,
		Status:          account.Status,
	}
}

// AccountEmailConfirmedEvent is published when an account confirms its email
type AccountEmailConfirmedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewAccountEmailConfirmedEvent creates a new AccountEmailConfirmedEvent
func NewAccountEmailConfirmedEvent(account *Account) *AccountEmailConfirmedEvent {
	return &AccountEmailConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountEmailConfirmed, AggregateTypeAccount, account.ID),
		Email:           account.Email,
	}
}

// AccountPasswordChangedEvent is published when an account's password changes
type AccountPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewAccountPasswordChangedEvent creates a new AccountPasswordChangedEvent
func NewAccountPasswordChangedEvent(account *Account) *AccountPasswordChangedEvent {
	changedAt := time.Now()
	if account.PasswordChangedAt != nil {
		changedAt = *account.PasswordChangedAt
	}
	return &AccountPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountPasswordChanged, AggregateTypeAccount, account.ID),
		Email:           account.Email,
		ChangedAt:       changedAt,
	}
}

// AccountDeactivatedEvent is published when an account is deactivated
type AccountDeactivatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewAccountDeactivatedEvent creates a new AccountDeactivatedEvent
func NewAccountDeactivatedEvent(account *Account) *AccountDeactivatedEvent {
	return &AccountDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountDeactivated, AggregateTypeAccount, account.ID),
		Email:           account.Email,
	}
}
