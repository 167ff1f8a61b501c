package models

import (
	"time"

	"github.com/scholarconnect/backend/internal/domain/identity"
)

// AccountModel is the persistence model for the Account aggregate.
type AccountModel struct {
	AggregateModel
	Email                 string                 `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash          string                 `gorm:"type:varchar(255);not null"`
	Status                identity.AccountStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	EmailVerified         bool                   `gorm:"not null;default:false"`
	VerificationToken     string                 `gorm:"type:varchar(128);index"`
	VerificationExpiresAt *time.Time
	LastLoginAt           *time.Time `gorm:"index"`
	LastLoginIP           string     `gorm:"type:varchar(45)"`
	FailedAttempts        int        `gorm:"not null;default:0"`
	LockedUntil           *time.Time
	PasswordChangedAt     *time.Time
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account aggregate.
func (m *AccountModel) ToDomain() *identity.Account {
	return &identity.Account{
		BaseAggregateRoot:     m.ToDomainAggregateRoot(),
		Email:                 m.Email,
		PasswordHash:          m.PasswordHash,
		Status:                m.Status,
		EmailVerified:         m.EmailVerified,
		VerificationToken:     m.VerificationToken,
		VerificationExpiresAt: m.VerificationExpiresAt,
		LastLoginAt:           m.LastLoginAt,
		LastLoginIP:           m.LastLoginIP,
		FailedAttempts:        m.FailedAttempts,
		LockedUntil:           m.LockedUntil,
		PasswordChangedAt:     m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain Account aggregate.
func (m *AccountModel) FromDomain(a *identity.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Email = a.Email
	m.PasswordHash = a.PasswordHash
	m.Status = a.Status
	m.EmailVerified = a.EmailVerified
	m.VerificationToken = a.VerificationToken
	m.VerificationExpiresAt = a.VerificationExpiresAt
	m.LastLoginAt = a.LastLoginAt
	m.LastLoginIP = a.LastLoginIP
	m.FailedAttempts = a.FailedAttempts
	m.LockedUntil = a.LockedUntil
	m.PasswordChangedAt = a.PasswordChangedAt
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *identity.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}
