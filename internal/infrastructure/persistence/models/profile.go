package models

import (
	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/profile"
)

// ProfileModel is the persistence model for the Profile aggregate.
// Exactly one row per account, enforced by the unique index.
type ProfileModel struct {
	AggregateModel
	AccountID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Email          string    `gorm:"type:varchar(200);not null"`
	FirstName      string    `gorm:"type:varchar(100)"`
	LastName       string    `gorm:"type:varchar(100)"`
	Age            *int
	School         string `gorm:"type:varchar(200)"`
	GraduationYear *int
	AvatarKey      string `gorm:"type:varchar(500)"`
	Completed      bool   `gorm:"not null;default:false"`
	Skipped        bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the persistence model to a domain Profile aggregate.
func (m *ProfileModel) ToDomain() *profile.Profile {
	return &profile.Profile{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AccountID:         m.AccountID,
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Age:               m.Age,
		School:            m.School,
		GraduationYear:    m.GraduationYear,
		AvatarKey:         m.AvatarKey,
		Completed:         m.Completed,
		Skipped:           m.Skipped,
	}
}

// FromDomain populates the persistence model from a domain Profile aggregate.
func (m *ProfileModel) FromDomain(p *profile.Profile) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.AccountID = p.AccountID
	m.Email = p.Email
	m.FirstName = p.FirstName
	m.LastName = p.LastName
	m.Age = p.Age
	m.School = p.School
	m.GraduationYear = p.GraduationYear
	m.AvatarKey = p.AvatarKey
	m.Completed = p.Completed
	m.Skipped = p.Skipped
}

// ProfileModelFromDomain creates a new persistence model from a domain Profile.
func ProfileModelFromDomain(p *profile.Profile) *ProfileModel {
	m := &ProfileModel{}
	m.FromDomain(p)
	return m
}
