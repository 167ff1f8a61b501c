package profile

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for profile persistence
type Repository interface {
	// Create creates a new profile
	Create(ctx context.Context, p *Profile) error

	// Update updates an existing profile
	Update(ctx context.Context, p *Profile) error

	// Delete deletes a profile by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a profile by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindByAccountID finds the profile belonging to an account
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error)

	// ExistsByAccountID checks if an account already has a profile
	ExistsByAccountID(ctx context.Context, accountID uuid.UUID) (bool, error)
}
