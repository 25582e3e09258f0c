// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/ayurtrace/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository is the identity store. Secrets are accepted on write and
// checked inside the store; no read returns them.
type UserRepository interface {
	// Create inserts a new user; an empty secret creates a federated-only account.
	Create(ctx context.Context, u *model.User, secret string) error
	// GetByID loads a user by ID; errs.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByPhone loads a user by contact phone.
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	// FindByCredential matches identifier against phone or user ID and verifies secret.
	// Unknown identifiers and wrong secrets both yield errs.ErrUnauthorized.
	FindByCredential(ctx context.Context, identifier, secret string) (*model.User, error)
	// Update merges patch into the stored user.
	Update(ctx context.Context, id uuid.UUID, patch model.UserPatch) (*model.User, error)
}
