package repository

import (
	"context"

	"github.com/and161185/ayurtrace/internal/model"
	"github.com/gofrs/uuid/v5"
)

// BatchRepository provides versioned access to harvest batches.
type BatchRepository interface {
	// Insert assigns the next sequential ID and version 1, stores b and returns the stored copy.
	Insert(ctx context.Context, b *model.Batch) (*model.Batch, error)
	// Get returns a single batch by ID.
	Get(ctx context.Context, id string) (*model.Batch, error)
	// ListByOwner returns the owner's batches in insertion order.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Batch, error)
	// ListAll returns all batches in insertion order.
	ListAll(ctx context.Context) ([]model.Batch, error)
	// UpdateStatus applies a review atomically and returns the batch as stored.
	// changed is false when the update was a no-op and nothing was written.
	UpdateStatus(ctx context.Context, id string, upd model.StatusUpdate) (b *model.Batch, changed bool, err error)
}
