package repository

import (
	"context"
	"time"

	"github.com/and161185/ayurtrace/internal/model"
)

// CodeRepository keeps pending one-time login codes, one per contact.
type CodeRepository interface {
	// Put stores c, replacing any pending code for the same contact.
	Put(ctx context.Context, c model.LoginCode) error
	// Consume checks code for contact at now. A match deletes the entry; a
	// mismatch counts an attempt and drops the entry after maxAttempts.
	Consume(ctx context.Context, contact, code string, now time.Time, maxAttempts int) error
}
