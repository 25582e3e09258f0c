// Package ledger produces content identifiers for submitted batches.
//
// An identifier is the SHA-256 of the canonical payload plus a nonce, rendered
// as 0x-prefixed lowercase hex. Nothing is written to an external chain.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"
)

// Anchor turns a payload into an immutable content identifier.
type Anchor interface {
	Anchor(ctx context.Context, payload []byte) (string, error)
}

// ComputeID returns "0x" + hex(sha256(payload || nonce)).
func ComputeID(payload, nonce []byte) string {
	h := sha256.New()
	h.Write(payload)
	h.Write(nonce)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Hasher is the local Anchor. Its nonce is wall-clock nanoseconds plus a
// process-wide counter, so equal payloads submitted in the same tick still
// get distinct identifiers.
type Hasher struct {
	counter atomic.Uint64
	now     func() time.Time
}

// NewHasher constructs a Hasher using the system clock.
func NewHasher() *Hasher { return &Hasher{now: time.Now} }

// Anchor computes the identifier for payload.
func (h *Hasher) Anchor(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var nonce [16]byte
	binary.BigEndian.PutUint64(nonce[:8], uint64(h.now().UnixNano()))
	binary.BigEndian.PutUint64(nonce[8:], h.counter.Add(1))
	return ComputeID(payload, nonce[:]), nil
}
