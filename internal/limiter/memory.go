package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

// Memory is an in-process limiter with the same semantics as PG.
type Memory struct {
	mu        sync.Mutex
	policy    Policy
	now       func() time.Time
	entries   map[string]*memEntry
	lastSweep time.Time
}

type memEntry struct {
	fails        int
	blockedUntil time.Time
	updatedAt    time.Time
}

// NewMemory constructs an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, entries: make(map[string]*memEntry)}
}

func memKey(identifier string, ipHash []byte) string {
	return identifier + "|" + hex.EncodeToString(ipHash)
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[memKey(identifier, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (identifier, ip).
func (l *Memory) Success(ctx context.Context, identifier string, ipHash []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, memKey(identifier, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(ctx context.Context, identifier string, ipHash []byte) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.policy.Window {
		l.sweep(now)
	}
	k := memKey(identifier, ipHash)
	e, ok := l.entries[k]
	if !ok {
		e = &memEntry{}
		l.entries[k] = e
	}
	if ok && now.Sub(e.updatedAt) > l.policy.Window {
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now
	if e.fails >= l.policy.MaxFails {
		e.blockedUntil = now.Add(l.policy.BlockFor)
		return true, l.policy.BlockFor, nil
	}
	return false, 0, nil
}

// sweep drops entries whose window and block have both elapsed. Callers hold mu.
func (l *Memory) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.updatedAt) > l.policy.Window && !e.blockedUntil.After(now) {
			delete(l.entries, k)
		}
	}
	l.lastSweep = now
}
