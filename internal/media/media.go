// Package media stores harvest photos and returns the URL they are served from.
package media

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// DefaultImageURL is used for batches submitted without a photo.
const DefaultImageURL = "https://images.unsplash.com/photo-1520106212299-d99c443e4568?q=80&w=400"

// Store persists an image under key and returns its public URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// ContentType sniffs the MIME type of an image payload.
func ContentType(data []byte) string { return http.DetectContentType(data) }

// Memory keeps images in process memory.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemory constructs an in-memory store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://images"
	}
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string][]byte)}
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cp := append([]byte(nil), data...)
	m.mu.Lock()
	m.objects[key] = cp
	m.mu.Unlock()
	return m.baseURL + "/" + key, nil
}

// Get returns a stored image.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, ok
}
