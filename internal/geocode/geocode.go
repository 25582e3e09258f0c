// Package geocode resolves coordinates to human-readable addresses.
//
// Reverse never fails: lookups that find nothing yield NotFound and transport
// problems yield Unavailable, so a submission can always proceed.
package geocode

import (
	"context"

	"github.com/paulmach/orb"
)

// Placeholder addresses.
const (
	NotFound    = "Address not found"
	Unavailable = "Could not fetch address"
)

// Geocoder performs reverse geocoding.
type Geocoder interface {
	Reverse(ctx context.Context, p orb.Point) string
}

// Stub answers with a fixed address.
type Stub struct{ Address string }

// Reverse implements Geocoder.
func (s Stub) Reverse(ctx context.Context, _ orb.Point) string {
	if ctx.Err() != nil {
		return Unavailable
	}
	if s.Address == "" {
		return NotFound
	}
	return s.Address
}
