package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// DefaultNominatimURL is the public OpenStreetMap endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim is a Geocoder backed by the Nominatim reverse API.
type Nominatim struct {
	base      string
	userAgent string
	client    *http.Client
	log       *zap.Logger
}

// NewNominatim constructs a client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewNominatim(base, userAgent string, timeout time.Duration, log *zap.Logger) *Nominatim {
	if base == "" {
		base = DefaultNominatimURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Nominatim{
		base:      strings.TrimRight(base, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// Reverse implements Geocoder.
func (n *Nominatim) Reverse(ctx context.Context, p orb.Point) string {
	addr, err := n.lookup(ctx, p)
	if err != nil {
		n.log.Warn("reverse geocode failed",
			zap.Float64("lat", p.Lat()), zap.Float64("lon", p.Lon()), zap.Error(err))
		return Unavailable
	}
	if addr == "" {
		return NotFound
	}
	return addr
}

func (n *Nominatim) lookup(ctx context.Context, p orb.Point) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(p.Lat(), 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon(), 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim: status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("nominatim: decode: %w", err)
	}
	return strings.TrimSpace(body.DisplayName), nil
}
