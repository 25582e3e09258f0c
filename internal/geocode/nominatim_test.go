package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNominatim_Reverse(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		require.Equal(t, "/reverse", r.URL.Path)
		_, _ = w.Write([]byte(`{"display_name":"Connaught Place, New Delhi, Delhi, India"}`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "ayurtrace-test/1.0", time.Second, zaptest.NewLogger(t))
	addr := g.Reverse(context.Background(), orb.Point{77.209, 28.6139})
	require.Equal(t, "Connaught Place, New Delhi, Delhi, India", addr)
	require.Equal(t, "ayurtrace-test/1.0", gotUA)
	require.Contains(t, gotQuery, "lat=28.6139")
	require.Contains(t, gotQuery, "lon=77.209")
	require.Contains(t, gotQuery, "format=json")
}

func TestNominatim_EmptyResultIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "t", time.Second, nil)
	require.Equal(t, NotFound, g.Reverse(context.Background(), orb.Point{0, 0}))
}

func TestNominatim_FailuresDegrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("lat") {
		case "1":
			w.WriteHeader(http.StatusTooManyRequests)
		case "2":
			_, _ = w.Write([]byte(`not json`))
		default:
			time.Sleep(200 * time.Millisecond)
		}
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "t", 50*time.Millisecond, zaptest.NewLogger(t))
	require.Equal(t, Unavailable, g.Reverse(context.Background(), orb.Point{0, 1}))
	require.Equal(t, Unavailable, g.Reverse(context.Background(), orb.Point{0, 2}))
	require.Equal(t, Unavailable, g.Reverse(context.Background(), orb.Point{0, 3}), "client timeout")
}

func TestStub(t *testing.T) {
	require.Equal(t, "Pune", Stub{Address: "Pune"}.Reverse(context.Background(), orb.Point{}))
	require.Equal(t, NotFound, Stub{}.Reverse(context.Background(), orb.Point{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, Unavailable, Stub{Address: "Pune"}.Reverse(ctx, orb.Point{}))
}
