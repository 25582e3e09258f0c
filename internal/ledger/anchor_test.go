package ledger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func TestComputeID_Deterministic(t *testing.T) {
	a := ComputeID([]byte("payload"), []byte("n1"))
	b := ComputeID([]byte("payload"), []byte("n1"))
	c := ComputeID([]byte("payload"), []byte("n2"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Regexp(t, idPattern, a)
	// sha256("abc")
	require.Equal(t, "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", ComputeID([]byte("abc"), nil))
}

func TestHasher_DistinctForSamePayloadAndClock(t *testing.T) {
	h := NewHasher()
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return frozen }

	seen := make(map[string]struct{}, 150)
	for i := 0; i < 150; i++ {
		id, err := h.Anchor(context.Background(), []byte(`{"plant":"Tulsi"}`))
		require.NoError(t, err)
		require.Regexp(t, idPattern, id)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 150)
}

func TestHasher_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHasher().Anchor(ctx, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}
