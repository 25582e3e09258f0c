package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/ayurtrace/internal/model"
)

type fakeConn struct {
	subj string
	data []byte
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subj, f.data = subj, data
	return nil
}

func TestNATS_Publish(t *testing.T) {
	c := &fakeConn{}
	p := NewNATS(c, "")
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), model.BatchEvent{
		Type: TypeReviewed, BatchID: "B010", ContentID: "0xab", OwnerID: "o", Status: "approved", At: at,
	})
	require.NoError(t, err)
	require.Equal(t, "ayurtrace.batches.reviewed", c.subj)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.data, &got))
	require.Equal(t, "B010", got["batchId"])
	require.Equal(t, "approved", got["status"])
	require.Equal(t, "2025-06-01T09:00:00Z", got["at"])
}

func TestNATS_CanceledContext(t *testing.T) {
	c := &fakeConn{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewNATS(c, "x").Publish(ctx, model.BatchEvent{Type: TypeSubmitted}), context.Canceled)
	require.Empty(t, c.subj)
}
