//go:build integration

package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/convman/internal/dispatch"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_Dispatch(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(natsURL, os.Getenv("NATS_TOKEN"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(2*time.Second))

	subject := SubjectDispatch + ".test"
	require.NoError(t, client.Serve(ctx, subject, dispatch.New(dispatch.Options{})))

	reply, err := client.Request(ctx, subject, []byte(`{"action":"ping"}`))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(reply, &out))
	assert.Equal(t, "active", out["status"])
}

func TestIntegration_SnapshotEvents(t *testing.T) {
	natsURL := skipWithoutNATS(t)

	client, err := NewClient(natsURL, os.Getenv("NATS_TOKEN"))
	require.NoError(t, err)
	defer client.Close()

	received := make(chan SnapshotChanged, 1)
	require.NoError(t, client.Subscribe(SubjectSnapshotChanged, func(_ string, data []byte) {
		var ev SnapshotChanged
		if json.Unmarshal(data, &ev) == nil {
			received <- ev
		}
	}))

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, client.Publish(SubjectSnapshotChanged, SnapshotChanged{
		Path:         "/tmp/chat.html",
		MessageCount: 4,
	}))

	select {
	case ev := <-received:
		assert.Equal(t, "/tmp/chat.html", ev.Path)
		assert.Equal(t, 4, ev.MessageCount)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
