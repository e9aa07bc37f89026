package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CallsFailWhenNotConnected(t *testing.T) {
	client := NewClient("ws://localhost:4455", "")

	_, err := client.IsStreaming(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected to OBS")

	assert.Error(t, client.StartStreaming(context.Background()))
	assert.Error(t, client.StopStreaming(context.Background()))
}

func TestClient_CloseWithoutConnect(t *testing.T) {
	client := NewClient("ws://localhost:4455", "")

	assert.NoError(t, client.Close())
}

func TestClient_StateListeners(t *testing.T) {
	client := NewClient("ws://localhost:4455", "")

	var first, second []StateChange
	sub1 := client.SubscribeState(func(c StateChange) { first = append(first, c) })
	client.SubscribeState(func(c StateChange) { second = append(second, c) })

	client.notify(StateChange{Streaming: true})
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.True(t, first[0].Streaming)

	sub1.Cancel()
	client.notify(StateChange{Streaming: false})
	assert.Len(t, first, 1, "canceled listener must not receive further changes")
	assert.Len(t, second, 2)

	// Cancel is idempotent.
	sub1.Cancel()
	client.notify(StateChange{Streaming: true})
	assert.Len(t, second, 3)
}
