package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToEverySubscriber(t *testing.T) {
	h := NewHub()
	_, chA, unsubA := h.Subscribe()
	defer unsubA()
	_, chB, unsubB := h.Subscribe()
	defer unsubB()

	h.Publish("session:status_changed", map[string]string{"x": "y"})

	require.Len(t, chA, 1)
	require.Len(t, chB, 1)
	evA := <-chA
	evB := <-chB
	assert.Equal(t, "session:status_changed", evA.Event)
	assert.Equal(t, "session:status_changed", evB.Event)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	_, ch, unsub := h.Subscribe()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestHubLaggedSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	id, ch, unsub := h.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish("pty:output", i)
	}

	assert.Greater(t, h.Lagged(id), uint64(0))
	assert.Len(t, ch, subscriberBuffer)
}
