package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deviceIdentity(deviceID, schoolID string) Identity {
	return Identity{Role: RoleDevice, DeviceID: deviceID, SchoolID: schoolID}
}

func operatorIdentity(operatorID, schoolID string) Identity {
	return Identity{Role: RoleOperator, OperatorID: operatorID, SchoolID: schoolID}
}

// drain pops one queued payload without blocking.
func drain(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatal("expected a queued message")
		return nil
	}
}

func TestHubSendToDevice(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
	hub.Register(client)

	assert.True(t, hub.SendToDevice("dev-1", NewStudentUpdate()))
	assert.JSONEq(t, `{"type":"student-update"}`, string(drain(t, client)))

	assert.False(t, hub.SendToDevice("dev-2", NewStudentUpdate()), "unknown device")
}

func TestHubLastWriterWins(t *testing.T) {
	hub := NewHub()
	first := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
	second := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))

	hub.Register(first)
	hub.Register(second)

	// The older channel is closed and no longer eligible for sends.
	select {
	case <-first.done:
	default:
		t.Fatal("evicted client should be closed")
	}

	require.True(t, hub.SendToDevice("dev-1", NewStudentUpdate()))
	drain(t, second)
	assert.Empty(t, first.send, "evicted client must not receive sends")

	// Unregistering the evicted client must not remove the replacement.
	hub.Unregister(first)
	assert.True(t, hub.DeviceConnected("dev-1"))
}

func TestHubUnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
	hub.Register(client)

	hub.Unregister(client)
	hub.Unregister(client)

	assert.False(t, hub.DeviceConnected("dev-1"))
	assert.False(t, hub.SendToDevice("dev-1", NewStudentUpdate()))
}

func TestHubSendAfterClose(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
	hub.Register(client)

	client.close()
	assert.False(t, hub.SendToDevice("dev-1", NewStudentUpdate()), "closed channel is ineligible at send time")
}

func TestHubBroadcastToOperators(t *testing.T) {
	hub := NewHub()
	op1 := newClient(hub, nil, operatorIdentity("op-1", "school-1"))
	op2 := newClient(hub, nil, operatorIdentity("op-2", "school-1"))
	other := newClient(hub, nil, operatorIdentity("op-3", "school-2"))
	hub.Register(op1)
	hub.Register(op2)
	hub.Register(other)

	sent := hub.BroadcastToOperators("school-1", NewStudentUpdate())
	assert.Equal(t, 2, sent)
	drain(t, op1)
	drain(t, op2)
	assert.Empty(t, other.send, "broadcast must stay school-scoped")
}

func TestHubSlowConsumerEviction(t *testing.T) {
	hub := NewHub()
	client := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
	hub.Register(client)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, hub.SendToDevice("dev-1", NewStudentUpdate()))
	}
	// Buffer full: the client is evicted rather than blocking the caller.
	assert.False(t, hub.SendToDevice("dev-1", NewStudentUpdate()))
	assert.False(t, hub.DeviceConnected("dev-1"))
}

func TestHubConcurrentLifecycles(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newClient(hub, nil, deviceIdentity("dev-1", "school-1"))
			hub.Register(c)
			hub.SendToDevice("dev-1", NewStudentUpdate())
			hub.Unregister(c)
		}()
	}
	wg.Wait()
	assert.False(t, hub.DeviceConnected("dev-1"))
}
