package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeers struct {
	devices   map[string]bool
	operators map[string]bool

	toDevice   map[string][]any
	toOperator map[string][]any
}

func newFakePeers() *fakePeers {
	return &fakePeers{
		devices:    make(map[string]bool),
		operators:  make(map[string]bool),
		toDevice:   make(map[string][]any),
		toOperator: make(map[string][]any),
	}
}

func (f *fakePeers) SendToDevice(deviceID string, v any) bool {
	if !f.devices[deviceID] {
		return false
	}
	f.toDevice[deviceID] = append(f.toDevice[deviceID], v)
	return true
}

func (f *fakePeers) SendToOperator(operatorID string, v any) bool {
	if !f.operators[operatorID] {
		return false
	}
	f.toOperator[operatorID] = append(f.toOperator[operatorID], v)
	return true
}

func startSession(t *testing.T, peers *fakePeers) *Relay {
	t.Helper()
	peers.devices["dev-1"] = true
	peers.operators["op-1"] = true
	relay := NewRelay(peers)
	relay.HandleRequest("op-1", "dev-1")
	require.Len(t, peers.toDevice["dev-1"], 1, "device should receive the view request")
	return relay
}

func TestRelayForwardsOfferToWatcher(t *testing.T) {
	peers := newFakePeers()
	relay := startSession(t, peers)

	offer := SignalPayload{Type: "offer", Data: json.RawMessage(`{"sdp":"v=0 fake"}`)}
	relay.HandleSignal(deviceIdentity("dev-1", "school-1"), offer)

	require.Len(t, peers.toOperator["op-1"], 1)
	msg := peers.toOperator["op-1"][0].(SignalMessage)
	assert.Equal(t, TypeSignal, msg.Type)
	assert.Equal(t, "offer", msg.Data.Type)
	assert.Equal(t, "dev-1", msg.Data.DeviceID, "forwarded message is tagged with the originating device")

	state, ok := relay.SessionState("dev-1")
	require.True(t, ok)
	assert.Equal(t, SessionOfferSent, state)
}

// The relay is an opaque forwarder: payload bytes pass through untouched for
// all three message subtypes.
func TestRelayOpacity(t *testing.T) {
	for _, subtype := range []string{"offer", "answer", "ice-candidate"} {
		t.Run(subtype, func(t *testing.T) {
			peers := newFakePeers()
			relay := startSession(t, peers)

			raw := json.RawMessage(`{"nested":{"weird":  "spacing"},"n":1.50}`)
			if subtype == "offer" || subtype == "ice-candidate" {
				relay.HandleSignal(deviceIdentity("dev-1", "school-1"), SignalPayload{Type: subtype, Data: raw})
				require.Len(t, peers.toOperator["op-1"], 1)
				got := peers.toOperator["op-1"][0].(SignalMessage)
				assert.Equal(t, string(raw), string(got.Data.Data))
			} else {
				relay.HandleSignal(operatorIdentity("op-1", "school-1"), SignalPayload{Type: subtype, Data: raw, DeviceID: "dev-1"})
				require.Len(t, peers.toDevice["dev-1"], 2) // view request + answer
				got := peers.toDevice["dev-1"][1].(SignalMessage)
				assert.Equal(t, string(raw), string(got.Data.Data))
			}
		})
	}
}

func TestRelayStateMachine(t *testing.T) {
	peers := newFakePeers()
	relay := startSession(t, peers)

	relay.HandleSignal(deviceIdentity("dev-1", "school-1"), SignalPayload{Type: "offer", Data: json.RawMessage(`{}`)})
	relay.HandleSignal(operatorIdentity("op-1", "school-1"), SignalPayload{Type: "answer", Data: json.RawMessage(`{}`), DeviceID: "dev-1"})

	state, _ := relay.SessionState("dev-1")
	assert.Equal(t, SessionAnswerReceived, state)

	relay.HandleSignal(deviceIdentity("dev-1", "school-1"), SignalPayload{Type: "ice-candidate", Data: json.RawMessage(`{}`)})
	state, _ = relay.SessionState("dev-1")
	assert.Equal(t, SessionNegotiating, state)

	relay.HandleStatus(deviceIdentity("dev-1", "school-1"), "", "established")
	state, _ = relay.SessionState("dev-1")
	assert.Equal(t, SessionEstablished, state)
}

func TestRelayNoPeerDropsSilently(t *testing.T) {
	peers := newFakePeers()
	peers.devices["dev-1"] = true
	relay := NewRelay(peers)

	// No session: an unsolicited offer goes nowhere and nothing panics.
	relay.HandleSignal(deviceIdentity("dev-1", "school-1"), SignalPayload{Type: "offer", Data: json.RawMessage(`{}`)})
	assert.Empty(t, peers.toOperator)

	_, ok := relay.SessionState("dev-1")
	assert.False(t, ok)
}

func TestRelayStopNotifiesDevice(t *testing.T) {
	peers := newFakePeers()
	relay := startSession(t, peers)

	relay.HandleStop("op-1", "dev-1")

	require.Len(t, peers.toDevice["dev-1"], 2)
	env := peers.toDevice["dev-1"][1].(Envelope)
	assert.Equal(t, TypeSignalStop, env.Type)

	_, ok := relay.SessionState("dev-1")
	assert.False(t, ok, "session is gone after stop")
}

func TestRelayOperatorDisconnectStopsCapture(t *testing.T) {
	peers := newFakePeers()
	relay := startSession(t, peers)

	relay.HandleDisconnect(operatorIdentity("op-1", "school-1"))

	require.Len(t, peers.toDevice["dev-1"], 2)
	env := peers.toDevice["dev-1"][1].(Envelope)
	assert.Equal(t, TypeSignalStop, env.Type)
}

func TestRelayDeviceDisconnectClosesWatcher(t *testing.T) {
	peers := newFakePeers()
	relay := startSession(t, peers)

	relay.HandleDisconnect(deviceIdentity("dev-1", "school-1"))

	require.Len(t, peers.toOperator["op-1"], 1)
	env := peers.toOperator["op-1"][0].(Envelope)
	assert.Equal(t, TypeSignalStatus, env.Type)
	assert.Equal(t, string(SessionClosed), env.Status)
}
