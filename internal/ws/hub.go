package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub owns the live connection table. The table is reachable only through
// this narrow interface; nothing outside the package can iterate or mutate
// the connection set. No operation blocks on external I/O while the table
// lock is held: payloads are marshalled before the lock, and delivery to a
// resolved client goes through its buffered send channel.
type Hub struct {
	mu        sync.RWMutex
	devices   map[string]*Client // deviceID -> client
	operators map[string]*Client // operatorID -> client

	relay *Relay
}

func NewHub() *Hub {
	h := &Hub{
		devices:   make(map[string]*Client),
		operators: make(map[string]*Client),
	}
	h.relay = NewRelay(h)
	return h
}

func (h *Hub) Relay() *Relay {
	return h.relay
}

// Register adds a connection under its identity. A duplicate identity is
// resolved last-writer-wins: the older channel is evicted and closed so a
// device has exactly one authoritative channel at a time.
func (h *Hub) Register(c *Client) {
	var evicted *Client

	h.mu.Lock()
	switch c.identity.Role {
	case RoleDevice:
		if old, ok := h.devices[c.identity.DeviceID]; ok && old != c {
			evicted = old
		}
		h.devices[c.identity.DeviceID] = c
	case RoleOperator:
		if old, ok := h.operators[c.identity.OperatorID]; ok && old != c {
			evicted = old
		}
		h.operators[c.identity.OperatorID] = c
	}
	h.mu.Unlock()

	if evicted != nil {
		evicted.close()
		log.Printf("ws: replaced %s connection for %s", c.identity.Role, c.identity.key())
	}
}

// Unregister removes a connection if it is still the registered one for its
// identity. Idempotent: safe to call repeatedly or after the channel closed,
// and a no-op when a newer registration already replaced this client.
func (h *Hub) Unregister(c *Client) {
	removed := false

	h.mu.Lock()
	switch c.identity.Role {
	case RoleDevice:
		if cur, ok := h.devices[c.identity.DeviceID]; ok && cur == c {
			delete(h.devices, c.identity.DeviceID)
			removed = true
		}
	case RoleOperator:
		if cur, ok := h.operators[c.identity.OperatorID]; ok && cur == c {
			delete(h.operators, c.identity.OperatorID)
			removed = true
		}
	}
	h.mu.Unlock()

	if removed {
		h.relay.HandleDisconnect(c.identity)
	}
}

// SendToDevice marshals v and queues it on the device's channel. The return
// value only says a live connection was found and the send was attempted; it
// does not guarantee the remote end processed it.
func (h *Hub) SendToDevice(deviceID string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws: marshal for device %s: %v", deviceID, err)
		return false
	}
	h.mu.RLock()
	c, ok := h.devices[deviceID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.trySend(payload)
}

// SendToOperator is the symmetric counterpart used by the signaling relay.
func (h *Hub) SendToOperator(operatorID string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws: marshal for operator %s: %v", operatorID, err)
		return false
	}
	h.mu.RLock()
	c, ok := h.operators[operatorID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.trySend(payload)
}

// BroadcastToOperators delivers v to every operator scoped to the school,
// at most once per currently-open connection, with no ordering guarantee
// across operators. Returns how many sends were attempted.
func (h *Hub) BroadcastToOperators(schoolID string, v any) int {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws: marshal broadcast for school %s: %v", schoolID, err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.operators))
	for _, c := range h.operators {
		if c.identity.SchoolID == schoolID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.trySend(payload) {
			sent++
		}
	}
	return sent
}

// DeviceConnected reports whether a device currently holds a live channel.
func (h *Hub) DeviceConnected(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.devices[deviceID]
	return ok
}
