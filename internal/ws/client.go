package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	authWait       = 10 * time.Second
	readLimit      = 64 * 1024
	sendBufferSize = 256
)

// Role tags a live channel as one of the two ends of the platform.
type Role string

const (
	RoleDevice   Role = "device"
	RoleOperator Role = "operator"
)

// Identity is the key a connection is registered under. Exactly one of
// DeviceID / OperatorID is set depending on Role.
type Identity struct {
	Role       Role
	SchoolID   string
	DeviceID   string
	OperatorID string
}

func (id Identity) key() string {
	if id.Role == RoleDevice {
		return id.DeviceID
	}
	return id.OperatorID
}

// Client is one registered duplex channel. Connections are never persisted;
// a hub restart drops them all and both ends re-authenticate.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity Identity
	openedAt time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		identity: identity,
		openedAt: time.Now().UTC(),
		done:     make(chan struct{}),
	}
}

func (c *Client) Identity() Identity {
	return c.identity
}

// close makes the channel immediately ineligible for further sends. Safe to
// call any number of times from any goroutine.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// trySend queues payload for the write pump. The eligibility check happens at
// send time, not just at close time, so a send cannot race a concurrent close.
// A full buffer marks the client as a slow consumer and evicts it.
func (c *Client) trySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		log.Printf("ws: evicting slow consumer %s/%s", c.identity.Role, c.identity.key())
		c.hub.Unregister(c)
		c.close()
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("ws: malformed message from %s/%s: %v", c.identity.Role, c.identity.key(), err)
			continue
		}
		c.handleEnvelope(env)
	}
}

func (c *Client) handleEnvelope(env Envelope) {
	relay := c.hub.Relay()
	switch env.Type {
	case TypeSignal:
		var payload SignalPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Printf("ws: malformed signal from %s/%s: %v", c.identity.Role, c.identity.key(), err)
			return
		}
		relay.HandleSignal(c.identity, payload)
	case TypeSignalRequest:
		if c.identity.Role == RoleOperator {
			relay.HandleRequest(c.identity.OperatorID, env.DeviceID)
		}
	case TypeSignalStop:
		if c.identity.Role == RoleOperator {
			relay.HandleStop(c.identity.OperatorID, env.DeviceID)
		}
	case TypeSignalStatus:
		relay.HandleStatus(c.identity, env.DeviceID, env.Status)
	default:
		log.Printf("ws: ignoring message type %q from %s/%s", env.Type, c.identity.Role, c.identity.key())
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
