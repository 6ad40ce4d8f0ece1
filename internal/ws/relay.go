package ws

import (
	"log"
	"sync"
)

// SessionState tracks where a live-view negotiation stands. The relay never
// inspects the negotiation payload itself; state moves only on the message
// subtypes and on explicit status reports from the endpoints.
type SessionState string

const (
	SessionIdle           SessionState = "idle"
	SessionOfferSent      SessionState = "offer-sent"
	SessionAnswerReceived SessionState = "answer-received"
	SessionNegotiating    SessionState = "negotiating"
	SessionEstablished    SessionState = "established"
	SessionFailed         SessionState = "failed"
	SessionClosed         SessionState = "closed"
)

type peerSender interface {
	SendToDevice(deviceID string, v any) bool
	SendToOperator(operatorID string, v any) bool
}

type relaySession struct {
	operatorID string
	state      SessionState
}

// Relay forwards peer-connection negotiation messages between exactly one
// operator and exactly one device, keyed by deviceId. It is an opaque
// forwarder: payload bytes pass through untouched, which keeps it agnostic
// of the negotiation protocol version.
type Relay struct {
	peers peerSender

	mu       sync.Mutex
	sessions map[string]*relaySession // deviceID -> session
}

func NewRelay(peers peerSender) *Relay {
	return &Relay{
		peers:    peers,
		sessions: make(map[string]*relaySession),
	}
}

// HandleRequest starts (or restarts) a live-view session. A newer request for
// the same device replaces the previous watcher.
func (r *Relay) HandleRequest(operatorID, deviceID string) {
	if !r.peers.SendToDevice(deviceID, Envelope{Type: TypeSignalRequest, DeviceID: deviceID}) {
		log.Printf("relay: drop view request for device %s: not connected", deviceID)
		return
	}
	r.mu.Lock()
	r.sessions[deviceID] = &relaySession{operatorID: operatorID, state: SessionIdle}
	r.mu.Unlock()
}

// HandleSignal forwards one negotiation message. Device-originated messages
// go to the watching operator, tagged with the originating deviceId so one
// dashboard can multiplex many devices; operator-originated messages go to
// the device named in the payload. Messages with no matching peer are dropped
// silently, logged at debug level, since the peer may simply not have
// connected yet. Early ice-candidates are not buffered here; queuing is the
// endpoint's responsibility.
func (r *Relay) HandleSignal(from Identity, payload SignalPayload) {
	switch from.Role {
	case RoleDevice:
		payload.DeviceID = from.DeviceID

		r.mu.Lock()
		sess, ok := r.sessions[from.DeviceID]
		if ok {
			r.advanceLocked(sess, from.Role, payload.Type)
		}
		r.mu.Unlock()

		if !ok {
			log.Printf("relay: drop %s from device %s: no watching operator", payload.Type, from.DeviceID)
			return
		}
		if !r.peers.SendToOperator(sess.operatorID, SignalMessage{Type: TypeSignal, Data: payload}) {
			log.Printf("relay: drop %s from device %s: operator %s not connected", payload.Type, from.DeviceID, sess.operatorID)
		}
	case RoleOperator:
		deviceID := payload.DeviceID
		if deviceID == "" {
			log.Printf("relay: drop %s from operator %s: no deviceId", payload.Type, from.OperatorID)
			return
		}

		r.mu.Lock()
		if sess, ok := r.sessions[deviceID]; ok && sess.operatorID == from.OperatorID {
			r.advanceLocked(sess, from.Role, payload.Type)
		}
		r.mu.Unlock()

		if !r.peers.SendToDevice(deviceID, SignalMessage{Type: TypeSignal, Data: payload}) {
			log.Printf("relay: drop %s from operator %s: device %s not connected", payload.Type, from.OperatorID, deviceID)
		}
	}
}

// advanceLocked moves the session state machine. Caller holds r.mu.
func (r *Relay) advanceLocked(sess *relaySession, from Role, signalType string) {
	switch signalType {
	case "offer":
		if from == RoleDevice {
			sess.state = SessionOfferSent
		}
	case "answer":
		if from == RoleOperator && sess.state == SessionOfferSent {
			sess.state = SessionAnswerReceived
		}
	case "ice-candidate":
		// Candidates flow both ways from offer-sent onward.
		if sess.state == SessionAnswerReceived {
			sess.state = SessionNegotiating
		}
	}
}

// HandleStatus records an endpoint's report that the peer link came up or
// failed. The relay cannot observe the direct media path itself.
func (r *Relay) HandleStatus(from Identity, deviceID, status string) {
	if from.Role == RoleDevice {
		deviceID = from.DeviceID
	}

	r.mu.Lock()
	sess, ok := r.sessions[deviceID]
	if ok {
		switch status {
		case "established":
			sess.state = SessionEstablished
		case "failed":
			sess.state = SessionFailed
		}
	}
	r.mu.Unlock()

	if ok && from.Role == RoleDevice {
		r.peers.SendToOperator(sess.operatorID, Envelope{Type: TypeSignalStatus, DeviceID: deviceID, Status: status})
	}
}

// HandleStop ends a session on the operator's request and tells the device to
// release local capture.
func (r *Relay) HandleStop(operatorID, deviceID string) {
	r.mu.Lock()
	sess, ok := r.sessions[deviceID]
	if ok && sess.operatorID == operatorID {
		sess.state = SessionClosed
		delete(r.sessions, deviceID)
	}
	r.mu.Unlock()

	if ok {
		r.peers.SendToDevice(deviceID, Envelope{Type: TypeSignalStop, DeviceID: deviceID})
	}
}

// HandleDisconnect closes any sessions the departing connection was part of.
// A device's watcher gets a closed status; an operator's devices get a stop
// so capture is released.
func (r *Relay) HandleDisconnect(id Identity) {
	switch id.Role {
	case RoleDevice:
		r.mu.Lock()
		sess, ok := r.sessions[id.DeviceID]
		if ok {
			delete(r.sessions, id.DeviceID)
		}
		r.mu.Unlock()
		if ok {
			r.peers.SendToOperator(sess.operatorID, Envelope{Type: TypeSignalStatus, DeviceID: id.DeviceID, Status: string(SessionClosed)})
		}
	case RoleOperator:
		r.mu.Lock()
		var stopped []string
		for deviceID, sess := range r.sessions {
			if sess.operatorID == id.OperatorID {
				stopped = append(stopped, deviceID)
				delete(r.sessions, deviceID)
			}
		}
		r.mu.Unlock()
		for _, deviceID := range stopped {
			r.peers.SendToDevice(deviceID, Envelope{Type: TypeSignalStop, DeviceID: deviceID})
		}
	}
}

// SessionState returns the tracked state for a device's live-view session.
func (r *Relay) SessionState(deviceID string) (SessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[deviceID]
	if !ok {
		return "", false
	}
	return sess.state, true
}
