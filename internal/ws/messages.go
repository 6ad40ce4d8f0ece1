package ws

import "encoding/json"

// Message types exchanged over the duplex channel.
const (
	TypeAuth          = "auth"
	TypeStudentUpdate = "student-update"
	TypeSignal        = "signal"
	TypeSignalRequest = "signal-request"
	TypeSignalStop    = "signal-stop"
	TypeSignalStatus  = "signal-status"
)

// Envelope is the outer frame of every message read from a channel.
type Envelope struct {
	Type       string          `json:"type"`
	Role       string          `json:"role,omitempty"`
	DeviceID   string          `json:"deviceId,omitempty"`
	SchoolID   string          `json:"schoolId,omitempty"`
	OperatorID string          `json:"operatorId,omitempty"`
	Status     string          `json:"status,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// SignalPayload is the nested body of a TypeSignal envelope. Data is opaque
// to the relay; it is forwarded byte-identical in both directions.
type SignalPayload struct {
	Type     string          `json:"type"` // offer | answer | ice-candidate
	Data     json.RawMessage `json:"data"`
	DeviceID string          `json:"deviceId"`
}

// SignalMessage is the outbound frame carrying a forwarded payload.
type SignalMessage struct {
	Type string        `json:"type"`
	Data SignalPayload `json:"data"`
}

// StudentUpdate is the payload-free refresh signal broadcast to operators.
// Operators re-fetch device state over HTTP; the roster is deliberately not
// duplicated inside the wire format.
type StudentUpdate struct {
	Type string `json:"type"`
}

func NewStudentUpdate() StudentUpdate {
	return StudentUpdate{Type: TypeStudentUpdate}
}

// CommandMessage is the push frame for a dispatched command.
type CommandMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
