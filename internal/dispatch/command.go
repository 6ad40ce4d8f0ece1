package dispatch

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind names one operator-issued command.
type Kind string

const (
	KindOpenTab          Kind = "open-tab"
	KindCloseTabs        Kind = "close-tabs"
	KindLockScreen       Kind = "lock-screen"
	KindUnlockScreen     Kind = "unlock-screen"
	KindApplyFlightPath  Kind = "apply-flight-path"
	KindRemoveFlightPath Kind = "remove-flight-path"
	KindPing             Kind = "ping"
)

var knownKinds = map[Kind]struct{}{
	KindOpenTab:          {},
	KindCloseTabs:        {},
	KindLockScreen:       {},
	KindUnlockScreen:     {},
	KindApplyFlightPath:  {},
	KindRemoveFlightPath: {},
	KindPing:             {},
}

func ValidKind(k Kind) bool {
	_, ok := knownKinds[k]
	return ok
}

// Command is one dispatch unit. An empty TargetDeviceIDs means "every device
// currently visible to the issuing operator". Commands are not queued; only
// the audit projection of a dispatch is durable.
type Command struct {
	Kind            Kind
	Payload         json.RawMessage
	TargetDeviceIDs []string
	IssuedBy        string
	IssuedAt        time.Time
}

// Result is the aggregate delivery outcome reported back to the operator.
// No per-device failure detail is guaranteed beyond these counts.
type Result struct {
	Delivered int `json:"delivered"`
	Skipped   int `json:"skipped"`
}

func (r Result) Summary() string {
	return fmt.Sprintf("delivered to %d device(s), %d unreachable", r.Delivered, r.Skipped)
}

// LockPayload is the body of a lock-screen command.
type LockPayload struct {
	URL string `json:"url,omitempty"`
}

// FlightPathPayload is the body of an apply-flight-path command. The core
// treats a flight path as an opaque payload to relay; these fields are read
// only to record the device's mode.
type FlightPathPayload struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AllowedDomains []string `json:"allowedDomains"`
}
