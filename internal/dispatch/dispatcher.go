package dispatch

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/classwatch/classwatch-backend/internal/models"
	"github.com/classwatch/classwatch-backend/internal/ws"
)

// DeviceSender pushes a message to one connected device. Satisfied by ws.Hub.
type DeviceSender interface {
	SendToDevice(deviceID string, v any) bool
}

// Roster resolves "every device the operator may see".
type Roster interface {
	VisibleDeviceIDs(operatorID string) ([]string, error)
}

// Auditor records one entry per dispatch invocation.
type Auditor interface {
	Log(action, entityID, actorID string, metadata map[string]any) error
}

// ModeRecorder persists the last command accepted for a device. It reflects
// acceptance by the dispatcher, not application by the device.
type ModeRecorder interface {
	RecordMode(deviceID string, mode models.Mode) error
}

// Dispatcher validates a command, resolves its target set and fans it out to
// currently-connected devices. Delivery is synchronous and best-effort:
// unreachable devices are counted as skipped, never retried, never queued.
type Dispatcher struct {
	Sender DeviceSender
	Roster Roster
	Audit  Auditor
	Modes  ModeRecorder
}

func NewDispatcher(sender DeviceSender, roster Roster, audit Auditor, modes ModeRecorder) *Dispatcher {
	return &Dispatcher{Sender: sender, Roster: roster, Audit: audit, Modes: modes}
}

// Dispatch pushes cmd to every resolved target. Per-target failures are
// isolated: one unreachable device never prevents delivery to the rest.
// Exactly one audit entry is written per invocation, even when every target
// is skipped. Roster lookups and audit writes happen outside the hub's
// connection-table lock by construction.
func (d *Dispatcher) Dispatch(cmd Command) (Result, error) {
	if !ValidKind(cmd.Kind) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	if cmd.IssuedBy == "" {
		return Result{}, ErrNoIssuer
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now().UTC()
	}

	targets := cmd.TargetDeviceIDs
	if len(targets) == 0 {
		resolved, err := d.Roster.VisibleDeviceIDs(cmd.IssuedBy)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrRosterLookup, err)
		}
		targets = resolved
	}

	msg := ws.CommandMessage{Type: string(cmd.Kind), Payload: cmd.Payload}
	mode, hasMode := modeFor(cmd)

	var res Result
	for _, deviceID := range targets {
		if !d.Sender.SendToDevice(deviceID, msg) {
			res.Skipped++
			continue
		}
		res.Delivered++
		if hasMode && d.Modes != nil {
			if err := d.Modes.RecordMode(deviceID, mode); err != nil {
				log.Printf("dispatch: record mode for %s: %v", deviceID, err)
			}
		}
	}

	if d.Audit != nil {
		err := d.Audit.Log("command."+string(cmd.Kind), "", cmd.IssuedBy, map[string]any{
			"kind":      string(cmd.Kind),
			"targets":   len(targets),
			"delivered": res.Delivered,
			"skipped":   res.Skipped,
		})
		if err != nil {
			log.Printf("dispatch: audit write failed: %v", err)
		}
	}

	return res, nil
}

// modeFor maps a command to the device mode it implies. Lock and flight-path
// supersede each other; the mutual exclusion lives in the tagged Mode type.
func modeFor(cmd Command) (models.Mode, bool) {
	switch cmd.Kind {
	case KindLockScreen:
		var p LockPayload
		if len(cmd.Payload) > 0 {
			_ = json.Unmarshal(cmd.Payload, &p)
		}
		return models.Locked(p.URL), true
	case KindUnlockScreen, KindRemoveFlightPath:
		return models.Unrestricted(), true
	case KindApplyFlightPath:
		var p FlightPathPayload
		if len(cmd.Payload) > 0 {
			_ = json.Unmarshal(cmd.Payload, &p)
		}
		return models.FlightPathMode(p.ID, p.Name, p.AllowedDomains), true
	default:
		return models.Mode{}, false
	}
}
