package controllers

import (
	"github.com/classwatch/classwatch-backend/internal/ws"
)

// broadcastStudentUpdate tells every operator of the school to re-fetch
// device state. The signal carries no payload on purpose: the roster lives
// behind the HTTP read path, not inside the wire format.
func broadcastStudentUpdate(hub *ws.Hub, schoolID string) {
	if hub == nil {
		return
	}
	hub.BroadcastToOperators(schoolID, ws.NewStudentUpdate())
}
