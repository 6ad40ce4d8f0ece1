package models

import "time"

// Heartbeat is one immutable activity sample reported by a device.
// Append-only; rows expire per the retention policy.
type Heartbeat struct {
	ID       uint   `gorm:"primaryKey"`
	DeviceID string `gorm:"index:idx_heartbeat_device_time"`
	Timestamp time.Time `gorm:"index:idx_heartbeat_device_time"`

	ActiveTabURL   string
	ActiveTabTitle string
	Favicon        string

	CameraActive     bool
	ScreenLocked     bool
	FlightPathActive bool

	ExtensionVersion string `gorm:"size:64"`
	CreatedAt        time.Time `gorm:"index"`
}
