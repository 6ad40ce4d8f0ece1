package models

import (
	"encoding/json"
	"time"
)

// ModeKind is the restriction currently applied to a device. The three
// variants are mutually exclusive: applying one clears the others.
type ModeKind string

const (
	ModeUnrestricted ModeKind = "unrestricted"
	ModeLocked       ModeKind = "locked"
	ModeFlightPath   ModeKind = "flight_path"
)

// Mode is the tagged device-mode variant. LockedURL is meaningful only for
// ModeLocked; the flight-path fields only for ModeFlightPath.
type Mode struct {
	Kind           ModeKind `json:"kind"`
	LockedURL      string   `json:"locked_url,omitempty"`
	FlightPathID   string   `json:"flight_path_id,omitempty"`
	FlightPathName string   `json:"flight_path_name,omitempty"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
}

func Unrestricted() Mode {
	return Mode{Kind: ModeUnrestricted}
}

func Locked(url string) Mode {
	return Mode{Kind: ModeLocked, LockedURL: url}
}

func FlightPathMode(id, name string, domains []string) Mode {
	return Mode{Kind: ModeFlightPath, FlightPathID: id, FlightPathName: name, AllowedDomains: domains}
}

// Device is one monitored browser install. The mode columns reflect the last
// command accepted by the dispatcher, not necessarily applied by the device.
type Device struct {
	ID         uint   `gorm:"primaryKey"`
	DeviceID   string `gorm:"uniqueIndex"`
	SchoolID   string `gorm:"index"`
	ClassID    string `gorm:"index"`
	GradeLevel string
	StudentName string

	ActiveTabURL   string
	ActiveTabTitle string
	Favicon        string
	CameraActive   bool

	ModeKind       ModeKind `gorm:"size:32;default:'unrestricted'"`
	LockedURL      string
	FlightPathID   string
	FlightPathName string
	AllowedDomains string `gorm:"type:text"` // JSON-encoded list

	LastSeenAt *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Mode reassembles the tagged variant from the stored columns.
func (d *Device) Mode() Mode {
	switch d.ModeKind {
	case ModeLocked:
		return Locked(d.LockedURL)
	case ModeFlightPath:
		var domains []string
		if d.AllowedDomains != "" {
			_ = json.Unmarshal([]byte(d.AllowedDomains), &domains)
		}
		return FlightPathMode(d.FlightPathID, d.FlightPathName, domains)
	default:
		return Unrestricted()
	}
}

// SetMode writes the variant back to the flat columns, clearing the fields
// that do not belong to the new kind.
func (d *Device) SetMode(m Mode) {
	d.ModeKind = m.Kind
	d.LockedURL = ""
	d.FlightPathID = ""
	d.FlightPathName = ""
	d.AllowedDomains = ""
	switch m.Kind {
	case ModeLocked:
		d.LockedURL = m.LockedURL
	case ModeFlightPath:
		d.FlightPathID = m.FlightPathID
		d.FlightPathName = m.FlightPathName
		if len(m.AllowedDomains) > 0 {
			if raw, err := json.Marshal(m.AllowedDomains); err == nil {
				d.AllowedDomains = string(raw)
			}
		}
	}
}
