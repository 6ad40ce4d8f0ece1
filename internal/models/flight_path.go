package models

import (
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

// FlightPath is a named allow-list of domains a device can be restricted to.
type FlightPath struct {
    ID          string `gorm:"type:uuid;primaryKey"`
    SchoolID    string `gorm:"index;uniqueIndex:uniq_school_flight_path"`
    Name        string `gorm:"uniqueIndex:uniq_school_flight_path"`
    Description string
    Domains     string `gorm:"type:text"` // JSON-encoded ordered list
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

func (fp *FlightPath) BeforeCreate(tx *gorm.DB) (err error) {
    if fp.ID == "" {
        fp.ID = uuid.NewString()
    }
    return nil
}

func (fp *FlightPath) AllowedDomains() []string {
    var domains []string
    if fp.Domains != "" {
        _ = json.Unmarshal([]byte(fp.Domains), &domains)
    }
    return domains
}

func (fp *FlightPath) SetAllowedDomains(domains []string) error {
    raw, err := json.Marshal(domains)
    if err != nil {
        return err
    }
    fp.Domains = string(raw)
    return nil
}
