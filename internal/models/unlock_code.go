package models

import "time"

// UnlockCode is a one-time code a teacher hands to a student so a locked
// device can release itself even when the push channel is down.
type UnlockCode struct {
    ID        uint    `gorm:"primaryKey"`
    IssuedBy  string  `gorm:"index"`
    DeviceID  *string `gorm:"index"` // nil = valid for any device in the school
    SchoolID  string  `gorm:"index"`
    Code      string  `gorm:"uniqueIndex"`
    UsedAt    *time.Time `gorm:"index"`
    RevokedAt *time.Time
    CreatedAt time.Time
}
