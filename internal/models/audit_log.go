package models

import "time"

// AuditLog records one dispatcher invocation or roster mutation.
type AuditLog struct {
    ID        uint   `gorm:"primaryKey"`
    Action    string `gorm:"index"`
    EntityID  string `gorm:"index"`
    ActorID   string `gorm:"index"`
    Metadata  string `gorm:"type:text"` // JSON-encoded
    CreatedAt time.Time `gorm:"index"`
}
