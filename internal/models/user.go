package models

import (
    "time"
)

// User is an operator account: a teacher supervising devices, or an admin.
// Monitored students are not users; they are Devices.
type User struct {
    ID        uint   `gorm:"primaryKey"`
    UserID    string `gorm:"uniqueIndex"`
    FullName  string
    Email     string `gorm:"uniqueIndex"`
    Password  string
    Role      string
    SchoolID  string `gorm:"index"`
    Active    bool
    CreatedAt time.Time
    UpdatedAt time.Time
}
