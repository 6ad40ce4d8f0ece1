package models

import (
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

type School struct {
    ID        string `gorm:"type:uuid;primaryKey"`
    Name      string `gorm:"uniqueIndex"`
    Active    bool
    CreatedAt time.Time
    UpdatedAt time.Time
}

func (s *School) BeforeCreate(tx *gorm.DB) (err error) {
    if s.ID == "" {
        s.ID = uuid.NewString()
    }
    return nil
}
