package models

import (
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

type Class struct {
    ID         string `gorm:"type:uuid;primaryKey"`
    SchoolID   string `gorm:"index;uniqueIndex:uniq_school_class_name"`
    Name       string `gorm:"uniqueIndex:uniq_school_class_name"`
    GradeLevel string
    Active     bool
    CreatedAt  time.Time
    UpdatedAt  time.Time
}

func (c *Class) BeforeCreate(tx *gorm.DB) (err error) {
    if c.ID == "" {
        c.ID = uuid.NewString()
    }
    return nil
}

// ClassTeacher maps a teacher to the classes they supervise. Admins are
// allowed everywhere by role; this mapping scopes teachers.
type ClassTeacher struct {
    ID        uint   `gorm:"primaryKey"`
    UserIDRef string `gorm:"uniqueIndex:uniq_teacher_class"`
    ClassID   string `gorm:"uniqueIndex:uniq_teacher_class"`
    CreatedAt time.Time
}

// ClassStudent maps a monitored device to the class it belongs to.
type ClassStudent struct {
    ID        uint   `gorm:"primaryKey"`
    DeviceID  string `gorm:"uniqueIndex:uniq_device_class"`
    ClassID   string `gorm:"uniqueIndex:uniq_device_class"`
    CreatedAt time.Time
}
