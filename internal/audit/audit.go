package audit

import (
    "encoding/json"

    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
)

// Logger writes durable audit entries. Command dispatches keep only this
// projection; the commands themselves are never queued.
type Logger struct {
    DB *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
    return &Logger{DB: db}
}

func (l *Logger) Log(action, entityID, actorID string, metadata map[string]any) error {
    entry := models.AuditLog{
        Action:   action,
        EntityID: entityID,
        ActorID:  actorID,
    }
    if len(metadata) > 0 {
        raw, err := json.Marshal(metadata)
        if err != nil {
            return err
        }
        entry.Metadata = string(raw)
    }
    return l.DB.Create(&entry).Error
}
