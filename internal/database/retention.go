package database

import (
    "log"
    "time"

    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
)

// PruneHeartbeats deletes samples older than the cutoff and returns how many
// rows were removed.
func PruneHeartbeats(db *gorm.DB, cutoff time.Time) (int64, error) {
    res := db.Where("timestamp < ?", cutoff).Delete(&models.Heartbeat{})
    return res.RowsAffected, res.Error
}

// StartHeartbeatPruner runs PruneHeartbeats on a ticker until stop is closed.
func StartHeartbeatPruner(db *gorm.DB, interval, retention time.Duration, stop <-chan struct{}) {
    go func() {
        ticker := time.NewTicker(interval)
        defer ticker.Stop()
        for {
            select {
            case <-ticker.C:
                if n, err := PruneHeartbeats(db, time.Now().UTC().Add(-retention)); err != nil {
                    log.Printf("heartbeat pruner: %v", err)
                } else if n > 0 {
                    log.Printf("heartbeat pruner: removed %d samples", n)
                }
            case <-stop:
                return
            }
        }
    }()
}
