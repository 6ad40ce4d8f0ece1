package controllers

import (
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/utils"
    "github.com/classwatch/classwatch-backend/internal/ws"
)

type HeartbeatController struct {
    DB                  *gorm.DB
    Hub                 *ws.Hub
    MinExtensionVersion string
}

type heartbeatRequest struct {
    Timestamp        *time.Time `json:"timestamp"`
    ActiveTabURL     string     `json:"active_tab_url"`
    ActiveTabTitle   string     `json:"active_tab_title"`
    Favicon          string     `json:"favicon"`
    CameraActive     bool       `json:"camera_active"`
    ScreenLocked     bool       `json:"screen_locked"`
    FlightPathActive bool       `json:"flight_path_active"`
    ExtensionVersion string     `json:"extension_version"`
}

// Ingest appends one activity sample and refreshes the device's live fields,
// then nudges the school's operators to re-fetch.
func (hc *HeartbeatController) Ingest(c *gin.Context) {
    device := c.MustGet("device").(models.Device)

    var req heartbeatRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    at := time.Now().UTC()
    if req.Timestamp != nil && !req.Timestamp.IsZero() {
        at = req.Timestamp.UTC()
    }

    sample := models.Heartbeat{
        DeviceID:         device.DeviceID,
        Timestamp:        at,
        ActiveTabURL:     req.ActiveTabURL,
        ActiveTabTitle:   req.ActiveTabTitle,
        Favicon:          req.Favicon,
        CameraActive:     req.CameraActive,
        ScreenLocked:     req.ScreenLocked,
        FlightPathActive: req.FlightPathActive,
        ExtensionVersion: req.ExtensionVersion,
    }
    if err := hc.DB.Create(&sample).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    updates := map[string]any{
        "active_tab_url":   req.ActiveTabURL,
        "active_tab_title": req.ActiveTabTitle,
        "favicon":          req.Favicon,
        "camera_active":    req.CameraActive,
        "last_seen_at":     at,
    }
    if err := hc.DB.Model(&models.Device{}).Where("device_id = ?", device.DeviceID).
        Updates(updates).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    broadcastStudentUpdate(hc.Hub, device.SchoolID)

    resp := gin.H{"message": "ok"}
    if req.ExtensionVersion != "" &&
        utils.CompareVersions(req.ExtensionVersion, hc.MinExtensionVersion) < 0 {
        resp["update_required"] = true
        resp["min_extension_version"] = hc.MinExtensionVersion
    }
    c.JSON(http.StatusOK, resp)
}
