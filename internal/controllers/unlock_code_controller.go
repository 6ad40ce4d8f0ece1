package controllers

import (
    "log"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/audit"
    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/utils"
)

// UnlockCodeController manages one-time codes that release a locked device
// when the push channel is down.
type UnlockCodeController struct {
    DB    *gorm.DB
    Audit *audit.Logger
}

type generateCodeRequest struct {
    DeviceID string `json:"device_id"` // optional: bind the code to one device
}

func (uc *UnlockCodeController) Generate(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var req generateCodeRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    var deviceID *string
    if req.DeviceID != "" {
        var device models.Device
        if err := uc.DB.Where("device_id = ?", req.DeviceID).First(&device).Error; err != nil {
            c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
            return
        }
        deviceID = &device.DeviceID
    }

    code, err := utils.GenerateCode(6)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate code"})
        return
    }

    entry := models.UnlockCode{
        IssuedBy: actor.UserID,
        DeviceID: deviceID,
        SchoolID: actor.SchoolID,
        Code:     code,
    }
    if err := uc.DB.Create(&entry).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, gin.H{"code": code})
}

func (uc *UnlockCodeController) List(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var codes []models.UnlockCode
    if err := uc.DB.Where("school_id = ?", actor.SchoolID).
        Order("created_at DESC").Limit(100).Find(&codes).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"data": codes})
}

func (uc *UnlockCodeController) Revoke(c *gin.Context) {
    now := time.Now().UTC()
    res := uc.DB.Model(&models.UnlockCode{}).
        Where("id = ? AND used_at IS NULL AND revoked_at IS NULL", c.Param("id")).
        Update("revoked_at", now)
    if res.Error != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
        return
    }
    if res.RowsAffected == 0 {
        c.JSON(http.StatusNotFound, gin.H{"error": "code not found or already spent"})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "code revoked"})
}

type consumeCodeRequest struct {
    Code string `json:"code" binding:"required"`
}

// Consume is called by a locked device. A valid code clears its mode.
func (uc *UnlockCodeController) Consume(c *gin.Context) {
    device := c.MustGet("device").(models.Device)
    var req consumeCodeRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    var entry models.UnlockCode
    err := uc.DB.Where(
        "code = ? AND school_id = ? AND used_at IS NULL AND revoked_at IS NULL",
        req.Code, device.SchoolID,
    ).First(&entry).Error
    if err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "invalid or spent code"})
        return
    }
    if entry.DeviceID != nil && *entry.DeviceID != device.DeviceID {
        c.JSON(http.StatusForbidden, gin.H{"error": "code is bound to another device"})
        return
    }

    now := time.Now().UTC()
    if err := uc.DB.Transaction(func(tx *gorm.DB) error {
        if err := tx.Model(&models.UnlockCode{}).Where("id = ?", entry.ID).
            Update("used_at", now).Error; err != nil {
            return err
        }
        device.SetMode(models.Unrestricted())
        return tx.Model(&models.Device{}).Where("device_id = ?", device.DeviceID).
            Updates(map[string]any{
                "mode_kind":        device.ModeKind,
                "locked_url":       device.LockedURL,
                "flight_path_id":   device.FlightPathID,
                "flight_path_name": device.FlightPathName,
                "allowed_domains":  device.AllowedDomains,
            }).Error
    }); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    if uc.Audit != nil {
        if err := uc.Audit.Log("unlock-code.consume", device.DeviceID, entry.IssuedBy, map[string]any{
            "code_id": entry.ID,
        }); err != nil {
            log.Printf("unlock-code audit: %v", err)
        }
    }
    c.JSON(http.StatusOK, gin.H{"message": "unlocked"})
}
