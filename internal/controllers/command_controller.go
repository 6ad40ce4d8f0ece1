package controllers

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/dispatch"
    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/ws"
)

type CommandController struct {
    DB         *gorm.DB
    Hub        *ws.Hub
    Dispatcher *dispatch.Dispatcher
}

type commandRequest struct {
    TargetDeviceIDs []string `json:"targetDeviceIds"`
    URL             string   `json:"url"`
    FlightPathID    string   `json:"flight_path_id"`
}

func (cmc *CommandController) dispatch(c *gin.Context, kind dispatch.Kind, payload any, targets []string) {
    user := c.MustGet("user").(models.User)

    var raw json.RawMessage
    if payload != nil {
        encoded, err := json.Marshal(payload)
        if err != nil {
            c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
            return
        }
        raw = encoded
    }

    res, err := cmc.Dispatcher.Dispatch(dispatch.Command{
        Kind:            kind,
        Payload:         raw,
        TargetDeviceIDs: targets,
        IssuedBy:        user.UserID,
        IssuedAt:        time.Now().UTC(),
    })
    if err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    // Mode changes shift what the dashboards render; nudge them to re-fetch.
    broadcastStudentUpdate(cmc.Hub, user.SchoolID)

    c.JSON(http.StatusOK, gin.H{
        "delivered": res.Delivered,
        "skipped":   res.Skipped,
        "summary":   res.Summary(),
    })
}

func (cmc *CommandController) bindRequest(c *gin.Context) (commandRequest, bool) {
    var req commandRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return req, false
    }
    return req, true
}

func (cmc *CommandController) OpenTab(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    if req.URL == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
        return
    }
    cmc.dispatch(c, dispatch.KindOpenTab, gin.H{"url": req.URL}, req.TargetDeviceIDs)
}

func (cmc *CommandController) CloseTabs(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    cmc.dispatch(c, dispatch.KindCloseTabs, nil, req.TargetDeviceIDs)
}

func (cmc *CommandController) LockScreen(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    cmc.dispatch(c, dispatch.KindLockScreen, dispatch.LockPayload{URL: req.URL}, req.TargetDeviceIDs)
}

func (cmc *CommandController) UnlockScreen(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    cmc.dispatch(c, dispatch.KindUnlockScreen, nil, req.TargetDeviceIDs)
}

func (cmc *CommandController) ApplyFlightPath(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    if req.FlightPathID == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "flight_path_id is required"})
        return
    }
    user := c.MustGet("user").(models.User)
    var fp models.FlightPath
    if err := cmc.DB.Where("id = ? AND school_id = ?", req.FlightPathID, user.SchoolID).First(&fp).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "flight path not found"})
        return
    }
    payload := dispatch.FlightPathPayload{
        ID:             fp.ID,
        Name:           fp.Name,
        AllowedDomains: fp.AllowedDomains(),
    }
    cmc.dispatch(c, dispatch.KindApplyFlightPath, payload, req.TargetDeviceIDs)
}

func (cmc *CommandController) RemoveFlightPath(c *gin.Context) {
    req, ok := cmc.bindRequest(c)
    if !ok {
        return
    }
    cmc.dispatch(c, dispatch.KindRemoveFlightPath, nil, req.TargetDeviceIDs)
}

// Ping pushes a best-effort notification to one device and reports whether
// it was delivered.
func (cmc *CommandController) Ping(c *gin.Context) {
    user := c.MustGet("user").(models.User)
    deviceID := c.Param("id")

    res, err := cmc.Dispatcher.Dispatch(dispatch.Command{
        Kind:            dispatch.KindPing,
        TargetDeviceIDs: []string{deviceID},
        IssuedBy:        user.UserID,
        IssuedAt:        time.Now().UTC(),
    })
    if err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"delivered": res.Delivered == 1})
}
