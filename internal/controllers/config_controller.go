package controllers

import (
    "net/http"

    "github.com/gin-gonic/gin"

    "github.com/classwatch/classwatch-backend/internal/config"
)

// ConfigController serves the remote config the extension reads on startup.
type ConfigController struct {
    Cfg *config.Config
}

func (cc *ConfigController) Get(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{
        "min_extension_version":      cc.Cfg.MinExtensionVersion,
        "heartbeat_interval_seconds": int(cc.Cfg.HeartbeatInterval().Seconds()),
        "online_window_seconds":      int(cc.Cfg.OnlineWindow().Seconds()),
        "idle_window_seconds":        int(cc.Cfg.IdleWindow().Seconds()),
    })
}
