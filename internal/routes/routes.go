package routes

import (
    "strconv"
    "time"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/audit"
    "github.com/classwatch/classwatch-backend/internal/config"
    "github.com/classwatch/classwatch-backend/internal/controllers"
    "github.com/classwatch/classwatch-backend/internal/dispatch"
    "github.com/classwatch/classwatch-backend/internal/middleware"
    "github.com/classwatch/classwatch-backend/internal/presence"
    "github.com/classwatch/classwatch-backend/internal/ws"
)

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, hub *ws.Hub) {
    expires := 60 * time.Minute
    if n, err := strconv.Atoi(cfg.JWTExpiresIn); err == nil && n > 0 {
        expires = time.Duration(n) * time.Minute
    }

    thresholds := presence.Thresholds{
        OnlineWindow: cfg.OnlineWindow(),
        IdleWindow:   cfg.IdleWindow(),
    }

    auditor := audit.NewLogger(db)
    dispatcher := dispatch.NewDispatcher(hub, &dispatch.GormRoster{DB: db}, auditor, &dispatch.GormModes{DB: db})
    csrfStore := middleware.NewCSRFStore(cfg.CSRFTokenTTL())

    authCtrl := &controllers.AuthController{DB: db, JWTSecret: cfg.JWTSecret, ExpiresIn: expires, CSRF: csrfStore}
    adminCtrl := &controllers.AdminController{DB: db}
    classCtrl := &controllers.ClassController{DB: db}
    deviceCtrl := &controllers.DeviceController{DB: db, JWTSecret: cfg.JWTSecret, Thresholds: thresholds}
    heartbeatCtrl := &controllers.HeartbeatController{DB: db, Hub: hub, MinExtensionVersion: cfg.MinExtensionVersion}
    commandCtrl := &controllers.CommandController{DB: db, Hub: hub, Dispatcher: dispatcher}
    flightPathCtrl := &controllers.FlightPathController{DB: db}
    unlockCtrl := &controllers.UnlockCodeController{DB: db, Audit: auditor}
    cfgCtrl := &controllers.ConfigController{Cfg: cfg}

    // Public
    r.POST("/api/v1/auth/login", authCtrl.Login)
    r.GET("/api/v1/config/public", cfgCtrl.Get)

    // Device surface (device token auth, no CSRF: no cookies involved)
    deviceAuth := middleware.DeviceAuthMiddleware(db, cfg.JWTSecret)
    deviceAPI := r.Group("/api/v1", deviceAuth)
    {
        deviceAPI.POST("/heartbeats", heartbeatCtrl.Ingest)
        deviceAPI.POST("/unlock-codes/consume", unlockCtrl.Consume)
    }

    // Operator surface
    authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{
        JWTSecret:    cfg.JWTSecret,
        JWTExpiresIn: expires,
    })
    api := r.Group("/api/v1", authMW)
    {
        api.GET("/auth/me", authCtrl.Me)
        api.GET("/auth/csrf", authCtrl.CSRFToken)
        api.POST("/auth/logout", authCtrl.Logout)

        // Mutating operator requests replay the CSRF token.
        csrfMW := middleware.CSRFMiddleware(csrfStore)

        // Admin-only
        admin := api.Group("/admin", middleware.RequireRoles("admin"), csrfMW)
        {
            admin.GET("/users", adminCtrl.ListUsers)
            admin.POST("/users", authCtrl.Register)
            admin.GET("/users/:user_id", adminCtrl.GetUser)
            admin.PUT("/users/:user_id", adminCtrl.UpdateUser)
            admin.DELETE("/users/:user_id", adminCtrl.DeleteUser)

            admin.GET("/classes", classCtrl.ListClasses)
            admin.POST("/classes", classCtrl.CreateClass)
            admin.GET("/classes/:id", classCtrl.GetClass)
            admin.PUT("/classes/:id", classCtrl.UpdateClass)
            admin.DELETE("/classes/:id", classCtrl.DeleteClass)

            admin.POST("/classes/:id/teachers", classCtrl.AssignTeacher)
            admin.DELETE("/classes/:id/teachers/:user_id", classCtrl.UnassignTeacher)
            admin.POST("/classes/:id/devices", classCtrl.AssignDevice)
            admin.DELETE("/classes/:id/devices/:device_id", classCtrl.UnassignDevice)
            admin.GET("/classes/:id/devices", classCtrl.ListClassDevices)

            admin.POST("/devices", deviceCtrl.RegisterDevice)
            admin.DELETE("/devices/:id", deviceCtrl.DeleteDevice)
        }

        // Teacher and admin
        ops := api.Group("", middleware.RequireRoles("teacher", "admin"), csrfMW)
        {
            ops.GET("/devices", deviceCtrl.ListDevices)
            ops.GET("/devices/:id", deviceCtrl.GetDevice)
            ops.POST("/devices/:id/ping", commandCtrl.Ping)

            ops.POST("/commands/open-tab", commandCtrl.OpenTab)
            ops.POST("/commands/close-tabs", commandCtrl.CloseTabs)
            ops.POST("/commands/lock-screen", commandCtrl.LockScreen)
            ops.POST("/commands/unlock-screen", commandCtrl.UnlockScreen)
            ops.POST("/commands/apply-flight-path", commandCtrl.ApplyFlightPath)
            ops.POST("/commands/remove-flight-path", commandCtrl.RemoveFlightPath)

            ops.GET("/flight-paths", flightPathCtrl.List)
            ops.POST("/flight-paths", flightPathCtrl.Create)
            ops.GET("/flight-paths/:id", flightPathCtrl.Get)
            ops.PUT("/flight-paths/:id", flightPathCtrl.Update)
            ops.DELETE("/flight-paths/:id", flightPathCtrl.Delete)

            ops.POST("/unlock-codes/generate", unlockCtrl.Generate)
            ops.GET("/unlock-codes", unlockCtrl.List)
            ops.POST("/unlock-codes/:id/revoke", unlockCtrl.Revoke)
        }

        // Operator realtime channel (auth handshake happens in-band too)
        api.GET("/ws/operator", ws.OperatorHandler(hub))
    }

    // Device realtime channel: identity comes from the in-band handshake.
    r.GET("/ws/device", ws.DeviceHandler(db, hub))
}
