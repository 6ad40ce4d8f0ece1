package main

import (
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"

    "github.com/gin-gonic/gin"

    "github.com/classwatch/classwatch-backend/internal/config"
    "github.com/classwatch/classwatch-backend/internal/database"
    "github.com/classwatch/classwatch-backend/internal/routes"
    "github.com/classwatch/classwatch-backend/internal/ws"
)

func main() {
    // Load .env (non-fatal if missing in production)
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Connect(cfg)
    if err != nil {
        log.Fatalf("database connection failed: %v", err)
    }

    if err := database.Migrate(db); err != nil {
        log.Fatalf("database migration failed: %v", err)
    }

    if err := database.SeedAdmin(db, cfg); err != nil {
        log.Fatalf("admin seed failed: %v", err)
    }

    hub := ws.NewHub()

    stopPruner := make(chan struct{})
    defer close(stopPruner)
    database.StartHeartbeatPruner(db, time.Hour, cfg.HeartbeatRetention(), stopPruner)

    r := gin.Default()
    routes.Register(r, db, cfg, hub)

    port := cfg.Port
    if port == "" {
        port = "8080"
    }

    if err := r.Run(":" + port); err != nil {
        log.Println("server exited with error:", err)
        os.Exit(1)
    }
}
