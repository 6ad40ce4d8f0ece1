package controllers

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/middleware"
    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/presence"
)

type DeviceController struct {
    DB         *gorm.DB
    JWTSecret  string
    Thresholds presence.Thresholds
}

type registerDeviceRequest struct {
    StudentName string `json:"student_name" binding:"required"`
    ClassID     string `json:"class_id"`
    GradeLevel  string `json:"grade_level"`
}

// RegisterDevice enrolls a browser install and mints its long-lived token.
func (dc *DeviceController) RegisterDevice(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var req registerDeviceRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    device := models.Device{
        DeviceID:    uuid.NewString(),
        SchoolID:    actor.SchoolID,
        ClassID:     req.ClassID,
        GradeLevel:  req.GradeLevel,
        StudentName: req.StudentName,
        ModeKind:    models.ModeUnrestricted,
    }
    if err := dc.DB.Transaction(func(tx *gorm.DB) error {
        if err := tx.Create(&device).Error; err != nil {
            return err
        }
        if req.ClassID != "" {
            assignment := models.ClassStudent{DeviceID: device.DeviceID, ClassID: req.ClassID}
            return tx.Where(&assignment).FirstOrCreate(&assignment).Error
        }
        return nil
    }); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    claims := middleware.DeviceClaims{
        DeviceID: device.DeviceID,
        SchoolID: device.SchoolID,
        RegisteredClaims: jwt.RegisteredClaims{
            IssuedAt: jwt.NewNumericDate(time.Now()),
        },
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := token.SignedString([]byte(dc.JWTSecret))
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign device token"})
        return
    }

    c.JSON(http.StatusCreated, gin.H{
        "device_id":    device.DeviceID,
        "school_id":    device.SchoolID,
        "device_token": signed,
    })
}

type deviceRow struct {
    DeviceID       string      `json:"device_id"`
    StudentName    string      `json:"student_name"`
    ClassID        string      `json:"class_id"`
    GradeLevel     string      `json:"grade_level"`
    ActiveTabURL   string      `json:"active_tab_url"`
    ActiveTabTitle string      `json:"active_tab_title"`
    Favicon        string      `json:"favicon"`
    CameraActive   bool        `json:"camera_active"`
    Mode           models.Mode `json:"mode"`
    Status         presence.Status `json:"status"`
    OffTask        bool        `json:"off_task"`
    LastSeenAt     *time.Time  `json:"last_seen_at"`
}

func (dc *DeviceController) toRow(d models.Device, now time.Time) deviceRow {
    var lastSeen time.Time
    if d.LastSeenAt != nil {
        lastSeen = *d.LastSeenAt
    }
    status := presence.Evaluate(lastSeen, now, dc.Thresholds)
    mode := d.Mode()
    return deviceRow{
        DeviceID:       d.DeviceID,
        StudentName:    d.StudentName,
        ClassID:        d.ClassID,
        GradeLevel:     d.GradeLevel,
        ActiveTabURL:   d.ActiveTabURL,
        ActiveTabTitle: d.ActiveTabTitle,
        Favicon:        d.Favicon,
        CameraActive:   d.CameraActive,
        Mode:           mode,
        Status:         status,
        OffTask:        presence.OffTask(status, d.ActiveTabURL, mode.AllowedDomains),
        LastSeenAt:     d.LastSeenAt,
    }
}

// visibleClassIDs returns nil plus true when the operator is an admin.
func (dc *DeviceController) visibleClassIDs(user models.User) ([]string, bool, error) {
    if user.Role == "admin" {
        return nil, true, nil
    }
    var assignments []models.ClassTeacher
    if err := dc.DB.Where("user_id_ref = ?", user.UserID).Find(&assignments).Error; err != nil {
        return nil, false, err
    }
    ids := make([]string, 0, len(assignments))
    for _, a := range assignments {
        ids = append(ids, a.ClassID)
    }
    return ids, false, nil
}

// ListDevices returns the roster with presence and off-task evaluated at read
// time. Status is derived, never stored.
func (dc *DeviceController) ListDevices(c *gin.Context) {
    user := c.MustGet("user").(models.User)

    limit := 50
    page := 1
    if v := c.Query("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            limit = n
        }
    }
    if v := c.Query("page"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            page = n
        }
    }
    sortBy := strings.ToLower(c.DefaultQuery("sort_by", "last_seen_at"))
    sortDir := strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
    if sortDir != "ASC" && sortDir != "DESC" {
        sortDir = "DESC"
    }
    allowedSorts := map[string]string{
        "last_seen_at": "last_seen_at",
        "student_name": "student_name",
        "grade_level":  "grade_level",
    }
    sortCol, ok := allowedSorts[sortBy]
    if !ok {
        sortCol = "last_seen_at"
    }

    classIDs, isAdmin, err := dc.visibleClassIDs(user)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    q := dc.DB.Model(&models.Device{}).Where("school_id = ?", user.SchoolID)
    if !isAdmin {
        if len(classIDs) == 0 {
            c.JSON(http.StatusOK, gin.H{"data": []any{}, "meta": gin.H{"total": 0}})
            return
        }
        q = q.Where("class_id IN ?", classIDs)
    }
    if search := strings.TrimSpace(c.Query("q")); search != "" {
        q = q.Where("student_name ILIKE ?", "%"+search+"%")
    }
    if classID := strings.TrimSpace(c.Query("class_id")); classID != "" {
        q = q.Where("class_id = ?", classID)
    }

    var total int64
    if err := q.Count(&total).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    var devices []models.Device
    if err := q.Order(sortCol + " " + sortDir + " NULLS LAST").
        Offset((page - 1) * limit).Limit(limit).
        Find(&devices).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }

    now := time.Now().UTC()
    rows := make([]deviceRow, 0, len(devices))
    for _, d := range devices {
        rows = append(rows, dc.toRow(d, now))
    }
    c.JSON(http.StatusOK, gin.H{
        "data": rows,
        "meta": gin.H{"total": total, "limit": limit, "page": page, "sort_by": sortBy, "sort_dir": sortDir},
    })
}

func (dc *DeviceController) GetDevice(c *gin.Context) {
    var device models.Device
    if err := dc.DB.Where("device_id = ?", c.Param("id")).First(&device).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
        return
    }
    c.JSON(http.StatusOK, dc.toRow(device, time.Now().UTC()))
}

func (dc *DeviceController) DeleteDevice(c *gin.Context) {
    deviceID := c.Param("id")
    if err := dc.DB.Transaction(func(tx *gorm.DB) error {
        if err := tx.Where("device_id = ?", deviceID).Delete(&models.ClassStudent{}).Error; err != nil {
            return err
        }
        if err := tx.Where("device_id = ?", deviceID).Delete(&models.Heartbeat{}).Error; err != nil {
            return err
        }
        return tx.Where("device_id = ?", deviceID).Delete(&models.Device{}).Error
    }); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "device deleted"})
}
