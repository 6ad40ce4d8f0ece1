package controllers

import (
    "net/http"
    "strings"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
)

type ClassController struct {
    DB *gorm.DB
}

type classRequest struct {
    Name       string `json:"name" binding:"required"`
    GradeLevel string `json:"grade_level"`
    Active     *bool  `json:"active"`
}

func (cc *ClassController) ListClasses(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var classes []models.Class
    if err := cc.DB.Where("school_id = ?", actor.SchoolID).Order("name").Find(&classes).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"data": classes})
}

func (cc *ClassController) CreateClass(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var req classRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    active := true
    if req.Active != nil {
        active = *req.Active
    }
    class := models.Class{
        SchoolID:   actor.SchoolID,
        Name:       strings.TrimSpace(req.Name),
        GradeLevel: req.GradeLevel,
        Active:     active,
    }
    if err := cc.DB.Create(&class).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, class)
}

func (cc *ClassController) GetClass(c *gin.Context) {
    var class models.Class
    if err := cc.DB.Where("id = ?", c.Param("id")).First(&class).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
        return
    }
    c.JSON(http.StatusOK, class)
}

func (cc *ClassController) UpdateClass(c *gin.Context) {
    var class models.Class
    if err := cc.DB.Where("id = ?", c.Param("id")).First(&class).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
        return
    }
    var req classRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    class.Name = strings.TrimSpace(req.Name)
    class.GradeLevel = req.GradeLevel
    if req.Active != nil {
        class.Active = *req.Active
    }
    if err := cc.DB.Save(&class).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, class)
}

func (cc *ClassController) DeleteClass(c *gin.Context) {
    id := c.Param("id")
    if err := cc.DB.Transaction(func(tx *gorm.DB) error {
        if err := tx.Where("class_id = ?", id).Delete(&models.ClassTeacher{}).Error; err != nil {
            return err
        }
        if err := tx.Where("class_id = ?", id).Delete(&models.ClassStudent{}).Error; err != nil {
            return err
        }
        return tx.Where("id = ?", id).Delete(&models.Class{}).Error
    }); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "class deleted"})
}

type assignTeacherRequest struct {
    UserID string `json:"user_id" binding:"required"`
}

func (cc *ClassController) AssignTeacher(c *gin.Context) {
    classID := c.Param("id")
    var req assignTeacherRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    var user models.User
    if err := cc.DB.Where("user_id = ?", req.UserID).First(&user).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
        return
    }
    if user.Role != "teacher" && user.Role != "admin" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "user is not an operator"})
        return
    }
    assignment := models.ClassTeacher{UserIDRef: req.UserID, ClassID: classID}
    if err := cc.DB.Where(&assignment).FirstOrCreate(&assignment).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, gin.H{"message": "teacher assigned"})
}

func (cc *ClassController) UnassignTeacher(c *gin.Context) {
    if err := cc.DB.Where("class_id = ? AND user_id_ref = ?", c.Param("id"), c.Param("user_id")).
        Delete(&models.ClassTeacher{}).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "teacher unassigned"})
}

type assignDeviceRequest struct {
    DeviceID string `json:"device_id" binding:"required"`
}

func (cc *ClassController) AssignDevice(c *gin.Context) {
    classID := c.Param("id")
    var req assignDeviceRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    var device models.Device
    if err := cc.DB.Where("device_id = ?", req.DeviceID).First(&device).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
        return
    }
    if err := cc.DB.Transaction(func(tx *gorm.DB) error {
        assignment := models.ClassStudent{DeviceID: req.DeviceID, ClassID: classID}
        if err := tx.Where(&assignment).FirstOrCreate(&assignment).Error; err != nil {
            return err
        }
        return tx.Model(&models.Device{}).Where("device_id = ?", req.DeviceID).
            Update("class_id", classID).Error
    }); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, gin.H{"message": "device assigned"})
}

func (cc *ClassController) UnassignDevice(c *gin.Context) {
    if err := cc.DB.Where("class_id = ? AND device_id = ?", c.Param("id"), c.Param("device_id")).
        Delete(&models.ClassStudent{}).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "device unassigned"})
}

func (cc *ClassController) ListClassDevices(c *gin.Context) {
    var devices []models.Device
    err := cc.DB.Model(&models.Device{}).
        Joins("JOIN class_students cs ON cs.device_id = devices.device_id").
        Where("cs.class_id = ?", c.Param("id")).
        Find(&devices).Error
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"data": devices})
}
