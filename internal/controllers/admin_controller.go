package controllers

import (
    "net/http"
    "strings"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/utils"
)

type AdminController struct {
    DB *gorm.DB
}

type userResponse struct {
    UserID   string `json:"user_id"`
    FullName string `json:"full_name"`
    Email    string `json:"email"`
    Role     string `json:"role"`
    SchoolID string `json:"school_id"`
    Active   bool   `json:"active"`
}

func toUserResponse(u models.User) userResponse {
    return userResponse{
        UserID:   u.UserID,
        FullName: u.FullName,
        Email:    u.Email,
        Role:     u.Role,
        SchoolID: u.SchoolID,
        Active:   u.Active,
    }
}

func (ac *AdminController) ListUsers(c *gin.Context) {
    q := ac.DB.Model(&models.User{})
    if role := strings.TrimSpace(c.Query("role")); role != "" {
        q = q.Where("role = ?", role)
    }
    if search := strings.TrimSpace(c.Query("q")); search != "" {
        like := "%" + search + "%"
        q = q.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
    }

    var users []models.User
    if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    out := make([]userResponse, 0, len(users))
    for _, u := range users {
        out = append(out, toUserResponse(u))
    }
    c.JSON(http.StatusOK, gin.H{"data": out})
}

func (ac *AdminController) GetUser(c *gin.Context) {
    var user models.User
    if err := ac.DB.Where("user_id = ?", c.Param("user_id")).First(&user).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
        return
    }
    c.JSON(http.StatusOK, toUserResponse(user))
}

type updateUserRequest struct {
    FullName *string `json:"full_name"`
    Email    *string `json:"email"`
    Password *string `json:"password"`
    Role     *string `json:"role"`
    Active   *bool   `json:"active"`
}

func (ac *AdminController) UpdateUser(c *gin.Context) {
    var user models.User
    if err := ac.DB.Where("user_id = ?", c.Param("user_id")).First(&user).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
        return
    }

    var req updateUserRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    if req.FullName != nil {
        user.FullName = *req.FullName
    }
    if req.Email != nil {
        user.Email = *req.Email
    }
    if req.Password != nil && *req.Password != "" {
        hashed, err := utils.HashPassword(*req.Password)
        if err != nil {
            c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
            return
        }
        user.Password = hashed
    }
    if req.Role != nil {
        if !IsValidRole(*req.Role) {
            c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
            return
        }
        user.Role = *req.Role
    }
    if req.Active != nil {
        user.Active = *req.Active
    }

    if err := ac.DB.Save(&user).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, toUserResponse(user))
}

func (ac *AdminController) DeleteUser(c *gin.Context) {
    res := ac.DB.Where("user_id = ?", c.Param("user_id")).Delete(&models.User{})
    if res.Error != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
        return
    }
    if res.RowsAffected == 0 {
        c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
