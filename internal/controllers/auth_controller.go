package controllers

import (
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/middleware"
    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/utils"
)

type AuthController struct {
    DB        *gorm.DB
    JWTSecret string
    ExpiresIn time.Duration
    CSRF      *middleware.CSRFStore
}

type registerRequest struct {
    FullName string `json:"full_name" binding:"required"`
    Email    string `json:"email" binding:"required,email"`
    Password string `json:"password" binding:"required,min=6"`
    SchoolID string `json:"school_id"`
    Role     string `json:"role"`
    Active   *bool  `json:"active"` // optional, defaults to true
}

type loginRequest struct {
    Email    string `json:"email" binding:"required,email"`
    Password string `json:"password" binding:"required"`
}

// Register creates an operator account. Admin-only; monitored devices are
// enrolled through the device controller instead.
func (a *AuthController) Register(c *gin.Context) {
    var req registerRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    pw, err := utils.HashPassword(req.Password)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
        return
    }

    role := req.Role
    if role == "" {
        role = "teacher"
    }
    if !IsValidRole(role) {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
        return
    }

    actor := c.MustGet("user").(models.User)
    schoolID := req.SchoolID
    if schoolID == "" {
        schoolID = actor.SchoolID
    }

    active := true
    if req.Active != nil {
        active = *req.Active
    }

    user := models.User{
        UserID:   uuid.NewString(),
        FullName: req.FullName,
        Email:    req.Email,
        Password: pw,
        Role:     role,
        SchoolID: schoolID,
        Active:   active,
    }

    if err := a.DB.Create(&user).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    c.JSON(http.StatusCreated, gin.H{
        "message":   "registered",
        "user_id":   user.UserID,
        "email":     user.Email,
        "full_name": user.FullName,
        "role":      user.Role,
        "school_id": user.SchoolID,
    })
}

func (a *AuthController) Login(c *gin.Context) {
    var req loginRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    var user models.User
    if err := a.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
        c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
        return
    }

    if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
        c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
        return
    }

    expiresAt := time.Now().Add(a.ExpiresIn)
    claims := middleware.Claims{
        UserID: user.UserID,
        Role:   user.Role,
        Email:  user.Email,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(expiresAt),
            IssuedAt:  jwt.NewNumericDate(time.Now()),
        },
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := token.SignedString([]byte(a.JWTSecret))
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "access_token": signed,
        "token_type":   "Bearer",
        "expires_at":   expiresAt,
        "user": gin.H{
            "user_id":   user.UserID,
            "full_name": user.FullName,
            "email":     user.Email,
            "role":      user.Role,
            "school_id": user.SchoolID,
        },
    })
}

func (a *AuthController) Me(c *gin.Context) {
    user := c.MustGet("user").(models.User)
    c.JSON(http.StatusOK, gin.H{
        "user_id":   user.UserID,
        "full_name": user.FullName,
        "email":     user.Email,
        "role":      user.Role,
        "school_id": user.SchoolID,
        "active":    user.Active,
    })
}

func (a *AuthController) Logout(c *gin.Context) {
    user := c.MustGet("user").(models.User)
    if a.CSRF != nil {
        a.CSRF.Invalidate(user.UserID)
    }
    c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CSRFToken hands the dashboard a fresh token to replay on mutating requests.
func (a *AuthController) CSRFToken(c *gin.Context) {
    user := c.MustGet("user").(models.User)
    c.JSON(http.StatusOK, gin.H{"csrf_token": a.CSRF.Issue(user.UserID)})
}
