package controllers

import (
    "net/http"
    "strings"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"

    "github.com/classwatch/classwatch-backend/internal/models"
)

type FlightPathController struct {
    DB *gorm.DB
}

type flightPathRequest struct {
    Name           string   `json:"name" binding:"required"`
    Description    string   `json:"description"`
    AllowedDomains []string `json:"allowed_domains" binding:"required"`
}

type flightPathResponse struct {
    ID             string   `json:"id"`
    Name           string   `json:"name"`
    Description    string   `json:"description"`
    AllowedDomains []string `json:"allowed_domains"`
}

func toFlightPathResponse(fp models.FlightPath) flightPathResponse {
    return flightPathResponse{
        ID:             fp.ID,
        Name:           fp.Name,
        Description:    fp.Description,
        AllowedDomains: fp.AllowedDomains(),
    }
}

func cleanDomains(domains []string) []string {
    out := make([]string, 0, len(domains))
    for _, d := range domains {
        d = strings.ToLower(strings.TrimSpace(d))
        if d != "" {
            out = append(out, d)
        }
    }
    return out
}

func (fc *FlightPathController) List(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var paths []models.FlightPath
    if err := fc.DB.Where("school_id = ?", actor.SchoolID).Order("name").Find(&paths).Error; err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    out := make([]flightPathResponse, 0, len(paths))
    for _, fp := range paths {
        out = append(out, toFlightPathResponse(fp))
    }
    c.JSON(http.StatusOK, gin.H{"data": out})
}

func (fc *FlightPathController) Create(c *gin.Context) {
    actor := c.MustGet("user").(models.User)
    var req flightPathRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    domains := cleanDomains(req.AllowedDomains)
    if len(domains) == 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "allowed_domains must not be empty"})
        return
    }

    fp := models.FlightPath{
        SchoolID:    actor.SchoolID,
        Name:        strings.TrimSpace(req.Name),
        Description: req.Description,
    }
    if err := fp.SetAllowedDomains(domains); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    if err := fc.DB.Create(&fp).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, toFlightPathResponse(fp))
}

func (fc *FlightPathController) Get(c *gin.Context) {
    var fp models.FlightPath
    if err := fc.DB.Where("id = ?", c.Param("id")).First(&fp).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "flight path not found"})
        return
    }
    c.JSON(http.StatusOK, toFlightPathResponse(fp))
}

func (fc *FlightPathController) Update(c *gin.Context) {
    var fp models.FlightPath
    if err := fc.DB.Where("id = ?", c.Param("id")).First(&fp).Error; err != nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "flight path not found"})
        return
    }
    var req flightPathRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    domains := cleanDomains(req.AllowedDomains)
    if len(domains) == 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "allowed_domains must not be empty"})
        return
    }
    fp.Name = strings.TrimSpace(req.Name)
    fp.Description = req.Description
    if err := fp.SetAllowedDomains(domains); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    if err := fc.DB.Save(&fp).Error; err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, toFlightPathResponse(fp))
}

func (fc *FlightPathController) Delete(c *gin.Context) {
    res := fc.DB.Where("id = ?", c.Param("id")).Delete(&models.FlightPath{})
    if res.Error != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
        return
    }
    if res.RowsAffected == 0 {
        c.JSON(http.StatusNotFound, gin.H{"error": "flight path not found"})
        return
    }
    c.JSON(http.StatusOK, gin.H{"message": "flight path deleted"})
}
