package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canopy-dev/canopy/db"
	"github.com/canopy-dev/canopy/internal/logger"
	"github.com/canopy-dev/canopy/internal/models"
	"github.com/canopy-dev/canopy/internal/utils"
)

type CreateSiteRequest struct {
	Project        uint            `json:"project" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Geometry       json.RawMessage `json:"geometry" binding:"required"`
	CreatedByEmail string          `json:"created_by_email" binding:"omitempty,email"`
}

type UpdateSiteRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Geometry    json.RawMessage `json:"geometry"`
}

type SiteResponse struct {
	ID                uint            `json:"id"`
	Project           uint            `json:"project"`
	ProjectName       string          `json:"project_name"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Geometry          json.RawMessage `json:"geometry"`
	Area              float64         `json:"area"`
	CreatedByUsername string          `json:"created_by_username"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type FeatureProperties struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Area              float64 `json:"area"`
	ProjectName       string  `json:"project_name"`
	CreatedByUsername string  `json:"created_by_username"`
	CreatedAt         string  `json:"created_at"`
}

type Feature struct {
	Type       string            `json:"type"`
	ID         uint              `json:"id"`
	Geometry   json.RawMessage   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// ListSites returns the caller's sites as a GeoJSON FeatureCollection
// for map display, optionally narrowed to one project.
func ListSites(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Preload("Project").Preload("CreatedBy").
		Joins("JOIN projects ON projects.id = sites.project_id").
		Where("sites.created_by_id = ? AND projects.is_active = ?", userID, true).
		Order("sites.created_at DESC, sites.id DESC")

	if projectID := ctx.Query("project"); projectID != "" {
		query = query.Where("sites.project_id = ?", projectID)
	}

	var sites []models.Site

	if err := query.Find(&sites).Error; err != nil {
		logger.L().Error("failed to list sites", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sites"})
		return
	}

	features := make([]Feature, 0, len(sites))

	for _, site := range sites {
		features = append(features, buildFeature(site))
	}

	ctx.JSON(http.StatusOK, FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	})
}

func CreateSite(ctx *gin.Context) {
	var req CreateSiteRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	owner, ok := resolveOwner(ctx, req.CreatedByEmail)

	if !ok {
		return
	}

	// The project lookup is scoped to the caller, so other users'
	// projects report not found rather than confirming they exist.
	var project models.Project

	if err := db.DB.Where("id = ? AND created_by_id = ? AND is_active = ?", req.Project, userID, true).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logger.L().Error("failed to retrieve project", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	site := models.Site{
		ProjectID:   project.ID,
		Name:        req.Name,
		Description: req.Description,
		Geometry:    datatypes.JSON(req.Geometry),
		CreatedByID: owner.ID,
	}

	// Area is derived in the model's BeforeSave hook, never taken
	// from the request.
	if err := db.DB.Create(&site).Error; err != nil {
		logger.L().Error("failed to create site", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create site"})
		return
	}

	site.Project = project
	site.CreatedBy = models.User{Username: owner.Username}

	ctx.JSON(http.StatusCreated, buildSiteResponse(site))
}

func GetSite(ctx *gin.Context) {
	site, ok := findOwnedSite(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, buildSiteResponse(site))
}

func UpdateSite(ctx *gin.Context) {
	site, ok := findOwnedSite(ctx)

	if !ok {
		return
	}

	var req UpdateSiteRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != "" {
		site.Name = req.Name
	}

	if req.Description != nil {
		site.Description = *req.Description
	}

	if req.Geometry != nil {
		site.Geometry = datatypes.JSON(req.Geometry)
	}

	if err := db.DB.Omit(clause.Associations).Save(&site).Error; err != nil {
		logger.L().Error("failed to update site", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update site"})
		return
	}

	ctx.JSON(http.StatusOK, buildSiteResponse(site))
}

// DeleteSite removes the site and its analytics records in one
// transaction. The explicit analytics delete keeps cascade behavior
// identical across database engines.
func DeleteSite(ctx *gin.Context) {
	site, ok := findOwnedSite(ctx)

	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site_id = ?", site.ID).Delete(&models.SiteAnalytics{}).Error; err != nil {
			return err
		}

		return tx.Delete(&site).Error
	})

	if err != nil {
		logger.L().Error("failed to delete site", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete site"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func findOwnedSite(ctx *gin.Context) (models.Site, bool) {
	return lookupOwnedSite(ctx, ctx.Param("site_id"))
}

// lookupOwnedSite loads a site scoped to the caller, masking sites
// owned by other users as not found.
func lookupOwnedSite(ctx *gin.Context, siteID string) (models.Site, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Site{}, false
	}

	var site models.Site

	if err := db.DB.Preload("Project").Preload("CreatedBy").
		Joins("JOIN projects ON projects.id = sites.project_id").
		Where("sites.id = ? AND sites.created_by_id = ? AND projects.is_active = ?", siteID, userID, true).
		First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
		} else {
			logger.L().Error("failed to retrieve site", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve site"})
		}
		return models.Site{}, false
	}

	return site, true
}

func buildSiteResponse(site models.Site) SiteResponse {
	return SiteResponse{
		ID:                site.ID,
		Project:           site.ProjectID,
		ProjectName:       site.Project.Name,
		Name:              site.Name,
		Description:       site.Description,
		Geometry:          json.RawMessage(site.Geometry),
		Area:              site.Area,
		CreatedByUsername: site.CreatedBy.Username,
		CreatedAt:         site.CreatedAt,
		UpdatedAt:         site.UpdatedAt,
	}
}

func buildFeature(site models.Site) Feature {
	return Feature{
		Type:     "Feature",
		ID:       site.ID,
		Geometry: json.RawMessage(site.Geometry),
		Properties: FeatureProperties{
			ID:                site.ID,
			Name:              site.Name,
			Description:       site.Description,
			Area:              site.Area,
			ProjectName:       site.Project.Name,
			CreatedByUsername: site.CreatedBy.Username,
			CreatedAt:         site.CreatedAt.Format(time.RFC3339),
		},
	}
}
