package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canopy-dev/canopy/db"
	"github.com/canopy-dev/canopy/internal/logger"
	"github.com/canopy-dev/canopy/internal/models"
	"github.com/canopy-dev/canopy/internal/utils"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by" binding:"omitempty,email"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CreatedBy         string    `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SiteCount         int64     `json:"site_count"`
}

func CreateProject(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	owner, ok := resolveOwner(ctx, req.CreatedBy)

	if !ok {
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedByID: owner.ID,
		IsActive:    true,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		logger.L().Error("failed to create project", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, ProjectResponse{
		ID:                project.ID,
		Name:              project.Name,
		Description:       project.Description,
		CreatedBy:         owner.Email,
		CreatedByUsername: owner.Username,
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	})
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	if err := db.DB.Preload("CreatedBy").
		Where("created_by_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC, id DESC").
		Find(&projects).Error; err != nil {
		logger.L().Error("failed to list projects", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, buildProjectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	project, ok := findOwnedProject(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, buildProjectResponse(project))
}

func UpdateProject(ctx *gin.Context) {
	project, ok := findOwnedProject(ctx)

	if !ok {
		return
	}

	var req UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != "" {
		project.Name = req.Name
	}

	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := db.DB.Omit(clause.Associations).Save(&project).Error; err != nil {
		logger.L().Error("failed to update project", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, buildProjectResponse(project))
}

// DeleteProject flips the IsActive flag rather than removing rows.
// Inactive projects and their sites disappear from every listing.
func DeleteProject(ctx *gin.Context) {
	project, ok := findOwnedProject(ctx)

	if !ok {
		return
	}

	if err := db.DB.Model(&project).Update("is_active", false).Error; err != nil {
		logger.L().Error("failed to delete project", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// resolveOwner applies the explicit owner-resolution policy: an owner
// email in the request binds that user (404 when absent), otherwise
// the record belongs to the authenticated caller.
func resolveOwner(ctx *gin.Context, ownerEmail string) (models.User, bool) {
	if ownerEmail != "" {
		var owner models.User

		if err := db.DB.Where("email = ?", ownerEmail).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"created_by": "User with this email does not exist"})
			} else {
				logger.L().Error("failed to resolve owner", zap.Error(err))
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return models.User{}, false
		}

		return owner, true
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.User{}, false
	}

	return models.User{
		BaseModel: models.BaseModel{ID: currentUser.ID},
		Email:     currentUser.Email,
		Username:  currentUser.Username,
	}, true
}

// findOwnedProject loads the active project from the path parameter,
// scoped to the caller. Projects owned by other users report not
// found rather than forbidden.
func findOwnedProject(ctx *gin.Context) (models.Project, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Project{}, false
	}

	projectID := ctx.Param("project_id")

	var project models.Project

	if err := db.DB.Preload("CreatedBy").
		Where("id = ? AND created_by_id = ? AND is_active = ?", projectID, userID, true).
		First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logger.L().Error("failed to retrieve project", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return models.Project{}, false
	}

	return project, true
}

func buildProjectResponse(project models.Project) ProjectResponse {
	var siteCount int64

	db.DB.Model(&models.Site{}).Where("project_id = ?", project.ID).Count(&siteCount)

	return ProjectResponse{
		ID:                project.ID,
		Name:              project.Name,
		Description:       project.Description,
		CreatedBy:         project.CreatedBy.Email,
		CreatedByUsername: project.CreatedBy.Username,
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
		SiteCount:         siteCount,
	}
}
