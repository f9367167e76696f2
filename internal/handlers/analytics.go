package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canopy-dev/canopy/db"
	"github.com/canopy-dev/canopy/internal/config"
	"github.com/canopy-dev/canopy/internal/logger"
	"github.com/canopy-dev/canopy/internal/models"
	"github.com/canopy-dev/canopy/internal/services"
)

const dateLayout = "2006-01-02"

type RecordAnalyticsRequest struct {
	Site                uint    `json:"site" binding:"required"`
	Date                string  `json:"date" binding:"required"`
	CarbonSequestered   float64 `json:"carbon_sequestered"`
	CarbonOffset        float64 `json:"carbon_offset"`
	SpeciesCount        int     `json:"species_count"`
	VegetationIndex     float64 `json:"vegetation_index"`
	TreeCoverPercentage float64 `json:"tree_cover_percentage"`
	SoilQualityIndex    float64 `json:"soil_quality_index"`
	WaterRetention      float64 `json:"water_retention"`
}

type AnalyticsResponse struct {
	ID                  uint      `json:"id"`
	Site                uint      `json:"site"`
	SiteName            string    `json:"site_name"`
	Date                string    `json:"date"`
	CarbonSequestered   float64   `json:"carbon_sequestered"`
	CarbonOffset        float64   `json:"carbon_offset"`
	SpeciesCount        int       `json:"species_count"`
	VegetationIndex     float64   `json:"vegetation_index"`
	TreeCoverPercentage float64   `json:"tree_cover_percentage"`
	SoilQualityIndex    float64   `json:"soil_quality_index"`
	WaterRetention      float64   `json:"water_retention"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type SummaryResponse struct {
	TotalCarbonSequestered float64 `json:"total_carbon_sequestered"`
	AvgVegetationIndex     float64 `json:"avg_vegetation_index"`
	TotalSpecies           int     `json:"total_species"`
	AvgTreeCover           float64 `json:"avg_tree_cover"`
	TotalRecords           int64   `json:"total_records"`
	LatestDate             *string `json:"latest_date"`
}

type TimeSeriesResponse struct {
	Dates      []string  `json:"dates"`
	Carbon     []float64 `json:"carbon"`
	Vegetation []float64 `json:"vegetation"`
	Species    []int     `json:"species"`
	TreeCover  []float64 `json:"tree_cover"`
}

func ListAnalytics(ctx *gin.Context) {
	site, ok := requireSiteParam(ctx)

	if !ok {
		return
	}

	var records []models.SiteAnalytics

	if err := db.DB.Where("site_id = ?", site.ID).Order("date DESC").Find(&records).Error; err != nil {
		logger.L().Error("failed to list analytics", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analytics"})
		return
	}

	response := make([]AnalyticsResponse, 0, len(records))

	for _, record := range records {
		response = append(response, buildAnalyticsResponse(record, site.Name))
	}

	ctx.JSON(http.StatusOK, response)
}

// RecordAnalytics upserts a metrics record keyed by (site, date). The
// unique index resolves concurrent writers; unspecified metrics stay
// at zero.
func RecordAnalytics(ctx *gin.Context) {
	var req RecordAnalyticsRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Site and date are required"})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"date": "Date must be in YYYY-MM-DD format"})
		return
	}

	site, ok := lookupOwnedSite(ctx, strconv.FormatUint(uint64(req.Site), 10))

	if !ok {
		return
	}

	record := models.SiteAnalytics{
		SiteID:              site.ID,
		Date:                datatypes.Date(date),
		CarbonSequestered:   req.CarbonSequestered,
		CarbonOffset:        req.CarbonOffset,
		SpeciesCount:        req.SpeciesCount,
		VegetationIndex:     req.VegetationIndex,
		TreeCoverPercentage: req.TreeCoverPercentage,
		SoilQualityIndex:    req.SoilQualityIndex,
		WaterRetention:      req.WaterRetention,
	}

	err = db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "site_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"carbon_sequestered",
			"carbon_offset",
			"species_count",
			"vegetation_index",
			"tree_cover_percentage",
			"soil_quality_index",
			"water_retention",
			"updated_at",
		}),
	}).Create(&record).Error

	if err != nil {
		logger.L().Error("failed to record analytics", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record analytics"})
		return
	}

	// The upsert path leaves the struct ID unset when an existing row
	// was updated, so reload by key.
	if err := db.DB.Where("site_id = ? AND date = ?", site.ID, datatypes.Date(date)).First(&record).Error; err != nil {
		logger.L().Error("failed to reload analytics record", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record analytics"})
		return
	}

	ctx.JSON(http.StatusCreated, buildAnalyticsResponse(record, site.Name))
}

func GetSummary(ctx *gin.Context) {
	site, ok := requireSiteParam(ctx)

	if !ok {
		return
	}

	var total int64

	if err := db.DB.Model(&models.SiteAnalytics{}).Where("site_id = ?", site.ID).Count(&total).Error; err != nil {
		logger.L().Error("failed to count analytics", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	// Demo builds may backfill sample data on first read; production
	// configuration leaves reads side-effect-free.
	if total == 0 && config.Current != nil && config.Current.EnableSampleData {
		if _, err := services.GenerateSampleAnalytics(db.DB, site.ID, services.NewSampleRand()); err != nil {
			logger.L().Error("failed to generate sample analytics", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
			return
		}

		if err := db.DB.Model(&models.SiteAnalytics{}).Where("site_id = ?", site.ID).Count(&total).Error; err != nil {
			logger.L().Error("failed to recount analytics", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
			return
		}
	}

	var row struct {
		TotalCarbon  sql.NullFloat64
		AvgVeg       sql.NullFloat64
		MaxSpecies   sql.NullInt64
		AvgTreeCover sql.NullFloat64
	}

	err := db.DB.Model(&models.SiteAnalytics{}).
		Select("SUM(carbon_sequestered) AS total_carbon, AVG(vegetation_index) AS avg_veg, MAX(species_count) AS max_species, AVG(tree_cover_percentage) AS avg_tree_cover").
		Where("site_id = ?", site.ID).
		Scan(&row).Error

	if err != nil {
		logger.L().Error("failed to aggregate analytics", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	summary := SummaryResponse{
		TotalCarbonSequestered: row.TotalCarbon.Float64,
		AvgVegetationIndex:     row.AvgVeg.Float64,
		TotalSpecies:           int(row.MaxSpecies.Int64),
		AvgTreeCover:           row.AvgTreeCover.Float64,
		TotalRecords:           total,
	}

	var latest models.SiteAnalytics

	if err := db.DB.Where("site_id = ?", site.ID).Order("date DESC").First(&latest).Error; err == nil {
		formatted := time.Time(latest.Date).Format(dateLayout)
		summary.LatestDate = &formatted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.L().Error("failed to fetch latest analytics date", zap.Error(err))
	}

	ctx.JSON(http.StatusOK, summary)
}

func GetTimeSeries(ctx *gin.Context) {
	site, ok := requireSiteParam(ctx)

	if !ok {
		return
	}

	var records []models.SiteAnalytics

	if err := db.DB.Where("site_id = ?", site.ID).Order("date ASC").Find(&records).Error; err != nil {
		logger.L().Error("failed to load time series", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve time series"})
		return
	}

	response := TimeSeriesResponse{
		Dates:      make([]string, 0, len(records)),
		Carbon:     make([]float64, 0, len(records)),
		Vegetation: make([]float64, 0, len(records)),
		Species:    make([]int, 0, len(records)),
		TreeCover:  make([]float64, 0, len(records)),
	}

	for _, record := range records {
		response.Dates = append(response.Dates, time.Time(record.Date).Format(dateLayout))
		response.Carbon = append(response.Carbon, record.CarbonSequestered)
		response.Vegetation = append(response.Vegetation, record.VegetationIndex)
		response.Species = append(response.Species, record.SpeciesCount)
		response.TreeCover = append(response.TreeCover, record.TreeCoverPercentage)
	}

	ctx.JSON(http.StatusOK, response)
}

// SeedSampleAnalytics is the explicit fixture endpoint for demo data,
// available regardless of the summary backfill flag.
func SeedSampleAnalytics(ctx *gin.Context) {
	site, ok := requireSiteParam(ctx)

	if !ok {
		return
	}

	created, err := services.GenerateSampleAnalytics(db.DB, site.ID, services.NewSampleRand())

	if err != nil {
		logger.L().Error("failed to generate sample analytics", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate sample data"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"created": created})
}

func requireSiteParam(ctx *gin.Context) (models.Site, bool) {
	siteID := ctx.Query("site")

	if siteID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Site ID required"})
		return models.Site{}, false
	}

	return lookupOwnedSite(ctx, siteID)
}

func buildAnalyticsResponse(record models.SiteAnalytics, siteName string) AnalyticsResponse {
	return AnalyticsResponse{
		ID:                  record.ID,
		Site:                record.SiteID,
		SiteName:            siteName,
		Date:                time.Time(record.Date).Format(dateLayout),
		CarbonSequestered:   record.CarbonSequestered,
		CarbonOffset:        record.CarbonOffset,
		SpeciesCount:        record.SpeciesCount,
		VegetationIndex:     record.VegetationIndex,
		TreeCoverPercentage: record.TreeCoverPercentage,
		SoilQualityIndex:    record.SoilQualityIndex,
		WaterRetention:      record.WaterRetention,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}
