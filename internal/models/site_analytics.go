package models

import (
	"gorm.io/datatypes"
)

type SiteAnalytics struct {
	BaseModel

	SiteID uint           `gorm:"not null;index;uniqueIndex:idx_site_analytics_site_date"`
	Date   datatypes.Date `gorm:"not null;uniqueIndex:idx_site_analytics_site_date"`

	// Carbon metrics, in metric tons
	CarbonSequestered float64 `gorm:"not null;default:0"`
	CarbonOffset      float64 `gorm:"not null;default:0"`

	// Biodiversity metrics
	SpeciesCount        int     `gorm:"not null;default:0"`
	VegetationIndex     float64 `gorm:"not null;default:0"` // NDVI, 0-1
	TreeCoverPercentage float64 `gorm:"not null;default:0"`

	// Environmental metrics
	SoilQualityIndex float64 `gorm:"not null;default:0"` // 0-100 scale
	WaterRetention   float64 `gorm:"not null;default:0"` // Cubic meters

	// Relationships
	Site Site `gorm:"foreignKey:SiteID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
