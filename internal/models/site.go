package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/canopy-dev/canopy/internal/geometry"
)

type Site struct {
	BaseModel

	ProjectID   uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Geometry    datatypes.JSON `gorm:"type:jsonb"` // GeoJSON Polygon
	Area        float64        // Square meters, derived from Geometry
	CreatedByID uint           `gorm:"not null;index"`

	// Relationships
	Project   Project         `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	CreatedBy User            `gorm:"foreignKey:CreatedByID"`
	Analytics []SiteAnalytics `gorm:"foreignKey:SiteID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// BeforeSave keeps Area in sync with Geometry on every write. Clients
// can never set the area directly.
func (s *Site) BeforeSave(tx *gorm.DB) error {
	s.Area = geometry.PolygonArea(s.Geometry)
	return nil
}
