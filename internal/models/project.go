package models

type Project struct {
	BaseModel

	Name        string `gorm:"not null"`
	Description string
	CreatedByID uint `gorm:"not null;index"`
	IsActive    bool `gorm:"not null;default:true"`

	// Relationships
	CreatedBy User   `gorm:"foreignKey:CreatedByID"`
	Sites     []Site `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
