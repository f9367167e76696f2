package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/canopy-dev/canopy/internal/models"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	// TranslateError surfaces unique-constraint violations as
	// gorm.ErrDuplicatedKey, which the handlers map to conflict
	// responses instead of racy check-then-insert lookups.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	models := []interface{}{
		&models.User{},
		&models.Project{},
		&models.Site{},
		&models.SiteAnalytics{},
	}

	migrator := DB.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := DB.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
