package services

import (
	"math/rand"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/canopy-dev/canopy/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	// A second connection would see a different in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Site{}, &models.SiteAnalytics{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return gdb
}

func seedSite(t *testing.T, gdb *gorm.DB) models.Site {
	t.Helper()

	user := models.User{Email: "owner@example.com", Username: "owner", PasswordHash: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	project := models.Project{Name: "Amazon Restoration", CreatedByID: user.ID, IsActive: true}
	if err := gdb.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	site := models.Site{ProjectID: project.ID, Name: "North Plot", CreatedByID: user.ID}
	if err := gdb.Create(&site).Error; err != nil {
		t.Fatalf("failed to create site: %v", err)
	}

	return site
}

func TestGenerateSampleAnalytics_CreatesTwelveMonthlyRecords(t *testing.T) {
	gdb := openTestDB(t)
	site := seedSite(t, gdb)

	created, err := GenerateSampleAnalytics(gdb, site.ID, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("GenerateSampleAnalytics: %v", err)
	}

	if created != SampleMonths {
		t.Errorf("created = %d, want %d", created, SampleMonths)
	}

	var records []models.SiteAnalytics
	if err := gdb.Where("site_id = ?", site.ID).Order("date DESC").Find(&records).Error; err != nil {
		t.Fatalf("failed to load records: %v", err)
	}

	if len(records) != SampleMonths {
		t.Fatalf("len(records) = %d, want %d", len(records), SampleMonths)
	}

	for i, record := range records {
		if record.CarbonSequestered < SampleCarbonMin || record.CarbonSequestered > SampleCarbonMax {
			t.Errorf("record %d carbon_sequestered %v out of range", i, record.CarbonSequestered)
		}
		if record.CarbonOffset < SampleOffsetMin || record.CarbonOffset > SampleOffsetMax {
			t.Errorf("record %d carbon_offset %v out of range", i, record.CarbonOffset)
		}
		if record.SpeciesCount < SampleSpeciesMin || record.SpeciesCount > SampleSpeciesMax {
			t.Errorf("record %d species_count %d out of range", i, record.SpeciesCount)
		}
		if record.VegetationIndex < SampleNDVIMin || record.VegetationIndex > SampleNDVIMax {
			t.Errorf("record %d vegetation_index %v out of range", i, record.VegetationIndex)
		}
		if record.TreeCoverPercentage < SampleTreeCoverMin || record.TreeCoverPercentage > SampleTreeCoverMax {
			t.Errorf("record %d tree_cover_percentage %v out of range", i, record.TreeCoverPercentage)
		}
		if record.SoilQualityIndex < SampleSoilMin || record.SoilQualityIndex > SampleSoilMax {
			t.Errorf("record %d soil_quality_index %v out of range", i, record.SoilQualityIndex)
		}
		if record.WaterRetention < SampleWaterMin || record.WaterRetention > SampleWaterMax {
			t.Errorf("record %d water_retention %v out of range", i, record.WaterRetention)
		}
	}

	// Dates step backward 30 days from today.
	for i := 1; i < len(records); i++ {
		gap := time.Time(records[i-1].Date).Sub(time.Time(records[i].Date))
		if gap != 30*24*time.Hour {
			t.Errorf("gap between records %d and %d = %v, want 720h", i-1, i, gap)
		}
	}
}

func TestGenerateSampleAnalytics_Deterministic(t *testing.T) {
	first := openTestDB(t)
	second := openTestDB(t)

	siteA := seedSite(t, first)
	siteB := seedSite(t, second)

	if _, err := GenerateSampleAnalytics(first, siteA.ID, rand.New(rand.NewSource(42))); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := GenerateSampleAnalytics(second, siteB.ID, rand.New(rand.NewSource(42))); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var recordsA, recordsB []models.SiteAnalytics
	first.Where("site_id = ?", siteA.ID).Order("date DESC").Find(&recordsA)
	second.Where("site_id = ?", siteB.ID).Order("date DESC").Find(&recordsB)

	if len(recordsA) != len(recordsB) {
		t.Fatalf("record counts differ: %d vs %d", len(recordsA), len(recordsB))
	}

	for i := range recordsA {
		if recordsA[i].CarbonSequestered != recordsB[i].CarbonSequestered ||
			recordsA[i].SpeciesCount != recordsB[i].SpeciesCount ||
			recordsA[i].VegetationIndex != recordsB[i].VegetationIndex {
			t.Errorf("record %d differs between identically seeded runs", i)
		}
	}
}

func TestGenerateSampleAnalytics_DoesNotDuplicate(t *testing.T) {
	gdb := openTestDB(t)
	site := seedSite(t, gdb)

	if _, err := GenerateSampleAnalytics(gdb, site.ID, rand.New(rand.NewSource(7))); err != nil {
		t.Fatalf("first run: %v", err)
	}

	created, err := GenerateSampleAnalytics(gdb, site.ID, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if created != 0 {
		t.Errorf("second run created %d records, want 0", created)
	}

	var count int64
	gdb.Model(&models.SiteAnalytics{}).Where("site_id = ?", site.ID).Count(&count)

	if count != SampleMonths {
		t.Errorf("count = %d, want %d", count, SampleMonths)
	}
}
