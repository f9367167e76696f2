package services

import (
	"math"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canopy-dev/canopy/internal/models"
)

// SampleMonths is the number of monthly records backfilled per site.
const SampleMonths = 12

// Metric ranges for generated sample analytics.
const (
	SampleCarbonMin    = 10.0
	SampleCarbonMax    = 50.0
	SampleOffsetMin    = 8.0
	SampleOffsetMax    = 40.0
	SampleSpeciesMin   = 15
	SampleSpeciesMax   = 45
	SampleNDVIMin      = 0.4
	SampleNDVIMax      = 0.9
	SampleTreeCoverMin = 30.0
	SampleTreeCoverMax = 75.0
	SampleSoilMin      = 50.0
	SampleSoilMax      = 90.0
	SampleWaterMin     = 100.0
	SampleWaterMax     = 500.0
)

// NewSampleRand returns the default random source for sample
// generation. Tests pass their own seeded *rand.Rand instead.
func NewSampleRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GenerateSampleAnalytics backfills twelve monthly analytics records
// for a site, stepping backward 30 days at a time from today. Dates
// that already have a record are left untouched, so re-running the
// generator never duplicates or overwrites data.
func GenerateSampleAnalytics(gdb *gorm.DB, siteID uint, rng *rand.Rand) (int, error) {
	endDate := time.Now().UTC().Truncate(24 * time.Hour)

	created := 0

	for i := 0; i < SampleMonths; i++ {
		date := endDate.AddDate(0, 0, -i*30)

		record := models.SiteAnalytics{
			SiteID:              siteID,
			Date:                datatypes.Date(date),
			CarbonSequestered:   roundedUniform(rng, SampleCarbonMin, SampleCarbonMax),
			CarbonOffset:        roundedUniform(rng, SampleOffsetMin, SampleOffsetMax),
			SpeciesCount:        SampleSpeciesMin + rng.Intn(SampleSpeciesMax-SampleSpeciesMin+1),
			VegetationIndex:     roundedUniform(rng, SampleNDVIMin, SampleNDVIMax),
			TreeCoverPercentage: roundedUniform(rng, SampleTreeCoverMin, SampleTreeCoverMax),
			SoilQualityIndex:    roundedUniform(rng, SampleSoilMin, SampleSoilMax),
			WaterRetention:      roundedUniform(rng, SampleWaterMin, SampleWaterMax),
		}

		result := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}, {Name: "date"}},
			DoNothing: true,
		}).Create(&record)

		if result.Error != nil {
			return created, result.Error
		}

		created += int(result.RowsAffected)
	}

	return created, nil
}

func roundedUniform(rng *rand.Rand, min, max float64) float64 {
	value := min + rng.Float64()*(max-min)
	return math.Round(value*100) / 100
}
