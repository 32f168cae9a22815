package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"football-data-cache/pkg/models"
)

// Repository handles persistence of per-user game analyses
type Repository struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the analysis schema
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to analysis database: %w", err)
	}
	if err := db.AutoMigrate(&models.GameAnalysis{}); err != nil {
		return nil, fmt.Errorf("migrating analysis schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// NewRepository wraps an existing gorm handle, used in tests
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save upserts the analysis keyed on (user_id, fixture_id). Analysing the
// same fixture twice overwrites instead of duplicating.
func (r *Repository) Save(a *models.GameAnalysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "fixture_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"home_team", "away_team", "league", "match_date", "data", "updated_at",
		}),
	}).Create(a).Error
}

// ListByUser returns all analyses saved by a user, newest first
func (r *Repository) ListByUser(userID string) ([]models.GameAnalysis, error) {
	var analyses []models.GameAnalysis
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&analyses).Error
	return analyses, err
}

// Get returns one analysis, nil if absent
func (r *Repository) Get(userID string, fixtureID int) (*models.GameAnalysis, error) {
	var a models.GameAnalysis
	err := r.db.Where("user_id = ? AND fixture_id = ?", userID, fixtureID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes one analysis; deleting a missing row is not an error
func (r *Repository) Delete(userID string, fixtureID int) error {
	return r.db.Where("user_id = ? AND fixture_id = ?", userID, fixtureID).
		Delete(&models.GameAnalysis{}).Error
}
