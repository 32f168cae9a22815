package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONMap stores arbitrary analysis data as a jsonb column
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("unsupported type for JSONMap: %T", value)
		}
	}
	return json.Unmarshal(b, m)
}

// GameAnalysis is a user's saved analysis of a fixture. The (user_id,
// fixture_id) pair is unique so repeated analysis of the same fixture
// overwrites instead of duplicating.
type GameAnalysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;uniqueIndex:idx_user_fixture" json:"user_id"`
	FixtureID int       `gorm:"uniqueIndex:idx_user_fixture" json:"fixture_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	League    string    `json:"league"`
	MatchDate time.Time `json:"match_date"`
	Data      JSONMap   `gorm:"type:jsonb" json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
