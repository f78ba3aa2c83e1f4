package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Recipe struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"index;not null;column:user_id" json:"-"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	SourceURL      string         `gorm:"not null;column:source_url" json:"source_url"`
	SourcePlatform string         `gorm:"not null;default:youtube;column:source_platform" json:"source_platform"`
	Title          string         `gorm:"not null" json:"title"`
	Servings       *int           `json:"servings"`
	Ingredients    datatypes.JSON `gorm:"not null" json:"ingredients"`
	Steps          datatypes.JSON `gorm:"not null" json:"steps"`
	MissingInfo    datatypes.JSON `gorm:"column:missing_info" json:"missing_info"`
	Notes          datatypes.JSON `json:"notes"`
	// Kept so follow-up questions can re-send full context.
	Transcript string    `gorm:"type:text" json:"transcript,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"-"`
}

func (Recipe) TableName() string {
	return "recipe"
}

// RecipeSummary is the list-view projection.
type RecipeSummary struct {
	ID             uuid.UUID `json:"id"`
	SourceURL      string    `json:"source_url"`
	SourcePlatform string    `json:"source_platform"`
	Title          string    `json:"title"`
	Servings       *int      `json:"servings"`
	CreatedAt      time.Time `json:"created_at"`
}
