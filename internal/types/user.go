package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	HashedPassword string    `gorm:"column:hashed_password" json:"-"`
	GoogleID       *string   `gorm:"uniqueIndex;column:google_id" json:"-"`
	AuthProvider   string    `gorm:"not null;default:email;column:auth_provider" json:"auth_provider"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"-"`
}

func (User) TableName() string {
	return "user"
}
