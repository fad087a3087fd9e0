package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is owned by a restaurant_owner user and carries the meal catalog.
type Restaurant struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;index"`
	Description *string   `gorm:"column:description"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	IsBlocked   bool      `gorm:"column:is_blocked;not null;default:false"`
	Meals       []Meal    `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
