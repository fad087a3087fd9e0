package meals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
)

// CreateMealInput is the POST body for a new catalog entry.
type CreateMealInput struct {
	RestaurantID uuid.UUID       `json:"restaurant_id" validate:"required"`
	Name         string          `json:"name" validate:"required,min=1,max=120"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
}

// UpdateMealInput is the PATCH body for catalog edits. Price changes only
// affect future orders; existing orders keep their snapshots.
type UpdateMealInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// SetBlockedInput toggles the block flag.
type SetBlockedInput struct {
	Blocked bool `json:"blocked"`
}

// MealView is the outward representation of a meal.
type MealView struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	IsBlocked    bool            `json:"is_blocked"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewMealView maps a model to its public shape.
func NewMealView(m *models.Meal) MealView {
	return MealView{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		IsBlocked:    m.IsBlocked,
		CreatedAt:    m.CreatedAt,
	}
}
