package restaurants

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
)

// CreateRestaurantInput is the POST body for a new restaurant.
type CreateRestaurantInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

// UpdateRestaurantInput is the PATCH body for restaurant edits.
type UpdateRestaurantInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

// SetBlockedInput toggles the admin block flag.
type SetBlockedInput struct {
	Blocked bool `json:"blocked"`
}

// RestaurantView is the outward representation of a restaurant.
type RestaurantView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsBlocked   bool      `json:"is_blocked"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRestaurantView maps a model to its public shape.
func NewRestaurantView(r *models.Restaurant) RestaurantView {
	return RestaurantView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		IsBlocked:   r.IsBlocked,
		CreatedAt:   r.CreatedAt,
	}
}
