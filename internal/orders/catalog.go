package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
)

// RestaurantDirectory is the restaurant half of CatalogLookup.
type RestaurantDirectory interface {
	FindRestaurantByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

// MealDirectory is the meal half of CatalogLookup.
type MealDirectory interface {
	FindMealsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Meal, error)
}

// CombinedCatalog joins the restaurant and meal repositories into a single
// CatalogLookup for pricing.
type CombinedCatalog struct {
	Restaurants RestaurantDirectory
	Meals       MealDirectory
}

func (c CombinedCatalog) FindRestaurantByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	return c.Restaurants.FindRestaurantByID(ctx, id)
}

func (c CombinedCatalog) FindMealsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Meal, error) {
	return c.Meals.FindMealsByIDs(ctx, ids)
}
