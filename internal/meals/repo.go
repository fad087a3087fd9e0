package meals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

// Repository exposes meal catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a meals repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new meal.
func (r *Repository) Create(ctx context.Context, meal *models.Meal) error {
	return r.db.WithContext(ctx).Create(meal).Error
}

// FindByID loads a meal by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.WithContext(ctx).First(&meal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

// FindMealsByIDs satisfies the catalog lookup consumed by the order core.
// Missing IDs are simply absent from the result.
func (r *Repository) FindMealsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Meal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var meals []models.Meal
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// List returns a page of the whole catalog across restaurants.
func (r *Repository) List(ctx context.Context, params pagination.Params, includeBlocked bool) ([]models.Meal, error) {
	params = pagination.Normalize(params)
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(params.Skip).
		Limit(params.Limit)
	if !includeBlocked {
		query = query.Where("is_blocked = ?", false)
	}
	var meals []models.Meal
	if err := query.Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// ListByRestaurant returns a restaurant's menu page.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, includeBlocked bool) ([]models.Meal, error) {
	params = pagination.Normalize(params)
	query := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC, id DESC").
		Offset(params.Skip).
		Limit(params.Limit)
	if !includeBlocked {
		query = query.Where("is_blocked = ?", false)
	}
	var meals []models.Meal
	if err := query.Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// Update applies the provided column updates.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetBlocked flips the block flag.
func (r *Repository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ?", id).
		UpdateColumn("is_blocked", blocked).Error
}

// Delete removes a meal row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Meal{}).Error
}
