package meals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

type repository interface {
	Create(ctx context.Context, meal *models.Meal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Meal, error)
	List(ctx context.Context, params pagination.Params, includeBlocked bool) ([]models.Meal, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, includeBlocked bool) ([]models.Meal, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type restaurantLookup interface {
	FindRestaurantByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

// Actor mirrors the authenticated caller for catalog operations.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service manages the meal catalog; writes require owning the parent
// restaurant (or admin).
type Service struct {
	repo        repository
	restaurants restaurantLookup
}

// NewService builds the meals service.
func NewService(repo repository, restaurants restaurantLookup) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("meals repository required")
	}
	if restaurants == nil {
		return nil, fmt.Errorf("restaurant lookup required")
	}
	return &Service{repo: repo, restaurants: restaurants}, nil
}

// Create adds a meal to a restaurant's menu.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateMealInput) (*MealView, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	restaurant, err := s.findRestaurant(ctx, input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, restaurant) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your restaurant")
	}

	meal := &models.Meal{
		RestaurantID: restaurant.ID,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Price:        input.Price.Round(2),
	}
	if err := s.repo.Create(ctx, meal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create meal")
	}
	view := NewMealView(meal)
	return &view, nil
}

// Get returns one meal.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MealView, error) {
	meal, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewMealView(meal)
	return &view, nil
}

// List returns a page of the catalog across all restaurants. Only admins
// see blocked entries; ownership is per restaurant and does not apply here.
func (s *Service) List(ctx context.Context, actor Actor, params pagination.Params) ([]MealView, error) {
	found, err := s.repo.List(ctx, params, actor.Role == enums.UserRoleAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meals")
	}
	views := make([]MealView, 0, len(found))
	for i := range found {
		views = append(views, NewMealView(&found[i]))
	}
	return views, nil
}

// ListByRestaurant returns a menu page; owners and admins also see blocked
// entries.
func (s *Service) ListByRestaurant(ctx context.Context, actor Actor, restaurantID uuid.UUID, params pagination.Params) ([]MealView, error) {
	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.ListByRestaurant(ctx, restaurantID, params, s.canManage(actor, restaurant))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meals")
	}
	views := make([]MealView, 0, len(found))
	for i := range found {
		views = append(views, NewMealView(&found[i]))
	}
	return views, nil
}

// Update edits a meal. A price change only affects future orders.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateMealInput) (*MealView, error) {
	meal, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actor, meal); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = input.Price.Round(2)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update meal")
		}
	}

	return s.Get(ctx, id)
}

// SetBlocked hides a meal from pricing; blocked meals fail line-item
// resolution on new orders but stay untouched in old ones.
func (s *Service) SetBlocked(ctx context.Context, actor Actor, id uuid.UUID, blocked bool) (*MealView, error) {
	meal, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actor, meal); err != nil {
		return nil, err
	}
	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update block flag")
	}
	return s.Get(ctx, id)
}

// Delete removes a meal from the catalog.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	meal, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireManage(ctx, actor, meal); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete meal")
	}
	return nil
}

func (s *Service) requireManage(ctx context.Context, actor Actor, meal *models.Meal) error {
	restaurant, err := s.findRestaurant(ctx, meal.RestaurantID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, restaurant) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your restaurant")
	}
	return nil
}

func (s *Service) canManage(actor Actor, restaurant *models.Restaurant) bool {
	return actor.Role == enums.UserRoleAdmin || restaurant.OwnerID == actor.UserID
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id required")
	}
	meal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal")
	}
	return meal, nil
}

func (s *Service) findRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	restaurant, err := s.restaurants.FindRestaurantByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return restaurant, nil
}
