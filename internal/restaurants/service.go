package restaurants

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
	Create(ctx context.Context, restaurant *models.Restaurant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	List(ctx context.Context, params pagination.Params, includeBlocked bool) ([]models.Restaurant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Actor mirrors the authenticated caller for restaurant operations.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service covers the restaurant management surface: owners manage their own,
// admins manage all.
type Service struct {
	repo repository
}

// NewService builds the restaurants service.
func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("restaurants repository required")
	}
	return &Service{repo: repo}, nil
}

// Create registers a restaurant under the acting owner.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateRestaurantInput) (*RestaurantView, error) {
	if actor.Role != enums.UserRoleRestaurantOwner && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant owner access required")
	}

	restaurant := &models.Restaurant{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		OwnerID:     actor.UserID,
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create restaurant")
	}
	view := NewRestaurantView(restaurant)
	return &view, nil
}

// Get returns one restaurant. Blocked restaurants stay visible to their owner
// and admins only.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*RestaurantView, error) {
	restaurant, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant.IsBlocked && !s.canManage(actor, restaurant) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}
	view := NewRestaurantView(restaurant)
	return &view, nil
}

// List returns browsable restaurants; admins also see blocked ones.
func (s *Service) List(ctx context.Context, actor Actor, params pagination.Params) ([]RestaurantView, error) {
	found, err := s.repo.List(ctx, params, actor.Role == enums.UserRoleAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	views := make([]RestaurantView, 0, len(found))
	for i := range found {
		views = append(views, NewRestaurantView(&found[i]))
	}
	return views, nil
}

// ListMine returns the acting owner's restaurants.
func (s *Service) ListMine(ctx context.Context, actor Actor) ([]RestaurantView, error) {
	found, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	views := make([]RestaurantView, 0, len(found))
	for i := range found {
		views = append(views, NewRestaurantView(&found[i]))
	}
	return views, nil
}

// Update edits a restaurant the actor manages.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateRestaurantInput) (*RestaurantView, error) {
	restaurant, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, restaurant) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your restaurant")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update restaurant")
		}
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewRestaurantView(updated)
	return &view, nil
}

// SetBlocked is the admin kill switch; the order core reads the flag fresh on
// every creation, so blocking takes effect immediately.
func (s *Service) SetBlocked(ctx context.Context, actor Actor, id uuid.UUID, blocked bool) (*RestaurantView, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update block flag")
	}
	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewRestaurantView(updated)
	return &view, nil
}

// Delete removes a restaurant the actor manages.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	restaurant, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(actor, restaurant) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your restaurant")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete restaurant")
	}
	return nil
}

func (s *Service) canManage(actor Actor, restaurant *models.Restaurant) bool {
	return actor.Role == enums.UserRoleAdmin || restaurant.OwnerID == actor.UserID
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return restaurant, nil
}
