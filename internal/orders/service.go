package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	users   IdentityDirectory
	catalog CatalogLookup
	pricing *PricingEngine
}

// NewService builds the order lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, users IdentityDirectory, catalog CatalogLookup, pricing *PricingEngine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("identity directory required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		users:   users,
		catalog: catalog,
		pricing: pricing,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error) {
	user, err := s.freshActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if user.Role != enums.UserRoleCustomer && user.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders")
	}

	restaurant, err := s.catalog.FindRestaurantByID(ctx, input.RestaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if restaurant.IsBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant is unavailable")
	}

	quote, err := s.pricing.Quote(ctx, input)
	if err != nil {
		return nil, err
	}

	order := buildOrder(user.ID, restaurant.ID, input, quote)

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	hydrated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return hydrated, nil
}

func (s *service) Transition(ctx context.Context, actor Actor, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": target})
	}

	// Blocked flags are read fresh on every attempt; a ban takes effect
	// immediately regardless of token age.
	user, err := s.freshActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	const maxAttempts = 2
	for attempt := 1; ; attempt++ {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}

		from := order.Status
		allowed, legal := allowedActors(from, target)
		if !legal {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", from, target)).
				WithDetails(map[string]any{"from": from, "to": target})
		}

		rel, err := s.relationship(ctx, user, order)
		if err != nil {
			return nil, err
		}
		if !allowed.contains(rel) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to perform this transition")
		}

		var raced bool
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			rows, err := repo.UpdateStatusGuarded(ctx, order.ID, from, target)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			if rows == 0 {
				raced = true
				return nil
			}
			entry := &models.OrderStatusHistory{
				OrderID:         order.ID,
				Status:          target,
				ChangedAt:       time.Now().UTC(),
				ChangedByUserID: user.ID,
			}
			if err := repo.AppendHistory(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if !raced {
			break
		}

		// The guarded update matched nothing: someone else moved the order
		// between our read and the write. Re-read and either retry once (if
		// the status somehow still matches) or report the conflict.
		current, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.Status != from || attempt >= maxAttempts {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently").
				WithDetails(map[string]any{"status": current.Status})
		}
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	user, err := s.freshActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rel, err := s.relationship(ctx, user, order)
	if err != nil {
		return nil, err
	}
	if rel == RelationshipNone {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	params = pagination.Normalize(params)
	found, err := s.repo.ListByCustomer(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: found, Skip: params.Skip, Limit: params.Limit}, nil
}

func (s *service) ListForRestaurant(ctx context.Context, actor Actor, restaurantID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}

	restaurant, err := s.catalog.FindRestaurantByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if actor.Role != enums.UserRoleAdmin && restaurant.OwnerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your restaurant")
	}

	params = pagination.Normalize(params)
	found, err := s.repo.ListByRestaurant(ctx, restaurantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: found, Skip: params.Skip, Limit: params.Limit}, nil
}

func (s *service) ListAll(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	params = pagination.Normalize(params)
	found, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: found, Skip: params.Skip, Limit: params.Limit}, nil
}

// ListVisible answers the bare GET /orders: admins see everything, owners see
// orders against their restaurants, customers see their own.
func (s *service) ListVisible(ctx context.Context, actor Actor, params pagination.Params) (*OrderList, error) {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return s.ListAll(ctx, actor, params)
	case enums.UserRoleRestaurantOwner:
		params = pagination.Normalize(params)
		found, err := s.repo.ListByRestaurantOwner(ctx, actor.UserID, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return &OrderList{Orders: found, Skip: params.Skip, Limit: params.Limit}, nil
	default:
		return s.ListMine(ctx, actor, params)
	}
}

// Delete is the admin escape hatch outside the state machine; it cascades to
// items and history.
func (s *service) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func (s *service) freshActor(ctx context.Context, actor Actor) (*models.User, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.users.FindUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.IsBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is blocked")
	}
	return user, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// relationship resolves how the user relates to this specific order. Role is
// not enough: a restaurant_owner only counts for orders against a restaurant
// they actually own.
func (s *service) relationship(ctx context.Context, user *models.User, order *models.Order) (Relationship, error) {
	if user.Role == enums.UserRoleAdmin {
		return RelationshipAdmin, nil
	}
	if order.CustomerID == user.ID {
		return RelationshipCustomer, nil
	}
	if user.Role == enums.UserRoleRestaurantOwner {
		restaurant, err := s.catalog.FindRestaurantByID(ctx, order.RestaurantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return RelationshipNone, nil
			}
			return RelationshipNone, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
		}
		if restaurant.OwnerID == user.ID {
			return RelationshipRestaurantOwner, nil
		}
	}
	return RelationshipNone, nil
}

func buildOrder(customerID, restaurantID uuid.UUID, input CreateOrderInput, quote *Quote) *models.Order {
	items := make([]models.OrderItem, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, models.OrderItem{
			MealID:       item.MealID,
			Quantity:     item.Quantity,
			PriceAtOrder: item.UnitPrice,
		})
	}

	var couponID *uuid.UUID
	if quote.Coupon != nil {
		id := quote.Coupon.ID
		couponID = &id
	}

	return &models.Order{
		CustomerID:      customerID,
		RestaurantID:    restaurantID,
		Status:          enums.OrderStatusPlaced,
		Subtotal:        quote.Subtotal,
		DiscountAmount:  quote.DiscountAmount,
		TipAmount:       input.TipAmount.Round(2),
		TotalAmount:     quote.TotalAmount,
		CouponID:        couponID,
		DeliveryAddress: input.DeliveryAddress,
		Items:           items,
		StatusHistory: []models.OrderStatusHistory{{
			Status:          enums.OrderStatusPlaced,
			ChangedAt:       time.Now().UTC(),
			ChangedByUserID: customerID,
		}},
	}
}
