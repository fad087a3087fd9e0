package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
)

type repository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var oneHundred = decimal.NewFromInt(100)

// Service manages coupons. The whole surface is admin-only; customers only
// ever touch coupons indirectly through order pricing.
type Service struct {
	repo repository
}

// NewService builds the coupons service.
func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &Service{repo: repo}, nil
}

// Create registers a coupon code.
func (s *Service) Create(ctx context.Context, actorRole enums.UserRole, input CreateCouponInput) (*CouponView, error) {
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if err := validatePercentage(input.DiscountPercentage); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		Code:               strings.ToUpper(strings.TrimSpace(input.Code)),
		DiscountPercentage: input.DiscountPercentage.Round(2),
		IsActive:           true,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	view := NewCouponView(coupon)
	return &view, nil
}

// Get returns one coupon.
func (s *Service) Get(ctx context.Context, actorRole enums.UserRole, id uuid.UUID) (*CouponView, error) {
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewCouponView(coupon)
	return &view, nil
}

// List returns a page of coupons.
func (s *Service) List(ctx context.Context, actorRole enums.UserRole, params pagination.Params) ([]CouponView, error) {
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	found, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	views := make([]CouponView, 0, len(found))
	for i := range found {
		views = append(views, NewCouponView(&found[i]))
	}
	return views, nil
}

// Update edits a coupon; deactivation only affects future orders.
func (s *Service) Update(ctx context.Context, actorRole enums.UserRole, id uuid.UUID, input UpdateCouponInput) (*CouponView, error) {
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DiscountPercentage != nil {
		if err := validatePercentage(*input.DiscountPercentage); err != nil {
			return nil, err
		}
		updates["discount_percentage"] = input.DiscountPercentage.Round(2)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
		}
	}

	return s.Get(ctx, actorRole, id)
}

// Delete removes a coupon; orders that used it keep their snapshot amounts.
func (s *Service) Delete(ctx context.Context, actorRole enums.UserRole, id uuid.UUID) error {
	if actorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func validatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(oneHundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}
	return nil
}
