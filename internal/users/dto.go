package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
)

// CreateUserDTO carries the fields required to insert a user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FullName     *string
	Role         enums.UserRole
}

// ToModel maps the DTO onto the persistence model.
func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         role,
		IsActive:     true,
	}
}

// UpdateUserInput is the PATCH body for profile edits.
type UpdateUserInput struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// AdminCreateUserInput is the admin POST body for provisioning an account
// with an explicit role.
type AdminCreateUserInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName *string `json:"full_name,omitempty"`
	Role     string  `json:"role" validate:"required,oneof=customer restaurant_owner admin"`
}

// AdminUpdateUserInput is the admin PATCH body; unlike self-service edits it
// can also rotate the password, reassign the role, and flip account flags.
type AdminUpdateUserInput struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName  *string `json:"full_name,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=customer restaurant_owner admin"`
	IsActive  *bool   `json:"is_active,omitempty"`
	IsBlocked *bool   `json:"is_blocked,omitempty"`
}

// SetBlockedInput toggles the admin block flag.
type SetBlockedInput struct {
	Blocked bool `json:"blocked"`
}

// UserProfile is the outward representation of a user; the password hash
// never leaves the service layer.
type UserProfile struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FullName    *string        `json:"full_name,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	IsBlocked   bool           `json:"is_blocked"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewUserProfile maps a model to its public shape.
func NewUserProfile(user *models.User) UserProfile {
	return UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		IsBlocked:   user.IsBlocked,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
