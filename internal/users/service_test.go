package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/pkg/config"
	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/pagination"
	"github.com/tavolo-app/tavolo-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	updates map[string]any
	deleted bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (s *stubUserRepo) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) Create(_ context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) List(_ context.Context, _ pagination.Params) ([]models.User, error) {
	var out []models.User
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUserRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	user, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if email, ok := updates["email"].(string); ok {
		delete(s.byEmail, user.Email)
		user.Email = email
		s.byEmail[email] = user
	}
	if hash, ok := updates["password_hash"].(string); ok {
		user.PasswordHash = hash
	}
	if role, ok := updates["role"].(enums.UserRole); ok {
		user.Role = role
	}
	if blocked, ok := updates["is_blocked"].(bool); ok {
		user.IsBlocked = blocked
	}
	return nil
}

func (s *stubUserRepo) SetBlocked(_ context.Context, id uuid.UUID, blocked bool) error {
	if user, ok := s.byID[id]; ok {
		user.IsBlocked = blocked
	}
	return nil
}

func (s *stubUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = true
	if user, ok := s.byID[id]; ok {
		delete(s.byEmail, user.Email)
	}
	delete(s.byID, id)
	return nil
}

func newUserService(t *testing.T, repo *stubUserRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertUserCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected *pkgerrors.Error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestAdminCreateUserHashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	profile, err := svc.Create(context.Background(), enums.UserRoleAdmin, AdminCreateUserInput{
		Email:    "Owner@Example.com",
		Password: "hunter2hunter2",
		Role:     "restaurant_owner",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if profile.Email != "owner@example.com" {
		t.Fatalf("expected lowercased email, got %q", profile.Email)
	}
	if profile.Role != enums.UserRoleRestaurantOwner {
		t.Fatalf("expected restaurant_owner got %s", profile.Role)
	}

	stored := repo.byEmail["owner@example.com"]
	if stored == nil {
		t.Fatal("user not persisted")
	}
	ok, err := security.VerifyPassword("hunter2hunter2", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestAdminCreateUserCanMintAdmins(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	profile, err := svc.Create(context.Background(), enums.UserRoleAdmin, AdminCreateUserInput{
		Email:    "root@tavolo.example",
		Password: "super-secret-pw",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if profile.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin got %s", profile.Role)
	}
}

func TestAdminCreateUserNonAdminForbidden(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	_, err := svc.Create(context.Background(), enums.UserRoleRestaurantOwner, AdminCreateUserInput{
		Email:    "x@example.com",
		Password: "password123",
		Role:     "customer",
	})
	assertUserCode(t, err, pkgerrors.CodeForbidden)
	if len(repo.byID) != 0 {
		t.Fatal("nothing should be persisted")
	}
}

func TestAdminCreateUserDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	repo.add(&models.User{ID: uuid.New(), Email: "taken@example.com", Role: enums.UserRoleCustomer})

	_, err := svc.Create(context.Background(), enums.UserRoleAdmin, AdminCreateUserInput{
		Email:    "Taken@example.com",
		Password: "password123",
		Role:     "customer",
	})
	assertUserCode(t, err, pkgerrors.CodeConflict)
}

func TestAdminGetUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	target := &models.User{ID: uuid.New(), Email: "c@example.com", Role: enums.UserRoleCustomer}
	repo.add(target)

	profile, err := svc.Get(context.Background(), enums.UserRoleAdmin, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile.ID != target.ID {
		t.Fatalf("expected %s got %s", target.ID, profile.ID)
	}

	_, err = svc.Get(context.Background(), enums.UserRoleCustomer, target.ID)
	assertUserCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Get(context.Background(), enums.UserRoleAdmin, uuid.New())
	assertUserCode(t, err, pkgerrors.CodeNotFound)
}

func TestAdminUpdateUserRotatesRoleAndPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	target := &models.User{ID: uuid.New(), Email: "c@example.com", Role: enums.UserRoleCustomer, IsActive: true}
	repo.add(target)

	newRole := "restaurant_owner"
	newPassword := "rotated-password"
	profile, err := svc.AdminUpdate(context.Background(), enums.UserRoleAdmin, target.ID, AdminUpdateUserInput{
		Role:     &newRole,
		Password: &newPassword,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Role != enums.UserRoleRestaurantOwner {
		t.Fatalf("expected restaurant_owner got %s", profile.Role)
	}
	ok, err := security.VerifyPassword(newPassword, target.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("rotated hash does not verify: ok=%v err=%v", ok, err)
	}
}

func TestAdminUpdateUserEmailConflict(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	target := &models.User{ID: uuid.New(), Email: "a@example.com", Role: enums.UserRoleCustomer}
	other := &models.User{ID: uuid.New(), Email: "b@example.com", Role: enums.UserRoleCustomer}
	repo.add(target)
	repo.add(other)

	taken := "b@example.com"
	_, err := svc.AdminUpdate(context.Background(), enums.UserRoleAdmin, target.ID, AdminUpdateUserInput{
		Email: &taken,
	})
	assertUserCode(t, err, pkgerrors.CodeConflict)
}

func TestAdminUpdateUserNonAdminForbidden(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(t, repo)

	target := &models.User{ID: uuid.New(), Email: "c@example.com", Role: enums.UserRoleCustomer}
	repo.add(target)

	blocked := true
	_, err := svc.AdminUpdate(context.Background(), enums.UserRoleCustomer, target.ID, AdminUpdateUserInput{
		IsBlocked: &blocked,
	})
	assertUserCode(t, err, pkgerrors.CodeForbidden)
	if repo.updates != nil {
		t.Fatal("update should not reach the repository")
	}
}
