package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavolo-app/tavolo-backend/internal/users"
	"github.com/tavolo-app/tavolo-backend/pkg/auth/session"
	"github.com/tavolo-app/tavolo-backend/pkg/config"
	"github.com/tavolo-app/tavolo-backend/pkg/db/models"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	pkgerrors "github.com/tavolo-app/tavolo-backend/pkg/errors"
	"github.com/tavolo-app/tavolo-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
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

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "tavolo-test",
		ExpirationMinutes: 15,
	}
}

func newAuthFixture(t *testing.T) (Service, *stubUserRepo, *stubSessionManager) {
	t.Helper()

	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, role enums.UserRole) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	repo.add(user)
	return user
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected *pkgerrors.Error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestRegisterDefaultsToCustomerRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	profile, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Role != enums.UserRoleCustomer {
		t.Errorf("role = %s, want customer", profile.Role)
	}
	if profile.Email != "new@example.com" {
		t.Errorf("email = %s, want lowercased", profile.Email)
	}
}

func TestRegisterRestaurantOwner(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	profile, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "owner@example.com",
		Password: "correct-horse",
		Role:     "restaurant_owner",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Role != enums.UserRoleRestaurantOwner {
		t.Errorf("role = %s, want restaurant_owner", profile.Role)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "boss@example.com",
		Password: "correct-horse",
		Role:     "admin",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	seedUser(t, repo, "taken@example.com", "whatever", enums.UserRoleCustomer)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Password: "correct-horse",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo, sessions := newAuthFixture(t)
	seedUser(t, repo, "diner@example.com", "correct-horse", enums.UserRoleCustomer)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "diner@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens to be set")
	}
	if len(sessions.generated) != 1 {
		t.Errorf("expected one session, got %d", len(sessions.generated))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	seedUser(t, repo, "diner@example.com", "correct-horse", enums.UserRoleCustomer)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "diner@example.com",
		Password: "wrong",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginRejectsBlockedUser(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	user := seedUser(t, repo, "banned@example.com", "correct-horse", enums.UserRoleCustomer)
	user.IsBlocked = true

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "banned@example.com",
		Password: "correct-horse",
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	svc, repo, sessions := newAuthFixture(t)
	user := seedUser(t, repo, "diner@example.com", "correct-horse", enums.UserRoleCustomer)
	sessions.rotateErr = session.ErrInvalidRefreshToken

	_, err := svc.Refresh(context.Background(), user.ID, "some-access-id", RefreshRequest{
		RefreshToken: "stale",
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshMintsNewPair(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	user := seedUser(t, repo, "diner@example.com", "correct-horse", enums.UserRoleCustomer)

	pair, err := svc.Refresh(context.Background(), user.ID, "some-access-id", RefreshRequest{
		RefreshToken: "refresh-some-access-id",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected both tokens to be set")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)

	if err := svc.Logout(context.Background(), "access-id-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-id-1" {
		t.Errorf("expected session access-id-1 revoked, got %v", sessions.revoked)
	}
}
