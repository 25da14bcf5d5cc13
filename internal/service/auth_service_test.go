package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avkuzmin/backoffice/internal/models"
	"github.com/avkuzmin/backoffice/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func TestAuthService_CreateUserAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "manager@example.com", "password123", "Менеджер", models.UserRoleManager)
	if err != nil {
		t.Fatalf("create user вернул ошибку: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("пароль должен храниться хэшированным")
	}

	res, err := service.Login(ctx, LoginInput{Email: "manager@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if res.TokenPair.AccessToken == "" {
		t.Fatalf("ожидался access токен")
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "manager@example.com", "password123", "Менеджер", models.UserRoleManager); err != nil {
		t.Fatalf("create user вернул ошибку: %v", err)
	}

	if _, err := service.Login(ctx, LoginInput{Email: "manager@example.com", Password: "wrong"}); err == nil {
		t.Fatalf("ожидалась ошибка при неверном пароле")
	}

	if _, err := service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"}); err == nil {
		t.Fatalf("ожидалась ошибка для несуществующего пользователя")
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.UserRoleAdmin,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	pair, err := tokenManager.GeneratePair(user)
	if err != nil {
		t.Fatalf("не удалось сгенерировать токены: %v", err)
	}

	res, err := service.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh вернул ошибку: %v", err)
	}
	if res.TokenPair.AccessToken == "" {
		t.Fatalf("ожидался новый access токен")
	}

	if _, err := service.Refresh(ctx, "not-a-token"); err == nil {
		t.Fatalf("ожидалась ошибка для невалидного refresh токена")
	}
}
