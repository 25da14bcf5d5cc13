package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenManager_ParseAccess_NilSubjectRejected(t *testing.T) {
	manager := NewTokenManager("access", "refresh", time.Minute, time.Hour)

	// Токен подписан верным секретом, но subject — нулевой UUID.
	// ParseAccess обязан отвергнуть его сам, не полагаясь на вызывающих.
	claims := jwt.MapClaims{
		"sub": uuid.Nil.String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access"))
	if err != nil {
		t.Fatalf("не удалось подписать токен: %v", err)
	}

	if _, _, err := manager.ParseAccess(raw); err == nil {
		t.Fatal("ожидали ошибку для токена с нулевым subject")
	}
}

func TestTokenManager_ParseAccess_ValidToken(t *testing.T) {
	manager := NewTokenManager("access", "refresh", time.Minute, time.Hour)

	userID := uuid.New()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": "manager",
		"exp":  time.Now().Add(time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access"))
	if err != nil {
		t.Fatalf("не удалось подписать токен: %v", err)
	}

	gotID, role, err := manager.ParseAccess(raw)
	if err != nil {
		t.Fatalf("валидный токен отвергнут: %v", err)
	}
	if gotID != userID {
		t.Errorf("userID = %s, ожидали %s", gotID, userID)
	}
	if role != "manager" {
		t.Errorf("role = %q, ожидали manager", role)
	}
}
