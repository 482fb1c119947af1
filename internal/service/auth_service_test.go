package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/T0MGL/0rdefy-sub018/internal/config"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
	"github.com/T0MGL/0rdefy-sub018/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Operator{}); err != nil {
		t.Fatalf("migrate operators failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key-for-auth-service-tests"
	cfg.JWT.ExpireHours = 2
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireLetter: true,
		RequireNumber: true,
	}
	return NewAuthService(cfg, repository.NewOperatorRepository(db)), db
}

func seedOperator(t *testing.T, db *gorm.DB, username, password string, active bool) *models.Operator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	operator := &models.Operator{
		StoreID:      1,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     active,
	}
	if err := db.Create(operator).Error; err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	if !active {
		// default:true 会覆盖零值，显式回写
		if err := db.Model(operator).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate operator failed: %v", err)
		}
	}
	return operator
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	seedOperator(t, db, "dispatcher", "pass1234word", true)

	operator, token, expiresAt, err := svc.Login("dispatcher", "pass1234word")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if operator.LastLoginAt == nil {
		t.Fatalf("last login time should be recorded")
	}
	if expiresAt.IsZero() {
		t.Fatalf("expiry should be set")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.OperatorID != operator.ID || claims.StoreID != operator.StoreID || claims.Username != "dispatcher" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	seedOperator(t, db, "dispatcher", "pass1234word", true)

	if _, _, _, err := svc.Login("dispatcher", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "pass1234word"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginRejectsDisabledOperator(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	seedOperator(t, db, "leaver", "pass1234word", false)

	if _, _, _, err := svc.Login("leaver", "pass1234word"); !errors.Is(err, ErrOperatorDisabled) {
		t.Fatalf("expected ErrOperatorDisabled, got %v", err)
	}
}

func TestChangePasswordBumpsTokenVersion(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	operator := seedOperator(t, db, "dispatcher", "pass1234word", true)

	if err := svc.ChangePassword(operator.ID, "wrong", "newpass1234"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	// 弱密码被策略拦截
	if err := svc.ChangePassword(operator.ID, "pass1234word", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := svc.ChangePassword(operator.ID, "pass1234word", "newpass1234"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var reloaded models.Operator
	if err := db.First(&reloaded, operator.ID).Error; err != nil {
		t.Fatalf("reload operator failed: %v", err)
	}
	if reloaded.TokenVersion != operator.TokenVersion+1 {
		t.Fatalf("token version should bump, got %d", reloaded.TokenVersion)
	}
	if reloaded.TokenInvalidBefore == nil {
		t.Fatalf("token invalid before should be set")
	}
	if err := svc.VerifyPassword(reloaded.PasswordHash, "newpass1234"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}
}
