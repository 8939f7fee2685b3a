package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&model.User{}, &model.JWTTokenBlacklist{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestVerifyAccessToken(t *testing.T) {
	db := newAuthTestDB(t)
	ctx := context.Background()
	manager := NewJWTManager(DefaultJWTConfig("test-secret", "educonnect-test"))
	verifier := NewTokenVerifier(manager, db)

	user := model.User{Email: "wanjiru@example.com", PasswordHash: "x", Name: "Wanjiru", Role: model.RoleStudent}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	pair, err := manager.GeneratePair(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	claims, got, err := verifier.VerifyAccessToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if got.ID != user.ID || claims.UserID != user.ID {
		t.Errorf("verified user = %d, want %d", got.ID, user.ID)
	}

	if _, _, err := verifier.VerifyAccessToken(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token error = %v, want ErrInvalidToken", err)
	}

	blacklist := NewBlacklistService(db)
	if err := blacklist.RevokeToken(ctx, claims.ID, user.ID, claims.ExpiresAt.Time, "logout"); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if _, _, err := verifier.VerifyAccessToken(ctx, pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("revoked token error = %v, want ErrTokenRevoked", err)
	}

	fresh, err := manager.GeneratePair(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	db.Model(&user).Update("token_version", gorm.Expr("token_version + 1"))
	if _, _, err := verifier.VerifyAccessToken(ctx, fresh.AccessToken); !errors.Is(err, ErrTokenInvalidated) {
		t.Errorf("stale version error = %v, want ErrTokenInvalidated", err)
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	db := newAuthTestDB(t)
	ctx := context.Background()
	blacklist := NewBlacklistService(db)

	if err := blacklist.RevokeToken(ctx, "old", 1, time.Now().Add(-time.Hour), "logout"); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := blacklist.RevokeToken(ctx, "live", 1, time.Now().Add(time.Hour), "logout"); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	removed, err := blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredTokens: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if revoked, _ := blacklist.IsTokenRevoked(ctx, "live"); !revoked {
		t.Error("live entry was removed")
	}
}
