package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
)

var (
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrUserNotFound     = errors.New("user not found")
)

// BlacklistService handles JWT token revocation
type BlacklistService struct {
	db *gorm.DB
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// RevokeToken adds a token JTI to the blacklist
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	entry := model.JWTTokenBlacklist{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}

	return s.db.WithContext(ctx).Create(&entry).Error
}

// IsTokenRevoked checks if a token is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).
		Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// CleanupExpiredTokens removes expired entries and reports how many went
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}

// TokenVerifier resolves an access token to its user, checking signature,
// token type, revocation and token version.
type TokenVerifier struct {
	jwt       *JWTManager
	blacklist *BlacklistService
	db        *gorm.DB
}

// NewTokenVerifier creates a verifier backed by the blacklist table
func NewTokenVerifier(jwtManager *JWTManager, db *gorm.DB) *TokenVerifier {
	return &TokenVerifier{
		jwt:       jwtManager,
		blacklist: NewBlacklistService(db),
		db:        db,
	}
}

// VerifyAccessToken returns the claims and the current user for a token
func (v *TokenVerifier) VerifyAccessToken(ctx context.Context, tokenString string) (*Claims, *model.User, error) {
	claims, err := v.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := v.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	var user model.User
	if err := v.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, ErrTokenInvalidated
	}

	return claims, &user, nil
}
