package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prperemyshlev/videotube/internal/domain"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenInvalid covers forged, malformed and wrong-type tokens.
	ErrTokenInvalid = errors.New("token is invalid")
)

// TokenConfig is the signing policy handed to the JWTManager.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// JWTManager issues and verifies access and refresh tokens, each with its own
// secret and expiry.
type JWTManager struct {
	cfg   TokenConfig
	clock clockwork.Clock
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg TokenConfig, clock clockwork.Clock) *JWTManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JWTManager{cfg: cfg, clock: clock}
}

// GenerateAccessToken mints a short-lived token carrying the user identity.
func (j *JWTManager) GenerateAccessToken(user *domain.User) (string, error) {
	claims := &domain.TokenClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Username:         user.Username,
		Fullname:         user.Fullname,
		Type:             domain.AccessToken,
		RegisteredClaims: j.registered(user.ID, j.cfg.AccessTTL),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// GenerateRefreshToken mints a long-lived token carrying only the user id.
// Every token gets a fresh jti so two rotations within the same second never
// produce equal strings.
func (j *JWTManager) GenerateRefreshToken(userID string) (string, error) {
	claims := &domain.TokenClaims{
		UserID:           userID,
		Type:             domain.RefreshToken,
		RegisteredClaims: j.registered(userID, j.cfg.RefreshTTL),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, nil
}

// GenerateTokenPair mints an access and a refresh token for user.
func (j *JWTManager) GenerateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := j.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := j.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateAccessToken verifies signature, expiry and type of an access token.
func (j *JWTManager) ValidateAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return j.parse(tokenString, j.cfg.AccessSecret, domain.AccessToken)
}

// ValidateRefreshToken verifies a refresh token and returns its claims.
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.parse(tokenString, j.cfg.RefreshSecret, domain.RefreshToken)
}

// AccessTokenTTL returns the access token lifetime
func (j *JWTManager) AccessTokenTTL() time.Duration {
	return j.cfg.AccessTTL
}

// RefreshTokenTTL returns the refresh token lifetime
func (j *JWTManager) RefreshTokenTTL() time.Duration {
	return j.cfg.RefreshTTL
}

func (j *JWTManager) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := j.clock.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (j *JWTManager) parse(tokenString, secret string, want domain.TokenType) (*domain.TokenClaims, error) {
	claims := &domain.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Type != want || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
