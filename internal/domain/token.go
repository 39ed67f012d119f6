package domain

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
	Fullname string    `json:"fullname,omitempty"`
	Type     TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
