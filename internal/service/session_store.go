package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/prperemyshlev/videotube/internal/repository"
)

// ErrSessionMismatch is returned by Rotate when the stored refresh token moved
// on before the swap.
var ErrSessionMismatch = errors.New("refresh token is expired or used")

// SessionStore is the only writer of a user's current refresh token. Tokens are
// kept as SHA-256 digests; comparisons are digest equality.
type SessionStore struct {
	repo repository.SessionRepository
}

// NewSessionStore creates a new session store
func NewSessionStore(repo repository.SessionRepository) *SessionStore {
	return &SessionStore{repo: repo}
}

// Persist overwrites the stored refresh token for userID.
func (s *SessionStore) Persist(ctx context.Context, userID, token string) error {
	if err := s.repo.SetRefreshToken(ctx, userID, hashToken(token)); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return nil
}

// Clear removes the stored refresh token, invalidating every outstanding one.
func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// Stored returns the digest of the current refresh token, or "" if none.
func (s *SessionStore) Stored(ctx context.Context, userID string) (string, error) {
	return s.repo.GetRefreshToken(ctx, userID)
}

// Matches reports whether token is the current refresh token of userID.
func (s *SessionStore) Matches(ctx context.Context, userID, token string) (bool, error) {
	stored, err := s.Stored(ctx, userID)
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(hashToken(token))) == 1, nil
}

// Rotate replaces current with next in one conditional write.
func (s *SessionStore) Rotate(ctx context.Context, userID, current, next string) error {
	err := s.repo.SwapRefreshToken(ctx, userID, hashToken(current), hashToken(next))
	if errors.Is(err, repository.ErrTokenMismatch) {
		return ErrSessionMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return nil
}

// hashToken hashes a token using SHA256
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
