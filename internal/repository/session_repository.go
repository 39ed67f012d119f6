package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prperemyshlev/videotube/pkg/database"
)

// sessionRepository implements SessionRepository on the users table. Only the
// refresh_token column is written, so no other user field is revalidated.
type sessionRepository struct {
	db *database.Postgres
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.Postgres) SessionRepository {
	return &sessionRepository{db: db}
}

// SetRefreshToken overwrites the stored refresh token
func (r *sessionRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET refresh_token = $2 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return expectOneRow(result, "user", userID)
}

// ClearRefreshToken sets the stored refresh token to NULL
func (r *sessionRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET refresh_token = NULL WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	return expectOneRow(result, "user", userID)
}

// GetRefreshToken returns the stored refresh token, or "" when none is stored
func (r *sessionRepository) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	query := `SELECT refresh_token FROM users WHERE id = $1`

	var token sql.NullString
	if err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}

	return token.String, nil
}

// SwapRefreshToken replaces the stored token with next only if it still equals
// expected. Two concurrent rotations of the same token cannot both succeed.
func (r *sessionRepository) SwapRefreshToken(ctx context.Context, userID, expected, next string) error {
	query := `UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2`

	result, err := r.db.DB.ExecContext(ctx, query, userID, expected, next)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTokenMismatch
	}

	return nil
}
