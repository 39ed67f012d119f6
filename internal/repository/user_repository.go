package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/pkg/database"
)

const userColumns = `id, username, email, fullname, password_hash, avatar_url, cover_image_url,
		refresh_token, watch_history, created_at, updated_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var refreshToken sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Fullname,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.CoverImageURL,
		&refreshToken,
		pq.Array(&user.WatchHistory),
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.RefreshToken = refreshToken.String
	return user, nil
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, fullname, password_hash, avatar_url, cover_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Fullname,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already exists: %w", user.Username, ErrDuplicateUser)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByUsernameOrEmail retrieves the user matching either identifier
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $2 LIMIT 1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q/%q not found: %w", username, email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOneRow(result, "user", id)
}

// UpdateAccount sets fullname and email and returns the updated user
func (r *userRepository) UpdateAccount(ctx context.Context, id, fullname, email string) (*domain.User, error) {
	query := `UPDATE users SET fullname = $2, email = $3, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id, fullname, email))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %s already taken: %w", email, ErrDuplicateUser)
		}
		return nil, r.updateErr(err, id, "account")
	}

	return user, nil
}

// UpdateAvatar sets the avatar URL and returns the updated user
func (r *userRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error) {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id, avatarURL))
	if err != nil {
		return nil, r.updateErr(err, id, "avatar")
	}

	return user, nil
}

// UpdateCoverImage sets the cover image URL and returns the updated user
func (r *userRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) (*domain.User, error) {
	query := `UPDATE users SET cover_image_url = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id, coverImageURL))
	if err != nil {
		return nil, r.updateErr(err, id, "cover image")
	}

	return user, nil
}

// GetWatchHistory returns watched video ids, most recent first
func (r *userRepository) GetWatchHistory(ctx context.Context, id string) ([]string, error) {
	query := `SELECT watch_history FROM users WHERE id = $1`

	var history []string
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(pq.Array(&history))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get watch history: %w", err)
	}

	if history == nil {
		history = []string{}
	}
	return history, nil
}

// AddToWatchHistory moves videoID to the front of the history
func (r *userRepository) AddToWatchHistory(ctx context.Context, id, videoID string) error {
	query := `
		UPDATE users
		SET watch_history = array_prepend($2::text, array_remove(watch_history, $2::text))
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, videoID)
	if err != nil {
		return fmt.Errorf("failed to update watch history: %w", err)
	}

	return expectOneRow(result, "user", id)
}

// GetChannelProfile builds the channel view in one round trip
func (r *userRepository) GetChannelProfile(ctx context.Context, username, requesterID string) (*domain.ChannelProfile, error) {
	query := `
		SELECT u.id, u.username, u.email, u.fullname, u.avatar_url, u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id::text = $2
			) AS is_subscribed
		FROM users u
		WHERE u.username = $1
	`

	profile := &domain.ChannelProfile{}
	err := r.db.DB.QueryRowContext(ctx, query, username, requesterID).Scan(
		&profile.ID,
		&profile.Username,
		&profile.Email,
		&profile.Fullname,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscriberCount,
		&profile.SubscribedToCount,
		&profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("channel %s not found: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get channel profile: %w", err)
	}

	return profile, nil
}

func (r *userRepository) updateErr(err error, id, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
	}
	return fmt.Errorf("failed to update %s: %w", what, err)
}

func expectOneRow(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s with id %s not found: %w", entity, id, ErrNotFound)
	}

	return nil
}
