package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/pkg/database"
)

// subscriptionRepository implements SubscriptionRepository interface
type subscriptionRepository struct {
	db *database.Postgres
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.Postgres) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts the edge (subscriberID, channelID). It reports false when
// the edge already existed.
func (r *subscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) (bool, error) {
	query := `
		INSERT INTO subscriptions (id, subscriber_id, channel_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING
	`

	result, err := r.db.DB.ExecContext(ctx, query, uuid.New().String(), subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the edge. It reports false when there was nothing to remove.
func (r *subscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) (bool, error) {
	query := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`

	result, err := r.db.DB.ExecContext(ctx, query, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListSubscribers returns users subscribed to channelID, newest first
func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]*domain.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.fullname, u.avatar_url
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC
	`

	return r.listUsers(ctx, query, channelID)
}

// ListSubscribedChannels returns channels subscriberID follows, newest first
func (r *subscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.fullname, u.avatar_url
		FROM subscriptions s
		JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC
	`

	return r.listUsers(ctx, query, subscriberID)
}

func (r *subscriptionRepository) listUsers(ctx context.Context, query, id string) ([]*domain.UserSummary, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	users := []*domain.UserSummary{}
	for rows.Next() {
		u := &domain.UserSummary{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	return users, nil
}
