package repository

import (
	"context"

	"github.com/prperemyshlev/videotube/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullname, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (*domain.User, error)
	GetWatchHistory(ctx context.Context, id string) ([]string, error)
	AddToWatchHistory(ctx context.Context, id, videoID string) error

	// GetChannelProfile resolves username and joins its subscription edges.
	// Subscriber count is the number of edges with channel = user, subscribed-to
	// count the number with subscriber = user, and IsSubscribed tells whether
	// the edge (requesterID, user) exists.
	GetChannelProfile(ctx context.Context, username, requesterID string) (*domain.ChannelProfile, error)
}

// SessionRepository owns the single refresh token column of a user. Writes
// touch that column only.
type SessionRepository interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	SwapRefreshToken(ctx context.Context, userID, expected, next string) error
}

// SubscriptionRepository defines methods for subscription edges
type SubscriptionRepository interface {
	Create(ctx context.Context, subscriberID, channelID string) (bool, error)
	Delete(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]*domain.UserSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.UserSummary, error)
}

// CommentRepository defines methods for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByVideo(ctx context.Context, videoID string, limit, offset int) ([]*domain.Comment, int64, error)
	Update(ctx context.Context, id, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}
