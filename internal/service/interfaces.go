package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID string, accessClaims *domain.TokenClaims) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error

	// Authenticate resolves an access token to its (sanitized) user.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.TokenClaims, error)
}

// UserService defines account and channel operations
type UserService interface {
	GetCurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateAccount(ctx context.Context, userID string, req *dto.UpdateAccountRequest) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*domain.User, error)
	GetChannelProfile(ctx context.Context, username, requesterID string) (*domain.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]string, error)
	AddToWatchHistory(ctx context.Context, userID, videoID string) ([]string, error)
}

// SubscriptionService defines subscription operations
type SubscriptionService interface {
	Subscribe(ctx context.Context, subscriberID, channelID string) (bool, error)
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
	ListSubscribers(ctx context.Context, channelID string) ([]*domain.UserSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.UserSummary, error)
}

// CommentService defines comment operations
type CommentService interface {
	List(ctx context.Context, videoID string, page, limit int) (*dto.CommentPage, error)
	Create(ctx context.Context, videoID, ownerID, content string) (*domain.Comment, error)
	Update(ctx context.Context, videoID, userID, commentID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, videoID, userID, commentID string) error
}

// MediaUploader moves a staged local file to media storage and returns its
// public URL. The local file is removed whatever the outcome.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// TokenBlacklist remembers revoked access tokens by jti.
type TokenBlacklist interface {
	AddToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// AuthResult is returned by login and refresh.
type AuthResult struct {
	User       *domain.User
	Tokens     *domain.TokenPair
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}
