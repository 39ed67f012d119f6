package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/repository"
	"github.com/prperemyshlev/videotube/internal/utils"
)

// subscriptionService implements SubscriptionService interface
type subscriptionService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	logger   *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{userRepo: userRepo, subRepo: subRepo, logger: logger}
}

// Subscribe records that subscriberID follows channelID. It reports whether a
// new edge was created; subscribing twice is not an error.
func (s *subscriptionService) Subscribe(ctx context.Context, subscriberID, channelID string) (bool, error) {
	channelID, ok := utils.NormalizeID(channelID)
	if !ok {
		return false, domain.NewValidationError("invalid channel id")
	}
	subscriberID, ok = utils.NormalizeID(subscriberID)
	if !ok {
		return false, domain.NewValidationError("invalid subscriber id")
	}
	if subscriberID == channelID {
		return false, domain.NewValidationError("cannot subscribe to your own channel")
	}

	if _, err := s.userRepo.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, domain.NewNotFoundError("channel does not exist")
		}
		return false, domain.NewInternalError("failed to get channel", err)
	}

	created, err := s.subRepo.Create(ctx, subscriberID, channelID)
	if err != nil {
		return false, domain.NewInternalError("failed to subscribe", err)
	}

	if created {
		s.logger.Info("subscribed", zap.String("subscriber_id", subscriberID), zap.String("channel_id", channelID))
	}
	return created, nil
}

// Unsubscribe removes the edge
func (s *subscriptionService) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	channelID, ok := utils.NormalizeID(channelID)
	if !ok {
		return domain.NewValidationError("invalid channel id")
	}

	deleted, err := s.subRepo.Delete(ctx, subscriberID, channelID)
	if err != nil {
		return domain.NewInternalError("failed to unsubscribe", err)
	}
	if !deleted {
		return domain.NewNotFoundError("subscription does not exist")
	}
	return nil
}

// ListSubscribers lists users following channelID
func (s *subscriptionService) ListSubscribers(ctx context.Context, channelID string) ([]*domain.UserSummary, error) {
	channelID, ok := utils.NormalizeID(channelID)
	if !ok {
		return nil, domain.NewValidationError("invalid channel id")
	}

	users, err := s.subRepo.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list subscribers", err)
	}
	return users, nil
}

// ListSubscribedChannels lists channels subscriberID follows
func (s *subscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.UserSummary, error) {
	subscriberID, ok := utils.NormalizeID(subscriberID)
	if !ok {
		return nil, domain.NewValidationError("invalid subscriber id")
	}

	channels, err := s.subRepo.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list subscribed channels", err)
	}
	return channels, nil
}
