package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
	"github.com/prperemyshlev/videotube/internal/repository"
	"github.com/prperemyshlev/videotube/internal/utils"
)

// userService implements UserService interface
type userService struct {
	userRepo repository.UserRepository
	uploader MediaUploader
	metrics  *Metrics
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, uploader MediaUploader, metrics *Metrics, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetCurrentUser returns the sanitized user
func (s *userService) GetCurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user.Sanitized(), nil
}

// UpdateAccount changes fullname and email
func (s *userService) UpdateAccount(ctx context.Context, userID string, req *dto.UpdateAccountRequest) (*domain.User, error) {
	if utils.AnyBlank(req.Fullname, req.Email) {
		return nil, domain.NewValidationError("All fields are required")
	}

	email := utils.SanitizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, domain.NewValidationError("email is not valid")
	}

	user, err := s.userRepo.UpdateAccount(ctx, userID, strings.TrimSpace(req.Fullname), email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, domain.NewConflictError("email is already in use")
		}
		return nil, userLookupError(err)
	}

	return user.Sanitized(), nil
}

// UpdateAvatar uploads a staged file and stores its URL as the avatar.
func (s *userService) UpdateAvatar(ctx context.Context, userID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, domain.NewValidationError("avatar file is missing")
	}

	url, err := s.upload(ctx, localPath)
	if err != nil {
		s.logger.Warn("avatar upload failed", zap.String("user_id", userID), zap.Error(err))
		return nil, domain.NewValidationError("error while uploading avatar")
	}

	user, err := s.userRepo.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user.Sanitized(), nil
}

// UpdateCoverImage uploads a staged file and stores its URL as the cover image.
func (s *userService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, domain.NewValidationError("cover image file is missing")
	}

	url, err := s.upload(ctx, localPath)
	if err != nil {
		s.logger.Warn("cover image upload failed", zap.String("user_id", userID), zap.Error(err))
		return nil, domain.NewValidationError("error while uploading cover image")
	}

	user, err := s.userRepo.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user.Sanitized(), nil
}

// GetChannelProfile builds the channel view of username as seen by requesterID.
// requesterID may be empty for anonymous viewers.
func (s *userService) GetChannelProfile(ctx context.Context, username, requesterID string) (*domain.ChannelProfile, error) {
	username = utils.NormalizeUsername(username)
	if username == "" {
		return nil, domain.NewValidationError("username is missing")
	}

	profile, err := s.userRepo.GetChannelProfile(ctx, username, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("channel does not exist")
		}
		return nil, domain.NewInternalError("failed to load channel profile", err)
	}
	return profile, nil
}

// GetWatchHistory returns watched video ids, most recent first
func (s *userService) GetWatchHistory(ctx context.Context, userID string) ([]string, error) {
	history, err := s.userRepo.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	if history == nil {
		history = []string{}
	}
	return history, nil
}

// AddToWatchHistory moves videoID to the front of the watch history.
func (s *userService) AddToWatchHistory(ctx context.Context, userID, videoID string) ([]string, error) {
	videoID, ok := utils.NormalizeID(videoID)
	if !ok {
		return nil, domain.NewValidationError("invalid video id")
	}

	if err := s.userRepo.AddToWatchHistory(ctx, userID, videoID); err != nil {
		return nil, userLookupError(err)
	}
	return s.GetWatchHistory(ctx, userID)
}

func (s *userService) upload(ctx context.Context, localPath string) (string, error) {
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.metrics.upload(ctx, outcomeFailure)
		return "", err
	}
	s.metrics.upload(ctx, outcomeSuccess)
	return url, nil
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError("user not found")
	}
	return domain.NewInternalError("failed to access user", err)
}
