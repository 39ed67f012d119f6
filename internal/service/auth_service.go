package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
	"github.com/prperemyshlev/videotube/internal/repository"
	"github.com/prperemyshlev/videotube/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	sessions   *SessionStore
	jwtManager *utils.JWTManager
	blacklist  TokenBlacklist
	uploader   MediaUploader
	metrics    *Metrics
	bcryptCost int
	clock      clockwork.Clock
	logger     *zap.Logger
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Users      repository.UserRepository
	Sessions   *SessionStore
	JWT        *utils.JWTManager
	Blacklist  TokenBlacklist
	Uploader   MediaUploader
	Metrics    *Metrics
	BCryptCost int
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthDeps) AuthService {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &authService{
		userRepo:   deps.Users,
		sessions:   deps.Sessions,
		jwtManager: deps.JWT,
		blacklist:  deps.Blacklist,
		uploader:   deps.Uploader,
		metrics:    deps.Metrics,
		bcryptCost: deps.BCryptCost,
		clock:      clock,
		logger:     deps.Logger,
	}
}

// Register creates a user from a multipart form whose files were already
// staged on local disk.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	if utils.AnyBlank(req.Fullname, req.Email, req.Username, req.Password) {
		return nil, domain.NewValidationError("All fields are required")
	}

	username := utils.NormalizeUsername(req.Username)
	email := utils.SanitizeEmail(req.Email)

	var problems []string
	if !utils.ValidateEmail(email) {
		problems = append(problems, "email is not valid")
	}
	if !utils.ValidateUsername(username) {
		problems = append(problems, "username must be at most 30 characters of a-z, 0-9, '_', '.' or '-'")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError("invalid registration data", problems...)
	}

	_, err := s.userRepo.GetByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return nil, domain.NewConflictError("user with email or username already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewInternalError("failed to check user existence", err)
	}

	if req.AvatarPath == "" {
		return nil, domain.NewValidationError("avatar file is required")
	}

	avatarURL, err := s.upload(ctx, req.AvatarPath)
	if err != nil {
		s.logger.Warn("avatar upload failed", zap.String("username", username), zap.Error(err))
		return nil, domain.NewValidationError("avatar file is required")
	}

	var coverURL string
	if req.CoverImagePath != "" {
		coverURL, err = s.upload(ctx, req.CoverImagePath)
		if err != nil {
			// Cover image is optional; the account is created without it.
			s.logger.Warn("cover image upload failed", zap.String("username", username), zap.Error(err))
			coverURL = ""
		}
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	user := &domain.User{
		Username:      username,
		Email:         email,
		Fullname:      strings.TrimSpace(req.Fullname),
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, domain.NewConflictError("user with email or username already exists")
		}
		return nil, domain.NewInternalError("something went wrong while registering the user", err)
	}

	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, domain.NewInternalError("something went wrong while registering the user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", created.ID), zap.String("username", created.Username))
	return created.Sanitized(), nil
}

// Login authenticates by username or email and opens a new session.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error) {
	if strings.TrimSpace(req.Username) == "" && strings.TrimSpace(req.Email) == "" {
		return nil, domain.NewValidationError("username or email is required")
	}
	if req.Password == "" {
		return nil, domain.NewValidationError("password is required")
	}

	// Look up one identifier only; the username wins when both are sent.
	username, email := utils.NormalizeUsername(req.Username), ""
	if username == "" {
		email = utils.SanitizeEmail(req.Email)
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.login(ctx, outcomeFailure)
			return nil, domain.NewAuthenticationError("invalid user credentials")
		}
		return nil, domain.NewInternalError("failed to get user", err)
	}

	if !utils.VerifyPassword(req.Password, user.PasswordHash) {
		s.metrics.login(ctx, outcomeFailure)
		return nil, domain.NewAuthenticationError("invalid user credentials")
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Persist(ctx, user.ID, result.Tokens.RefreshToken); err != nil {
		return nil, domain.NewInternalError("something went wrong while generating tokens", err)
	}

	s.metrics.login(ctx, outcomeSuccess)
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return result, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is consumed: a second use fails even when the first succeeded.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.NewAuthenticationError("unauthorized request")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.refresh(ctx, outcomeFailure)
		return nil, domain.NewAuthenticationError("invalid refresh token")
	}

	matches, err := s.sessions.Matches(ctx, claims.UserID, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.refresh(ctx, outcomeFailure)
			return nil, domain.NewAuthenticationError("invalid refresh token")
		}
		return nil, domain.NewInternalError("failed to load session", err)
	}
	if !matches {
		s.metrics.refresh(ctx, outcomeFailure)
		return nil, domain.NewAuthenticationError("refresh token is expired or used")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.refresh(ctx, outcomeFailure)
			return nil, domain.NewAuthenticationError("invalid refresh token")
		}
		return nil, domain.NewInternalError("failed to get user", err)
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Rotate(ctx, user.ID, refreshToken, result.Tokens.RefreshToken); err != nil {
		if errors.Is(err, ErrSessionMismatch) {
			s.metrics.refresh(ctx, outcomeFailure)
			s.logger.Warn("refresh token reused concurrently", zap.String("user_id", user.ID))
			return nil, domain.NewAuthenticationError("refresh token is expired or used")
		}
		return nil, domain.NewInternalError("failed to rotate refresh token", err)
	}

	s.metrics.refresh(ctx, outcomeSuccess)
	return result, nil
}

// Logout ends the session of userID and revokes the presented access token.
func (s *authService) Logout(ctx context.Context, userID string, accessClaims *domain.TokenClaims) error {
	if err := s.sessions.Clear(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.NewInternalError("failed to logout", err)
	}

	if accessClaims != nil && accessClaims.ID != "" && accessClaims.ExpiresAt != nil {
		ttl := accessClaims.ExpiresAt.Sub(s.clock.Now())
		if err := s.blacklist.AddToken(ctx, accessClaims.ID, ttl); err != nil {
			s.logger.Warn("failed to blacklist access token", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// ChangePassword replaces the password after checking the old one.
func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return domain.NewValidationError("old and new password are required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("user not found")
		}
		return domain.NewInternalError("failed to get user", err)
	}

	if !utils.VerifyPassword(req.OldPassword, user.PasswordHash) {
		return domain.NewValidationError("invalid old password")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return domain.NewInternalError("failed to hash password", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return domain.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// Authenticate verifies an access token, rejects revoked ones and loads the
// user it names.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, *domain.TokenClaims, error) {
	if accessToken == "" {
		return nil, nil, domain.NewAuthenticationError("unauthorized request")
	}

	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, nil, domain.NewAuthenticationError("access token expired")
		}
		return nil, nil, domain.NewAuthenticationError("invalid access token")
	}

	revoked, err := s.blacklist.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, nil, domain.NewInternalError("failed to check token", err)
	}
	if revoked {
		return nil, nil, domain.NewAuthenticationError("invalid access token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.NewAuthenticationError("invalid access token")
		}
		return nil, nil, domain.NewInternalError("failed to get user", err)
	}

	return user.Sanitized(), claims, nil
}

func (s *authService) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	pair, err := s.jwtManager.GenerateTokenPair(user)
	if err != nil {
		return nil, domain.NewInternalError("something went wrong while generating tokens", err)
	}
	return &AuthResult{
		User:       user.Sanitized(),
		Tokens:     pair,
		AccessTTL:  s.jwtManager.AccessTokenTTL(),
		RefreshTTL: s.jwtManager.RefreshTokenTTL(),
	}, nil
}

func (s *authService) upload(ctx context.Context, localPath string) (string, error) {
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.metrics.upload(ctx, outcomeFailure)
		return "", err
	}
	s.metrics.upload(ctx, outcomeSuccess)
	return url, nil
}
