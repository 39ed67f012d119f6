package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
)

type AuthServiceSuite struct {
	suite.Suite
	env *env
	ctx context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.ctx = context.Background()
}

func (s *AuthServiceSuite) register(username, email string) *domain.User {
	user, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname:   "Test " + username,
		Email:      email,
		Username:   username,
		Password:   "Password123",
		AvatarPath: "/tmp/staged/" + username + "-avatar.png",
	})
	s.Require().NoError(err)
	return user
}

func (s *AuthServiceSuite) login(username string) *AuthResult {
	result, err := s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: username, Password: "Password123"})
	s.Require().NoError(err)
	return result
}

func (s *AuthServiceSuite) TestRegister_StripsCredentials() {
	user := s.register("Alice", "Alice@Example.com")

	s.NotEmpty(user.ID)
	s.Equal("alice", user.Username)
	s.Equal("alice@example.com", user.Email)
	s.Equal("https://cdn.test/Alice-avatar.png", user.AvatarURL)
	s.Empty(user.CoverImageURL)
	s.Empty(user.PasswordHash)
	s.Empty(user.RefreshToken)
	s.NotNil(user.WatchHistory)

	stored, err := s.env.users.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotEqual("Password123", stored.PasswordHash)
	s.NotEmpty(stored.PasswordHash)
}

func (s *AuthServiceSuite) TestRegister_DuplicateIsConflictRegardlessOfCase() {
	s.register("alice", "alice@example.com")

	_, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "Other", Email: "other@example.com", Username: "ALICE", Password: "x",
		AvatarPath: "/tmp/a.png",
	})
	requireAppError(s.T(), err, http.StatusConflict)

	_, err = s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "Other", Email: "ALICE@example.com", Username: "bob", Password: "x",
		AvatarPath: "/tmp/a.png",
	})
	requireAppError(s.T(), err, http.StatusConflict)
}

func (s *AuthServiceSuite) TestRegister_BlankFields() {
	_, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "   ", Email: "a@example.com", Username: "abc", Password: "x", AvatarPath: "/tmp/a.png",
	})
	appErr := requireAppError(s.T(), err, http.StatusBadRequest)
	s.Equal("All fields are required", appErr.Message)
	s.Empty(s.env.uploader.calls)
}

func (s *AuthServiceSuite) TestRegister_InvalidInput() {
	_, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "A", Email: "not-an-email", Username: "a b", Password: "x", AvatarPath: "/tmp/a.png",
	})
	appErr := requireAppError(s.T(), err, http.StatusBadRequest)
	s.Len(appErr.Errors, 2)
}

func (s *AuthServiceSuite) TestRegister_ShortUsername() {
	user := s.register("Jo", "jo@example.com")
	s.Equal("jo", user.Username)
}

func (s *AuthServiceSuite) TestRegister_AvatarRequired() {
	_, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "A", Email: "a@example.com", Username: "abc", Password: "x",
	})
	appErr := requireAppError(s.T(), err, http.StatusBadRequest)
	s.Equal("avatar file is required", appErr.Message)
}

func (s *AuthServiceSuite) TestRegister_AvatarUploadFailure() {
	s.env.uploader.fail["/tmp/broken.png"] = true

	_, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "A", Email: "a@example.com", Username: "abc", Password: "x", AvatarPath: "/tmp/broken.png",
	})
	appErr := requireAppError(s.T(), err, http.StatusBadRequest)
	s.Equal("avatar file is required", appErr.Message)

	_, err = s.env.users.GetByUsernameOrEmail(s.ctx, "abc", "a@example.com")
	s.Error(err, "no user is created when the avatar upload fails")
}

func (s *AuthServiceSuite) TestRegister_CoverUploadFailureIsTolerated() {
	s.env.uploader.fail["/tmp/cover.png"] = true

	user, err := s.env.auth.Register(s.ctx, &dto.RegisterRequest{
		Fullname: "A", Email: "a@example.com", Username: "abc", Password: "x",
		AvatarPath: "/tmp/avatar.png", CoverImagePath: "/tmp/cover.png",
	})
	s.Require().NoError(err)
	s.NotEmpty(user.AvatarURL)
	s.Empty(user.CoverImageURL)
}

func (s *AuthServiceSuite) TestLogin_ByUsernameOrEmail() {
	user := s.register("alice", "alice@example.com")

	byName := s.login("Alice")
	s.Equal(user.ID, byName.User.ID)
	s.NotEmpty(byName.Tokens.AccessToken)
	s.NotEmpty(byName.Tokens.RefreshToken)
	s.Empty(byName.User.PasswordHash)
	s.Equal(15*time.Minute, byName.AccessTTL)

	byEmail, err := s.env.auth.Login(s.ctx, &dto.LoginRequest{Email: "ALICE@example.com", Password: "Password123"})
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.User.ID)

	stored, err := s.env.users.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(hashToken(byEmail.Tokens.RefreshToken), stored.RefreshToken, "only the latest login is stored, hashed")
}

func (s *AuthServiceSuite) TestLogin_UsernameWinsOverEmail() {
	alice := s.register("alice", "alice@example.com")
	s.register("bob", "bob@example.com")

	for range 20 {
		result, err := s.env.auth.Login(s.ctx, &dto.LoginRequest{
			Username: "alice",
			Email:    "bob@example.com",
			Password: "Password123",
		})
		s.Require().NoError(err)
		s.Equal(alice.ID, result.User.ID)
	}

	_, err := s.env.auth.Login(s.ctx, &dto.LoginRequest{
		Username: "nobody",
		Email:    "alice@example.com",
		Password: "Password123",
	})
	requireAppError(s.T(), err, http.StatusUnauthorized)
}

func (s *AuthServiceSuite) TestLogin_Failures() {
	s.register("alice", "alice@example.com")

	_, err := s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: "alice", Password: "wrong"})
	requireAppError(s.T(), err, http.StatusUnauthorized)

	_, err = s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: "nobody", Password: "Password123"})
	requireAppError(s.T(), err, http.StatusUnauthorized)

	_, err = s.env.auth.Login(s.ctx, &dto.LoginRequest{Password: "Password123"})
	requireAppError(s.T(), err, http.StatusBadRequest)

	_, err = s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: "alice"})
	requireAppError(s.T(), err, http.StatusBadRequest)
}

func (s *AuthServiceSuite) TestRefresh_RotatesAndIsSingleUse() {
	s.register("alice", "alice@example.com")
	first := s.login("alice")

	second, err := s.env.auth.RefreshToken(s.ctx, first.Tokens.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(first.Tokens.RefreshToken, second.Tokens.RefreshToken)
	s.NotEmpty(second.Tokens.AccessToken)

	_, err = s.env.auth.RefreshToken(s.ctx, first.Tokens.RefreshToken)
	appErr := requireAppError(s.T(), err, http.StatusUnauthorized)
	s.Equal("refresh token is expired or used", appErr.Message)

	_, err = s.env.auth.RefreshToken(s.ctx, second.Tokens.RefreshToken)
	s.NoError(err)
}

func (s *AuthServiceSuite) TestRefresh_OlderLoginIsSuperseded() {
	s.register("alice", "alice@example.com")
	older := s.login("alice")
	s.login("alice")

	_, err := s.env.auth.RefreshToken(s.ctx, older.Tokens.RefreshToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)
}

func (s *AuthServiceSuite) TestRefresh_ConcurrentUseHasOneWinner() {
	s.register("alice", "alice@example.com")
	token := s.login("alice").Tokens.RefreshToken

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.env.auth.RefreshToken(s.ctx, token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		requireAppError(s.T(), err, http.StatusUnauthorized)
	}
	s.Equal(1, successes)
}

func (s *AuthServiceSuite) TestRefresh_InvalidTokens() {
	user := s.register("alice", "alice@example.com")
	pair := s.login("alice")

	_, err := s.env.auth.RefreshToken(s.ctx, "")
	appErr := requireAppError(s.T(), err, http.StatusUnauthorized)
	s.Equal("unauthorized request", appErr.Message)

	_, err = s.env.auth.RefreshToken(s.ctx, "garbage")
	appErr = requireAppError(s.T(), err, http.StatusUnauthorized)
	s.Equal("invalid refresh token", appErr.Message)

	_, err = s.env.auth.RefreshToken(s.ctx, pair.Tokens.AccessToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)

	s.env.db.mu.Lock()
	delete(s.env.db.users, user.ID)
	s.env.db.mu.Unlock()

	_, err = s.env.auth.RefreshToken(s.ctx, pair.Tokens.RefreshToken)
	appErr = requireAppError(s.T(), err, http.StatusUnauthorized)
	s.Equal("invalid refresh token", appErr.Message)
}

func (s *AuthServiceSuite) TestRefresh_ExpiredRefreshToken() {
	s.register("alice", "alice@example.com")
	pair := s.login("alice")

	s.env.clock.Advance(10*24*time.Hour + time.Second)

	_, err := s.env.auth.RefreshToken(s.ctx, pair.Tokens.RefreshToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)
}

func (s *AuthServiceSuite) TestExpiredAccessTokenRecoversThroughRefresh() {
	user := s.register("alice", "alice@example.com")
	pair := s.login("alice")

	got, claims, err := s.env.auth.Authenticate(s.ctx, pair.Tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
	s.Equal(user.ID, claims.UserID)

	s.env.clock.Advance(16 * time.Minute)

	_, _, err = s.env.auth.Authenticate(s.ctx, pair.Tokens.AccessToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)

	refreshed, err := s.env.auth.RefreshToken(s.ctx, pair.Tokens.RefreshToken)
	s.Require().NoError(err)

	got, _, err = s.env.auth.Authenticate(s.ctx, refreshed.Tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}

func (s *AuthServiceSuite) TestLogout_RevokesSession() {
	s.register("alice", "alice@example.com")
	pair := s.login("alice")

	user, claims, err := s.env.auth.Authenticate(s.ctx, pair.Tokens.AccessToken)
	s.Require().NoError(err)

	s.env.clock.Advance(5 * time.Minute)
	s.Require().NoError(s.env.auth.Logout(s.ctx, user.ID, claims))

	s.Equal(10*time.Minute, s.env.blacklist.revoked[claims.ID])

	_, _, err = s.env.auth.Authenticate(s.ctx, pair.Tokens.AccessToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)

	_, err = s.env.auth.RefreshToken(s.ctx, pair.Tokens.RefreshToken)
	appErr := requireAppError(s.T(), err, http.StatusUnauthorized)
	s.Equal("refresh token is expired or used", appErr.Message)
}

func (s *AuthServiceSuite) TestAuthenticate_Rejects() {
	_, _, err := s.env.auth.Authenticate(s.ctx, "")
	requireAppError(s.T(), err, http.StatusUnauthorized)

	_, _, err = s.env.auth.Authenticate(s.ctx, "not.a.jwt")
	requireAppError(s.T(), err, http.StatusUnauthorized)

	s.register("alice", "alice@example.com")
	pair := s.login("alice")
	_, _, err = s.env.auth.Authenticate(s.ctx, pair.Tokens.RefreshToken)
	requireAppError(s.T(), err, http.StatusUnauthorized)
}

func (s *AuthServiceSuite) TestChangePassword() {
	user := s.register("alice", "alice@example.com")

	err := s.env.auth.ChangePassword(s.ctx, user.ID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "NewPass456"})
	appErr := requireAppError(s.T(), err, http.StatusBadRequest)
	s.Equal("invalid old password", appErr.Message)

	err = s.env.auth.ChangePassword(s.ctx, user.ID, &dto.ChangePasswordRequest{OldPassword: "Password123", NewPassword: "NewPass456"})
	s.Require().NoError(err)

	_, err = s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: "alice", Password: "Password123"})
	requireAppError(s.T(), err, http.StatusUnauthorized)

	_, err = s.env.auth.Login(s.ctx, &dto.LoginRequest{Username: "alice", Password: "NewPass456"})
	s.NoError(err)
}
