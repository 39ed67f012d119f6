package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/repository"
	"github.com/prperemyshlev/videotube/internal/utils"
)

// memDB backs every fake repository so that sessions, subscriptions and
// profiles see the same users.
type memDB struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	subs     map[[2]string]time.Time
	comments map[string]*domain.Comment
	seq      map[string]int
	next     int
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*domain.User{},
		subs:     map[[2]string]time.Time{},
		comments: map[string]*domain.Comment{},
		seq:      map[string]int{},
	}
}

func notFound(id string) error {
	return fmt.Errorf("%s: %w", id, repository.ErrNotFound)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.WatchHistory = append([]string(nil), u.WatchHistory...)
	return &c
}

type fakeUsers struct{ db *memDB }

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, u := range f.db.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.db.users[user.ID] = copyUser(user)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	u, ok := f.db.users[id]
	if !ok {
		return nil, notFound(id)
	}
	return copyUser(u), nil
}

func (f *fakeUsers) GetByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, u := range f.db.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, notFound(username + "/" + email)
}

func (f *fakeUsers) mutate(id string, fn func(u *domain.User) error) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	u, ok := f.db.users[id]
	if !ok {
		return nil, notFound(id)
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := f.mutate(id, func(u *domain.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return err
}

func (f *fakeUsers) UpdateAccount(_ context.Context, id, fullname, email string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) error {
		for _, other := range f.db.users {
			if other.ID != id && strings.EqualFold(other.Email, email) {
				return repository.ErrDuplicateUser
			}
		}
		u.Fullname = fullname
		u.Email = email
		return nil
	})
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id, avatarURL string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) error {
		u.AvatarURL = avatarURL
		return nil
	})
}

func (f *fakeUsers) UpdateCoverImage(_ context.Context, id, coverImageURL string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) error {
		u.CoverImageURL = coverImageURL
		return nil
	})
}

func (f *fakeUsers) GetWatchHistory(ctx context.Context, id string) ([]string, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.WatchHistory, nil
}

func (f *fakeUsers) AddToWatchHistory(_ context.Context, id, videoID string) error {
	_, err := f.mutate(id, func(u *domain.User) error {
		history := []string{videoID}
		for _, v := range u.WatchHistory {
			if v != videoID {
				history = append(history, v)
			}
		}
		u.WatchHistory = history
		return nil
	})
	return err
}

func (f *fakeUsers) GetChannelProfile(_ context.Context, username, requesterID string) (*domain.ChannelProfile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, u := range f.db.users {
		if u.Username != username {
			continue
		}
		profile := &domain.ChannelProfile{
			ID:            u.ID,
			Username:      u.Username,
			Email:         u.Email,
			Fullname:      u.Fullname,
			AvatarURL:     u.AvatarURL,
			CoverImageURL: u.CoverImageURL,
		}
		for edge := range f.db.subs {
			if edge[1] == u.ID {
				profile.SubscriberCount++
				if edge[0] == requesterID {
					profile.IsSubscribed = true
				}
			}
			if edge[0] == u.ID {
				profile.SubscribedToCount++
			}
		}
		return profile, nil
	}
	return nil, notFound(username)
}

type fakeSessions struct{ db *memDB }

func (f *fakeSessions) set(userID string, fn func(u *domain.User) error) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	u, ok := f.db.users[userID]
	if !ok {
		return notFound(userID)
	}
	return fn(u)
}

func (f *fakeSessions) SetRefreshToken(_ context.Context, userID, token string) error {
	return f.set(userID, func(u *domain.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (f *fakeSessions) ClearRefreshToken(_ context.Context, userID string) error {
	return f.set(userID, func(u *domain.User) error {
		u.RefreshToken = ""
		return nil
	})
}

func (f *fakeSessions) GetRefreshToken(_ context.Context, userID string) (string, error) {
	var token string
	err := f.set(userID, func(u *domain.User) error {
		token = u.RefreshToken
		return nil
	})
	return token, err
}

func (f *fakeSessions) SwapRefreshToken(_ context.Context, userID, expected, next string) error {
	return f.set(userID, func(u *domain.User) error {
		if u.RefreshToken == "" || u.RefreshToken != expected {
			return repository.ErrTokenMismatch
		}
		u.RefreshToken = next
		return nil
	})
}

type fakeSubscriptions struct{ db *memDB }

func (f *fakeSubscriptions) Create(_ context.Context, subscriberID, channelID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	edge := [2]string{subscriberID, channelID}
	if _, ok := f.db.subs[edge]; ok {
		return false, nil
	}
	f.db.subs[edge] = time.Now()
	return true, nil
}

func (f *fakeSubscriptions) Delete(_ context.Context, subscriberID, channelID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	edge := [2]string{subscriberID, channelID}
	if _, ok := f.db.subs[edge]; !ok {
		return false, nil
	}
	delete(f.db.subs, edge)
	return true, nil
}

func (f *fakeSubscriptions) list(match func(edge [2]string) (string, bool)) []*domain.UserSummary {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	out := []*domain.UserSummary{}
	for edge := range f.db.subs {
		id, ok := match(edge)
		if !ok {
			continue
		}
		u := f.db.users[id]
		out = append(out, &domain.UserSummary{ID: u.ID, Username: u.Username, Fullname: u.Fullname, AvatarURL: u.AvatarURL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (f *fakeSubscriptions) ListSubscribers(_ context.Context, channelID string) ([]*domain.UserSummary, error) {
	return f.list(func(edge [2]string) (string, bool) { return edge[0], edge[1] == channelID }), nil
}

func (f *fakeSubscriptions) ListSubscribedChannels(_ context.Context, subscriberID string) ([]*domain.UserSummary, error) {
	return f.list(func(edge [2]string) (string, bool) { return edge[1], edge[0] == subscriberID }), nil
}

type fakeComments struct{ db *memDB }

func (f *fakeComments) Create(_ context.Context, comment *domain.Comment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	c := *comment
	f.db.comments[c.ID] = &c
	f.db.next++
	f.db.seq[c.ID] = f.db.next
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	c, ok := f.db.comments[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *c
	return &out, nil
}

func (f *fakeComments) ListByVideo(_ context.Context, videoID string, limit, offset int) ([]*domain.Comment, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	var all []*domain.Comment
	for _, c := range f.db.comments {
		if c.VideoID == videoID {
			out := *c
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool { return f.db.seq[all[i].ID] > f.db.seq[all[j].ID] })

	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Comment{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeComments) Update(_ context.Context, id, content string) (*domain.Comment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	c, ok := f.db.comments[id]
	if !ok {
		return nil, notFound(id)
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	out := *c
	return &out, nil
}

func (f *fakeComments) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	if _, ok := f.db.comments[id]; !ok {
		return notFound(id)
	}
	delete(f.db.comments, id)
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{fail: map[string]bool{}}
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, localPath)
	if localPath == "" {
		return "", errors.New("no file")
	}
	if f.fail[localPath] {
		return "", errors.New("storage unavailable")
	}
	return "https://cdn.test/" + filepath.Base(localPath), nil
}

type fakeBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: map[string]time.Duration{}}
}

func (f *fakeBlacklist) AddToken(_ context.Context, tokenID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ttl > 0 {
		f.revoked[tokenID] = ttl
	}
	return nil
}

func (f *fakeBlacklist) IsTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.revoked[tokenID]
	return ok, nil
}

// env wires every service over one memDB.
type env struct {
	db            *memDB
	clock         *clockwork.FakeClock
	uploader      *fakeUploader
	blacklist     *fakeBlacklist
	jwt           *utils.JWTManager
	users         *fakeUsers
	auth          AuthService
	userSvc       UserService
	subscriptions SubscriptionService
	comments      CommentService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := newMemDB()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	uploader := newFakeUploader()
	blacklist := newFakeBlacklist()
	logger := zap.NewNop()

	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	jwtManager := utils.NewJWTManager(utils.TokenConfig{
		AccessSecret:  "access-secret-for-tests-0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-for-tests-0123456789abcdef",
		RefreshTTL:    10 * 24 * time.Hour,
	}, clock)

	users := &fakeUsers{db: db}
	e := &env{
		db:        db,
		clock:     clock,
		uploader:  uploader,
		blacklist: blacklist,
		jwt:       jwtManager,
		users:     users,
	}
	e.auth = NewAuthService(AuthDeps{
		Users:      users,
		Sessions:   NewSessionStore(&fakeSessions{db: db}),
		JWT:        jwtManager,
		Blacklist:  blacklist,
		Uploader:   uploader,
		Metrics:    metrics,
		BCryptCost: 4,
		Clock:      clock,
		Logger:     logger,
	})
	e.userSvc = NewUserService(users, uploader, metrics, logger)
	e.subscriptions = NewSubscriptionService(users, &fakeSubscriptions{db: db}, logger)
	e.comments = NewCommentService(&fakeComments{db: db}, logger)
	return e
}

// requireAppError asserts err is an AppError with the given status.
func requireAppError(t *testing.T, err error, status int) *domain.AppError {
	t.Helper()

	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, status, appErr.Status, appErr.Message)
	return appErr
}
