package domain

import "time"

// User represents a registered account. The entity carries data only; password
// checks and token minting live in utils.
type User struct {
	ID            string    `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	Fullname      string    `json:"fullname" db:"fullname"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	AvatarURL     string    `json:"avatar" db:"avatar_url"`
	CoverImageURL string    `json:"coverImage" db:"cover_image_url"`
	RefreshToken  string    `json:"-" db:"refresh_token"`
	WatchHistory  []string  `json:"watchHistory" db:"watch_history"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Sanitized returns a copy with credential fields cleared.
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	return &u
}

// ChannelProfile is the denormalized public view of a user seen as a channel.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Fullname          string `json:"fullname"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage"`
	SubscriberCount   int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// Subscription is the edge "Subscriber follows Channel".
type Subscription struct {
	ID           string    `json:"id" db:"id"`
	SubscriberID string    `json:"subscriber" db:"subscriber_id"`
	ChannelID    string    `json:"channel" db:"channel_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the public subset of a user used in subscription listings.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}

// Comment belongs to a video and is authored by a user.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	VideoID   string    `json:"video" db:"video_id"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
