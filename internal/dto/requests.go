package dto

// RegisterRequest represents the text fields of a multipart registration form.
// Avatar and cover image arrive as files and are staged by the handler.
type RegisterRequest struct {
	Fullname       string `form:"fullname" json:"fullname"`
	Email          string `form:"email" json:"email"`
	Username       string `form:"username" json:"username"`
	Password       string `form:"password" json:"password"`
	AvatarPath     string `form:"-" json:"-"`
	CoverImagePath string `form:"-" json:"-"`
}

// LoginRequest represents a login request. Either Email or Username identifies
// the account.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token for non-browser clients.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateAccountRequest represents an account details update
type UpdateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// CreateCommentRequest represents a new comment on a video
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest represents an edit of an existing comment
type UpdateCommentRequest struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}
