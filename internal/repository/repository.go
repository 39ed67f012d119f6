package repository

import (
	"github.com/prperemyshlev/videotube/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Subscription SubscriptionRepository
	Comment      CommentRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Comment:      NewCommentRepository(db),
	}
}
