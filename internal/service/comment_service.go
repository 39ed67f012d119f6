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

const (
	defaultCommentPageSize = 10
	maxCommentPageSize     = 100
	maxCommentPage         = 1_000_000
)

// commentService implements CommentService interface
type commentService struct {
	commentRepo repository.CommentRepository
	logger      *zap.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(commentRepo repository.CommentRepository, logger *zap.Logger) CommentService {
	return &commentService{commentRepo: commentRepo, logger: logger}
}

// List returns one page of comments on videoID, newest first. Out of range
// limits are clamped; pages past maxCommentPage are rejected.
func (s *commentService) List(ctx context.Context, videoID string, page, limit int) (*dto.CommentPage, error) {
	videoID, ok := utils.NormalizeID(videoID)
	if !ok {
		return nil, domain.NewValidationError("invalid video id")
	}

	if page < 1 {
		page = 1
	}
	if page > maxCommentPage {
		return nil, domain.NewValidationError("page is out of range")
	}
	if limit < 1 {
		limit = defaultCommentPageSize
	}
	if limit > maxCommentPageSize {
		limit = maxCommentPageSize
	}

	comments, total, err := s.commentRepo.ListByVideo(ctx, videoID, limit, (page-1)*limit)
	if err != nil {
		return nil, domain.NewInternalError("failed to list comments", err)
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}

	return &dto.CommentPage{Comments: comments, Page: page, Limit: limit, Total: total}, nil
}

// Create adds a comment by ownerID
func (s *commentService) Create(ctx context.Context, videoID, ownerID, content string) (*domain.Comment, error) {
	videoID, ok := utils.NormalizeID(videoID)
	if !ok {
		return nil, domain.NewValidationError("invalid video id")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content is required")
	}

	comment := &domain.Comment{VideoID: videoID, OwnerID: ownerID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, domain.NewInternalError("failed to create comment", err)
	}
	return comment, nil
}

// Update edits a comment. Only its owner may do so.
func (s *commentService) Update(ctx context.Context, videoID, userID, commentID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content is required")
	}

	comment, err := s.ownedComment(ctx, videoID, userID, commentID)
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.Update(ctx, comment.ID, content)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("comment not found")
		}
		return nil, domain.NewInternalError("failed to update comment", err)
	}
	return updated, nil
}

// Delete removes a comment. Only its owner may do so.
func (s *commentService) Delete(ctx context.Context, videoID, userID, commentID string) error {
	comment, err := s.ownedComment(ctx, videoID, userID, commentID)
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFoundError("comment not found")
		}
		return domain.NewInternalError("failed to delete comment", err)
	}

	s.logger.Info("comment deleted", zap.String("comment_id", commentID), zap.String("user_id", userID))
	return nil
}

func (s *commentService) ownedComment(ctx context.Context, videoID, userID, commentID string) (*domain.Comment, error) {
	videoID, ok := utils.NormalizeID(videoID)
	if !ok {
		return nil, domain.NewValidationError("invalid video id")
	}
	commentID, ok = utils.NormalizeID(commentID)
	if !ok {
		return nil, domain.NewValidationError("invalid comment id")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFoundError("comment not found")
		}
		return nil, domain.NewInternalError("failed to get comment", err)
	}
	if comment.VideoID != videoID {
		return nil, domain.NewNotFoundError("comment not found")
	}
	if comment.OwnerID != userID {
		return nil, domain.NewForbiddenError("you can only modify your own comments")
	}
	return comment, nil
}
