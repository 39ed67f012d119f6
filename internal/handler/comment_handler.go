package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/domain"
	"github.com/prperemyshlev/videotube/internal/dto"
	"github.com/prperemyshlev/videotube/internal/service"
)

// CommentHandler handles comment requests on /comments/video/:videoId
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List returns a page of comments
func (h *CommentHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.commentService.List(c.Request.Context(), c.Param("videoId"), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, result, "Comments fetched successfully")
}

// Create adds a comment
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), c.Param("videoId"), currentUserID(c), req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, comment, "Comment added successfully")
}

// Update edits the comment named in the body
func (h *CommentHandler) Update(c *gin.Context) {
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.NewValidationError("invalid request body", err.Error()))
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), c.Param("videoId"), currentUserID(c), req.CommentID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, comment, "Comment updated successfully")
}

// Delete removes the comment named by the commentId query parameter
func (h *CommentHandler) Delete(c *gin.Context) {
	err := h.commentService.Delete(c.Request.Context(), c.Param("videoId"), currentUserID(c), c.Query("commentId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Comment deleted successfully")
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name + " must be an integer")
	}
	return v, nil
}
