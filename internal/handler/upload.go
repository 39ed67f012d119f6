package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/config"
	"github.com/prperemyshlev/videotube/internal/domain"
)

// stageUpload saves the multipart file field to the temp dir. It returns ""
// when the field is absent. The returned cleanup removes the staged file if
// the uploader has not already done so.
func stageUpload(c *gin.Context, field string, cfg config.UploadConfig) (string, func(), error) {
	noop := func() {}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", noop, nil
		}
		return "", noop, domain.NewValidationError(fmt.Sprintf("invalid %s file", field))
	}

	if cfg.MaxSize > 0 && header.Size > cfg.MaxSize {
		return "", noop, domain.NewValidationError(fmt.Sprintf("%s file is too large", field))
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return "", noop, domain.NewInternalError("failed to prepare upload directory", err)
	}

	tmp, err := os.CreateTemp(cfg.TempDir, field+"-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", noop, domain.NewInternalError("failed to stage upload", err)
	}
	path := tmp.Name()
	_ = tmp.Close()

	cleanup := func() { _ = os.Remove(path) }

	if err := c.SaveUploadedFile(header, path); err != nil {
		cleanup()
		return "", noop, domain.NewInternalError("failed to stage upload", err)
	}

	return path, cleanup, nil
}
