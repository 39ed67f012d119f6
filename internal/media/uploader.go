// Package media stores user-supplied images in S3-compatible object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prperemyshlev/videotube/internal/config"
	"go.uber.org/zap"
)

// ErrNoFile is returned when Upload is called without a local path.
var ErrNoFile = errors.New("no file to upload")

// PutObjectAPI is the subset of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader pushes a staged local file to a bucket and returns its public URL.
// The local file is removed whether or not the upload succeeds.
type S3Uploader struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
	clock         clockwork.Clock
}

// NewS3Client builds an S3 client for the configured endpoint. Path-style
// addressing keeps it compatible with MinIO.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// NewS3Uploader creates a new uploader. The clock dates object keys.
func NewS3Uploader(client PutObjectAPI, bucket, publicBaseURL string, clock clockwork.Clock, logger *zap.Logger) *S3Uploader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		clock:         clock,
	}
}

// Upload stores the file at localPath and returns its URL.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", ErrNoFile
	}
	defer u.remove(localPath)

	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	key := u.objectKey(mtype.Extension())
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mtype.String()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	url := u.publicBaseURL + "/" + key
	u.logger.Info("File uploaded", zap.String("url", url), zap.String("content_type", mtype.String()))

	return url, nil
}

func (u *S3Uploader) objectKey(ext string) string {
	d := u.clock.Now().UTC()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (u *S3Uploader) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		u.logger.Warn("Failed to remove staged file", zap.String("path", path), zap.Error(err))
	}
}
