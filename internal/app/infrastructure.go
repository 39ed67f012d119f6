package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/config"
	"github.com/prperemyshlev/videotube/internal/media"
	"github.com/prperemyshlev/videotube/internal/migrations"
	"github.com/prperemyshlev/videotube/internal/service"
	"github.com/prperemyshlev/videotube/pkg/database"
	"github.com/prperemyshlev/videotube/pkg/observability"
)

const serviceName = "videotube"

type Infrastructure interface {
	Postgres() *database.Postgres
	Redis() *database.Redis
	Uploader() service.MediaUploader
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	postgres       *database.Postgres
	redis          *database.Redis
	uploader       service.MediaUploader
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

// NewInfrastructure connects every backing service and applies migrations.
// Anything opened before a failure is closed again.
func NewInfrastructure(ctx context.Context, cfg config.Config) (_ *infrastructure, err error) {
	i := &infrastructure{}

	var opened []func() error
	defer func() {
		if err == nil {
			return
		}
		for k := len(opened) - 1; k >= 0; k-- {
			_ = opened[k]()
		}
	}()

	i.logger, err = observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	i.postgres, err = database.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	opened = append(opened, i.postgres.Close)

	if err = migrations.Up(i.postgres.DB); err != nil {
		return nil, err
	}
	i.logger.Info("database schema is up to date")

	i.redis, err = database.NewRedis(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	opened = append(opened, i.redis.Close)

	s3Client, err := media.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	i.uploader = media.NewS3Uploader(s3Client, cfg.S3.Bucket, cfg.S3.PublicBaseURL, clockwork.NewRealClock(), i.logger)

	i.meterProvider, i.metricsHandler, err = observability.InitTelemetry(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	i.logger.Info("infrastructure ready",
		zap.String("postgres", cfg.Postgres.Host),
		zap.String("redis", cfg.Redis.Address()),
		zap.String("bucket", cfg.S3.Bucket),
	)
	return i, nil
}

func (i *infrastructure) Postgres() *database.Postgres {
	return i.postgres
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Uploader() service.MediaUploader {
	return i.uploader
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	// Flush metrics before the stores go away.
	telemetryErr := observability.Shutdown(ctx, i.meterProvider, i.logger)

	err := errors.Join(telemetryErr, i.redis.Close(), i.postgres.Close())
	if err != nil {
		i.logger.Error("infrastructure shutdown finished with errors", zap.Error(err))
	}
	_ = i.logger.Sync()
	return err
}
