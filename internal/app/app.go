package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/videotube/internal/config"
	"github.com/prperemyshlev/videotube/internal/handler"
	"github.com/prperemyshlev/videotube/internal/repository"
	"github.com/prperemyshlev/videotube/internal/service"
	"github.com/prperemyshlev/videotube/internal/utils"
	"github.com/prperemyshlev/videotube/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	subscriptions *handler.SubscriptionHandler
	comments      *handler.CommentHandler
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	clock := clockwork.NewRealClock()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(utils.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		AccessTTL:     cfg.JWT.AccessTokenExpiry.Duration,
		RefreshSecret: cfg.JWT.RefreshSecret,
		RefreshTTL:    cfg.JWT.RefreshTokenExpiry.Duration,
	}, clock)

	metrics, err := service.NewMetrics(infra.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	blacklistService := service.NewTokenBlacklistService(infra.Redis().Client)
	rateLimiter := service.NewRateLimiter(infra.Redis().Client, clock)
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(service.AuthDeps{
		Users:      repos.User,
		Sessions:   service.NewSessionStore(repos.Session),
		JWT:        jwtManager,
		Blacklist:  blacklistService,
		Uploader:   infra.Uploader(),
		Metrics:    metrics,
		BCryptCost: cfg.Security.BCryptCost,
		Clock:      clock,
		Logger:     logger,
	})
	userService := service.NewUserService(repos.User, infra.Uploader(), metrics, logger)
	subscriptionService := service.NewSubscriptionService(repos.User, repos.Subscription, logger)
	commentService := service.NewCommentService(repos.Comment, logger)

	h := handlers{
		auth:          handler.NewAuthHandler(authService, cfg.Upload, cfg.Security.CookieSecure),
		users:         handler.NewUserHandler(userService, cfg.Upload),
		subscriptions: handler.NewSubscriptionHandler(subscriptionService),
		comments:      handler.NewCommentHandler(commentService),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.Recovery(logger))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS))
	router.Use(handler.ErrorHandler(logger))
	router.MaxMultipartMemory = cfg.Upload.MaxSize
	router.NoRoute(handler.NotFound)

	setupRoutes(router, cfg, h, authService, rateLimiter, healthChecker, infra.MetricsHandler(), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter handler.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	limit := handler.RateLimitMiddleware(rateLimiter,
		cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration,
		handler.RouteAndIPKey, logger)
	guard := handler.SessionGuard(authService)

	api := router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", limit, h.auth.Register)
		users.POST("/login", limit, h.auth.Login)
		users.POST("/refresh-token", h.auth.Refresh)

		secured := users.Group("", guard)
		secured.POST("/logout", h.auth.Logout)
		secured.POST("/change-password", h.auth.ChangePassword)
		secured.GET("/current-user", h.users.CurrentUser)
		secured.PATCH("/update-account", h.users.UpdateAccount)
		secured.PATCH("/avatar", h.users.UpdateAvatar)
		secured.PATCH("/cover-image", h.users.UpdateCoverImage)
		secured.GET("/channel/:username", h.users.ChannelProfile)
		secured.GET("/history", h.users.WatchHistory)
		secured.POST("/history/:videoId", h.users.AddToWatchHistory)
	}

	subscriptions := api.Group("/subscriptions", guard)
	{
		subscriptions.POST("/c/:channelId", h.subscriptions.Subscribe)
		subscriptions.DELETE("/c/:channelId", h.subscriptions.Unsubscribe)
		subscriptions.GET("/c/:channelId/subscribers", h.subscriptions.Subscribers)
		subscriptions.GET("/u/:subscriberId/channels", h.subscriptions.SubscribedChannels)
	}

	comments := api.Group("/comments", guard)
	{
		comments.GET("/video/:videoId", h.comments.List)
		comments.POST("/video/:videoId", h.comments.Create)
		comments.PUT("/video/:videoId", h.comments.Update)
		comments.DELETE("/video/:videoId", h.comments.Delete)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// Shutdown stops the HTTP server first, then releases the infrastructure it
// was using.
func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverErr := a.server.Shutdown(ctx)
	infraErr := a.infra.Shutdown(ctx)

	if err := errors.Join(serverErr, infraErr); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
