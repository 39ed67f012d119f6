package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

type dependency struct {
	name string
	ping func(context.Context) error
}

// HealthChecker pings the stores the API cannot serve without.
type HealthChecker struct {
	deps   []dependency
	logger *zap.Logger
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return newHealthChecker(infra.Logger(),
		dependency{name: "postgres", ping: infra.Postgres().Ping},
		dependency{name: "redis", ping: infra.Redis().Ping},
	)
}

func newHealthChecker(logger *zap.Logger, deps ...dependency) *HealthChecker {
	return &HealthChecker{deps: deps, logger: logger}
}

type pingResult struct {
	name string
	err  error
}

func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(chan pingResult, len(h.deps))
	for _, d := range h.deps {
		go func(d dependency) {
			results <- pingResult{name: d.name, err: d.ping(ctx)}
		}(d)
	}

	out := make(map[string]error, len(h.deps))
	for range h.deps {
		r := <-results
		out[r.name] = r.err
	}
	return out
}

// Handler reports pass only when every dependency answers. Failure details
// go to the log, the response only names which check failed.
func (h *HealthChecker) Handler(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	for name, err := range h.check(c.Request.Context()) {
		if err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "pass"
	}

	overall := "pass"
	if status != http.StatusOK {
		overall = "fail"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
