package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts auth and upload outcomes.
type Metrics struct {
	logins    metric.Int64Counter
	refreshes metric.Int64Counter
	uploads   metric.Int64Counter
}

// NewMetrics registers the service instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("videotube.auth.logins",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	refreshes, err := meter.Int64Counter("videotube.auth.refreshes",
		metric.WithDescription("Refresh token rotations by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create refreshes counter: %w", err)
	}

	uploads, err := meter.Int64Counter("videotube.media.uploads",
		metric.WithDescription("Media uploads by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads counter: %w", err)
	}

	return &Metrics{logins: logins, refreshes: refreshes, uploads: uploads}, nil
}

func (m *Metrics) login(ctx context.Context, outcome string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) refresh(ctx context.Context, outcome string) {
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) upload(ctx context.Context, outcome string) {
	m.uploads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
