package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

// Metrics records decision outcomes. It implements service.Observer.
type Metrics struct {
	decisions  metric.Int64Counter
	latency    metric.Float64Histogram
	generation metric.Int64ObservableGauge
}

// NewMetrics registers the instruments on meter. Instruments that fail to
// register are logged and then skipped when recording. When reg is non-nil
// its generation is exported as a gauge.
func NewMetrics(meter metric.Meter, logger *slog.Logger, reg *registry.Store) *Metrics {
	m := &Metrics{}
	var err error

	m.decisions, err = meter.Int64Counter(
		"idpolicy.decisions",
		metric.WithDescription("Authorization decisions by grant type and outcome"),
	)
	logInitError(logger, "idpolicy.decisions", err)

	m.latency, err = meter.Float64Histogram(
		"idpolicy.decision.duration",
		metric.WithDescription("Time taken to reach a decision"),
		metric.WithUnit("s"),
	)
	logInitError(logger, "idpolicy.decision.duration", err)

	if reg == nil {
		return m
	}

	m.generation, err = meter.Int64ObservableGauge(
		"idpolicy.registry.generation",
		metric.WithDescription("Generation of the active registry snapshot"),
	)
	logInitError(logger, "idpolicy.registry.generation", err)

	if m.generation != nil {
		_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(m.generation, int64(reg.Generation())) // #nosec G115
			return nil
		}, m.generation)
		if err != nil {
			logger.Warn("failed to register metric callback", "name", "idpolicy.registry.generation", "error", err)
		}
	}
	return m
}

func (m *Metrics) DecisionMade(ctx context.Context, grant domain.GrantType, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("grant_type", grantLabel(grant)),
		attribute.String("reason", reason),
	)
	if m.decisions != nil {
		m.decisions.Add(ctx, 1, attrs)
	}
	if m.latency != nil {
		m.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// grantLabel bounds label cardinality to the known grant types.
func grantLabel(g domain.GrantType) string {
	if g.Known() {
		return string(g)
	}
	return "unknown"
}

func logInitError(logger *slog.Logger, name string, err error) {
	if err != nil && logger != nil {
		logger.Warn("failed to create metric instrument", "name", name, "error", err)
	}
}
