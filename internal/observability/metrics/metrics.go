package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	paymentsRecorded   metric.Int64Counter
	validationFailures metric.Int64Counter
	forwardFailures    metric.Int64Counter
	settlements        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "payrelay"
	}
	meter := provider.Meter(name)

	paymentsRecorded, err := meter.Int64Counter("payrelay_payments_recorded_total")
	if err != nil {
		return nil, err
	}
	validationFailures, err := meter.Int64Counter("payrelay_validation_failures_total")
	if err != nil {
		return nil, err
	}
	forwardFailures, err := meter.Int64Counter("payrelay_forward_failures_total")
	if err != nil {
		return nil, err
	}
	settlements, err := meter.Int64Counter("payrelay_settlements_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		paymentsRecorded:   paymentsRecorded,
		validationFailures: validationFailures,
		forwardFailures:    forwardFailures,
		settlements:        settlements,
	}, nil
}

// RecordPayment counts a recorder outcome; created=false means the submission
// was absorbed as an idempotent duplicate.
func (m *Metrics) RecordPayment(ctx context.Context, created bool) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("created", created),
	))
}

// RecordValidationFailure counts a rejected submission by failure code.
func (m *Metrics) RecordValidationFailure(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", strings.TrimSpace(code)),
	))
}

// RecordForwardFailure counts a failed downstream forward by HTTP status.
func (m *Metrics) RecordForwardFailure(ctx context.Context, statusCode int) {
	if m == nil {
		return
	}
	m.forwardFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("downstream_status", statusCode),
	))
}

// RecordSettlement counts an applied settlement confirmation by final status.
func (m *Metrics) RecordSettlement(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.settlements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", strings.TrimSpace(status)),
	))
}
