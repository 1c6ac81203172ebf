package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/trc-platform/trc/config"
	"github.com/trc-platform/trc/observability/oteladapters"
	"github.com/trc-platform/trc/observability/prommetrics"
	"github.com/trc-platform/trc/platform"
	"github.com/trc-platform/trc/repository"
)

// Version of trcctl.
const Version = "0.3.0"

const (
	flagMetricsTextfile = "metrics-textfile"
	flagMetricsBackend  = "metrics-backend"
	flagLogFormat       = "log-format"
	flagTracing         = "tracing"

	backendPrometheus = "prometheus"
	backendOTel       = "otel"

	logFormatOTel = "otel"
	logFormatJSON = "json"

	metricsNamespace = "trc"
	meterName        = "github.com/trc-platform/trc"
)

// Opener opens the collection for a loaded configuration, e.g. platform.Open.
type Opener func(ctx context.Context, conf config.Config, options ...platform.Option) (*platform.Platform, error)

type app struct {
	v        *viper.Viper
	open     Opener
	conf     config.Config
	logger   *oteladapters.Logger
	registry *prometheus.Registry
	metrics  repository.MetricsCollector
	tracer   trace.Tracer
	tracing  *oteladapters.TracingCollector
	shutdown []func(ctx context.Context) error
}

// NewRootCmd creates the trcctl command tree opening collections with open.
func NewRootCmd(open Opener) *cobra.Command {
	a := &app{v: viper.New(), open: open}
	config.Init(a.v)

	root := &cobra.Command{
		Use:   "trcctl",
		Short: "thematic research collection administration",
		Long: fmt.Sprintf(`trcctl (v%s)

Administers the entries of a thematic research collection stored in PostgreSQL
and indexed in Solr.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	defaults := config.Default()
	flags := root.PersistentFlags()
	flags.String(config.KeyPostgresDSN, defaults.PostgresDSN, "PostgreSQL connection string")
	flags.String(config.KeyPostgresAdapter, defaults.PostgresAdapter, "database adapter to use (pgx, sql, sqlx)")
	flags.Int(config.KeyPostgresMaxConns, defaults.PostgresMaxConns, "maximum number of database connections")
	flags.String(config.KeySolrURL, defaults.SolrURL, "Solr base URL, indexing is disabled when empty")
	flags.Duration(config.KeySolrCommitWithin, defaults.SolrCommitWithin, "Solr commitWithin for index updates (0 disables)")
	flags.Duration(config.KeySolrTimeout, defaults.SolrTimeout, "timeout of Solr requests")
	flags.String(config.KeyLogLevel, defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String(config.KeyBaseURI, defaults.BaseURI, "base URI of entry URIs")
	flags.String(flagMetricsTextfile, "", "write Prometheus metrics to this file when the command finishes")
	flags.String(flagMetricsBackend, backendPrometheus, "metrics instrumentation (prometheus, otel)")
	flags.String(flagLogFormat, logFormatOTel, "log output (otel records via the slog bridge, json)")
	flags.Bool(flagTracing, false, "write OpenTelemetry spans of repository and store operations to stderr")

	root.AddCommand(
		a.migrateCmd(),
		a.getCmd(),
		a.listCmd(),
		a.deleteCmd(),
		a.resolveCmd(),
		a.reindexCmd(),
		a.searchCmd(),
		versionCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	conf, err := config.FromViper(a.v)
	if err != nil {
		return err
	}

	level, err := conf.SlogLevel()
	if err != nil {
		return err
	}

	a.conf = conf
	a.registry = prometheus.NewRegistry()
	a.shutdown = nil

	if err := a.setupLogging(cmd, level); err != nil {
		return err
	}

	if err := a.setupMetrics(); err != nil {
		return err
	}

	return a.setupTracing(cmd)
}

// setupLogging emits OpenTelemetry log records through the slog bridge, or plain JSON lines.
func (a *app) setupLogging(cmd *cobra.Command, level slog.Level) error {
	switch format := a.v.GetString(flagLogFormat); format {
	case logFormatOTel:
		exporter, err := stdoutlog.New(stdoutlog.WithWriter(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		a.logger = oteladapters.NewBridgeLogger(meterName, provider, level)
		a.shutdown = append(a.shutdown, provider.Shutdown)

	case logFormatJSON:
		a.logger = oteladapters.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	default:
		return fmt.Errorf("%w: unknown %s %q", config.ErrInvalidConfig, flagLogFormat, format)
	}

	return nil
}

// setupMetrics makes every metrics backend end up in the Prometheus registry.
func (a *app) setupMetrics() error {
	switch backend := a.v.GetString(flagMetricsBackend); backend {
	case backendPrometheus:
		a.metrics = prommetrics.New(a.registry, prommetrics.WithNamespace(metricsNamespace))

	case backendOTel:
		exporter, err := otelprom.New(otelprom.WithRegisterer(a.registry), otelprom.WithNamespace(metricsNamespace))
		if err != nil {
			return err
		}

		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
		a.metrics = oteladapters.NewMetricsCollector(provider.Meter(meterName))
		a.shutdown = append(a.shutdown, provider.Shutdown)

	default:
		return fmt.Errorf("%w: unknown %s %q", config.ErrInvalidConfig, flagMetricsBackend, backend)
	}

	return nil
}

// setupTracing exports spans to stderr when tracing is enabled.
func (a *app) setupTracing(cmd *cobra.Command) error {
	a.tracing = nil
	a.tracer = noop.NewTracerProvider().Tracer(meterName)

	if !a.v.GetBool(flagTracing) {
		return nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	a.tracer = provider.Tracer(meterName)
	a.tracing = oteladapters.NewTracingCollector(a.tracer)
	a.shutdown = append(a.shutdown, provider.Shutdown)

	return nil
}

// withPlatform opens the collection, runs fn and closes the collection again.
// The command runs inside a root span, so repository spans share one trace.
func (a *app) withPlatform(cmd *cobra.Command, fn func(ctx context.Context, p *platform.Platform) error) (err error) {
	ctx, span := a.tracer.Start(cmd.Context(), "trcctl "+cmd.Name())
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	options := []platform.Option{
		platform.WithLogger(a.logger),
		platform.WithContextualLogger(a.logger),
		platform.WithMetrics(a.metrics),
	}
	if a.tracing != nil {
		options = append(options, platform.WithTracing(a.tracing))
	}

	p, err := a.open(ctx, a.conf, options...)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(ctx, p)
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if path := a.v.GetString(flagMetricsTextfile); path != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			return err
		}
	}

	var errs []error
	for _, shutdown := range a.shutdown {
		errs = append(errs, shutdown(cmd.Context()))
	}

	return errors.Join(errs...)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of trcctl",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trcctl v%s\n", Version)
		},
	}
}
