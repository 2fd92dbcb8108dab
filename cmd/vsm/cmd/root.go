// Package cmd holds the cobra commands of the vsm CLI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath     string
	dataDir        string
	stageConfigDir string
	logLevel       string
}

// app is what a subcommand needs once flags and config are resolved.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	cleanups []func()
}

func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// NewRootCmd creates the vsm root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vsm",
		Short: "Vector-space retrieval pipeline",
		Long: `vsm builds an inverted index over an XML document collection, derives
TF-IDF weights, ranks documents for each query by cosine similarity and
evaluates the rankings against expert relevance judgments.

Run the whole pipeline with 'vsm run' or a single stage with its subcommand.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "base directory for relative paths")
	cmd.PersistentFlags().StringVar(&opts.stageConfigDir, "stage-config", "", "directory holding pc.cfg, gli.cfg, index.cfg and busca.cfg")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newQueriesCmd(a))
	cmd.AddCommand(newInvertCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newEvaluateCmd(a))
	cmd.AddCommand(newRunCmd(a))
	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
// Connections and servers opened by the command are closed afterwards,
// whether it failed or not.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{}
	defer a.close()
	return newRootCmd(a).ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.Pipeline.DataDir = opts.dataDir
	}
	if opts.stageConfigDir != "" {
		if err := config.ApplyStageFiles(cfg, opts.stageConfigDir); err != nil {
			return fmt.Errorf("applying stage files: %w", err)
		}
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	a.cfg = cfg

	reg := prometheus.NewRegistry()
	a.metrics = metrics.New(reg)
	if cfg.Metrics.Enabled {
		srv, err := metrics.StartServer(cfg.Metrics.Port, reg)
		if err != nil {
			return err
		}
		a.cleanups = append(a.cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		})
	}
	return nil
}

// pipeline builds the pipeline, attaching result sinks when withSinks is
// set and any sink is enabled.
func (a *app) pipeline(ctx context.Context, withSinks bool) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}
	if withSinks {
		fanout, err := a.sinks(ctx)
		if err != nil {
			return nil, err
		}
		if fanout != nil {
			opts = append(opts, pipeline.WithSink(fanout))
		}
	}
	return pipeline.New(a.cfg, opts...), nil
}

func (a *app) sinks(ctx context.Context) (*sink.Fanout, error) {
	var sinks []sink.Sink
	if a.cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting results database: %w", err)
		}
		a.cleanups = append(a.cleanups, func() { client.Close() })
		store := sink.NewPostgresStore(client)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}
	if a.cfg.Kafka.Enabled {
		producer := kafka.NewProducer(a.cfg.Kafka, a.cfg.Kafka.Topics.Results)
		a.cleanups = append(a.cleanups, func() { producer.Close() })
		sinks = append(sinks, sink.NewKafkaPublisher(producer, a.cfg.Search.MaxResults))
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return sink.NewFanout(resilience.RetryConfig{}, a.metrics, sinks...), nil
}

// interrupted turns a cancellation into a short message.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		slog.Warn("interrupted")
	}
	return err
}
