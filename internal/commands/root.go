// Package commands wires the careops-triage command line.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcao2/careops-triage/internal/config"
	"github.com/mcao2/careops-triage/internal/dashboard"
	"github.com/mcao2/careops-triage/internal/logging"
	"github.com/mcao2/careops-triage/internal/source"
	"github.com/mcao2/careops-triage/internal/triage"
)

const demoLatency = 400 * time.Millisecond

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	sourceKind string
	sourceFile string
	verbose    bool
}

// NewRootCommand builds the command tree. Running it without a subcommand
// opens the interactive dashboard.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "careops-triage",
		Short: "Clinical notification triage dashboard",
		Long: `careops-triage classifies inbound clinical notifications into priority
tiers and shows them ranked in a terminal dashboard.

Quick Start:
  careops-triage                       Launch the dashboard (default)
  careops-triage rank                  Print today's ranked queue
  careops-triage rank --format xlsx -o handover.xlsx

Config: ~/.config/careops-triage/config.yaml
Logs:   ~/.config/careops-triage/careops-triage.log`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default ~/.config/careops-triage/config.yaml)")
	flags.StringVar(&opts.sourceKind, "source", "", "Override the item source: demo, http or file")
	flags.StringVar(&opts.sourceFile, "file", "", "Read items from this JSON file (implies --source file)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr at the configured level")

	root.AddCommand(newRankCommand(opts))
	root.AddCommand(newPresetsCommand(opts))
	root.AddCommand(newSettingsCommand(opts))
	return root
}

// loadConfig reads the configuration and applies command line overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		if err := os.Setenv("CAREOPS_TRIAGE_CONFIG", o.configPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.sourceFile != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.File = o.sourceFile
	}
	if o.sourceKind != "" {
		cfg.Source.Kind = strings.ToLower(o.sourceKind)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// headless holds what the non-interactive commands share
type headless struct {
	cfg    *config.Config
	log    *logrus.Logger
	blobs  config.BlobStore
	engine *dashboard.Engine
	src    source.Source
}

// openHeadless loads config and opens the store. Logs go to stderr, and only
// warnings are shown unless --verbose is set.
func (o *globalOptions) openHeadless(cmd *cobra.Command) (*headless, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if o.verbose {
		level = cfg.LogLevel
	}
	log, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return nil, err
	}

	src, err := buildSource(cfg, log, 0)
	if err != nil {
		return nil, err
	}

	blobs, err := config.OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	engine := dashboard.New(src, triage.NewStore(),
		dashboard.WithBlobStore(blobs),
		dashboard.WithLogger(log),
	)
	return &headless{cfg: cfg, log: log, blobs: blobs, engine: engine, src: src}, nil
}

func (h *headless) Close() error {
	return h.blobs.Close()
}

// buildSource creates the configured source. Network sources are rate limited
// and sit behind a circuit breaker.
func buildSource(cfg *config.Config, log logrus.FieldLogger, latency time.Duration) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		client, err := source.NewClient(cfg.Source.URL, cfg.Source.Token,
			source.WithLookback(cfg.Lookback()),
			source.WithRateLimit(cfg.Source.RequestsPerSecond, int(cfg.Source.RequestsPerSecond)+1),
			source.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		return source.NewGuarded(client, source.DefaultBreakerSettings(), log), nil
	case config.SourceFile:
		return source.NewFile(cfg.Source.File), nil
	case config.SourceDemo, "":
		return source.NewDemo(latency), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func closeQuietly(c io.Closer, log logrus.FieldLogger) {
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("close failed")
	}
}
