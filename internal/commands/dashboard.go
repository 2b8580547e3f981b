package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mcao2/careops-triage/internal/config"
	"github.com/mcao2/careops-triage/internal/dashboard"
	"github.com/mcao2/careops-triage/internal/logging"
	"github.com/mcao2/careops-triage/internal/source"
	"github.com/mcao2/careops-triage/internal/triage"
	"github.com/mcao2/careops-triage/internal/ui"
)

func runDashboard(cmd *cobra.Command, opts *globalOptions) error {
	if opts.configPath != "" {
		if err := os.Setenv("CAREOPS_TRIAGE_CONFIG", opts.configPath); err != nil {
			return err
		}
	}
	// Write an example config on first run so users have something to edit
	if err := config.SaveExampleConfig(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not write example config: %v\n", err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return err
	}
	// The terminal belongs to the UI, so logs go to a file
	log, closer, err := logging.Open(configDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(cfg, log, demoLatency)
	if err != nil {
		return err
	}

	blobs, err := config.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeQuietly(blobs, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := dashboard.NewMetrics(reg)

	engine := dashboard.New(src, triage.NewStore(),
		dashboard.WithBlobStore(blobs),
		dashboard.WithLogger(log),
		dashboard.WithMetrics(metrics),
	)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	model := ui.NewModel(ctx, engine, cfg, log)
	if file, ok := src.(*source.File); ok && cfg.Source.Watch {
		changes, err := file.Watch(ctx, log)
		if err != nil {
			log.WithError(err).Warn("file watch disabled")
		} else {
			model.WatchChanges(changes)
		}
	}

	log.WithFields(logrus.Fields{
		"source": src.Name(),
		"store":  cfg.Store.Kind,
	}).Info("starting dashboard")

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", dashboard.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
