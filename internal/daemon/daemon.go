// Package daemon wires the tool invocation registry, the built-in tools
// and the HTTP API into a long-running process.
package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"toolgate/internal/config"
	"toolgate/internal/metrics"
	"toolgate/internal/tracing"
	"toolgate/pkg/catalog"
	"toolgate/pkg/coretools"
	"toolgate/pkg/dispatch"
	"toolgate/pkg/history"
	"toolgate/pkg/sandbox"
	"toolgate/pkg/webhook"
)

// Daemon is the long-running toolgate process.
type Daemon struct {
	cfg      *config.Config
	registry *dispatch.Registry
	metrics  *metrics.Metrics
	server   *Server
	watcher  *catalog.ManifestWatcher
	archiver *history.Archiver
	notifier *webhook.Notifier
	cron     *cron.Cron
}

// New builds a daemon from configuration. Nothing runs until Start.
func New(cfg *config.Config) (*Daemon, error) {
	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs[0])
	}

	m := metrics.NewMetrics()

	var archiver *history.Archiver
	if cfg.Archive.Enabled {
		a, err := history.OpenArchiver(cfg.Archive.Path)
		if err != nil {
			return nil, err
		}
		archiver = a
	}

	registry := dispatch.New(dispatch.Config{
		History: history.Config{
			MaxEntries:    cfg.History.MaxEntries,
			MaxAge:        cfg.HistoryMaxAge(),
			SweepInterval: cfg.HistorySweepInterval(),
			StaleGrace:    cfg.HistoryStaleGrace(),
			Archiver:      archiver,
		},
		DefaultTimeout: cfg.DefaultTimeout(),
		Metrics:        m,
	})

	if err := os.MkdirAll(cfg.Workspace.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	runner, err := sandbox.New(cfg.SandboxRuntimeConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build sandbox runtime: %w", err)
	}
	backends := coretools.Backends{
		FS:    newLocalFS(cfg.Workspace.Root),
		Shell: runner,
	}
	if err := coretools.Register(registry, backends); err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		archiver: archiver,
		cron:     cron.New(),
	}
	if cfg.Webhook.URL != "" {
		n, err := webhook.NewNotifier(webhook.Config{
			URL:    cfg.Webhook.URL,
			Secret: cfg.Webhook.Secret,
		})
		if err != nil {
			return nil, err
		}
		d.notifier = n
		registry.OnTerminal(n.Notify)
	}
	d.server = NewServer(ServerConfig{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Registry: registry,
		Metrics:  m,
	})
	return d, nil
}

// Registry exposes the dispatch registry, mainly for tests.
func (d *Daemon) Registry() *dispatch.Registry {
	return d.registry
}

// Start brings up the registry, manifest watcher, scheduler and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if err := tracing.InitOpenTelemetry("toolgate"); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracing")
	}

	d.registry.Start()
	if d.notifier != nil {
		d.notifier.Start()
	}

	if d.cfg.Manifest.Path != "" {
		if m, err := catalog.LoadManifest(d.cfg.Manifest.Path); err != nil {
			log.Warn().Err(err).Str("path", d.cfg.Manifest.Path).Msg("Failed to load tool manifest")
		} else {
			d.registry.Catalog().ApplyManifest(m, d.registry.Limiter())
		}
		if d.cfg.Manifest.Watch {
			w, err := catalog.WatchManifest(d.cfg.Manifest.Path, d.registry.Catalog(), d.registry.Limiter())
			if err != nil {
				log.Warn().Err(err).Msg("Failed to watch tool manifest")
			} else {
				d.watcher = w
			}
		}
	}

	if _, err := d.cron.AddFunc("@hourly", d.logUsageSummary); err != nil {
		return fmt.Errorf("failed to schedule usage summary: %w", err)
	}
	d.cron.Start()

	if err := d.server.Start(); err != nil {
		return err
	}

	log.Info().
		Str("addr", d.server.Addr()).
		Int("tools", d.registry.Catalog().Len()).
		Msg("Daemon started")
	return nil
}

// Stop tears everything down in reverse order.
func (d *Daemon) Stop() error {
	var firstErr error

	if err := d.server.Stop(); err != nil {
		firstErr = err
	}

	cronCtx := d.cron.Stop()
	<-cronCtx.Done()

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	d.registry.Close()

	if d.notifier != nil {
		d.notifier.Stop()
	}

	if d.archiver != nil {
		if err := d.archiver.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}

	log.Info().Msg("Daemon stopped")
	return firstErr
}

// logUsageSummary emits one aggregate line per tool with recorded usage.
func (d *Daemon) logUsageSummary() {
	all := d.registry.AllUsageStats()
	for name, s := range all {
		if s.Total == 0 {
			continue
		}
		log.Info().
			Str("tool", name).
			Int64("total", s.Total).
			Int64("successful", s.Successful).
			Int64("failed", s.Failed).
			Float64("total_cost", s.TotalCost).
			Dur("avg_execution_time", s.AverageExecutionTime).
			Msg("Hourly usage summary")
	}
}
