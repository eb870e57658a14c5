package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/adapters/cache"
	"github.com/bnema/fleet-carrier-cli/internal/adapters/journal"
	statusadapter "github.com/bnema/fleet-carrier-cli/internal/adapters/render/status"
	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/bnema/fleet-carrier-cli/internal/config"
	"github.com/bnema/fleet-carrier-cli/internal/domain"
	"github.com/bnema/fleet-carrier-cli/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	tracker        *application.Tracker
	cachePath      string
	statusRenderer func([]application.CarrierView, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(viper.New(), opts.configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	source := journal.NewDirectory(cfg.Journal.Roots, cfg.Journal.Prefix)

	var (
		store     ports.SnapshotStore
		cachePath string
	)
	if cfg.Cache.Enabled {
		blobs := cache.NewStore(cfg.Cache.Dir, application.SnapshotVersion, source.Roots())
		store = blobs
		cachePath = blobs.Path()
	}

	tracker := application.NewTracker(source, journal.NewDecoder(), store, ports.SystemClock{}, application.Options{
		Cooldowns: domain.Cooldowns{
			Jump:   cfg.Status.Cooldown,
			Cancel: cfg.Status.CancelCooldown,
		},
		OwnershipGrace:   cfg.Ownership.Grace,
		IngestInterval:   cfg.Ingest.Interval,
		StatusInterval:   cfg.Status.Interval,
		SaveInterval:     cfg.Cache.SaveInterval,
		CompactThreshold: cfg.Cache.CompactThreshold,
		Logger:           logger,
	})

	return &app{
		cfg:            cfg,
		logger:         logger,
		tracker:        tracker,
		cachePath:      cachePath,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

// load restores or rebuilds the tracker state and runs one pass.
func (a *app) load(ctx context.Context) error {
	result, err := a.tracker.Load(ctx)
	if err != nil {
		return fmt.Errorf("load journals: %w", err)
	}
	a.logger.Debug("journals loaded",
		"restored", result.Restored,
		"segments", result.Pass.Segments,
		"read", result.Pass.Read,
		"skipped", result.Pass.Skipped,
		"events", result.Pass.Events,
		"malformed", result.Pass.Malformed,
	)
	for _, failure := range result.Pass.Failed {
		a.logger.Warn("segment not read", "segment", failure.Segment, "err", failure.Err)
	}
	return nil
}

// save persists the snapshot; a failure only costs the next run a cold scan.
func (a *app) save(ctx context.Context) {
	if err := a.tracker.SaveCache(ctx); err != nil {
		a.logger.Warn("save cache", "err", err)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
