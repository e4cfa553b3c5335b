package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fetchd/internal/buildinfo"
	"fetchd/internal/config"
	"fetchd/internal/daemon"
	"fetchd/internal/fileset"
	"fetchd/internal/history"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/options"
	"fetchd/internal/rpc"
)

// Runtime holds the daemon and the components it owns. Close releases them
// in reverse dependency order.
type Runtime struct {
	Daemon   *daemon.Daemon
	Registry *jobs.Registry
	Store    *history.Store
	Writer   *history.Writer
	Restored int

	mirror *history.RedisMirror
	pruner *history.Pruner
	logger *slog.Logger
}

// Build wires a daemon from cfg. The daemon is not started.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if version == "" {
		version = buildinfo.ResolvedVersion()
	}

	validator := options.NewValidator()
	taskDefaults, err := validator.Validate(options.Task, cfg.TaskDefaults())
	if err != nil {
		return nil, fmt.Errorf("download defaults: %w", err)
	}
	globalDefaults, err := validator.Validate(options.Global, cfg.GlobalDefaults())
	if err != nil {
		return nil, fmt.Errorf("global defaults: %w", err)
	}

	reg := jobs.NewRegistry()
	if cfg.Download.MaxDownloadResult > 0 {
		reg.SetFinishedLimit(cfg.Download.MaxDownloadResult)
	}
	reg.ChangeGlobalOptions(globalDefaults)

	rt := &Runtime{Registry: reg, logger: logger}
	if cfg.History.Enabled {
		if err := rt.openHistory(ctx, cfg); err != nil {
			rt.Close()
			return nil, err
		}
	}

	env := &rpc.Env{
		Registry: reg,
		Files:    fileset.NewResolver(cfg.Download.Dir),
		Features: buildinfo.Default(),
		Version:  version,
		Options:  validator,
		Defaults: taskDefaults,
		Logger:   logger,
	}
	d, err := daemon.New(cfg, reg, rpc.NewDispatcher(rpc.StandardMethods(), env), logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	rt.Daemon = d
	return rt, nil
}

func (rt *Runtime) openHistory(ctx context.Context, cfg *config.Config) error {
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	rt.Store = store

	restored, err := history.Restore(ctx, store, rt.Registry, cfg.History.RestoreLimit)
	if err != nil {
		return fmt.Errorf("restore history: %w", err)
	}
	rt.Restored = restored

	var mirror history.Mirror
	rm, err := history.NewRedisMirror(ctx, cfg.History)
	if err != nil {
		logging.WarnWithContext(rt.logger, "redis mirror unavailable", "history_mirror_unavailable",
			logging.String("redis_addr", cfg.History.RedisAddr),
			logging.Error(err),
			logging.String(logging.FieldImpact, "finished records are archived locally only"),
			logging.String(logging.FieldErrorHint, "check [history] redis_addr and that redis is running"),
		)
	} else if rm != nil {
		rt.mirror = rm
		mirror = rm
	}

	rt.Writer = history.NewWriter(store, mirror, rt.logger, history.DefaultWriterBuffer)
	rt.Registry.OnFinished(rt.Writer.Record)

	pruner, err := history.NewPruner(store, cfg.History.PruneSchedule, cfg.History.RetentionDays, rt.logger)
	if err != nil {
		return err
	}
	rt.pruner = pruner
	rt.pruner.Start()

	rt.logger.Info("history archive ready",
		logging.String(logging.FieldEventType, "history_ready"),
		logging.String("database", store.Path()),
		logging.Int("restored", restored),
		logging.Bool("redis_mirror", rt.mirror != nil),
		logging.Int("retention_days", cfg.History.RetentionDays),
	)
	return nil
}

// Close stops the daemon and flushes the archive.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Daemon != nil {
		_ = rt.Daemon.Close()
	}
	rt.pruner.Stop()
	if rt.Writer != nil {
		rt.Writer.Close()
		if dropped := rt.Writer.Dropped(); dropped > 0 {
			logging.WarnWithContext(rt.logger, "finished records dropped during run", "history_dropped_summary",
				logging.Int("dropped", dropped),
				logging.String(logging.FieldImpact, "dropped records are missing from the archive"),
				logging.String(logging.FieldErrorHint, "check archive disk latency"),
			)
		}
	}
	if err := rt.mirror.Close(); err != nil {
		rt.logger.Debug("close redis mirror", logging.Error(err))
	}
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			rt.logger.Debug("close history store", logging.Error(err))
		}
	}
}
