package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"fetchd/internal/config"
	"fetchd/internal/ipc"
	"fetchd/internal/logging"
	"fetchd/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the fetchd daemon and blocks until a signal or a shutdown
// request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, stop := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(signalCtx)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("fetchd-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.LogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update fetchd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "fetchd-*.log", Exclude: []string{logPath}},
	)

	reportPreflight(runCtx, cfg, logger)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rt, err := Build(runCtx, cfg, logger, opts.Version)
	if err != nil {
		logger.Error("daemon setup failed", logging.Error(err), logging.String(logging.FieldEventType, "daemon_setup_failed"))
		return err
	}
	defer rt.Close()

	if err := rt.Daemon.Start(runCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	ipcServer, err := ipc.NewServer(runCtx, cfg.Paths.SocketPath, rt.Daemon, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	status := rt.Daemon.Status(runCtx)
	logger.Info("fetchd ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("socket", cfg.Paths.SocketPath),
		logging.String("listen", status.Listen),
		logging.String("log_path", logPath),
		logging.Int("restored", rt.Restored),
	)

	<-runCtx.Done()
	logger.Info("fetchd daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func reportPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg, preflight.Options{Bind: true})) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "the daemon may fail to start or degrade"),
			logging.String(logging.FieldErrorHint, "run fetchd doctor for details"),
		)
	}
}

// ensureCurrentLogPointer points current at target so tailing fetchd.log
// follows the active run.
func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
