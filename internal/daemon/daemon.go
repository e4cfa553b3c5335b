package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"fetchd/internal/config"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/rpc"
	"fetchd/internal/services"
)

const controlBuffer = 64

// Daemon owns the job registry and serves calls against it.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *jobs.Registry
	dispatcher *rpc.Dispatcher
	http       *httpServer

	lockPath string
	lock     *flock.Flock

	control   *Control
	running   atomic.Bool
	sessionID string
	startedAt time.Time
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	SessionID    string
	StartedAt    time.Time
	Listen       string
	LockFilePath string
	DatabasePath string
	Stats        jobs.Stats
}

// New constructs a daemon around reg. The dispatcher must have been built
// over the same registry.
func New(cfg *config.Config, reg *jobs.Registry, dispatcher *rpc.Dispatcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || reg == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config, registry, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		registry:   reg,
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	d.http = newHTTPServer(cfg.RPC, d, logger)
	return d, nil
}

// Start acquires the instance lock, starts the control goroutine and opens
// the HTTP endpoint when configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fetchd daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.control = NewControl(controlBuffer)
	if err := d.http.start(runCtx); err != nil {
		cancel()
		d.control.Stop()
		d.control = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start rpc endpoint: %w", err)
	}

	d.cancel = cancel
	d.sessionID = uuid.NewString()
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("fetchd daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("session_id", d.sessionID),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop closes the endpoint, stops the control goroutine and releases the
// lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.http.stop()
	if d.control != nil {
		d.control.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next start may report a running instance"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.logger.Info("fetchd daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Call dispatches req on the control goroutine. The error is non-nil only
// when the call could not be run at all; handler failures come back as fault
// responses.
func (d *Daemon) Call(ctx context.Context, req *rpc.Request) (rpc.Response, error) {
	if !d.running.Load() || d.control == nil {
		return rpc.Response{}, services.Wrap(services.ErrUnavailable, "daemon", "call", "daemon is not running", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	var resp rpc.Response
	if err := d.control.Do(ctx, func() {
		resp = d.dispatcher.Dispatch(ctx, req)
	}); err != nil {
		return rpc.Response{}, fmt.Errorf("dispatch %s: %w", req.Method, err)
	}
	return resp, nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		StartedAt:    d.startedAt,
		Listen:       d.http.address(),
		LockFilePath: d.lockPath,
		DatabasePath: d.cfg.DatabasePath(),
	}
	if status.Running && d.control != nil {
		_ = d.control.Do(ctx, func() {
			status.Stats = d.registry.Stats()
		})
	}
	return status
}

// Handler exposes the HTTP endpoint's router, or nil when it is disabled.
func (d *Daemon) Handler() http.Handler {
	if d.http == nil {
		return nil
	}
	return d.http.engine
}

// LogPath returns the daemon log file the CLI tails.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}
