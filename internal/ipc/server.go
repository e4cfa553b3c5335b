package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"fetchd/internal/daemon"
	"fetchd/internal/logging"
	"fetchd/internal/logs"
	fetchrpc "fetchd/internal/rpc"
	"fetchd/internal/services"
	"fetchd/internal/variant"
)

// Server exposes the daemon via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer listens on path. shutdown, when non-nil, is invoked by the
// Shutdown call.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: serverCtx, shutdown: shutdown}
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops accepting, waits for open connections and removes the socket.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale socket may confuse the CLI"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

// Call forwards one method call to the daemon's dispatcher.
func (s *service) Call(req CallRequest, resp *CallResponse) error {
	params, err := decodeParams(req.Params)
	if err != nil {
		return err
	}
	ctx := services.WithRequestID(s.ctx, uuid.NewString())
	result, err := s.daemon.Call(ctx, &fetchrpc.Request{Method: req.Method, Params: params})
	if err != nil {
		return err
	}
	payload, err := result.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	resp.Fault = result.IsFault()
	resp.FaultString = result.FaultString()
	resp.Result = payload
	return nil
}

func decodeParams(raw []byte) ([]variant.Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	v, err := variant.ParseJSON(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidArgument, "ipc", "call", "params are not valid JSON", err)
	}
	items, err := v.AsList()
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidArgument, "ipc", "call", "params must be a JSON array", err)
	}
	return items, nil
}

// Status reports daemon runtime information.
func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	st := s.daemon.Status(ctx)
	*resp = StatusResponse{
		Running:       st.Running,
		PID:           st.PID,
		SessionID:     st.SessionID,
		StartedAt:     st.StartedAt,
		Listen:        st.Listen,
		LockPath:      st.LockFilePath,
		DatabasePath:  st.DatabasePath,
		LogPath:       s.daemon.LogPath(),
		NumActive:     st.Stats.NumActive,
		NumWaiting:    st.Stats.NumWaiting,
		NumStopped:    st.Stats.NumStopped,
		DownloadSpeed: st.Stats.DownloadSpeed,
		UploadSpeed:   st.Stats.UploadSpeed,
		DownloadLimit: st.Stats.DownloadCap,
		UploadLimit:   st.Stats.UploadCap,
	}
	return nil
}

// LogTail returns daemon log lines.
func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	opts := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	switch {
	case req.GID != 0:
		opts.Match = logs.MatchGID(req.GID)
	case req.Match != "":
		opts.Match = logs.MatchText(req.Match)
	}

	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

// Shutdown asks the hosting process to exit.
func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	if s.shutdown == nil {
		return errors.New("shutdown is not supported by this daemon")
	}
	s.logger.Info("shutdown requested over IPC", logging.String(logging.FieldEventType, "ipc_shutdown"))
	resp.Accepted = true
	go s.shutdown()
	return nil
}
