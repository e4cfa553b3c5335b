package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fetchd/internal/config"
	"fetchd/internal/logging"
	"fetchd/internal/rpc"
	"fetchd/internal/services"
)

const (
	maxRequestBytes = 8 << 20
	requestIDHeader = "X-Request-ID"
)

type httpServer struct {
	bind   string
	secret string
	logger *slog.Logger
	daemon *Daemon
	engine *gin.Engine

	listener net.Listener
	server   *http.Server
}

func newHTTPServer(cfg config.RPC, d *Daemon, logger *slog.Logger) *httpServer {
	bind := strings.TrimSpace(cfg.Listen)
	if bind == "" {
		return nil
	}
	gin.SetMode(gin.ReleaseMode)

	s := &httpServer{
		bind:   bind,
		secret: cfg.Secret,
		logger: logging.NewComponentLogger(logger, "http"),
		daemon: d,
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware())
	calls := engine.Group("", authMiddleware(cfg.Secret, true))
	calls.POST("/jsonrpc", s.handleJSONRPC)
	if cfg.EnableXML {
		calls.POST("/rpc", s.handleXMLRPC)
	}
	engine.GET("/healthz", authMiddleware(cfg.Secret, false), s.handleHealth)
	s.engine = engine

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *httpServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "rpc endpoint stopped unexpectedly", "http_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("rpc endpoint listening",
		logging.String(logging.FieldEventType, "http_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *httpServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *httpServer) address() string {
	if s == nil {
		return ""
	}
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
}

func (s *httpServer) handleXMLRPC(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.Data(http.StatusOK, "text/xml", rpc.Fault(err).XML())
		return
	}
	req, err := rpc.ParseXMLRequest(bytes.NewReader(body))
	if err == nil {
		err = authorizeParams(c, s.secret, req)
	}
	if err != nil {
		c.Data(http.StatusOK, "text/xml", rpc.Fault(err).XML())
		return
	}
	resp, err := s.daemon.Call(c.Request.Context(), req)
	if err != nil {
		s.callFailed(c, err)
		return
	}
	c.Data(http.StatusOK, "text/xml", resp.XML())
}

func (s *httpServer) handleJSONRPC(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.writeJSONFault(c, nil, err)
		return
	}
	batch, isBatch, err := rpc.SplitJSONBatch(body)
	if err != nil {
		s.writeJSONFault(c, nil, err)
		return
	}
	if !isBatch {
		out, ok := s.callJSON(c, body)
		if ok {
			c.Data(http.StatusOK, "application/json", out)
		}
		return
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, raw := range batch {
		out, ok := s.callJSON(c, raw)
		if !ok {
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(out)
	}
	buf.WriteByte(']')
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// callJSON runs one request object. It returns false after writing an error
// response when the call could not be run at all.
func (s *httpServer) callJSON(c *gin.Context, raw []byte) ([]byte, bool) {
	req, id, err := rpc.ParseJSONRequest(raw)
	if err == nil {
		err = authorizeParams(c, s.secret, req)
	}
	var resp rpc.Response
	if err != nil {
		resp = rpc.Fault(err)
	} else {
		resp, err = s.daemon.Call(c.Request.Context(), req)
		if err != nil {
			s.callFailed(c, err)
			return nil, false
		}
	}
	out, err := resp.JSON(id)
	if err != nil {
		s.callFailed(c, err)
		return nil, false
	}
	return out, true
}

func (s *httpServer) writeJSONFault(c *gin.Context, id json.RawMessage, err error) {
	out, encErr := rpc.Fault(err).JSON(id)
	if encErr != nil {
		s.callFailed(c, encErr)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

func (s *httpServer) callFailed(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, services.ErrUnavailable) || errors.Is(err, ErrControlStopped) {
		status = http.StatusServiceUnavailable
	}
	logging.WarnWithContext(logging.WithContext(c.Request.Context(), s.logger), "rpc call not run", "http_call_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "caller received an HTTP error instead of a response"),
		logging.String(logging.FieldErrorHint, "check that the daemon is running and not shutting down"),
	)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *httpServer) handleHealth(c *gin.Context) {
	status := s.daemon.Status(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"running":     status.Running,
		"session_id":  status.SessionID,
		"num_active":  status.Stats.NumActive,
		"num_waiting": status.Stats.NumWaiting,
		"num_stopped": status.Stats.NumStopped,
	})
}
