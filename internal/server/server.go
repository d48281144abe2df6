// Package server implements the keva wire protocol server.
//
// It speaks the Redis serialization protocol (RESP) over TCP. Each
// connection is served by its own goroutine; commands on a connection
// execute strictly in order, and the reply to a command is written
// before the next command on that connection is read.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/kevadb/keva/internal/store"
	"github.com/kevadb/keva/internal/telemetry/metric"
	"github.com/kevadb/keva/pkg/cmap"
)

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the TCP address to listen on.
	ListenAddr string
	// MaxConns caps concurrently open client connections. 0 means no cap.
	MaxConns int
	// ReadTimeout is the timeout for reading a command once its first
	// byte has arrived. Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response.
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per client
	// IP. 0 disables rate limiting.
	RateLimit int
	// Version is reported by INFO.
	Version string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   "127.0.0.1:6379",
		MaxConns:     1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server accepts client connections and serves commands against the
// store.
type Server struct {
	cfg       *Config
	handler   *handler
	logger    *slog.Logger
	metrics   *metric.Registry
	ln        net.Listener
	running   atomic.Bool
	openConns atomic.Int64
	wg        sync.WaitGroup

	// limiters tracks one token bucket per client IP.
	limiters *cmap.Map[string, *rate.Limiter]
}

// New creates a server over the given store. persister may be nil when
// snapshotting is disabled; SAVE and BGSAVE then report an error.
func New(cfg *Config, st *store.Store, persister *Persister, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		handler:  newHandler(st, persister, cfg.Version, logger),
		logger:   logger,
		metrics:  metrics,
		limiters: cmap.NewWithShards[string, *rate.Limiter](32),
	}
}

// Start begins listening and accepting connections. It returns once the
// listener is bound; the accept loop runs in the background until
// Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, useful when ListenAddr used
// port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting connections and waits for in-flight
// connections to finish, up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if s.cfg.MaxConns > 0 && s.openConns.Load() >= int64(s.cfg.MaxConns) {
			if s.metrics != nil {
				s.metrics.ConnectionsRejected.WithLabelValues("max_conns").Inc()
			}
			s.logger.Warn("connection limit reached, rejecting", "remote", c.RemoteAddr())
			_ = c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_, _ = c.Write([]byte("-ERR max number of clients reached\r\n"))
			_ = c.Close()
			continue
		}

		s.openConns.Add(1)
		if s.metrics != nil {
			s.metrics.ConnectionsAccepted.Inc()
			s.metrics.ConnectionsOpen.Inc()
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.openConns.Add(-1)
				if s.metrics != nil {
					s.metrics.ConnectionsOpen.Dec()
				}
			}()
			s.serveConn(c)
		}()
	}
}

// limiterFor returns the token bucket for the given remote address,
// creating it on first use.
func (s *Server) limiterFor(remote net.Addr) *rate.Limiter {
	host, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		host = remote.String()
	}
	if lim, ok := s.limiters.Get(host); ok {
		return lim
	}
	lim, _ := s.limiters.GetOrSet(host, rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit))
	return lim
}

func (s *Server) serveConn(nc net.Conn) {
	defer nc.Close()

	r := newReader(nc)
	w := newWriter(nc)

	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = s.limiterFor(nc.RemoteAddr())
	}

	for {
		// First byte: allow the idle timeout so connections may sit
		// quiet between commands.
		if err := nc.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := r.Peek(1); err != nil {
			s.logReadEnd(nc, err)
			return
		}

		// After the first byte: tighten to the per-command read timeout.
		if err := nc.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := r.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Debug("connection timed out", "remote", nc.RemoteAddr())
				return
			}
			_ = nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("protocol limit exceeded", "remote", nc.RemoteAddr(), "error", err)
				_ = w.Error("ERR protocol limit exceeded")
			} else {
				_ = w.Error("ERR protocol error: " + err.Error())
			}
			_ = w.Flush()
			return
		}
		if len(args) == 0 {
			continue
		}

		if limiter != nil && !limiter.Allow() {
			if s.metrics != nil {
				s.metrics.ConnectionsRejected.WithLabelValues("rate_limit").Inc()
			}
			_ = nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_ = w.Error("ERR rate limit exceeded")
			_ = w.Flush()
			return
		}

		name := commandName(args[0])
		startedAt := time.Now()
		out := s.handler.dispatch(w, args)
		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(name, string(out)).Inc()
			s.metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(startedAt).Seconds())
		}

		if err := nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		if out == outcomeQuit {
			return
		}
	}
}

func (s *Server) logReadEnd(nc net.Conn, err error) {
	if errors.Is(err, io.EOF) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("idle connection closed", "remote", nc.RemoteAddr())
		return
	}
	s.logger.Debug("connection read error", "remote", nc.RemoteAddr(), "error", err)
}
