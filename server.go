package vhttpd

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Server is the static-file server core. It is safe for concurrent use once
// constructed; the configuration it holds is never mutated.
type Server struct {
	config  Config
	policy  *Policy
	cache   *FileCache
	stats   *stats
	log     zerolog.Logger
	started time.Time

	// set by Serve before any worker starts, single-threaded mode only
	reqLog *requestLog
}

// NewServer validates config and builds a server. Configuration errors are
// returned here and nowhere else. A nil logger selects the package logger.
func NewServer(config Config, l *zerolog.Logger) (*Server, error) {
	config = config.clone()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	policy, err := NewPolicy(&config)
	if err != nil {
		return nil, err
	}

	if l == nil {
		l = GetLogger()
	}

	s := &Server{
		config:  config,
		policy:  policy,
		stats:   newStats(),
		log:     l.With().Str("component", "vhttpd").Logger(),
		started: time.Now(),
	}
	if config.FileCaching {
		s.cache = NewFileCache()
	}

	if !config.SecurityHeaders {
		s.log.Warn().Msg("[vhttpd] security headers are turned off, keep them enabled in production")
	}
	return s, nil
}

// Config returns a copy of the server's configuration.
func (s *Server) Config() Config {
	return s.config.clone()
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Addr, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Wrapf(err, ErrConfig, "cannot listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and hands them to the worker pool. It
// returns nil once ctx is cancelled and every accepted connection is answered.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	workers := 1
	if s.config.Multithreading {
		workers = s.config.Workers
	} else if s.config.SaveLogs {
		rl, err := openRequestLog(s.config.LogPath, s.started)
		if err != nil {
			s.log.Warn().Err(err).Msg("[vhttpd] request log unavailable, requests will not be logged")
		} else {
			s.reqLog = rl
			defer func() {
				rl.Close()
				s.reqLog = nil
			}()
		}
	}

	pool := NewPool(workers, &s.log)
	defer pool.Close()

	if s.config.AdminAddr != "" {
		admin := s.startAdmin()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			admin.Shutdown(shutdownCtx)
		}()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-done:
		}
	}()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Int("workers", workers).
		Bool("file_caching", s.config.FileCaching).
		Msg("[vhttpd] serving " + s.config.ContentRoot)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return Wrap(err, ErrInternal, "accept failed")
		}
		pool.Submit(func() {
			s.ServeConn(conn)
		})
	}
}

func (s *Server) startAdmin() *http.Server {
	admin := &http.Server{
		Addr:              s.config.AdminAddr,
		Handler:           s.AdminHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			LogError(&s.log, Wrapf(err, ErrInternal, "admin listener on %s failed", s.config.AdminAddr))
		}
	}()
	return admin
}
