package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samvad-hq/blogmeta/internal/blog"
	"github.com/samvad-hq/blogmeta/internal/config"
	"github.com/samvad-hq/blogmeta/internal/logger"
	"github.com/samvad-hq/blogmeta/internal/server"
	"github.com/samvad-hq/blogmeta/internal/storage"
	"github.com/samvad-hq/blogmeta/pkg/publishers"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API runtime. It owns the storage backend and the
// publisher connections and releases both when Run returns.
type Server struct {
	cfg    *config.Config
	http   *http.Server
	store  storage.Store
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewServer builds the API runtime from config.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := loadProviders(cfg, log)
	if err != nil {
		return nil, err
	}

	fanout, err := newFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := newStore(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	ext := newExtractor(cfg, reg)
	blogs := blog.NewService(store, ext, reg,
		blog.WithPublisher(fanout),
		blog.WithLogger(log),
		blog.WithDefaultImage(cfg.DefaultBlogImage),
	)

	handler := server.NewHandler(server.Config{
		Extractor:     ext,
		Blogs:         blogs,
		Registry:      reg,
		Log:           log,
		ServiceName:   cfg.AppName,
		RatePerSecond: cfg.ExtractRatePerSecond,
		Burst:         cfg.ExtractBurst,
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:  store,
		fanout: fanout,
		log:    log,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.http == nil {
		return fmt.Errorf("server is not initialized")
	}
	defer s.close()

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.log.InfoObj("http server starting", "server_state", map[string]any{
		"addr":             ln.Addr().String(),
		"publishers_count": s.fanout.Size(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
		s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// close releases publishers and storage, logging any errors encountered.
func (s *Server) close() {
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
