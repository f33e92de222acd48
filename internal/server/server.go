// Package server exposes extraction, provider lookup, link resolution and
// blog management over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samvad-hq/blogmeta/internal/blog"
	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/internal/logger"
	"github.com/samvad-hq/blogmeta/pkg/providers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// MetadataExtractor is the extraction surface the API needs.
type MetadataExtractor interface {
	Extract(ctx context.Context, rawURL string) (domain.Metadata, error)
}

// Config wires the handler dependencies.
type Config struct {
	Extractor   MetadataExtractor
	Blogs       *blog.Service
	Registry    *providers.Registry
	Log         logger.Logger
	ServiceName string
	// RatePerSecond and Burst bound the extraction routes. RatePerSecond <= 0 disables limiting.
	RatePerSecond float64
	Burst         int
}

type api struct {
	extractor MetadataExtractor
	blogs     *blog.Service
	registry  *providers.Registry
	log       logger.Logger
}

// NewHandler builds the router with its middleware stack.
func NewHandler(cfg Config) http.Handler {
	reg := cfg.Registry
	if reg == nil {
		reg = providers.Default()
	}
	a := &api{
		extractor: cfg.Extractor,
		blogs:     cfg.Blogs,
		registry:  reg,
		log:       logger.Ensure(cfg.Log),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(recoverer(a.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limit := rateLimit(newLimiter(cfg.RatePerSecond, cfg.Burst))

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/extract-blog-metadata", a.extractMetadata)
		r.Get("/providers", a.listProviders)
		r.Get("/providers/detect", a.detectProvider)
		r.Get("/resolve", a.resolve)

		if a.blogs != nil {
			r.Route("/blogs", func(r chi.Router) {
				r.Get("/", a.listBlogs)
				r.Post("/", a.createBlog)
				r.With(limit).Post("/preview", a.previewBlog)
				r.Get("/{id}", a.getBlog)
				r.Put("/{id}", a.updateBlog)
				r.Delete("/{id}", a.deleteBlog)
				r.With(limit).Post("/{id}/refresh", a.refreshBlog)
			})
		}
	})

	name := cfg.ServiceName
	if name == "" {
		name = "blogmeta"
	}
	return otelhttp.NewHandler(r, name)
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
