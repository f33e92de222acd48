package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samvad-hq/blogmeta/internal/config"
	"github.com/samvad-hq/blogmeta/internal/extractor"
	"github.com/samvad-hq/blogmeta/internal/logger"
	"github.com/samvad-hq/blogmeta/internal/storage"
	"github.com/samvad-hq/blogmeta/pkg/httpclient"
	"github.com/samvad-hq/blogmeta/pkg/providers"
	"github.com/samvad-hq/blogmeta/pkg/publishers"
)

// loadProviders reads the provider registry and logs what was loaded.
func loadProviders(cfg *config.Config, log logger.Logger) (*providers.Registry, error) {
	reg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	defs := reg.All()
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"file":  cfg.ProvidersFile,
		"count": len(ids),
		"ids":   ids,
	})
	return reg, nil
}

// newExtractor builds an extractor whose request headers follow the provider
// matched for each target host.
func newExtractor(cfg *config.Config, reg *providers.Registry) *extractor.Extractor {
	client := httpclient.NewGuardedClient(httpclient.Options{
		Timeout:           cfg.FetchTimeout,
		BlockPrivateHosts: cfg.BlockPrivateHosts,
		MaxBodyBytes:      int64(cfg.FetchMaxBodyBytes),
	})

	headers := func(target *url.URL) map[string]string {
		base := extractor.DefaultHeaders(target)
		if cfg.FetchUserAgent != "" {
			base["User-Agent"] = cfg.FetchUserAgent
		}
		return providers.Headers(reg.ForHost(target.Hostname()), base)
	}

	return extractor.New(client,
		extractor.WithHeaders(headers),
		extractor.WithMaxBodyBytes(cfg.FetchMaxBodyBytes),
	)
}

// newFanout builds the enabled publishers. A missing publishers file yields
// an empty fanout.
func newFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	clients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(clients), nil
}

// newStore opens the configured storage backend.
func newStore(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	path := cfg.BBoltPath
	if cfg.StorageType == "sqlite" {
		path = cfg.SQLitePath
	}

	store, err := storage.NewStore(cfg.StorageType, path, storage.Options{
		MetadataTTL:     cfg.MetadataCacheTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                       cfg.StorageType,
		"path":                       path,
		"metadata_cache_ttl_seconds": int(cfg.MetadataCacheTTL.Seconds()),
		"cleanup_interval_seconds":   int(cfg.StorageCleanupInterval.Seconds()),
	})
	return store, nil
}
