package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samvad-hq/blogmeta/internal/config"
	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/internal/extractor"
	"github.com/samvad-hq/blogmeta/internal/logger"
)

// BatchExtractor is the batch surface the extract runner needs.
type BatchExtractor interface {
	ExtractAll(ctx context.Context, urls []string, concurrency int) []extractor.Result
}

// ExtractLine is one JSON line written by RunExtract.
type ExtractLine struct {
	URL      string           `json:"url"`
	Metadata *domain.Metadata `json:"metadata,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Extract runs one-shot extractions and prints JSON lines.
type Extract struct {
	extractor   BatchExtractor
	concurrency int
	log         logger.Logger
}

// NewExtract builds the one-shot extraction runtime from config.
func NewExtract(cfg *config.Config, log logger.Logger) (*Extract, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	reg, err := loadProviders(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Extract{
		extractor:   newExtractor(cfg, reg),
		concurrency: cfg.ExtractConcurrency,
		log:         log,
	}, nil
}

// Run extracts urls and writes one line per URL to w in input order. It
// returns the number of failed extractions.
func (e *Extract) Run(ctx context.Context, urls []string, w io.Writer) (int, error) {
	start := time.Now()
	results := e.extractor.ExtractAll(ctx, urls, e.concurrency)

	enc := json.NewEncoder(w)
	failed := 0
	for _, res := range results {
		line := ExtractLine{URL: res.URL}
		if res.Err != nil {
			failed++
			line.Error = res.Err.Error()
		} else {
			md := res.Metadata
			line.Metadata = &md
		}
		if err := enc.Encode(line); err != nil {
			return failed, fmt.Errorf("write result: %w", err)
		}
	}

	e.log.InfoObj("extraction batch completed", "extract_meta", map[string]any{
		"urls":       len(urls),
		"failed":     failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return failed, nil
}
