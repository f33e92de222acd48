package extractor

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

const defaultConcurrency = 4

// Result is the outcome of one extraction within a batch.
type Result struct {
	Index    int             `json:"-"`
	URL      string          `json:"url"`
	Metadata domain.Metadata `json:"metadata"`
	Err      error           `json:"-"`
}

// ExtractAll extracts every URL independently using at most concurrency
// in-flight fetches. Results keep the input order; failures stay per item.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string, concurrency int) []Result {
	if len(urls) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	p := pool.NewWithResults[Result]().WithMaxGoroutines(concurrency)
	for i, u := range urls {
		p.Go(func() Result {
			md, err := e.Extract(ctx, u)
			return Result{Index: i, URL: u, Metadata: md, Err: err}
		})
	}

	results := p.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })
	return results
}
