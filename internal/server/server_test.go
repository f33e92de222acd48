package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samvad-hq/blogmeta/internal/blog"
	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/internal/extractor"
	"github.com/samvad-hq/blogmeta/internal/storage"
	"github.com/samvad-hq/blogmeta/pkg/providers"
)

type stubExtractor struct {
	md  domain.Metadata
	err error
}

func (s stubExtractor) Extract(context.Context, string) (domain.Metadata, error) {
	return s.md, s.err
}

func newTestHandler(t *testing.T, ext stubExtractor, perSecond float64) http.Handler {
	t.Helper()
	store, err := storage.NewStore("memory", "", storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewHandler(Config{
		Extractor:     ext,
		Blogs:         blog.NewService(store, ext, providers.Default()),
		RatePerSecond: perSecond,
		Burst:         1,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestExtractMetadataSuccess(t *testing.T) {
	md := domain.Metadata{Title: "Hello", Author: "Jane", Tags: []string{"go"}}
	h := newTestHandler(t, stubExtractor{md: md}, 0)

	rec := do(t, h, http.MethodPost, "/api/extract-blog-metadata", map[string]string{"url": "https://example.com/post"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var got domain.Metadata
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "Hello" || got.Author != "Jane" || len(got.Tags) != 1 {
		t.Fatalf("unexpected metadata %#v", got)
	}
}

func TestExtractMetadataErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		body    any
		err     error
		status  int
		message string
	}{
		{"missing url", map[string]string{}, nil, http.StatusBadRequest, "URL is required"},
		{"invalid url", map[string]string{"url": "nope"}, &extractor.ValidationError{URL: "nope", Reason: "no host"}, http.StatusBadRequest, "invalid URL"},
		{"fetch", map[string]string{"url": "https://example.com"}, &extractor.FetchError{URL: "https://example.com", StatusCode: 404}, http.StatusBadRequest, "Failed to fetch URL"},
		{"parse", map[string]string{"url": "https://example.com"}, &extractor.ParseError{URL: "https://example.com", Err: errors.New("not html")}, http.StatusInternalServerError, "Failed to extract metadata"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, stubExtractor{err: tc.err}, 0)
			rec := do(t, h, http.MethodPost, "/api/extract-blog-metadata", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := decodeError(t, rec); got != tc.message {
				t.Fatalf("error = %q, want %q", got, tc.message)
			}
		})
	}
}

func TestExtractRateLimited(t *testing.T) {
	h := newTestHandler(t, stubExtractor{md: domain.Metadata{Tags: []string{}}}, 0.001)
	body := map[string]string{"url": "https://example.com"}

	if rec := do(t, h, http.MethodPost, "/api/extract-blog-metadata", body); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/extract-blog-metadata", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestProvidersAndResolve(t *testing.T) {
	h := newTestHandler(t, stubExtractor{}, 0)

	rec := do(t, h, http.MethodGet, "/api/providers", nil)
	var opts []providers.Option
	if err := json.Unmarshal(rec.Body.Bytes(), &opts); err != nil {
		t.Fatalf("decode providers: %v", err)
	}
	if len(opts) == 0 || opts[0].Value != providers.External {
		t.Fatalf("expected external first, got %#v", opts)
	}

	rec = do(t, h, http.MethodGet, "/api/providers/detect?host=blog.hashnode.dev", nil)
	var det detectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &det); err != nil {
		t.Fatalf("decode detect: %v", err)
	}
	if det.Provider != providers.Hashnode {
		t.Fatalf("provider = %q", det.Provider)
	}

	rec = do(t, h, http.MethodGet, "/api/resolve?identifier=my-post&provider=dev.to&author=Jane", nil)
	var res resolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resolve: %v", err)
	}
	if res.URL == nil || *res.URL != "https://dev.to/jane/my-post" {
		t.Fatalf("url = %v", res.URL)
	}

	rec = do(t, h, http.MethodGet, "/api/resolve?identifier=abc&provider=medium", nil)
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != `{"url":null}` {
		t.Fatalf("expected null url, got %s", got)
	}
}

func TestBlogCRUD(t *testing.T) {
	h := newTestHandler(t, stubExtractor{}, 0)

	rec := do(t, h, http.MethodPost, "/api/blogs", blog.Input{Title: "Hello", Excerpt: "E", Author: "A", ExternalID: "example.com/hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created domain.BlogView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ExternalURL == nil || *created.ExternalURL != "https://example.com/hello" {
		t.Fatalf("external url = %v", created.ExternalURL)
	}

	if rec := do(t, h, http.MethodGet, "/api/blogs/"+created.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/api/blogs/"+created.ID, blog.Input{Title: "Hello 2", Excerpt: "E", Author: "A"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/blogs", nil)
	var list []domain.BlogView
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Hello 2" {
		t.Fatalf("unexpected list %#v", list)
	}

	if rec := do(t, h, http.MethodDelete, "/api/blogs/"+created.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/blogs/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestCreateBlogValidation(t *testing.T) {
	h := newTestHandler(t, stubExtractor{}, 0)
	rec := do(t, h, http.MethodPost, "/api/blogs", blog.Input{Title: "Only title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPreviewPartialSuccess(t *testing.T) {
	h := newTestHandler(t, stubExtractor{err: &extractor.FetchError{URL: "https://medium.com/x", StatusCode: 403}}, 0)
	rec := do(t, h, http.MethodPost, "/api/blogs/preview", map[string]string{"url": "medium.com/x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Draft blog.Draft `json:"draft"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Draft.Provider != providers.Medium || body.Error == "" {
		t.Fatalf("unexpected preview %#v", body)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, stubExtractor{}, 0)
	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
