package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the transport used for outbound page fetches.
type Options struct {
	Timeout time.Duration
	// BlockPrivateHosts refuses connections to loopback, link-local and RFC1918 addresses.
	// Environment proxies are ignored while it is set.
	BlockPrivateHosts bool
	// MaxBodyBytes stops reading response bodies after this many bytes. Zero reads everything.
	MaxBodyBytes int64
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	maxBody int64
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewGuardedClient creates a RestyClient configured from opts.
func NewGuardedClient(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout)
	if opts.BlockPrivateHosts {
		// No Proxy: a proxied dial would only ever see the proxy address.
		c.SetTransport(&http.Transport{
			DialContext:           safeDialContext(&net.Dialer{Timeout: opts.Timeout}),
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: opts.Timeout,
		})
	}
	return &RestyClient{client: c, maxBody: opts.MaxBodyBytes}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries stay disabled; callers own any retry policy.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
// With a body cap the response is streamed and reading stops at the cap.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if r.maxBody > 0 {
		req.SetDoNotParseResponse(true)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	if r.maxBody <= 0 {
		return &restyResponseAdapter{resp: resp, body: resp.Body()}, nil
	}

	raw := resp.RawBody()
	if raw == nil {
		return &restyResponseAdapter{resp: resp}, nil
	}
	defer raw.Close()
	body, err := io.ReadAll(io.LimitReader(raw, r.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &restyResponseAdapter{resp: resp, body: body}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
	body []byte
}

func (r *restyResponseAdapter) Body() []byte        { return r.body }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
