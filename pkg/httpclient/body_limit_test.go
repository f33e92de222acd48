package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// streamingServer writes head followed by chunks of 1 MiB and counts what the
// client actually accepted. done closes when the handler returns.
func streamingServer(t *testing.T, head string, chunks int) (*httptest.Server, *atomic.Int64, <-chan struct{}) {
	t.Helper()
	var written atomic.Int64
	done := make(chan struct{})
	chunk := bytes.Repeat([]byte("a"), 1<<20)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		defer close(done)
		w.Header().Set("Content-Type", "text/html")
		n, _ := w.Write([]byte(head))
		written.Add(int64(n))
		flusher, _ := w.(http.Flusher)
		for i := 0; i < chunks; i++ {
			n, err := w.Write(chunk)
			written.Add(int64(n))
			if err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &written, done
}

func TestRestyClientStopsReadingAtBodyCap(t *testing.T) {
	srv, written, done := streamingServer(t, "<title>T</title>", 64)

	client := NewGuardedClient(Options{Timeout: 10 * time.Second, MaxBodyBytes: 1024})
	resp, err := client.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := len(resp.Body()); got != 1024 {
		t.Fatalf("body length = %d, want 1024", got)
	}
	if !bytes.HasPrefix(resp.Body(), []byte("<title>T</title>")) {
		t.Fatalf("body lost its prefix: %q", resp.Body()[:32])
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("server kept streaming after the client stopped reading")
	}
	// Socket buffers absorb a few MiB at most; the full response is 64 MiB.
	if got := written.Load(); got >= 16<<20 {
		t.Fatalf("server delivered %d bytes despite 1 KiB cap", got)
	}
}

func TestRestyClientWithoutCapReadsWholeBody(t *testing.T) {
	srv, _, _ := streamingServer(t, "x", 2)

	resp, err := NewRestyClient(10*time.Second).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := len(resp.Body()); got != 1+2<<20 {
		t.Fatalf("body length = %d", got)
	}
}

func TestGuardedClientIgnoresEnvironmentProxy(t *testing.T) {
	client := NewGuardedClient(Options{Timeout: time.Second, BlockPrivateHosts: true})
	transport, ok := client.client.GetClient().Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", client.client.GetClient().Transport)
	}
	if transport.Proxy != nil {
		t.Fatal("guarded transport must not route through an environment proxy")
	}
}
