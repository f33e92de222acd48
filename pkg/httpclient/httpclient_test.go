package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRestyClientSendsHeadersAndExposesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "UA/1.0" {
			t.Errorf("expected user agent header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"User-Agent": "UA/1.0"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot {
		t.Fatalf("StatusCode = %d", resp.StatusCode())
	}
	if string(resp.Body()) != "<html></html>" {
		t.Fatalf("Body = %q", resp.Body())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestGuardedClientBlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewGuardedClient(Options{Timeout: 2 * time.Second, BlockPrivateHosts: true})
	if _, err := client.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected loopback connection to be refused")
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "172.20.0.1", "169.254.1.1", "::1", "fd00::1", "0.0.0.0"}
	for _, raw := range private {
		if !isPrivateIP(net.ParseIP(raw)) {
			t.Errorf("expected %s to be private", raw)
		}
	}
	public := []string{"93.184.216.34", "2606:4700:4700::1111"}
	for _, raw := range public {
		if isPrivateIP(net.ParseIP(raw)) {
			t.Errorf("expected %s to be public", raw)
		}
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet(nil); got != "<empty>" {
		t.Fatalf("Snippet(nil) = %q", got)
	}
	long := strings.Repeat("x", 600)
	if got := Snippet([]byte(long)); len(got) != 515 {
		t.Fatalf("expected truncated snippet, got len %d", len(got))
	}
}
