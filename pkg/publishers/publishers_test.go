package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: bus
    type: NATS
    nats:
      url: nats://localhost:4222
      subject: blogs.changes
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "bus" {
		t.Fatalf("expected only bus enabled, got %#v", enabled)
	}
	if enabled[0].Type != TypeNATS || enabled[0].NATS.TimeoutSeconds != natsDefaultTimeoutSeconds {
		t.Fatalf("expected sanitized nats config, got %#v", enabled[0].NATS)
	}
	http1, ok := reg.ByID("http1")
	if !ok || http1.HTTP.Method != httpDefaultMethod {
		t.Fatalf("expected http1 with default method, got %#v", http1)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"q","type":"sqs","sqs":{"uri":"https://sqs/q","region":"us-east-1"}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(reg.All()))
	}
}

func TestLoadRegistryEmptyPath(t *testing.T) {
	reg, err := LoadRegistry("  ")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.Enabled()) != 0 {
		t.Fatal("expected no publishers")
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: a
    type: http
    http: {url: https://example.com}
  - id: a
    type: http
    http: {url: https://example.com/2}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http":   {ID: "h1", Type: TypeHTTP},
		"missing region": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://sqs/q"}},
		"missing topic":  {ID: "t", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "us-east-1"}},
		"missing pubsub": {ID: "p", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "proj"}},
		"missing nats":   {ID: "n", Type: TypeNATS},
		"missing id":     {Type: TypeHTTP},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
