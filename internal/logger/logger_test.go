package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredObject(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := New(zap.New(core))

	log.InfoObj("blog saved", "blog_meta", map[string]any{"id": "b1"})
	log.DebugObj("debug", "k", 1)
	log.WarnObj("warn", "k", 2)
	log.ErrorObj("error", "k", 3)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	meta, ok := ctx["blog_meta"].(map[string]any)
	if !ok || meta["id"] != "b1" {
		t.Fatalf("unexpected context %#v", ctx)
	}
}

func TestNewNilAndEnsure(t *testing.T) {
	if _, ok := New(nil).(NopLogger); !ok {
		t.Fatal("expected NopLogger for nil zap logger")
	}
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatal("expected NopLogger from Ensure(nil)")
	}
}
