package providers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectProviderBuiltinHosts(t *testing.T) {
	cases := map[string]string{
		"medium.com":              Medium,
		"jane.medium.com":         Medium,
		"MEDIUM.COM":              Medium,
		"dev.to":                  DevTo,
		"blog.hashnode.dev":       Hashnode,
		"example.wordpress.com":   WordPress,
		"i0.wp.com":               WordPress,
		"news.substack.com":       Substack,
		"someone.blogspot.com":    Blogger,
		"site.ghost.io":           Ghost,
		"team.notion.site":        Notion,
		"www.notion.so":           Notion,
		"example.com":             External,
		"":                        External,
		"   ":                     External,
		"not-a-host/with?symbols": External,
	}
	for host, want := range cases {
		if got := DetectProvider(host); got != want {
			t.Errorf("DetectProvider(%q) = %q want %q", host, got, want)
		}
	}
}

func TestDetectFirstMatchWinsByDeclarationOrder(t *testing.T) {
	reg, err := NewRegistry([]Definition{
		{ID: "broad", Hosts: []string{"example.com"}},
		{ID: "narrow", Hosts: []string{"blog.example.com"}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := reg.Detect("blog.example.com"); got != "broad" {
		t.Fatalf("expected declaration order to win, got %q", got)
	}
}

func TestRegistryNormalizeAndOptions(t *testing.T) {
	reg := Default()
	if got := reg.Normalize(" Medium "); got != Medium {
		t.Fatalf("Normalize medium = %q", got)
	}
	if got := reg.Normalize("myspace"); got != External {
		t.Fatalf("Normalize unknown = %q", got)
	}
	if got := reg.Normalize(External); got != External {
		t.Fatalf("Normalize external = %q", got)
	}

	opts := reg.Options()
	if len(opts) != len(builtin)+1 {
		t.Fatalf("expected %d options, got %d", len(builtin)+1, len(opts))
	}
	if opts[0].Value != External || opts[0].Label != "External / Custom" {
		t.Fatalf("unexpected first option %#v", opts[0])
	}
	if opts[1].Value != Medium || opts[1].Label != "Medium" {
		t.Fatalf("unexpected second option %#v", opts[1])
	}
}

func TestLoadRegistryEmptyPathUsesBuiltin(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != len(builtin) {
		t.Fatalf("expected builtin table")
	}
}

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	content := `
providers:
  - id: Medium
    label: Medium
    hosts: [" Medium.com "]
    config:
      user_agent: CustomAgent/1.0
  - id: lobsters
    hosts: [lobste.rs]
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	d, ok := reg.ByID("medium")
	if !ok {
		t.Fatalf("expected provider id medium to be loaded")
	}
	if d.Hosts[0] != "medium.com" {
		t.Fatalf("unexpected hosts: %v", d.Hosts)
	}
	if got := reg.Detect("lobste.rs"); got != "lobsters" {
		t.Fatalf("Detect lobste.rs = %q", got)
	}
	if l, _ := reg.ByID("lobsters"); l.Label != "lobsters" {
		t.Fatalf("expected label to default to id, got %q", l.Label)
	}
	if got := reg.Detect("dev.to"); got != External {
		t.Fatalf("file should replace builtin table, got %q", got)
	}

	headers := Headers(d, map[string]string{"User-Agent": "Default", "Accept": "text/html"})
	if headers["User-Agent"] != "CustomAgent/1.0" || headers["Accept"] != "text/html" {
		t.Fatalf("unexpected headers %#v", headers)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.json")
	content := `{"providers":[{"id":"ghost","label":"Ghost","hosts":["ghost.io"]}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := reg.Detect("x.ghost.io"); got != Ghost {
		t.Fatalf("Detect = %q", got)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
providers:
  - id: duplicate
    hosts: [a.example]
  - id: duplicate
    hosts: [b.example]
`,
		"reserved": `
providers:
  - id: external
    hosts: [a.example]
`,
		"no-hosts": `
providers:
  - id: lonely
`,
		"empty": `providers: []`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "providers.yaml")
			if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
				t.Fatalf("write providers file: %v", err)
			}
			if _, err := LoadRegistry(file); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
