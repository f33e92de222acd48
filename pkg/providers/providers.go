package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package providers holds the table of known publishing platforms and the
// host-based detection rules shared by the extractor and the resolver.

// External is the catch-all provider id. It matches no host and is only
// ever selected explicitly or as the detection fallback.
const External = "external"

const externalLabel = "External / Custom"

// Well-known provider ids referenced by URL reconstruction rules.
const (
	Medium    = "medium"
	DevTo     = "dev.to"
	Hashnode  = "hashnode"
	WordPress = "wordpress"
	Substack  = "substack"
	Blogger   = "blogger"
	Ghost     = "ghost"
	Notion    = "notion"
)

// Definition describes a publishing platform and the hostnames that identify it.
type Definition struct {
	ID     string         `json:"id" yaml:"id"`
	Label  string         `json:"label" yaml:"label"`
	Hosts  []string       `json:"hosts" yaml:"hosts"`
	Config map[string]any `json:"config,omitempty" yaml:"config"`
}

// Option is a provider choice as presented to form collaborators.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// builtin is matched top to bottom; the first definition with a matching host wins.
var builtin = []Definition{
	{ID: Medium, Label: "Medium", Hosts: []string{"medium.com"}},
	{ID: DevTo, Label: "Dev.to", Hosts: []string{"dev.to"}},
	{ID: Hashnode, Label: "Hashnode", Hosts: []string{"hashnode.dev", "hashnode.com"}},
	{ID: WordPress, Label: "WordPress", Hosts: []string{"wordpress.com", "wp.com"}},
	{ID: Substack, Label: "Substack", Hosts: []string{"substack.com"}},
	{ID: Blogger, Label: "Blogger", Hosts: []string{"blogspot.com"}},
	{ID: Ghost, Label: "Ghost", Hosts: []string{"ghost.io"}},
	{ID: Notion, Label: "Notion", Hosts: []string{"notion.site", "notion.so"}},
}

var defaultRegistry = mustRegistry(builtin)

// Registry is an immutable, ordered provider table. It is safe for concurrent use.
type Registry struct {
	defs []Definition
	idx  map[string]Definition
}

type fileRegistry struct {
	Providers []Definition `json:"providers" yaml:"providers"`
}

// Default returns the built-in provider table.
func Default() *Registry { return defaultRegistry }

// DetectProvider matches hostname against the built-in table.
func DetectProvider(hostname string) string { return defaultRegistry.Detect(hostname) }

// NewRegistry builds a registry from the given definitions, preserving their order.
func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("providers list is empty")
	}

	reg := &Registry{
		defs: make([]Definition, 0, len(defs)),
		idx:  make(map[string]Definition, len(defs)),
	}
	for i := range defs {
		d := sanitizeDefinition(defs[i])
		if err := validateDefinition(d); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, exists := reg.idx[d.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		reg.defs = append(reg.defs, d)
		reg.idx[d.ID] = d
	}
	return reg, nil
}

func mustRegistry(defs []Definition) *Registry {
	reg, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadRegistry loads the provider table from a YAML/JSON file. An empty path
// yields the built-in table.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultRegistry, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	return NewRegistry(parsed.Providers)
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("providers file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (fileRegistry, error) {
	var reg fileRegistry
	if err := fn(data, &reg); err != nil {
		return fileRegistry{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

func sanitizeDefinition(d Definition) Definition {
	d.ID = strings.ToLower(strings.TrimSpace(d.ID))
	d.Label = strings.TrimSpace(d.Label)
	if d.Label == "" {
		d.Label = d.ID
	}

	hosts := make([]string, 0, len(d.Hosts))
	for _, h := range d.Hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	d.Hosts = hosts

	if d.Config == nil {
		d.Config = map[string]any{}
	}
	return d
}

func validateDefinition(d Definition) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	if d.ID == External {
		return fmt.Errorf("provider id %q is reserved", External)
	}
	if len(d.Hosts) == 0 {
		return fmt.Errorf("at least one host is required for provider %q", d.ID)
	}
	return nil
}

// Detect returns the id of the first definition with a host contained in
// hostname, or External. Declaration order wins over specificity.
func (r *Registry) Detect(hostname string) string {
	return r.ForHost(hostname).ID
}

// ForHost returns the definition matching hostname, or the external definition.
func (r *Registry) ForHost(hostname string) Definition {
	normalized := strings.ToLower(hostname)
	if r != nil && normalized != "" {
		for _, d := range r.defs {
			for _, host := range d.Hosts {
				if strings.Contains(normalized, host) {
					return d
				}
			}
		}
	}
	return externalDefinition()
}

// ByID returns the definition for id, if present.
func (r *Registry) ByID(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return d, ok
}

// Normalize maps id onto a known provider id, degrading to External.
func (r *Registry) Normalize(id string) string {
	if d, ok := r.ByID(id); ok {
		return d.ID
	}
	return External
}

// All returns a copy of the definitions in declaration order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Options lists the selectable providers, external first.
func (r *Registry) Options() []Option {
	out := []Option{{Value: External, Label: externalLabel}}
	if r == nil {
		return out
	}
	for _, d := range r.defs {
		out = append(out, Option{Value: d.ID, Label: d.Label})
	}
	return out
}

func externalDefinition() Definition {
	return Definition{ID: External, Label: externalLabel, Config: map[string]any{}}
}
