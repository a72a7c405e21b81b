package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed packs/*.yml
var packFS embed.FS

//go:embed schema.json
var schemaJSON []byte

// FileNames are the project configuration files looked for in the project
// root, in order.
var FileNames = []string{
	".leftovers.yml",
	".leftovers.yaml",
	".leftovers.json",
	".leftovers.toml",
}

// Config holds the merged configuration for a run.
type Config struct {
	// File selection, gitignore syntax
	IncludePaths []string `koanf:"include_paths"`
	ExcludePaths []string `koanf:"exclude_paths"`
	TestPaths    []string `koanf:"test_paths"`

	// Rule packs merged before the project file
	Gems []string `koanf:"gems"`

	// Name patterns always considered used, and used when only tests call them
	Keep     []any `koanf:"keep"`
	TestOnly []any `koanf:"test_only"`

	// Rules: matcher keys plus calls/defines processors
	Dynamic []any `koanf:"dynamic"`

	// Sources lists the merged documents in order: pack names, then the
	// project file path.
	Sources []string `koanf:"-"`

	k *koanf.Koanf
}

// Packs returns the names of the embedded rule packs.
func Packs() []string {
	entries, err := packFS.ReadDir("packs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yml"))
	}
	sort.Strings(names)
	return names
}

// Load merges the default pack, the packs named by gems and the project
// configuration. path names the project file; when empty, FileNames are
// looked up in root and a missing file is not an error.
func Load(root, path string) (*Config, error) {
	l := &loader{k: koanf.New("."), seen: make(map[string]bool)}
	if err := l.pack("default"); err != nil {
		return nil, err
	}

	if path == "" {
		path = Find(root)
	}
	if path != "" {
		if err := l.project(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Sources: l.sources, k: l.k}
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, &ConfigurationError{Msg: "decoding merged configuration", Err: err}
	}
	return cfg, nil
}

// Find returns the first of FileNames present in root, or "".
func Find(root string) string {
	for _, name := range FileNames {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Marshal renders the merged configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	if c.k == nil {
		return nil, fmt.Errorf("config: not loaded")
	}
	return c.k.Marshal(yaml.Parser())
}

type loader struct {
	k       *koanf.Koanf
	seen    map[string]bool
	sources []string
}

func (l *loader) pack(name string) error {
	if l.seen[name] {
		return nil
	}
	l.seen[name] = true

	data, err := packFS.ReadFile("packs/" + name + ".yml")
	if err != nil {
		return Errorf("gems", "unknown gem %q (available: %s)", name, strings.Join(Packs(), ", "))
	}
	return l.merge(name, data, yaml.Parser())
}

func (l *loader) project(path string) error {
	data, err := file.Provider(path).ReadBytes()
	if err != nil {
		return &ConfigurationError{Path: path, Msg: "reading config", Err: err}
	}
	return l.merge(path, data, parserFor(path))
}

// merge validates one document, loads the packs it requires and then the
// document itself, so that it overrides what it builds on.
func (l *loader) merge(name string, data []byte, parser koanf.Parser) error {
	doc, err := parser.Unmarshal(data)
	if err != nil {
		return &ConfigurationError{Path: name, Msg: "parsing", Err: err}
	}
	if err := validate(name, doc); err != nil {
		return err
	}

	for _, gem := range stringList(doc["gems"]) {
		if err := l.pack(gem); err != nil {
			return err
		}
	}

	if err := l.k.Load(rawbytes.Provider(data), parser, koanf.WithMergeFunc(mergeMaps)); err != nil {
		return &ConfigurationError{Path: name, Msg: "loading", Err: err}
	}
	l.sources = append(l.sources, name)
	return nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return koanfjson.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return yaml.Parser()
	}
}

// mergeMaps merges src into dest: maps merge recursively, lists are
// unioned keeping dest's order, anything else from src wins. A nil src
// value leaves dest alone.
func mergeMaps(src, dest map[string]any) error {
	for key, sv := range src {
		if sv == nil {
			continue
		}
		dv, ok := dest[key]
		if !ok || dv == nil {
			dest[key] = sv
			continue
		}
		dest[key] = mergeValue(dv, sv)
	}
	return nil
}

func mergeValue(dv, sv any) any {
	if dm, ok := dv.(map[string]any); ok {
		if sm, ok := sv.(map[string]any); ok {
			_ = mergeMaps(sm, dm)
			return dm
		}
		return sv
	}

	dl, dIsList := dv.([]any)
	sl, sIsList := sv.([]any)
	if !dIsList && !sIsList {
		return sv
	}
	// a single value next to a list is a one item list
	if !dIsList {
		dl = []any{dv}
	}
	if !sIsList {
		sl = []any{sv}
	}

	out := append([]any(nil), dl...)
	for _, item := range sl {
		if !containsValue(out, item) {
			out = append(out, item)
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("leftovers.schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("leftovers.schema.json")
})

func validate(name string, doc map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config: compiling schema: %w", err)
	}

	// Round trip through JSON so TOML and YAML values take JSON shapes.
	raw, err := json.Marshal(doc)
	if err != nil {
		return &ConfigurationError{Path: name, Msg: "not representable as JSON", Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ConfigurationError{Path: name, Msg: "not representable as JSON", Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return &ConfigurationError{Path: name, Msg: "invalid configuration", Err: err}
	}
	return nil
}
