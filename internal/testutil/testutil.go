// Package testutil holds fixtures shared by tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kamoh/leftovers/pkg/config"
)

// WriteFiles creates files under root from a map of relative path -> content.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%s) error: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error: %v", path, err)
		}
	}
}

// ReadFile reads content from a file.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// LoadConfig loads the configuration of a fresh project whose
// .leftovers.yml holds doc. An empty doc loads the defaults only.
func LoadConfig(t testing.TB, doc string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if doc != "" {
		WriteFiles(t, dir, map[string]string{".leftovers.yml": doc})
	}
	cfg, err := config.Load(dir, "")
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	return cfg
}
