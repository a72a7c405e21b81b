package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamoh/leftovers/internal/testutil"
	"github.com/kamoh/leftovers/pkg/config"
)

func defaultConfig(t *testing.T, gems ...string) *config.Config {
	t.Helper()
	if len(gems) == 0 {
		return testutil.LoadConfig(t, "")
	}
	return testutil.LoadConfig(t, "gems: ["+strings.Join(gems, ", ")+"]\n")
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestNewScannerNilConfig(t *testing.T) {
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.Included("app/user.rb") {
		t.Error("empty config should include nothing")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.WriteFiles(t, tmpDir, map[string]string{
		"Gemfile":                  "source 'x'\n",
		"app/models/user.rb":       "class User; end\n",
		"lib/tasks/db.rake":        "task :x\n",
		"app/views/index.html.erb": "<%= x %>\n",
		"README.md":                "# readme\n",
		"vendor/bundle/gem.rb":     "x\n",
		"spec/user_spec.rb":        "describe User\n",
		"test/user_test.rb":        "x\n",
	})

	files, err := NewScanner(defaultConfig(t)).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	want := []string{"Gemfile", "app/models/user.rb", "lib/tasks/db.rake", "spec/user_spec.rb", "test/user_test.rb"}
	got := paths(files)
	if len(got) != len(want) {
		t.Fatalf("ScanDir() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for _, f := range files {
		wantTest := f.Path == "spec/user_spec.rb" || f.Path == "test/user_test.rb"
		if f.Test != wantTest {
			t.Errorf("%s: Test = %v, want %v", f.Path, f.Test, wantTest)
		}
		if !filepath.IsAbs(f.Abs) {
			t.Errorf("%s: Abs %q is not absolute", f.Path, f.Abs)
		}
	}
}

func TestScanDirWithGems(t *testing.T) {
	tmpDir := t.TempDir()
	testutil.WriteFiles(t, tmpDir, map[string]string{
		"app/views/index.html.erb": "<%= x %>\n",
		"app/views/show.html.haml": "= x\n",
		"app/models/user.rb":       "x\n",
		"db/schema.rb":             "x\n",
	})

	files, err := NewScanner(defaultConfig(t, "rails", "haml")).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	got := paths(files)
	want := []string{"app/models/user.rb", "app/views/index.html.erb", "app/views/show.html.haml"}
	if len(got) != len(want) {
		t.Fatalf("ScanDir() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFiles(t, tmpDir, map[string]string{
		".gitignore":      "generated/\nscratch.rb\n",
		".git/hooks/x.rb": "x\n",
		"app/a.rb":        "x\n",
		"generated/b.rb":  "x\n",
		"scratch.rb":      "x\n",
		"lib/.gitignore":  "old.rb\n",
		"lib/old.rb":      "x\n",
		"lib/current.rb":  "x\n",
	})

	files, err := NewScanner(defaultConfig(t)).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := paths(files)
	want := []string{"app/a.rb", "lib/current.rb"}
	if len(got) != len(want) {
		t.Fatalf("ScanDir() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	files, err = NewScanner(defaultConfig(t)).WithoutGitignore().ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files) != 5 {
		t.Errorf("ScanDir() without gitignore found %v, want 5 files", paths(files))
	}
}

func TestScanDirFromSubdirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFiles(t, tmpDir, map[string]string{
		".gitignore":           "/project/tmp_*.rb\n",
		"project/app.rb":       "x\n",
		"project/tmp_debug.rb": "x\n",
	})

	files, err := NewScanner(defaultConfig(t)).ScanDir(filepath.Join(tmpDir, "project"))
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if got := paths(files); len(got) != 1 || got[0] != "app.rb" {
		t.Errorf("ScanDir() = %v, want [app.rb]", got)
	}
}

func TestScanDirEmptyDirectory(t *testing.T) {
	files, err := NewScanner(defaultConfig(t)).ScanDir(t.TempDir())
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ScanDir() on empty dir found %d files", len(files))
	}
}

func TestScanDirNonExistent(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("ScanDir() on a missing directory should fail")
	}
}

func TestIncludedAndIsTest(t *testing.T) {
	s := NewScanner(defaultConfig(t))

	tests := []struct {
		path     string
		included bool
		test     bool
	}{
		{"app/user.rb", true, false},
		{"Rakefile", true, false},
		{"spec/models/user_spec.rb", true, true},
		{"lib/user_test.rb", true, true},
		{"vendor/x.rb", false, false},
		{"notes.txt", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := s.Included(tt.path); got != tt.included {
				t.Errorf("Included(%q) = %v, want %v", tt.path, got, tt.included)
			}
			if got := s.IsTest(tt.path); got != tt.test {
				t.Errorf("IsTest(%q) = %v, want %v", tt.path, got, tt.test)
			}
		})
	}
}

func TestExcludedDir(t *testing.T) {
	s := NewScanner(defaultConfig(t))
	if !s.ExcludedDir("vendor") {
		t.Error("vendor should be excluded")
	}
	if s.ExcludedDir("app") {
		t.Error("app should not be excluded")
	}
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want bool
	}{
		{"same", "/project", "/project", true},
		{"child", "/project/app/a.rb", "/project", true},
		{"sibling prefix", "/project2/a.rb", "/project", false},
		{"parent", "/", "/project", false},
		{"dot dot", "/project/../etc/passwd", "/project", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWithinRoot(tt.path, tt.root); got != tt.want {
				t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
			}
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	if got := findGitRoot(sub); got != tmpDir {
		t.Errorf("findGitRoot() = %q, want %q", got, tmpDir)
	}
}

func TestScanDirWithSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	testutil.WriteFiles(t, tmpDir, map[string]string{"a.rb": "x\n"})
	testutil.WriteFiles(t, outside, map[string]string{"secret.rb": "x\n"})

	if err := os.Symlink(filepath.Join(tmpDir, "a.rb"), filepath.Join(tmpDir, "b.rb")); err != nil {
		t.Skip("symlinks not supported")
	}
	if err := os.Symlink(filepath.Join(outside, "secret.rb"), filepath.Join(tmpDir, "c.rb")); err != nil {
		t.Skip("symlinks not supported")
	}

	files, err := NewScanner(defaultConfig(t)).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := paths(files)
	if len(got) != 2 || got[0] != "a.rb" || got[1] != "b.rb" {
		t.Errorf("ScanDir() = %v, want [a.rb b.rb]", got)
	}
}
