package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/parser"
)

// File is one source file to check.
type File struct {
	// Path is relative to the scanned root, with forward slashes.
	Path string
	Abs  string
	Test bool
}

// Scanner finds source files in a directory.
type Scanner struct {
	include *ignore.GitIgnore
	exclude *ignore.GitIgnore
	test    *ignore.GitIgnore

	gitignore bool
	matchers  []gitignore.Matcher
	gitPrefix []string
}

// NewScanner creates a scanner for the configured include, exclude and
// test paths. A nil config uses the defaults.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Scanner{
		include:   ignore.CompileIgnoreLines(cfg.IncludePaths...),
		exclude:   ignore.CompileIgnoreLines(cfg.ExcludePaths...),
		test:      ignore.CompileIgnoreLines(cfg.TestPaths...),
		gitignore: true,
	}
}

// WithoutGitignore makes the scanner ignore .gitignore files.
func (s *Scanner) WithoutGitignore() *Scanner {
	s.gitignore = false
	return s
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore file of the repository containing
// root.
func (s *Scanner) loadGitignore(root string) {
	s.matchers = nil
	if !s.gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	s.gitPrefix = relParts(gitRoot, root)
}

// relParts returns root's path below gitRoot as parts.
func relParts(gitRoot, root string) []string {
	rel, err := filepath.Rel(gitRoot, root)
	if err != nil || rel == "." {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

// ignored checks a root-relative slash path against the exclude paths and
// .gitignore files.
func (s *Scanner) ignored(rel string, isDir bool) bool {
	candidate := rel
	if isDir {
		candidate += "/"
	}
	if s.exclude.MatchesPath(candidate) {
		return true
	}
	if len(s.matchers) == 0 {
		return false
	}
	parts := append(append([]string(nil), s.gitPrefix...), strings.Split(rel, "/")...)
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// Included reports whether a root-relative path is a file to check.
func (s *Scanner) Included(rel string) bool {
	rel = filepath.ToSlash(rel)
	return s.include.MatchesPath(rel) &&
		!s.exclude.MatchesPath(rel) &&
		parser.DetectLanguage(rel) != parser.LangUnknown
}

// ExcludedDir reports whether a root-relative directory is excluded by the
// configured exclude paths.
func (s *Scanner) ExcludedDir(rel string) bool {
	return s.exclude.MatchesPath(filepath.ToSlash(rel) + "/")
}

// IsTest reports whether a root-relative path is a test file.
func (s *Scanner) IsTest(rel string) bool {
	return s.test.MatchesPath(filepath.ToSlash(rel))
}

// ScanDir recursively scans a directory for source files, sorted by path.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]File, error) {
	files := make([]File, 0, 1024)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, _ := filepath.Rel(absRoot, path)
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if d.Name() == ".git" || s.ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.ignored(rel, false) || !s.Included(rel) {
			return nil
		}
		files = append(files, File{Path: rel, Abs: path, Test: s.IsTest(rel)})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}
