// Package todo reads and writes the baseline file listing names that are
// known to be unused and should not be reported.
package todo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamoh/leftovers/pkg/models"
	"github.com/kamoh/leftovers/pkg/usage"
)

// FileName is the baseline's name in the project root.
const FileName = ".leftovers_todo.yml"

// ResolveURL is where the instructions for fixing reported names live.
const ResolveURL = "https://github.com/kamoh/leftovers/tree/v%s/README.md#how-to-resolve"

// FormatError reports a baseline that is not YAML of the expected shape.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("todo: %s: invalid baseline: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Path returns the baseline path for a project root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

type document struct {
	TestOnly []string `yaml:"test_only"`
	Keep     []string `yaml:"keep"`
}

// Load reads the baseline at path. A missing file is an empty baseline.
func Load(path string) (*usage.Baseline, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return usage.NewBaseline(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes baseline data. path is only used in errors.
func Parse(path string, data []byte) (*usage.Baseline, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	return usage.NewBaseline(doc.Keep, doc.TestOnly), nil
}

type entry struct {
	name string
	loc  string
	line string
}

// Write renders the baseline for report. Names only called from tests go
// under test_only, names never called under keep; empty sections are
// left out.
func Write(w io.Writer, r *models.DeadCodeReport, version string, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# This file was generated by `leftovers --write-todo`")
	fmt.Fprintf(bw, "# Generated at: %s\n", now.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(bw, "#")
	fmt.Fprintln(bw, "# for instructions on how to address these")
	fmt.Fprintf(bw, "# see "+ResolveURL+"\n", version)

	sections := []struct {
		key, title string
		items      []models.UnusedItem
	}{
		{"test_only", "Only directly called in tests:", r.OnlyInTests},
		{"keep", "Not directly called at all:", r.NeverUsed},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(bw, "\n%s:\n  # %s\n", s.key, s.title)
		for _, e := range entries(s.items) {
			name, err := quote(e.name)
			if err != nil {
				return err
			}
			comment := e.loc
			if e.line != "" {
				comment += " " + e.line
			}
			fmt.Fprintf(bw, "  - %s # %s\n", name, comment)
		}
	}
	return bw.Flush()
}

// Save writes the baseline for report to path, replacing any file there.
func Save(path string, r *models.DeadCodeReport, version string, now time.Time) error {
	var buf bytes.Buffer
	if err := Write(&buf, r, version, now); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// entries lists every name of every item, sorted by name then location.
func entries(items []models.UnusedItem) []entry {
	type keyed struct {
		entry
		path    string
		ln, col int
	}
	var all []keyed
	for _, it := range items {
		for _, d := range it.Definitions {
			all = append(all, keyed{
				entry: entry{
					name: d.Name,
					loc:  d.Location.String(),
					line: strings.TrimSpace(d.Location.Context()),
				},
				path: d.Location.Path,
				ln:   d.Location.Line,
				col:  d.Location.Column,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.name != b.name {
			return a.name < b.name
		}
		if a.path != b.path {
			return a.path < b.path
		}
		if a.ln != b.ln {
			return a.ln < b.ln
		}
		return a.col < b.col
	})

	out := make([]entry, len(all))
	for i, k := range all {
		out[i] = k.entry
	}
	return out
}

// quote renders name as a double quoted YAML scalar.
func quote(name string) (string, error) {
	out, err := yaml.Marshal(&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: name})
	if err != nil {
		return "", fmt.Errorf("quoting %q: %w", name, err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
