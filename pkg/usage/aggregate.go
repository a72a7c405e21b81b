// Package usage merges per-file collection results and decides, for every
// definition, whether it is used.
package usage

import (
	"fmt"
	"sort"

	"github.com/kamoh/leftovers/pkg/models"
)

// Aggregate is the union of any number of file results. Add and Merge
// are order independent: the same files give the same aggregate whatever
// order they arrive in. An Aggregate is not safe for concurrent use.
type Aggregate struct {
	files       int
	definitions []models.DefinitionSet
	calls       map[string]struct{}
	testCalls   map[string]struct{}
}

// New returns an empty aggregate.
func New() *Aggregate {
	return &Aggregate{
		calls:     make(map[string]struct{}),
		testCalls: make(map[string]struct{}),
	}
}

// Add merges one file's result.
func (a *Aggregate) Add(r *models.FileResult) {
	if r == nil {
		return
	}
	a.files++
	a.definitions = append(a.definitions, r.Definitions...)
	for _, c := range r.Calls {
		a.calls[c] = struct{}{}
	}
	for _, c := range r.TestCalls {
		a.testCalls[c] = struct{}{}
	}
}

// Merge adds everything in other to a.
func (a *Aggregate) Merge(other *Aggregate) {
	if other == nil {
		return
	}
	a.files += other.files
	a.definitions = append(a.definitions, other.definitions...)
	for c := range other.calls {
		a.calls[c] = struct{}{}
	}
	for c := range other.testCalls {
		a.testCalls[c] = struct{}{}
	}
}

// Files is the number of files added.
func (a *Aggregate) Files() int { return a.files }

// Called reports whether name is called outside tests.
func (a *Aggregate) Called(name string) bool {
	_, ok := a.calls[name]
	return ok
}

// TestCalled reports whether name is called from tests.
func (a *Aggregate) TestCalled(name string) bool {
	_, ok := a.testCalls[name]
	return ok
}

// Calls returns the distinct names called outside tests, sorted.
func (a *Aggregate) Calls() []string { return sorted(a.calls) }

// TestCalls returns the distinct names called from tests, sorted.
func (a *Aggregate) TestCalls() []string { return sorted(a.testCalls) }

// CallCount is the number of distinct names called from anywhere.
func (a *Aggregate) CallCount() int {
	n := len(a.calls)
	for c := range a.testCalls {
		if _, ok := a.calls[c]; !ok {
			n++
		}
	}
	return n
}

// Definitions returns every definition set sorted by name and location.
func (a *Aggregate) Definitions() []models.DefinitionSet {
	out := append([]models.DefinitionSet(nil), a.definitions...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessSet(out[i], out[j])
	})
	return out
}

// Summary renders the counts line printed after a run.
func (a *Aggregate) Summary() string {
	return fmt.Sprintf("checked %d files, collected %d calls, %d definitions",
		a.files, a.CallCount(), len(a.definitions))
}

func lessSet(a, b models.DefinitionSet) bool {
	if a.Name() != b.Name() {
		return a.Name() < b.Name()
	}
	la, lb := a.Location(), b.Location()
	if la.Path != lb.Path {
		return la.Path < lb.Path
	}
	if la.Line != lb.Line {
		return la.Line < lb.Line
	}
	return la.Column < lb.Column
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
