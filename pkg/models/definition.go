package models

import (
	"strings"

	"github.com/kamoh/leftovers/pkg/ast"
)

// Definition is one name introduced by the source: a method, constant,
// instance variable or a name produced by a dynamic rule.
type Definition struct {
	Name     string       `json:"name"`
	Location ast.Location `json:"location"`
	Test     bool         `json:"test,omitempty"`    // defined in a test file
	Dynamic  bool         `json:"dynamic,omitempty"` // built from interpolation, never reported
}

// DefinitionSet groups the names one source construct defines together,
// e.g. attr_accessor :foo defines foo and foo=. The set is reported as a
// single line and is used when any of its names is used.
type DefinitionSet struct {
	Definitions []Definition `json:"definitions"`
}

// Names returns the set's names in definition order.
func (s DefinitionSet) Names() []string {
	names := make([]string, len(s.Definitions))
	for i, d := range s.Definitions {
		names[i] = d.Name
	}
	return names
}

// Name is the first name, used for sorting and display.
func (s DefinitionSet) Name() string {
	if len(s.Definitions) == 0 {
		return ""
	}
	return s.Definitions[0].Name
}

// Location is where the set's construct is.
func (s DefinitionSet) Location() ast.Location {
	if len(s.Definitions) == 0 {
		return ast.Location{}
	}
	return s.Definitions[0].Location
}

// Test reports whether the set was defined in a test file.
func (s DefinitionSet) Test() bool {
	return len(s.Definitions) > 0 && s.Definitions[0].Test
}

func (s DefinitionSet) String() string {
	return strings.Join(s.Names(), ", ")
}

// FileResult is what the collector produced for one file.
type FileResult struct {
	Path        string          `json:"path"`
	Test        bool            `json:"test,omitempty"`
	Definitions []DefinitionSet `json:"definitions"`
	Calls       []string        `json:"calls"`      // sorted, unique
	TestCalls   []string        `json:"test_calls"` // sorted, unique
}

// Verdict classifies a definition by how it is referenced.
type Verdict string

const (
	VerdictUsed            Verdict = "used"
	VerdictUsedOnlyInTests Verdict = "used_only_in_tests"
	VerdictNeverUsed       Verdict = "never_used"
)

func (v Verdict) String() string { return string(v) }

// rank orders verdicts from most to least used.
func (v Verdict) rank() int {
	switch v {
	case VerdictUsed:
		return 0
	case VerdictUsedOnlyInTests:
		return 1
	default:
		return 2
	}
}

// Better reports whether v means more usage than other.
func (v Verdict) Better(other Verdict) bool {
	return v.rank() < other.rank()
}
