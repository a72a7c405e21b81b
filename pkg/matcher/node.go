package matcher

import (
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/kamoh/leftovers/pkg/ast"
)

// Type matches nodes by kind.
type Type struct {
	kinds [ast.KindCount]bool
}

// NewType builds a Type matcher for kinds.
func NewType(kinds ...ast.Kind) *Type {
	t := &Type{}
	for _, k := range kinds {
		t.kinds[k] = true
	}
	return t
}

func (m *Type) Match(n *ast.Node) bool {
	return n != nil && m.kinds[n.Kind]
}

// Proc matches nodes that evaluate to a proc.
type Proc struct{}

func (Proc) Match(n *ast.Node) bool { return n.IsProc() }

// Scalar matches integer, float, boolean and nil literals by value.
type Scalar struct {
	Value any
}

func (m Scalar) Match(n *ast.Node) bool {
	v, ok := n.Scalar()
	if !ok {
		return false
	}
	return scalarEqual(m.Value, v)
}

func scalarEqual(want, got any) bool {
	wf, wnum := number(want)
	gf, gnum := number(got)
	if wnum || gnum {
		return wnum && gnum && wf == gf
	}
	return want == got
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// Positional matches calls with a positional argument at Index (0-based),
// optionally also matching its value.
type Positional struct {
	Index int
	Value Matcher
}

func (m Positional) Match(n *ast.Node) bool {
	arg := n.PositionalAt(m.Index)
	if arg == nil {
		return false
	}
	return m.Value == nil || m.Value.Match(arg)
}

// AnyPositional matches calls with any positional argument matching Value.
type AnyPositional struct {
	Value Matcher
}

func (m AnyPositional) Match(n *ast.Node) bool {
	for _, arg := range n.Positional() {
		if m.Value == nil || m.Value.Match(arg) {
			return true
		}
	}
	return false
}

// Keyword matches calls with any keyword pair matching Pair.
type Keyword struct {
	Pair Matcher
}

func (m Keyword) Match(n *ast.Node) bool {
	for _, kw := range n.Keywords() {
		if kw.Kind == ast.KindPair && m.Pair.Match(kw) {
			return true
		}
	}
	return false
}

// PairValue matches pairs whose value matches Value.
type PairValue struct {
	Value Matcher
}

func (m PairValue) Match(n *ast.Node) bool {
	return n != nil && n.Kind == ast.KindPair && m.Value.Match(n.Right)
}

// Receiver matches calls with an explicit receiver, optionally matching it.
type Receiver struct {
	Value Matcher
}

func (m Receiver) Match(n *ast.Node) bool {
	if !n.HasReceiver() {
		return false
	}
	return m.Value == nil || m.Value.Match(n.Receiver)
}

// Path matches nodes by the project-relative path of their file, using
// gitignore syntax.
type Path struct {
	ig *ignore.GitIgnore
}

// NewPath compiles gitignore-style patterns.
func NewPath(patterns ...string) *Path {
	return &Path{ig: ignore.CompileIgnoreLines(patterns...)}
}

func (m *Path) Match(n *ast.Node) bool {
	return n != nil && m.MatchPath(n.Loc.Path)
}

// MatchPath matches a project-relative slash path.
func (m *Path) MatchPath(path string) bool {
	return path != "" && m.ig.MatchesPath(path)
}
