// Package matcher decides whether a syntax node satisfies a rule pattern.
package matcher

import (
	"github.com/kamoh/leftovers/pkg/ast"
)

// Matcher is a pure predicate over nodes.
type Matcher interface {
	Match(n *ast.Node) bool
}

// NameMatcher also matches bare names, for allow lists and keyword keys.
type NameMatcher interface {
	Matcher
	MatchName(name string) bool
}

// Const matches everything or nothing.
type Const bool

func (c Const) Match(*ast.Node) bool { return bool(c) }

func (c Const) MatchName(string) bool { return bool(c) }

// And matches when every child matches.
type And []Matcher

func (m And) Match(n *ast.Node) bool {
	for _, c := range m {
		if !c.Match(n) {
			return false
		}
	}
	return true
}

func (m And) MatchName(name string) bool {
	for _, c := range m {
		nm, ok := c.(NameMatcher)
		if !ok || !nm.MatchName(name) {
			return false
		}
	}
	return true
}

// Or matches when any child matches.
type Or []Matcher

func (m Or) Match(n *ast.Node) bool {
	for _, c := range m {
		if c.Match(n) {
			return true
		}
	}
	return false
}

func (m Or) MatchName(name string) bool {
	for _, c := range m {
		if nm, ok := c.(NameMatcher); ok && nm.MatchName(name) {
			return true
		}
	}
	return false
}

// Not inverts its child.
type Not struct {
	M Matcher
}

func (m Not) Match(n *ast.Node) bool { return !m.M.Match(n) }

func (m Not) MatchName(name string) bool {
	nm, ok := m.M.(NameMatcher)
	return ok && !nm.MatchName(name)
}

// All combines matchers with AND, dropping nils. It returns nil when
// nothing is left, so an unset pattern key never constrains.
func All(ms ...Matcher) Matcher {
	live := compact(ms)
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return And(live)
}

// Any combines matchers with OR, dropping nils. It returns nil when
// nothing is left.
func Any(ms ...Matcher) Matcher {
	live := compact(ms)
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return Or(live)
}

func compact(ms []Matcher) []Matcher {
	out := make([]Matcher, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// OrDefault returns m, or a Const of def when m is nil.
func OrDefault(m Matcher, def bool) Matcher {
	if m == nil {
		return Const(def)
	}
	return m
}
