package matcher

import (
	"regexp"
	"strings"

	"github.com/kamoh/leftovers/pkg/ast"
)

// Names matches an exact set of names.
type Names map[string]struct{}

// NewNames builds a Names matcher.
func NewNames(names ...string) Names {
	m := make(Names, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func (m Names) Match(n *ast.Node) bool { return matchNode(m, n) }

func (m Names) MatchName(name string) bool {
	_, ok := m[name]
	return ok
}

// Pattern matches names against an anchored regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr so that it must match the whole name.
func NewPattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(`\A(?:` + expr + `)\z`)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re}, nil
}

// NewWildcard builds a Pattern where * matches any run of characters.
func NewWildcard(glob string) *Pattern {
	parts := strings.Split(glob, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return &Pattern{re: regexp.MustCompile(`\A` + strings.Join(parts, ".*") + `\z`)}
}

func (m *Pattern) Match(n *ast.Node) bool { return matchNode(m, n) }

func (m *Pattern) MatchName(name string) bool { return m.re.MatchString(name) }

// Prefix matches names starting with a prefix.
type Prefix string

func (m Prefix) Match(n *ast.Node) bool { return matchNode(m, n) }

func (m Prefix) MatchName(name string) bool { return strings.HasPrefix(name, string(m)) }

// Suffix matches names ending with a suffix.
type Suffix string

func (m Suffix) Match(n *ast.Node) bool { return matchNode(m, n) }

func (m Suffix) MatchName(name string) bool { return strings.HasSuffix(name, string(m)) }

func matchNode(m NameMatcher, n *ast.Node) bool {
	name, ok := n.NodeName()
	return ok && m.MatchName(name)
}
