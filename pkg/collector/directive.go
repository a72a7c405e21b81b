package collector

import (
	"regexp"
	"strings"

	"github.com/kamoh/leftovers/pkg/ast"
)

// directiveRe matches `leftovers:allow a, b` style comments. The names are
// optional; without them the directive applies to what is defined on the
// comment's line.
var directiveRe = regexp.MustCompile(`leftovers:(allow|keep|test_only|test|dynamic)\b([^#]*)`)

type directive struct {
	kind  string
	names []string
	line  int
}

func parseDirectives(comments []ast.Comment) []directive {
	var out []directive
	for _, cm := range comments {
		for _, m := range directiveRe.FindAllStringSubmatch(cm.Text, -1) {
			kind := m[1]
			switch kind {
			case "keep":
				kind = "allow"
			case "test":
				kind = "test_only"
			}
			out = append(out, directive{
				kind:  kind,
				names: splitNames(m[2]),
				line:  cm.Loc.Line,
			})
		}
	}
	return out
}

func splitNames(s string) []string {
	s = strings.TrimPrefix(strings.TrimSpace(s), ":")
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// applyDirectives turns comment directives into synthetic calls, or marks
// definitions on the directive's line as dynamic.
func (c *collector) applyDirectives(comments []ast.Comment) {
	for _, d := range parseDirectives(comments) {
		names := d.names
		if len(names) == 0 {
			names = c.namesOnLine(d.line)
		}

		switch d.kind {
		case "allow":
			for _, name := range names {
				c.calls[name] = struct{}{}
			}
		case "test_only":
			for _, name := range names {
				c.testCalls[name] = struct{}{}
			}
		case "dynamic":
			c.markDynamic(d.line, names)
		}
	}
}

func (c *collector) namesOnLine(line int) []string {
	var names []string
	for _, set := range c.defs {
		for _, d := range set.Definitions {
			if d.Location.Line == line {
				names = append(names, d.Name)
			}
		}
	}
	return names
}

func (c *collector) markDynamic(line int, names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for i := range c.defs {
		for j := range c.defs[i].Definitions {
			d := &c.defs[i].Definitions[j]
			if d.Location.Line == line && want[d.Name] {
				d.Dynamic = true
			}
		}
	}
}
