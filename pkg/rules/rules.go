// Package rules compiles the merged configuration into the immutable rule
// set shared by every collection.
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/matcher"
	"github.com/kamoh/leftovers/pkg/processor"
)

// Rule is one compiled dynamic rule. Calls and Defines may be nil.
type Rule struct {
	Index   int
	Matcher matcher.Matcher
	Calls   processor.Processor
	Defines processor.Processor
}

// RuleSet holds the compiled rules, indexed by the node kinds they apply
// to, and the name allow lists.
type RuleSet struct {
	byKind   [ast.KindCount][]*Rule
	keep     matcher.NameMatcher
	testOnly matcher.NameMatcher
	rules    []*Rule
	hash     uint64
}

// defaultKinds are the kinds a rule without a type key applies to. A bare
// identifier that is not a local is a call too.
var defaultKinds = []ast.Kind{ast.KindSend, ast.KindCSend, ast.KindIdent}

// Build compiles cfg. All configuration errors surface here, before any
// file is read.
func Build(cfg *config.Config) (*RuleSet, error) {
	rs := &RuleSet{}

	var err error
	if rs.keep, err = matcher.CompileName(cfg.Keep, "keep"); err != nil {
		return nil, err
	}
	if rs.testOnly, err = matcher.CompileName(cfg.TestOnly, "test_only"); err != nil {
		return nil, err
	}

	for i, raw := range cfg.Dynamic {
		path := fmt.Sprintf("dynamic[%d]", i)
		desc, ok := raw.(map[string]any)
		if !ok {
			return nil, config.Errorf(path, "expected a rule map, got %v", raw)
		}
		rule, err := compileRule(i, desc, path)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, rule)

		kinds := defaultKinds
		if t, ok := typeKey(desc); ok {
			kinds = matcher.KindsOf(t)
		}
		for _, k := range uniqueKinds(kinds) {
			rs.byKind[k] = append(rs.byKind[k], rule)
		}
	}

	rs.hash, err = fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func compileRule(i int, desc map[string]any, path string) (*Rule, error) {
	pattern := make(map[string]any, len(desc))
	rule := &Rule{Index: i}
	for k, v := range desc {
		var err error
		switch k {
		case "calls":
			rule.Calls, err = processor.Calls(v, path+".calls")
		case "defines":
			rule.Defines, err = processor.Definitions(v, path+".defines")
		default:
			pattern[k] = v
		}
		if err != nil {
			return nil, err
		}
	}
	if rule.Calls == nil && rule.Defines == nil {
		return nil, config.Errorf(path, "needs calls or defines")
	}

	m, err := matcher.Compile(pattern, path)
	if err != nil {
		return nil, err
	}
	rule.Matcher = matcher.OrDefault(m, true)
	return rule, nil
}

func typeKey(desc map[string]any) (any, bool) {
	if t, ok := desc["type"]; ok {
		return t, true
	}
	t, ok := desc["types"]
	return t, ok
}

func uniqueKinds(kinds []ast.Kind) []ast.Kind {
	var seen [ast.KindCount]bool
	out := kinds[:0:0]
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// For returns the rules that may match a node of kind k, in configuration
// order.
func (rs *RuleSet) For(k ast.Kind) []*Rule {
	if int(k) >= len(rs.byKind) {
		return nil
	}
	return rs.byKind[k]
}

// Len is the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Keep reports whether name is always considered used.
func (rs *RuleSet) Keep(name string) bool {
	return rs.keep != nil && rs.keep.MatchName(name)
}

// TestOnly reports whether name may be used only from tests without being
// reported.
func (rs *RuleSet) TestOnly(name string) bool {
	return rs.testOnly != nil && rs.testOnly.MatchName(name)
}

// Fingerprint identifies the configuration the rules were built from, for
// cache invalidation.
func (rs *RuleSet) Fingerprint() string {
	return strconv.FormatUint(rs.hash, 16)
}

func fingerprint(cfg *config.Config) (uint64, error) {
	data, err := json.Marshal(struct {
		TestPaths []string `json:"test_paths"`
		Keep      []any    `json:"keep"`
		TestOnly  []any    `json:"test_only"`
		Dynamic   []any    `json:"dynamic"`
	}{cfg.TestPaths, cfg.Keep, cfg.TestOnly, cfg.Dynamic})
	if err != nil {
		return 0, fmt.Errorf("fingerprinting rules: %w", err)
	}
	return xxhash.Sum64(data), nil
}
