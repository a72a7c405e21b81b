package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/config"
)

// Compile builds the matcher for a rule or value pattern. It returns nil
// when the pattern constrains nothing; path locates the pattern in the
// configuration for error messages.
func Compile(pattern map[string]any, path string) (Matcher, error) {
	keys := make([]string, 0, len(pattern))
	for k := range pattern {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var names, nameParts, argParts, rest []Matcher
	for _, key := range keys {
		v := pattern[key]
		at := join(path, key)

		var (
			m   Matcher
			err error
		)
		switch key {
		case "name", "names":
			m, err = nameMatcher(v, at)
			if err == nil && m == nil {
				err = config.Errorf(at, "must not be empty")
			}
			names = append(names, m)
		case "match", "matches":
			m, err = regexpMatcher(v, at)
			nameParts = append(nameParts, m)
		case "has_prefix":
			m, err = affixMatcher(v, at, func(s string) NameMatcher { return Prefix(s) })
			nameParts = append(nameParts, m)
		case "has_suffix":
			m, err = affixMatcher(v, at, func(s string) NameMatcher { return Suffix(s) })
			nameParts = append(nameParts, m)
		case "has_argument", "has_arguments":
			m, err = argumentMatcher(v, at)
			argParts = append(argParts, m)
		case "at", "has_value":
			// handled together below
			continue
		case "has_receiver":
			m, err = receiverMatcher(v, at)
			rest = append(rest, m)
		case "type", "types":
			m, err = typeMatcher(v, at)
			rest = append(rest, m)
		case "path", "paths":
			m, err = pathMatcher(v, at)
			rest = append(rest, m)
		case "literal":
			m, err = CompileValue(v, at)
			rest = append(rest, m)
		case "unless", "not":
			m, err = CompileValue(v, at)
			if m != nil {
				rest = append(rest, Not{M: m})
			}
		default:
			return nil, config.Errorf(path, "unrecognized key %q", key)
		}
		if err != nil {
			return nil, err
		}
	}
	at, hasAt := pattern["at"]
	value, hasValue := pattern["has_value"]
	if hasAt || hasValue {
		m, err := positionValueMatcher(at, hasAt, value, hasValue, path)
		if err != nil {
			return nil, err
		}
		argParts = append(argParts, m)
	}

	nameMatch := Any(append(names, All(nameParts...))...)
	return All(Any(argParts...), nameMatch, All(rest...)), nil
}

// CompileValue builds a matcher for an argument or receiver value pattern.
// Strings match names, scalars match literal values and maps are full
// patterns.
func CompileValue(v any, path string) (Matcher, error) {
	switch x := v.(type) {
	case nil:
		return NewType(ast.KindNil), nil
	case bool:
		return Scalar{Value: x}, nil
	case int, int64, uint64, float64:
		return Scalar{Value: x}, nil
	case string:
		return CompileName(x, path)
	case []any:
		ms := make([]Matcher, 0, len(x))
		for i, item := range x {
			m, err := CompileValue(item, index(path, i))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		return Any(ms...), nil
	case map[string]any:
		return Compile(x, path)
	}
	return nil, config.Errorf(path, "unsupported value %v (%T)", v, v)
}

// CompileName builds a name matcher from a string, a list, or a map with
// match, has_prefix, has_suffix and unless keys. A "*" in a string matches
// any run of characters. It returns nil for an empty pattern.
func CompileName(v any, path string) (NameMatcher, error) {
	m, err := nameMatcher(v, path)
	if err != nil || m == nil {
		return nil, err
	}
	return m.(NameMatcher), nil
}

func nameMatcher(v any, path string) (Matcher, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.Contains(x, "*") {
			return NewWildcard(x), nil
		}
		return NewNames(x), nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return nameMatcher(items, path)
	case []any:
		var exact []string
		var ms []Matcher
		for i, item := range x {
			if s, ok := item.(string); ok && !strings.Contains(s, "*") {
				exact = append(exact, s)
				continue
			}
			m, err := nameMatcher(item, index(path, i))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		if len(exact) > 0 {
			ms = append([]Matcher{NewNames(exact...)}, ms...)
		}
		return Any(ms...), nil
	case map[string]any:
		return nameMap(x, path)
	}
	return nil, config.Errorf(path, "expected a name, list or map, got %v (%T)", v, v)
}

func nameMap(pattern map[string]any, path string) (Matcher, error) {
	keys := make([]string, 0, len(pattern))
	for k := range pattern {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var names, parts, unless []Matcher
	for _, key := range keys {
		v := pattern[key]
		at := join(path, key)

		var (
			m   Matcher
			err error
		)
		switch key {
		case "name", "names":
			m, err = nameMatcher(v, at)
			names = append(names, m)
		case "match", "matches":
			m, err = regexpMatcher(v, at)
			parts = append(parts, m)
		case "has_prefix":
			m, err = affixMatcher(v, at, func(s string) NameMatcher { return Prefix(s) })
			parts = append(parts, m)
		case "has_suffix":
			m, err = affixMatcher(v, at, func(s string) NameMatcher { return Suffix(s) })
			parts = append(parts, m)
		case "unless", "not":
			m, err = nameMatcher(v, at)
			if m != nil {
				unless = append(unless, Not{M: m})
			}
		default:
			return nil, config.Errorf(path, "unrecognized key %q for a name pattern", key)
		}
		if err != nil {
			return nil, err
		}
	}

	return All(Any(append(names, All(parts...))...), All(unless...)), nil
}

func regexpMatcher(v any, path string) (Matcher, error) {
	return eachString(v, path, func(s, at string) (Matcher, error) {
		m, err := NewPattern(s)
		if err != nil {
			return nil, &config.ConfigurationError{Path: at, Msg: "invalid regular expression", Err: err}
		}
		return m, nil
	})
}

func affixMatcher(v any, path string, build func(string) NameMatcher) (Matcher, error) {
	return eachString(v, path, func(s, _ string) (Matcher, error) {
		return build(s), nil
	})
}

func eachString(v any, path string, build func(s, at string) (Matcher, error)) (Matcher, error) {
	switch x := v.(type) {
	case string:
		return build(x, path)
	case []any:
		ms := make([]Matcher, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, config.Errorf(index(path, i), "expected a string, got %v", item)
			}
			m, err := build(s, index(path, i))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		return Any(ms...), nil
	}
	return nil, config.Errorf(path, "expected a string or list of strings, got %v", v)
}

func argumentMatcher(v any, path string) (Matcher, error) {
	switch x := v.(type) {
	case string:
		return keywordMatcher(x, nil, path)
	case []any:
		ms := make([]Matcher, 0, len(x))
		for i, item := range x {
			m, err := argumentMatcher(item, index(path, i))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		return Any(ms...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var unless Matcher
		for _, key := range keys {
			switch key {
			case "at", "has_value":
			case "unless", "not":
				m, err := argumentMatcher(x[key], join(path, key))
				if err != nil {
					return nil, err
				}
				if m != nil {
					unless = Not{M: m}
				}
			default:
				return nil, config.Errorf(path, "unrecognized key %q for has_argument", key)
			}
		}
		at, hasAt := x["at"]
		value, hasValue := x["has_value"]
		var m Matcher
		if hasAt || hasValue {
			var err error
			m, err = positionValueMatcher(at, hasAt, value, hasValue, path)
			if err != nil {
				return nil, err
			}
		}
		return All(m, unless), nil
	}

	if _, ok := toInt(v); ok {
		return positionMatcher(v, nil, path)
	}
	return nil, config.Errorf(path, "expected a position, keyword, list or map, got %v", v)
}

// positionValueMatcher handles {at:, has_value:}. With no position the
// value may be any positional argument.
func positionValueMatcher(at any, hasAt bool, value any, hasValue bool, path string) (Matcher, error) {
	var valueMatcher Matcher
	if hasValue {
		var err error
		valueMatcher, err = CompileValue(value, join(path, "has_value"))
		if err != nil {
			return nil, err
		}
	}
	if !hasAt {
		return AnyPositional{Value: valueMatcher}, nil
	}
	return positionMatcher(at, valueMatcher, join(path, "at"))
}

func positionMatcher(at any, value Matcher, path string) (Matcher, error) {
	switch x := at.(type) {
	case string:
		return keywordMatcher(x, value, path)
	case []any:
		ms := make([]Matcher, 0, len(x))
		for i, item := range x {
			m, err := positionMatcher(item, value, index(path, i))
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		return Any(ms...), nil
	}
	pos, ok := toInt(at)
	if !ok {
		return nil, config.Errorf(path, "expected a position or keyword, got %v", at)
	}
	if pos < 1 {
		return nil, config.Errorf(path, "positions start at 1, got %d", pos)
	}
	return Positional{Index: pos - 1, Value: value}, nil
}

func keywordMatcher(key string, value Matcher, path string) (Matcher, error) {
	var pair Matcher
	if value != nil {
		pair = PairValue{Value: value}
	}
	switch key {
	case "*":
		return AnyPositional{Value: value}, nil
	case "**":
		return Keyword{Pair: OrDefault(pair, true)}, nil
	}
	name, err := CompileName(key, path)
	if err != nil {
		return nil, err
	}
	return Keyword{Pair: All(name, pair)}, nil
}

func receiverMatcher(v any, path string) (Matcher, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return Receiver{}, nil
		}
		return Not{M: Receiver{}}, nil
	case nil:
		return nil, nil
	}
	m, err := CompileValue(v, path)
	if err != nil {
		return nil, err
	}
	return Receiver{Value: m}, nil
}

var typeKinds = map[string][]ast.Kind{
	"Symbol":   {ast.KindSym},
	"String":   {ast.KindStr},
	"Integer":  {ast.KindInt},
	"Float":    {ast.KindFloat},
	"Array":    {ast.KindArray},
	"Hash":     {ast.KindHash},
	"Nil":      {ast.KindNil},
	"Boolean":  {ast.KindTrue, ast.KindFalse},
	"Method":   {ast.KindSend, ast.KindCSend, ast.KindIdent, ast.KindDef, ast.KindDefs},
	"Constant": {ast.KindConst, ast.KindClass, ast.KindModule, ast.KindCasgn},
}

// KindsOf returns the node kinds a type pattern can match, or nil when the
// pattern is not a known type name or list of them.
func KindsOf(v any) []ast.Kind {
	var kinds []ast.Kind
	_, err := eachString(v, "", func(s, _ string) (Matcher, error) {
		if s == "Proc" {
			kinds = append(kinds, ast.KindBlock, ast.KindBlockPass, ast.KindSend)
			return Const(true), nil
		}
		k, ok := typeKinds[s]
		if !ok {
			return nil, config.Errorf("", "unknown type %q", s)
		}
		kinds = append(kinds, k...)
		return Const(true), nil
	})
	if err != nil {
		return nil
	}
	return kinds
}

func typeMatcher(v any, path string) (Matcher, error) {
	var kinds []ast.Kind
	proc := false
	_, err := eachString(v, path, func(s, at string) (Matcher, error) {
		if s == "Proc" {
			proc = true
			return Const(true), nil
		}
		k, ok := typeKinds[s]
		if !ok {
			return nil, config.Errorf(at, "unknown type %q", s)
		}
		kinds = append(kinds, k...)
		return Const(true), nil
	})
	if err != nil {
		return nil, err
	}
	var ms []Matcher
	if len(kinds) > 0 {
		ms = append(ms, NewType(kinds...))
	}
	if proc {
		ms = append(ms, Proc{})
	}
	return Any(ms...), nil
}

func pathMatcher(v any, path string) (Matcher, error) {
	var patterns []string
	_, err := eachString(v, path, func(s, _ string) (Matcher, error) {
		patterns = append(patterns, s)
		return Const(true), nil
	})
	if err != nil {
		return nil, err
	}
	return NewPath(patterns...), nil
}

// toInt accepts the integer shapes YAML, JSON and TOML decoders produce.
func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
