package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/inflect"
	"github.com/kamoh/leftovers/pkg/matcher"
)

// Calls builds the processor for a calls description.
func Calls(desc any, path string) (Processor, error) {
	return Build(desc, AddCall{}, path)
}

// Definitions builds the processor for a defines description.
func Definitions(desc any, path string) (Processor, error) {
	return Build(desc, AddDefinition{}, path)
}

// Build compiles a processor description ending in terminal. A description
// is a map of sources and transforms, a list of descriptions, or a bare
// argument position or keyword name.
func Build(desc any, terminal Processor, path string) (Processor, error) {
	switch d := desc.(type) {
	case []any:
		var fork Fork
		for i, item := range d {
			p, err := Build(item, terminal, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			fork = append(fork, p)
		}
		if len(fork) == 1 {
			return fork[0], nil
		}
		return fork, nil
	case map[string]any:
		return buildMap(d, terminal, path)
	case nil:
		return nil, config.Errorf(path, "must not be empty")
	}
	return buildMap(map[string]any{"arguments": desc}, terminal, path)
}

var sourceKeys = map[string]bool{
	"argument": true, "arguments": true,
	"keyword": true, "keywords": true,
	"key": true, "keys": true,
	"itself": true, "value": true, "receiver": true,
}

func buildMap(desc map[string]any, terminal Processor, path string) (Processor, error) {
	keys := make([]string, 0, len(desc))
	for k := range desc {
		if _, known := transformKeys[k]; !known && !sourceKeys[k] {
			switch k {
			case "transforms", "if_value", "unless_value":
			default:
				return nil, config.Errorf(path, "unrecognized key %q", k)
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := terminal
	if list, ok := desc["transforms"]; ok {
		fork, err := buildTransforms(list, next, join(path, "transforms"))
		if err != nil {
			return nil, err
		}
		next = fork
	}

	next, err := chain(desc, next, path)
	if err != nil {
		return nil, err
	}

	if v, ok := desc["unless_value"]; ok {
		m, err := matcher.CompileValue(v, join(path, "unless_value"))
		if err != nil {
			return nil, err
		}
		next = IfMatcher{M: m, Negate: true, Then: next}
	}
	if v, ok := desc["if_value"]; ok {
		m, err := matcher.CompileValue(v, join(path, "if_value"))
		if err != nil {
			return nil, err
		}
		next = IfMatcher{M: m, Then: next}
	}

	var sources Fork
	for _, key := range keys {
		if !sourceKeys[key] {
			continue
		}
		s, err := source(key, desc[key], next, join(path, key))
		if err != nil {
			return nil, err
		}
		sources = append(sources, s...)
	}
	switch len(sources) {
	case 0:
		return nil, config.Errorf(path, "needs one of arguments, keywords, keys, itself, value or receiver")
	case 1:
		return sources[0], nil
	}
	return sources, nil
}

func source(key string, v any, next Processor, path string) ([]Processor, error) {
	switch key {
	case "argument", "arguments":
		return arguments(v, next, path)
	case "keyword", "keywords":
		m, err := keywordMatcher(v, path)
		if err != nil {
			return nil, err
		}
		return []Processor{Keywords{Match: m, Then: next}}, nil
	case "key", "keys":
		if b, ok := v.(bool); ok {
			if !b {
				return nil, nil
			}
			return []Processor{Keys{Then: next}}, nil
		}
		m, err := keywordMatcher(v, path)
		if err != nil {
			return nil, err
		}
		return []Processor{Keys{Match: m, Then: next}}, nil
	case "itself", "receiver":
		b, ok := v.(bool)
		if !ok {
			return nil, config.Errorf(path, "expected true or false, got %v", v)
		}
		if !b {
			return nil, nil
		}
		if key == "itself" {
			return []Processor{Itself{Then: next}}, nil
		}
		return []Processor{Receiver{Then: next}}, nil
	case "value":
		var out []Processor
		err := eachString(v, path, func(s, _ string) error {
			out = append(out, Fixed{Text: s, Then: next})
			return nil
		})
		return out, err
	}
	return nil, config.Errorf(path, "unknown source")
}

func arguments(v any, next Processor, path string) ([]Processor, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []Processor
	var keywords []any
	for i, item := range items {
		at := path
		if len(items) > 1 {
			at = fmt.Sprintf("%s[%d]", path, i)
		}
		switch x := item.(type) {
		case string:
			switch x {
			case "*":
				out = append(out, Positional{All: true, Then: next})
			case "**":
				out = append(out, Keywords{Then: next})
			default:
				keywords = append(keywords, x)
			}
			continue
		case map[string]any:
			keywords = append(keywords, x)
			continue
		}
		pos, ok := toInt(item)
		if !ok || pos < 1 {
			return nil, config.Errorf(at, "expected a position from 1, a keyword or '*', got %v", item)
		}
		out = append(out, Positional{Index: pos - 1, Then: next})
	}
	if len(keywords) > 0 {
		m, err := matcher.CompileName(keywords, path)
		if err != nil {
			return nil, err
		}
		out = append(out, Keywords{Match: m, Then: next})
	}
	return out, nil
}

func keywordMatcher(v any, path string) (matcher.NameMatcher, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return nil, nil
		}
		return nil, config.Errorf(path, "expected a name pattern or true")
	case string:
		if x == "**" {
			return nil, nil
		}
	}
	m, err := matcher.CompileName(v, path)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, config.Errorf(path, "must not be empty")
	}
	return m, nil
}

// transformOrder lists the transforms in the order they apply.
var transformOrder = []string{
	"split", "delete_before", "delete_after", "delete_prefix", "delete_suffix",
	"downcase", "upcase", "capitalize", "swapcase", "camelize", "underscore",
	"titleize", "demodulize", "deconstantize", "parameterize", "pluralize",
	"singularize", "placeholder", "add_prefix", "add_suffix", "replace_with",
}

type transformBuilder func(v any, next Processor, path string) (Processor, error)

var transformKeys = map[string]transformBuilder{
	"split": stringArg(func(sep string, next Processor) Processor {
		return Split{Sep: sep, Then: next}
	}),
	"delete_before": stringArg(func(sep string, next Processor) Processor {
		return Transform{Fn: func(s string) (string, bool) {
			_, after, found := strings.Cut(s, sep)
			return after, found
		}, Then: next}
	}),
	"delete_after": stringArg(func(sep string, next Processor) Processor {
		return Transform{Fn: func(s string) (string, bool) {
			before, _, _ := strings.Cut(s, sep)
			return before, true
		}, Then: next}
	}),
	"delete_prefix": stringArg(func(prefix string, next Processor) Processor {
		return Transform{Fn: func(s string) (string, bool) {
			return strings.TrimPrefix(s, prefix), true
		}, Then: next}
	}),
	"delete_suffix": stringArg(func(suffix string, next Processor) Processor {
		return Transform{Fn: func(s string) (string, bool) {
			return strings.TrimSuffix(s, suffix), true
		}, Then: next}
	}),
	"downcase":      flag(strings.ToLower),
	"upcase":        flag(strings.ToUpper),
	"capitalize":    flag(inflect.Capitalize),
	"swapcase":      flag(inflect.Swapcase),
	"camelize":      flag(inflect.Camelize),
	"underscore":    flag(inflect.Underscore),
	"titleize":      flag(inflect.Titleize),
	"demodulize":    flag(inflect.Demodulize),
	"deconstantize": flag(inflect.Deconstantize),
	"parameterize": flag(func(s string) string {
		return inflect.Parameterize(s, "-")
	}),
	"pluralize":    flag(inflect.Pluralize),
	"singularize":  flag(inflect.Singularize),
	"placeholder": stringArg(func(template string, next Processor) Processor {
		return Transform{Fn: func(s string) (string, bool) {
			return strings.ReplaceAll(template, "*", s), true
		}, Then: next}
	}),
	"add_prefix":   affix(false),
	"add_suffix":   affix(true),
	"replace_with": stringArg(func(text string, next Processor) Processor {
		return Transform{Fn: func(string) (string, bool) { return text, true }, Then: next}
	}),
}

// chain wraps next in the transforms named in desc.
func chain(desc map[string]any, next Processor, path string) (Processor, error) {
	for i := len(transformOrder) - 1; i >= 0; i-- {
		key := transformOrder[i]
		v, ok := desc[key]
		if !ok {
			continue
		}
		p, err := transformKeys[key](v, next, join(path, key))
		if err != nil {
			return nil, err
		}
		next = p
	}
	return next, nil
}

// buildTransforms builds the branches of a transforms list. Each entry is
// "original", a transform name, or a map of transforms.
func buildTransforms(v any, next Processor, path string) (Processor, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var fork Fork
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch x := item.(type) {
		case string:
			if x == "original" {
				fork = append(fork, next)
				continue
			}
			if _, known := transformKeys[x]; !known {
				return nil, config.Errorf(at, "unknown transform %q", x)
			}
			p, err := chain(map[string]any{x: true}, next, at)
			if err != nil {
				return nil, err
			}
			fork = append(fork, p)
		case map[string]any:
			for k := range x {
				if _, known := transformKeys[k]; !known {
					return nil, config.Errorf(at, "unknown transform %q", k)
				}
			}
			p, err := chain(x, next, at)
			if err != nil {
				return nil, err
			}
			fork = append(fork, p)
		default:
			return nil, config.Errorf(at, "expected a transform name or map, got %v", item)
		}
	}
	return fork, nil
}

func flag(fn func(string) string) transformBuilder {
	return func(v any, next Processor, path string) (Processor, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, config.Errorf(path, "expected true or false, got %v", v)
		}
		if !b {
			return next, nil
		}
		return Transform{Fn: func(s string) (string, bool) { return fn(s), true }, Then: next}, nil
	}
}

func stringArg(build func(string, Processor) Processor) transformBuilder {
	return func(v any, next Processor, path string) (Processor, error) {
		s, ok := v.(string)
		if !ok {
			return nil, config.Errorf(path, "expected a string, got %v", v)
		}
		return build(s, next), nil
	}
}

func affix(suffix bool) transformBuilder {
	return func(v any, next Processor, path string) (Processor, error) {
		switch x := v.(type) {
		case string:
			return Transform{Fn: func(s string) (string, bool) {
				if suffix {
					return s + x, true
				}
				return x + s, true
			}, Then: next}, nil
		case map[string]any:
			kw, ok := x["from_argument"].(string)
			if !ok || kw == "" {
				return nil, config.Errorf(path, "from_argument must name a keyword argument")
			}
			joiner := ""
			if j, ok := x["joiner"]; ok {
				if joiner, ok = j.(string); !ok {
					return nil, config.Errorf(join(path, "joiner"), "expected a string, got %v", j)
				}
			}
			for k := range x {
				if k != "from_argument" && k != "joiner" {
					return nil, config.Errorf(path, "unrecognized key %q", k)
				}
			}
			return ArgumentAffix{Keyword: kw, Joiner: joiner, Suffix: suffix, Then: next}, nil
		}
		return nil, config.Errorf(path, "expected a string or {from_argument, joiner}, got %v", v)
	}
}

func eachString(v any, path string, fn func(s, at string) error) error {
	switch x := v.(type) {
	case string:
		return fn(x, path)
	case []any:
		for i, item := range x {
			at := fmt.Sprintf("%s[%d]", path, i)
			s, ok := item.(string)
			if !ok {
				return config.Errorf(at, "expected a string, got %v", item)
			}
			if err := fn(s, at); err != nil {
				return err
			}
		}
		return nil
	}
	return config.Errorf(path, "expected a string or list of strings, got %v", v)
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
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
