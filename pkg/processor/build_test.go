package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/config"
)

type recorder struct {
	calls []string
	defs  []string
	nodes []*ast.Node
}

func (r *recorder) AddCall(name string, _ *ast.Node) {
	r.calls = append(r.calls, name)
}

func (r *recorder) AddDefinition(name string, node *ast.Node, dynamic bool) {
	if dynamic {
		name += " (dynamic)"
	}
	r.defs = append(r.defs, name)
	r.nodes = append(r.nodes, node)
}

func sym(s string) *ast.Node { return &ast.Node{Kind: ast.KindSym, Text: s} }
func str(s string) *ast.Node { return &ast.Node{Kind: ast.KindStr, Text: s} }

func pair(key string, value *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindPair, Target: sym(key), Right: value}
}

func send(name string, args ...*ast.Node) *ast.Node {
	n := &ast.Node{Kind: ast.KindSend, Name: name}
	for _, a := range args {
		if a.Kind == ast.KindPair {
			n.Kwargs = append(n.Kwargs, a)
			continue
		}
		n.Args = append(n.Args, a)
	}
	return n
}

func run(t *testing.T, p Processor, call *ast.Node) *recorder {
	t.Helper()
	r := &recorder{}
	p.Process(Value{}, call, call, r)
	return r
}

func TestDefinitionsAttrAccessor(t *testing.T) {
	p, err := Definitions(map[string]any{
		"arguments":  "*",
		"transforms": []any{"original", map[string]any{"add_suffix": "="}},
	}, "defines")
	require.NoError(t, err)

	foo := sym("foo")
	r := run(t, p, send("attr_accessor", foo, sym("bar")))

	assert.Equal(t, []string{"foo", "foo=", "bar", "bar="}, r.defs)
	assert.Same(t, foo, r.nodes[0])
	assert.Same(t, foo, r.nodes[1])
}

func TestCallsSources(t *testing.T) {
	tests := []struct {
		name string
		desc any
		call *ast.Node
		want []string
	}{
		{
			name: "bare position",
			desc: 1,
			call: send("send", sym("foo"), sym("bar")),
			want: []string{"foo"},
		},
		{
			name: "positions list",
			desc: map[string]any{"arguments": []any{1, 2}},
			call: send("x", sym("a"), sym("b"), sym("c")),
			want: []string{"a", "b"},
		},
		{
			name: "array argument",
			desc: map[string]any{"arguments": 1},
			call: send("x", &ast.Node{Kind: ast.KindArray, Body: []*ast.Node{sym("a"), str("b")}}),
			want: []string{"a", "b"},
		},
		{
			name: "keyword argument",
			desc: map[string]any{"arguments": "to"},
			call: send("delegate", sym("name"), pair("to", sym("author"))),
			want: []string{"author"},
		},
		{
			name: "keywords pattern",
			desc: map[string]any{"keywords": map[string]any{"unless": "if"}},
			call: send("x", pair("if", sym("a")), pair("on", sym("b"))),
			want: []string{"b"},
		},
		{
			name: "all keyword values",
			desc: map[string]any{"arguments": "**"},
			call: send("x", sym("skip"), pair("a", sym("b"))),
			want: []string{"b"},
		},
		{
			name: "keys",
			desc: map[string]any{"keys": true},
			call: send("validates", sym("name"), pair("presence", &ast.Node{Kind: ast.KindTrue})),
			want: []string{"presence"},
		},
		{
			name: "keys of positional hash",
			desc: map[string]any{"keys": true},
			call: send("new", &ast.Node{Kind: ast.KindHash, Body: []*ast.Node{pair("name", str("x"))}}),
			want: []string{"name"},
		},
		{
			name: "itself",
			desc: map[string]any{"itself": true, "delete_suffix": "_path"},
			call: send("user_path"),
			want: []string{"user"},
		},
		{
			name: "fixed value",
			desc: map[string]any{"value": []any{"a", "b"}},
			call: send("x"),
			want: []string{"a", "b"},
		},
		{
			name: "receiver",
			desc: map[string]any{"receiver": true},
			call: &ast.Node{Kind: ast.KindSend, Name: "new", Receiver: &ast.Node{Kind: ast.KindConst, Name: "User"}},
			want: []string{"User"},
		},
		{
			name: "several sources",
			desc: map[string]any{"arguments": 1, "keywords": "if"},
			call: send("before_save", sym("a"), pair("if", sym("b"))),
			want: []string{"a", "b"},
		},
		{
			name: "namespaced constant",
			desc: map[string]any{"arguments": "class_name"},
			call: send("has_many", sym("things"), pair("class_name", str("Which::Ever"))),
			want: []string{"Which", "Ever"},
		},
		{
			name: "dynamic values are not calls",
			desc: 1,
			call: send("send", &ast.Node{Kind: ast.KindDsym, Body: []*ast.Node{str("find_"), {Kind: ast.KindIdent, Name: "x"}}}),
			want: nil,
		},
		{
			name: "non literal argument",
			desc: 1,
			call: send("send", &ast.Node{Kind: ast.KindIdent, Name: "x"}),
			want: nil,
		},
		{
			name: "if_value",
			desc: map[string]any{"arguments": "*", "if_value": map[string]any{"type": "Symbol"}},
			call: send("x", sym("a"), str("b")),
			want: []string{"a"},
		},
		{
			name: "unless_value",
			desc: map[string]any{"arguments": "*", "unless_value": "b"},
			call: send("x", sym("a"), sym("b")),
			want: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Calls(tt.desc, "calls")
			require.NoError(t, err)
			assert.Equal(t, tt.want, run(t, p, tt.call).calls)
		})
	}
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name string
		desc map[string]any
		in   string
		want []string
	}{
		{"split", map[string]any{"split": "#"}, "users#index", []string{"users", "index"}},
		{"delete_before", map[string]any{"delete_before": "#"}, "users#index", []string{"index"}},
		{"delete_before missing", map[string]any{"delete_before": "#"}, "index", nil},
		{"delete_after", map[string]any{"delete_after": "#"}, "users#index", []string{"users"}},
		{"delete_after missing", map[string]any{"delete_after": "#"}, "users", []string{"users"}},
		{"prefix and suffix", map[string]any{"delete_prefix": "be_", "add_suffix": "?"}, "be_valid", []string{"valid?"}},
		{"camelize", map[string]any{"camelize": true, "add_suffix": "Controller"}, "admin/users", []string{"Admin::UsersController"}},
		{"pluralize", map[string]any{"pluralize": true}, "person", []string{"people"}},
		{"singularize", map[string]any{"singularize": true, "add_suffix": "_ids"}, "comments", []string{"comment_ids"}},
		{"order", map[string]any{"add_prefix": "x_", "upcase": true}, "a", []string{"x_A"}},
		{"placeholder", map[string]any{"placeholder": "will_save_change_to_*?"}, "name", []string{"will_save_change_to_name?"}},
		{"replace_with", map[string]any{"replace_with": "fixed"}, "a", []string{"fixed"}},
		{"disabled flag", map[string]any{"upcase": false}, "a", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := map[string]any{"arguments": 1}
			for k, v := range tt.desc {
				desc[k] = v
			}
			p, err := Definitions(desc, "defines")
			require.NoError(t, err)
			assert.Equal(t, tt.want, run(t, p, send("x", str(tt.in))).defs)
		})
	}
}

func TestArgumentAffix(t *testing.T) {
	p, err := Calls(map[string]any{
		"arguments":  "*",
		"add_prefix": map[string]any{"from_argument": "prefix", "joiner": "_"},
	}, "calls")
	require.NoError(t, err)

	r := run(t, p, send("delegate", sym("name"), pair("prefix", sym("author"))))
	assert.Equal(t, []string{"author_name"}, r.calls)

	r = run(t, p, send("delegate", sym("name")))
	assert.Equal(t, []string{"name"}, r.calls)
}

func TestDynamicDefinitions(t *testing.T) {
	p, err := Definitions(map[string]any{"arguments": 1, "add_suffix": "?"}, "defines")
	require.NoError(t, err)

	dsym := &ast.Node{Kind: ast.KindDsym, Body: []*ast.Node{str("has_"), {Kind: ast.KindIdent, Name: "x"}}}
	r := run(t, p, send("define_method", dsym))
	assert.Equal(t, []string{"has_*? (dynamic)"}, r.defs)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		desc any
		path string
	}{
		{"no source", map[string]any{"add_suffix": "="}, "calls"},
		{"unknown key", map[string]any{"arguments": 1, "bogus": true}, "calls"},
		{"bad position", map[string]any{"arguments": 0}, "calls.arguments"},
		{"bad flag", map[string]any{"arguments": 1, "camelize": "yes"}, "calls.camelize"},
		{"bad transform", map[string]any{"arguments": 1, "transforms": []any{"reverse"}}, "calls.transforms[0]"},
		{"bad affix", map[string]any{"arguments": 1, "add_prefix": map[string]any{"joiner": "_"}}, "calls.add_prefix"},
		{"bad itself", map[string]any{"itself": "yes"}, "calls.itself"},
		{"empty", nil, "calls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calls(tt.desc, "calls")
			require.Error(t, err)

			var cerr *config.ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}
