package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/config"
)

func sym(s string) *ast.Node { return &ast.Node{Kind: ast.KindSym, Text: s} }
func str(s string) *ast.Node { return &ast.Node{Kind: ast.KindStr, Text: s} }
func integer(s string) *ast.Node { return &ast.Node{Kind: ast.KindInt, Text: s} }

func pair(key string, value *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindPair, Target: sym(key), Right: value}
}

func send(name string, args ...*ast.Node) *ast.Node {
	n := &ast.Node{Kind: ast.KindSend, Name: name, Loc: ast.Location{Path: "app/models/user.rb", Line: 1}}
	for _, a := range args {
		if a.Kind == ast.KindPair {
			n.Kwargs = append(n.Kwargs, a)
			continue
		}
		n.Args = append(n.Args, a)
	}
	return n
}

func compile(t *testing.T, pattern map[string]any) Matcher {
	t.Helper()
	m, err := Compile(pattern, "dynamic[0]")
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func TestCompileEmpty(t *testing.T) {
	m, err := Compile(map[string]any{}, "")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.True(t, OrDefault(m, true).Match(send("anything")))
}

func TestCompileNames(t *testing.T) {
	m := compile(t, map[string]any{"names": []any{"attr_reader", "attr_*"}})

	assert.True(t, m.Match(send("attr_reader")))
	assert.True(t, m.Match(send("attr_writer")))
	assert.False(t, m.Match(send("has_many")))
}

func TestCompileNameParts(t *testing.T) {
	m := compile(t, map[string]any{"has_prefix": "find_by_", "has_suffix": "!"})

	assert.True(t, m.Match(send("find_by_name!")))
	assert.False(t, m.Match(send("find_by_name")))
	assert.False(t, m.Match(send("save!")))
}

func TestCompileMatch(t *testing.T) {
	m := compile(t, map[string]any{"match": "validates?_\\w+"})

	assert.True(t, m.Match(send("validates_presence_of")))
	assert.True(t, m.Match(send("validate_user")))
	assert.False(t, m.Match(send("xvalidates_presence_of")))
}

func TestCompileNamesOrParts(t *testing.T) {
	m := compile(t, map[string]any{"names": "send", "has_prefix": "public_"})

	assert.True(t, m.Match(send("send")))
	assert.True(t, m.Match(send("public_send")))
	assert.False(t, m.Match(send("__send__")))
}

func TestCompileHasArgument(t *testing.T) {
	tests := []struct {
		name    string
		pattern map[string]any
		node    *ast.Node
		want    bool
	}{
		{"position present", map[string]any{"has_argument": 2}, send("x", sym("a"), sym("b")), true},
		{"position absent", map[string]any{"has_argument": 2}, send("x", sym("a")), false},
		{"keyword present", map[string]any{"has_argument": "class_name"}, send("x", pair("class_name", str("User"))), true},
		{"keyword absent", map[string]any{"has_argument": "class_name"}, send("x", pair("through", sym("a"))), false},
		{"keyword wildcard", map[string]any{"has_argument": "if*"}, send("x", pair("if_absent", sym("a"))), true},
		{"list of keywords", map[string]any{"has_argument": []any{"if", "unless"}}, send("x", pair("unless", sym("a"))), true},
		{"any keyword", map[string]any{"has_argument": "**"}, send("x", pair("a", sym("a"))), true},
		{"any positional", map[string]any{"has_argument": "*"}, send("x"), false},
		{
			"position with value",
			map[string]any{"has_argument": map[string]any{"at": 1, "has_value": "foo"}},
			send("x", sym("foo")),
			true,
		},
		{
			"position with other value",
			map[string]any{"has_argument": map[string]any{"at": 1, "has_value": "foo"}},
			send("x", sym("bar"), sym("foo")),
			false,
		},
		{
			"value at any position",
			map[string]any{"has_argument": map[string]any{"has_value": "foo"}},
			send("x", sym("bar"), sym("foo")),
			true,
		},
		{
			"value ignores keywords",
			map[string]any{"has_argument": map[string]any{"has_value": "foo"}},
			send("x", pair("a", sym("foo"))),
			false,
		},
		{
			"keyword with value",
			map[string]any{"has_argument": map[string]any{"at": "polymorphic", "has_value": true}},
			send("x", pair("polymorphic", &ast.Node{Kind: ast.KindTrue})),
			true,
		},
		{
			"keyword with wrong value",
			map[string]any{"has_argument": map[string]any{"at": "polymorphic", "has_value": true}},
			send("x", pair("polymorphic", &ast.Node{Kind: ast.KindFalse})),
			false,
		},
		{
			"integer value from json",
			map[string]any{"has_argument": map[string]any{"at": float64(1), "has_value": 3}},
			send("x", integer("3")),
			true,
		},
		{
			"nil value",
			map[string]any{"has_argument": map[string]any{"at": 1, "has_value": nil}},
			send("x", &ast.Node{Kind: ast.KindNil}),
			true,
		},
		{
			"typed value",
			map[string]any{"has_argument": map[string]any{"at": 1, "has_value": map[string]any{"type": "Proc"}}},
			send("x", &ast.Node{Kind: ast.KindBlock, Text: "lambda"}),
			true,
		},
		{
			"unless",
			map[string]any{"has_argument": map[string]any{"unless": "if"}},
			send("x", pair("if", sym("a"))),
			false,
		},
		{
			"top level at",
			map[string]any{"at": 1, "has_value": "foo"},
			send("x", sym("foo")),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compile(t, tt.pattern)
			assert.Equal(t, tt.want, m.Match(tt.node))
		})
	}
}

func TestCompileHasReceiver(t *testing.T) {
	withReceiver := send("new")
	withReceiver.Receiver = &ast.Node{Kind: ast.KindConst, Name: "User"}

	assert.True(t, compile(t, map[string]any{"has_receiver": true}).Match(withReceiver))
	assert.False(t, compile(t, map[string]any{"has_receiver": true}).Match(send("new")))
	assert.True(t, compile(t, map[string]any{"has_receiver": false}).Match(send("new")))
	assert.True(t, compile(t, map[string]any{"has_receiver": "User"}).Match(withReceiver))
	assert.False(t, compile(t, map[string]any{"has_receiver": "Account"}).Match(withReceiver))
}

func TestCompileType(t *testing.T) {
	m := compile(t, map[string]any{"type": []any{"Symbol", "String"}})

	assert.True(t, m.Match(sym("a")))
	assert.True(t, m.Match(&ast.Node{Kind: ast.KindStr, Text: "a"}))
	assert.False(t, m.Match(&ast.Node{Kind: ast.KindDstr}))
	assert.False(t, m.Match(&ast.Node{Kind: ast.KindDsym}))
	assert.False(t, m.Match(integer("1")))
}

func TestCompilePath(t *testing.T) {
	m := compile(t, map[string]any{"names": "x", "path": "app/models/"})

	assert.True(t, m.Match(send("x")))

	other := send("x")
	other.Loc.Path = "lib/x.rb"
	assert.False(t, m.Match(other))
}

func TestCompileUnless(t *testing.T) {
	m := compile(t, map[string]any{"has_prefix": "test_", "unless": map[string]any{"names": "test_helper"}})

	assert.True(t, m.Match(send("test_one")))
	assert.False(t, m.Match(send("test_helper")))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern map[string]any
		path    string
	}{
		{"unknown key", map[string]any{"nmes": "x"}, "dynamic[0]"},
		{"bad regexp", map[string]any{"match": "("}, "dynamic[0].match"},
		{"bad position", map[string]any{"has_argument": 0}, "dynamic[0].has_argument"},
		{"bad at", map[string]any{"has_argument": map[string]any{"at": true}}, "dynamic[0].has_argument.at"},
		{"unknown type", map[string]any{"type": "Widget"}, "dynamic[0].type"},
		{"empty names", map[string]any{"names": []any{}}, "dynamic[0].names"},
		{"bad receiver", map[string]any{"has_receiver": map[string]any{"bogus": 1}}, "dynamic[0].has_receiver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.pattern, "dynamic[0]")
			require.Error(t, err)

			var cerr *config.ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}

func TestCompileName(t *testing.T) {
	m, err := CompileName([]any{"foo", map[string]any{"has_prefix": "bar_", "unless": "bar_baz"}, "*_test"}, "keep")
	require.NoError(t, err)

	assert.True(t, m.MatchName("foo"))
	assert.True(t, m.MatchName("bar_qux"))
	assert.False(t, m.MatchName("bar_baz"))
	assert.True(t, m.MatchName("x_test"))
	assert.False(t, m.MatchName("qux"))

	none, err := CompileName(nil, "keep")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = CompileName(map[string]any{"has_argument": 1}, "keep[0]")
	require.Error(t, err)
}

func TestKindsOf(t *testing.T) {
	assert.Equal(t, []ast.Kind{ast.KindSend, ast.KindCSend, ast.KindIdent, ast.KindDef, ast.KindDefs}, KindsOf("Method"))
	assert.Equal(t, []ast.Kind{ast.KindSym, ast.KindBlock, ast.KindBlockPass, ast.KindSend}, KindsOf([]any{"Symbol", "Proc"}))
	assert.Nil(t, KindsOf("Widget"))
	assert.Nil(t, KindsOf(3))
}
