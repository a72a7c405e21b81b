package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamoh/leftovers/pkg/ast"
)

func parse(t *testing.T, path, src string) *ast.File {
	t.Helper()
	p := New()
	defer p.Close()
	f, err := p.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, f.Root)
	return f
}

func first(t *testing.T, f *ast.File) *ast.Node {
	t.Helper()
	require.NotEmpty(t, f.Root.Body)
	return f.Root.Body[0]
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"app/models/user.rb", LangRuby},
		{"lib/tasks/db.rake", LangRuby},
		{"leftovers.gemspec", LangRuby},
		{"Gemfile", LangRuby},
		{"Rakefile", LangRuby},
		{"config.ru", LangRuby},
		{"app/views/users/show.html.erb", LangERB},
		{"app/views/users/show.html.haml", LangHAML},
		{"README.md", LangUnknown},
		{"app/assets/app.js", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
		})
	}
}

func TestParseCall(t *testing.T) {
	f := parse(t, "app/foo.rb", "attr_reader :foo\n")
	n := first(t, f)

	assert.Equal(t, ast.KindSend, n.Kind)
	assert.Equal(t, "attr_reader", n.Name)
	assert.Nil(t, n.Receiver)
	require.Len(t, n.Args, 1)
	assert.Equal(t, ast.KindSym, n.Args[0].Kind)
	assert.Equal(t, "foo", n.Args[0].Text)
	assert.Equal(t, "app/foo.rb:1:13", n.Args[0].Loc.String())
	assert.Equal(t, "attr_reader :foo", n.Args[0].Loc.Context())
}

func TestParseArguments(t *testing.T) {
	f := parse(t, "a.rb", "foo(1, key: :v, &blk)\n")
	n := first(t, f)

	assert.Equal(t, "foo", n.Name)
	require.Len(t, n.Args, 1)
	assert.Equal(t, ast.KindInt, n.Args[0].Kind)
	require.Len(t, n.Kwargs, 1)
	name, ok := n.Kwargs[0].NodeName()
	require.True(t, ok)
	assert.Equal(t, "key", name)
	assert.Equal(t, "v", n.Kwargs[0].Right.Text)
	require.NotNil(t, n.BlockArg)
	assert.Equal(t, ast.KindBlockPass, n.BlockArg.Kind)
	assert.Equal(t, "blk", n.BlockArg.Right.Name)
}

func TestParseSafeNavigation(t *testing.T) {
	f := parse(t, "a.rb", "user&.name\n")
	n := first(t, f)

	assert.Equal(t, ast.KindCSend, n.Kind)
	assert.Equal(t, "name", n.Name)
	assert.Equal(t, ast.KindIdent, n.Receiver.Kind)
}

func TestParseAttributeAssignment(t *testing.T) {
	f := parse(t, "a.rb", "self.foo = bar\n")
	n := first(t, f)

	assert.Equal(t, ast.KindSend, n.Kind)
	assert.Equal(t, "foo=", n.Name)
	assert.Equal(t, ast.KindSelf, n.Receiver.Kind)
	require.Len(t, n.Args, 1)
	assert.Equal(t, ast.KindIdent, n.Args[0].Kind)
	assert.Equal(t, "bar", n.Args[0].Name)
}

func TestParseOperatorAssignment(t *testing.T) {
	tests := []struct {
		src    string
		op     string
		target ast.Kind
		name   string
	}{
		{"x ||= 1\n", "||=", ast.KindLvasgn, "x"},
		{"@x += 1\n", "+=", ast.KindIvasgn, "@x"},
		{"self.count -= 1\n", "-=", ast.KindSend, "count"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n := first(t, parse(t, "a.rb", tt.src))
			require.Equal(t, ast.KindOpAsgn, n.Kind)
			assert.Equal(t, tt.op, n.Text)
			assert.Equal(t, tt.target, n.Target.Kind)
			assert.Equal(t, tt.name, n.Target.Name)
		})
	}
}

func TestParseDef(t *testing.T) {
	f := parse(t, "a.rb", "def m(a, b = c, *rest, key: 1, &blk)\n  a\nend\n")
	n := first(t, f)

	require.Equal(t, ast.KindDef, n.Kind)
	assert.Equal(t, "m", n.Name)
	assert.Equal(t, 1, n.NameLoc.Line)
	assert.Equal(t, 4, n.NameLoc.Column)

	var names []string
	for _, p := range n.Params {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "b", "rest", "key", "blk"}, names)
	require.NotNil(t, n.Params[1].Right)
	assert.Equal(t, "c", n.Params[1].Right.Name)

	var body []*ast.Node
	ast.Walk(&ast.Node{Kind: ast.KindBegin, Body: n.Body}, func(c *ast.Node) bool {
		if c.Kind == ast.KindIdent {
			body = append(body, c)
		}
		return true
	})
	require.Len(t, body, 1)
	assert.Equal(t, "a", body[0].Name)
}

func TestParseSingletonDef(t *testing.T) {
	n := first(t, parse(t, "a.rb", "def self.build; end\n"))

	assert.Equal(t, ast.KindDefs, n.Kind)
	assert.Equal(t, "build", n.Name)
	assert.Equal(t, ast.KindSelf, n.Receiver.Kind)
}

func TestParseClass(t *testing.T) {
	n := first(t, parse(t, "a.rb", "class A::B < Super\nend\n"))

	require.Equal(t, ast.KindClass, n.Kind)
	assert.Equal(t, "B", n.Name)
	require.NotNil(t, n.Target)
	assert.Equal(t, "A", n.Target.Receiver.Name)
	require.NotNil(t, n.Superclass)
	assert.Equal(t, "Super", n.Superclass.Name)
}

func TestParseConstants(t *testing.T) {
	n := first(t, parse(t, "a.rb", "Foo::Bar\n"))
	assert.Equal(t, ast.KindConst, n.Kind)
	assert.Equal(t, "Bar", n.Name)
	assert.Equal(t, "Foo", n.Receiver.Name)

	n = first(t, parse(t, "a.rb", "Whatever = Class.new\n"))
	assert.Equal(t, ast.KindCasgn, n.Kind)
	assert.Equal(t, "Whatever", n.Name)
	assert.Equal(t, "new", n.Right.Name)
}

func TestParseStrings(t *testing.T) {
	n := first(t, parse(t, "a.rb", `"a#{b}c"`+"\n"))
	require.Equal(t, ast.KindDstr, n.Kind)
	lit, ok := n.DynamicLiteral()
	require.True(t, ok)
	assert.Equal(t, "a*c", lit)

	n = first(t, parse(t, "a.rb", `"plain"`+"\n"))
	assert.Equal(t, ast.KindStr, n.Kind)
	assert.Equal(t, "plain", n.Text)

	n = first(t, parse(t, "a.rb", `:"quoted"`+"\n"))
	assert.Equal(t, ast.KindSym, n.Kind)
	assert.Equal(t, "quoted", n.Text)
}

func TestParseBinaryOperators(t *testing.T) {
	n := first(t, parse(t, "a.rb", "a == b\n"))
	assert.Equal(t, ast.KindSend, n.Kind)
	assert.Equal(t, "==", n.Name)

	n = first(t, parse(t, "a.rb", "a && b\n"))
	assert.Equal(t, ast.KindBegin, n.Kind)
	assert.Len(t, n.Body, 2)
}

func TestParseAlias(t *testing.T) {
	n := first(t, parse(t, "a.rb", "alias new_name old_name\n"))

	require.Equal(t, ast.KindAlias, n.Kind)
	require.Len(t, n.Args, 2)
	assert.Equal(t, "new_name", n.Args[0].Text)
	assert.Equal(t, "old_name", n.Args[1].Text)
}

func TestParseBlock(t *testing.T) {
	n := first(t, parse(t, "a.rb", "items.each do |item, (a, b)|\n  item\nend\n"))

	require.NotNil(t, n.Block)
	var names []string
	for _, p := range n.Block.Params {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"item", "a", "b"}, names)
}

func TestParsePatternBindings(t *testing.T) {
	f := parse(t, "a.rb", "case v\nin {name: String => n, age:}\n  n\nin [x, *rest]\nend\n")

	var bound []string
	ast.Walk(f.Root, func(n *ast.Node) bool {
		if n.Kind == ast.KindLvasgn {
			bound = append(bound, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"n", "age", "x", "rest"}, bound)
}

func TestParseComments(t *testing.T) {
	f := parse(t, "a.rb", "def m # leftovers:allow m\nend\n")

	require.Len(t, f.Comments, 1)
	assert.Equal(t, "# leftovers:allow m", f.Comments[0].Text)
	assert.Equal(t, 1, f.Comments[0].Loc.Line)
}

func TestParseSyntaxError(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse(context.Background(), "bad.rb", []byte("def (\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "bad.rb", pe.Path)
	assert.GreaterOrEqual(t, pe.Line, 1)
}

func TestParseUnsupported(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse(context.Background(), "notes.txt", []byte("hello"))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "foo.rb")
	require.NoError(t, os.WriteFile(abs, []byte("foo\n"), 0o644))

	p := New()
	defer p.Close()

	f, err := p.ParseFile(context.Background(), "foo.rb", abs)
	require.NoError(t, err)
	assert.Equal(t, "foo.rb", f.Path)

	_, err = p.ParseFile(context.Background(), "missing.rb", filepath.Join(dir, "missing.rb"))
	assert.Error(t, err)
}

func TestParseERB(t *testing.T) {
	f := parse(t, "show.html.erb", "<p><%= link_to user %></p>\n")
	n := first(t, f)

	assert.Equal(t, ast.KindSend, n.Kind)
	assert.Equal(t, "link_to", n.Name)
	assert.Equal(t, "show.html.erb:1:8", n.NameLoc.String())
	assert.Equal(t, "<p><%= link_to user %></p>", n.NameLoc.SourceLine)
}

func TestParseHAML(t *testing.T) {
	f := parse(t, "show.html.haml", "%p= current_user\n")
	n := first(t, f)

	assert.Equal(t, ast.KindIdent, n.Kind)
	assert.Equal(t, "current_user", n.Name)
	assert.Equal(t, "show.html.haml:1:5", n.Loc.String())
}
