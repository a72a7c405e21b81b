package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/kamoh/leftovers/pkg/ast"
)

// Language is a source dialect leftovers can read.
type Language string

const (
	LangRuby    Language = "ruby"
	LangERB     Language = "erb"
	LangHAML    Language = "haml"
	LangUnknown Language = "unknown"
)

// rubyFilenames are extensionless files that hold Ruby.
var rubyFilenames = map[string]bool{
	"gemfile":     true,
	"rakefile":    true,
	"guardfile":   true,
	"capfile":     true,
	"vagrantfile": true,
	"podfile":     true,
	"brewfile":    true,
	"thorfile":    true,
	"config.ru":   true,
}

// DetectLanguage determines the dialect from a file path.
func DetectLanguage(path string) Language {
	base := strings.ToLower(filepath.Base(path))
	if rubyFilenames[base] {
		return LangRuby
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".rb", ".rake", ".gemspec", ".ru", ".jbuilder", ".builder", ".thor", ".podspec", ".irbrc":
		return LangRuby
	case ".erb", ".rhtml":
		return LangERB
	case ".haml":
		return LangHAML
	default:
		return LangUnknown
	}
}

// ParseError reports source a front-end could not read.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column+1, e.Msg)
}

// Parser wraps a tree-sitter Ruby parser. It is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(ruby.GetLanguage())
	return &Parser{parser: p}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// ParseFile reads and parses a file from disk. path is used for reported
// locations; abs is where the file is read from.
func (p *Parser) ParseFile(ctx context.Context, path, abs string) (*ast.File, error) {
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(ctx, path, source)
}

// Parse parses source in the dialect detected from path.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*ast.File, error) {
	switch DetectLanguage(path) {
	case LangRuby:
		return p.parseRuby(ctx, path, source, source)
	case LangERB:
		code, err := ERBToRuby(source)
		if err != nil {
			return nil, withPath(err, path)
		}
		return p.parseRuby(ctx, path, code, source)
	case LangHAML:
		code, err := HAMLToRuby(source)
		if err != nil {
			return nil, withPath(err, path)
		}
		return p.parseRuby(ctx, path, code, source)
	default:
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}
}

func withPath(err error, path string) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Path = path
	}
	return err
}

// parseRuby parses code and builds locations against display, which is
// the original document for ERB and HAML sources.
func (p *Parser) parseRuby(ctx context.Context, path string, code, display []byte) (*ast.File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root)
	}

	c := &converter{src: code, lines: ast.SplitLines(display), path: path}
	c.collectComments(root)
	return &ast.File{
		Path:     path,
		Root:     c.node(root),
		Comments: c.comments,
	}, nil
}

// syntaxError locates the first ERROR or MISSING node under root.
func syntaxError(path string, root *sitter.Node) error {
	bad := root
	Walk(root, func(n *sitter.Node) bool {
		if bad != root {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			bad = n
			return false
		}
		return true
	})
	pt := bad.StartPoint()
	msg := "syntax error"
	if bad.IsMissing() {
		msg = fmt.Sprintf("syntax error, missing %q", bad.Type())
	}
	return &ParseError{Path: path, Line: int(pt.Row) + 1, Column: int(pt.Column), Msg: msg}
}

// Walk traverses the CST calling visitor for each node; returning false
// skips the node's children.
func Walk(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
