package processor

import (
	"strings"

	"github.com/kamoh/leftovers/pkg/ast"
)

// Transform rewrites the text. Fn returning false halts the chain.
type Transform struct {
	Fn   func(string) (string, bool)
	Then Processor
}

func (p Transform) Process(v Value, node, call *ast.Node, acc Acc) {
	if v.Text == "" {
		return
	}
	text, ok := p.Fn(v.Text)
	if !ok {
		return
	}
	p.Then.Process(Value{Text: text, Dynamic: v.Dynamic}, node, call, acc)
}

// Split forwards each non-empty part of the text.
type Split struct {
	Sep  string
	Then Processor
}

func (p Split) Process(v Value, node, call *ast.Node, acc Acc) {
	if v.Text == "" {
		return
	}
	for _, part := range strings.Split(v.Text, p.Sep) {
		if part == "" {
			continue
		}
		p.Then.Process(Value{Text: part, Dynamic: v.Dynamic}, node, call, acc)
	}
}

// ArgumentAffix adds the literal value of another keyword argument of the
// call, followed by Joiner, as a prefix (or suffix when Suffix is set).
// The text is unchanged when the call has no such argument.
type ArgumentAffix struct {
	Keyword string
	Joiner  string
	Suffix  bool
	Then    Processor
}

func (p ArgumentAffix) Process(v Value, node, call *ast.Node, acc Acc) {
	if v.Text == "" {
		return
	}
	if affix, ok := keywordLiteral(call, p.Keyword); ok {
		if p.Suffix {
			v.Text = v.Text + p.Joiner + affix
		} else {
			v.Text = affix + p.Joiner + v.Text
		}
	}
	p.Then.Process(v, node, call, acc)
}

func keywordLiteral(call *ast.Node, key string) (string, bool) {
	for _, kw := range call.Keywords() {
		if name, ok := kw.NodeName(); !ok || name != key {
			continue
		}
		return kw.Right.Literal()
	}
	return "", false
}

// AddCall reports the text as a call. Dynamic values are dropped since
// they name no single method. Namespaced constant names report each
// segment.
type AddCall struct{}

func (AddCall) Process(v Value, node, _ *ast.Node, acc Acc) {
	if v.Text == "" || v.Dynamic {
		return
	}
	if !strings.Contains(v.Text, "::") {
		acc.AddCall(v.Text, node)
		return
	}
	for _, seg := range strings.Split(v.Text, "::") {
		if seg != "" {
			acc.AddCall(seg, node)
		}
	}
}

// AddDefinition reports the text as a definition.
type AddDefinition struct{}

func (AddDefinition) Process(v Value, node, _ *ast.Node, acc Acc) {
	if v.Text == "" {
		return
	}
	acc.AddDefinition(v.Text, node, v.Dynamic)
}
