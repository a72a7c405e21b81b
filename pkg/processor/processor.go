// Package processor turns a matched call into the names it calls or
// defines, following the calls/defines descriptions of dynamic rules.
//
// A processor is a chain of stages. Source stages pick values out of the
// call (arguments, keyword values, hash keys, the call itself), filter
// stages drop values, transform stages rewrite the text and a terminal
// stage reports the result to an Acc. A stage that receives no value does
// not call the next one.
package processor

import (
	"github.com/kamoh/leftovers/pkg/ast"
)

// Acc receives what a processor produces. node is the node the value was
// taken from; definitions from the same node belong together.
type Acc interface {
	AddCall(name string, node *ast.Node)
	AddDefinition(name string, node *ast.Node, dynamic bool)
}

// Value is the text flowing through a chain. Dynamic values came from
// interpolated strings and symbols, with "*" standing in for each
// interpolation.
type Value struct {
	Text    string
	Dynamic bool
}

// Processor is one stage. node is the current node, call the matched call.
type Processor interface {
	Process(v Value, node, call *ast.Node, acc Acc)
}

// Fork passes its input to every branch.
type Fork []Processor

func (f Fork) Process(v Value, node, call *ast.Node, acc Acc) {
	for _, p := range f {
		p.Process(v, node, call, acc)
	}
}

// emit hands a value node to next, iterating array elements.
func emit(n *ast.Node, call *ast.Node, acc Acc, next Processor) {
	if n == nil {
		return
	}
	if n.Kind == ast.KindArray {
		for _, el := range n.Body {
			emit(el, call, acc, next)
		}
		return
	}
	next.Process(valueOf(n), n, call, acc)
}

func valueOf(n *ast.Node) Value {
	if s, ok := n.Literal(); ok {
		return Value{Text: s}
	}
	if s, ok := n.DynamicLiteral(); ok {
		return Value{Text: s, Dynamic: true}
	}
	return Value{}
}
