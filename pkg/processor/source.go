package processor

import (
	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/matcher"
)

// Positional takes the positional argument at Index (0-based), or every
// positional argument when All is set.
type Positional struct {
	Index int
	All   bool
	Then  Processor
}

func (p Positional) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	if !p.All {
		emit(call.PositionalAt(p.Index), call, acc, p.Then)
		return
	}
	for _, arg := range call.Positional() {
		emit(arg, call, acc, p.Then)
	}
}

// Keywords takes the values of keyword arguments whose key matches Match.
// A nil Match takes every keyword value.
type Keywords struct {
	Match matcher.NameMatcher
	Then  Processor
}

func (p Keywords) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	for _, kw := range call.Keywords() {
		if kw.Kind != ast.KindPair {
			continue
		}
		if p.Match != nil && !p.Match.Match(kw) {
			continue
		}
		emit(kw.Right, call, acc, p.Then)
	}
}

// Keys takes the keys of keyword arguments and of positional hash
// literals, optionally filtered by Match.
type Keys struct {
	Match matcher.NameMatcher
	Then  Processor
}

func (p Keys) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	pairs := append([]*ast.Node(nil), call.Keywords()...)
	for _, arg := range call.Positional() {
		if arg.Kind == ast.KindHash {
			pairs = append(pairs, arg.Body...)
		}
	}
	for _, pair := range pairs {
		if pair.Kind != ast.KindPair {
			continue
		}
		if p.Match != nil && !p.Match.Match(pair) {
			continue
		}
		emit(pair.Target, call, acc, p.Then)
	}
}

// Itself takes the name of the matched node.
type Itself struct {
	Then Processor
}

func (p Itself) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	name, ok := call.NodeName()
	if !ok {
		return
	}
	p.Then.Process(Value{Text: name}, call, call, acc)
}

// Receiver takes the receiver of the matched call.
type Receiver struct {
	Then Processor
}

func (p Receiver) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	if !call.HasReceiver() {
		return
	}
	recv := call.Receiver
	if recv.Kind == ast.KindConst {
		p.Then.Process(Value{Text: recv.Name}, recv, call, acc)
		return
	}
	emit(recv, call, acc, p.Then)
}

// Fixed produces a constant value.
type Fixed struct {
	Text string
	Then Processor
}

func (p Fixed) Process(_ Value, _ *ast.Node, call *ast.Node, acc Acc) {
	p.Then.Process(Value{Text: p.Text}, call, call, acc)
}

// IfMatcher forwards only when the current node matches M, or does not
// match when Negate is set.
type IfMatcher struct {
	M      matcher.Matcher
	Negate bool
	Then   Processor
}

func (p IfMatcher) Process(v Value, node, call *ast.Node, acc Acc) {
	if p.M.Match(node) == p.Negate {
		return
	}
	p.Then.Process(v, node, call, acc)
}
