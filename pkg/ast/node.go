package ast

import (
	"strconv"
	"strings"
)

// Kind is the closed set of node kinds the collector understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindBegin is a generic container: statement lists, conditionals,
	// loops, interpolations. Only its Body is walked.
	KindBegin
	KindSym
	KindDsym
	KindStr
	KindDstr
	KindInt
	KindFloat
	KindTrue
	KindFalse
	KindNil
	KindSelf
	KindArray
	KindHash
	KindPair
	KindSend
	KindCSend
	KindDef
	KindDefs
	KindArg
	KindConst
	KindClass
	KindModule
	KindSClass
	KindCasgn
	KindBlock
	KindBlockPass
	KindSplat
	// KindIdent is a bare identifier: a local variable read or a
	// receiverless call, depending on scope.
	KindIdent
	KindLvasgn
	KindIvar
	KindIvasgn
	KindCvar
	KindCvasgn
	KindGvar
	KindGvasgn
	KindOpAsgn
	KindMasgn
	KindAlias

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:   "unknown",
	KindBegin:     "begin",
	KindSym:       "sym",
	KindDsym:      "dsym",
	KindStr:       "str",
	KindDstr:      "dstr",
	KindInt:       "int",
	KindFloat:     "float",
	KindTrue:      "true",
	KindFalse:     "false",
	KindNil:       "nil",
	KindSelf:      "self",
	KindArray:     "array",
	KindHash:      "hash",
	KindPair:      "pair",
	KindSend:      "send",
	KindCSend:     "csend",
	KindDef:       "def",
	KindDefs:      "defs",
	KindArg:       "arg",
	KindConst:     "const",
	KindClass:     "class",
	KindModule:    "module",
	KindSClass:    "sclass",
	KindCasgn:     "casgn",
	KindBlock:     "block",
	KindBlockPass: "block_pass",
	KindSplat:     "splat",
	KindIdent:     "ident",
	KindLvasgn:    "lvasgn",
	KindIvar:      "ivar",
	KindIvasgn:    "ivasgn",
	KindCvar:      "cvar",
	KindCvasgn:    "cvasgn",
	KindGvar:      "gvar",
	KindGvasgn:    "gvasgn",
	KindOpAsgn:    "op_asgn",
	KindMasgn:     "masgn",
	KindAlias:     "alias",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Kinds returns every known kind, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := KindUnknown; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// KindCount is the number of kinds, for lookup tables indexed by Kind.
const KindCount = int(kindCount)

// Node is one syntax node. Which fields are populated depends on Kind:
//
//	Send/CSend   Name, Receiver, Args, Kwargs, BlockArg, Block
//	Def          Name, Params, Body
//	Defs         Name, Receiver, Params, Body
//	Arg          Name, Right (default value)
//	Const        Name, Receiver (scope)
//	Class/Module Name, Target (the name constant), Superclass, Body
//	SClass       Receiver, Body
//	Casgn        Name, Receiver (scope), Right
//	*asgn        Name, Right
//	OpAsgn       Text (operator), Target, Right
//	Masgn        Args (targets), Right
//	Block        Params, Body, Text ("lambda" for stabby lambdas)
//	BlockPass    Right (nil when anonymous)
//	Splat        Right
//	Pair         Target (key), Right (value)
//	Alias        Args (new, old)
//	Sym/Str/Int  Text
//	Dstr/Dsym    Body (Str parts and interpolated expressions)
//	Array/Hash   Body
type Node struct {
	Kind Kind
	Name string
	Text string

	Receiver   *Node
	Target     *Node
	Superclass *Node
	Right      *Node
	Block      *Node
	BlockArg   *Node

	Args   []*Node
	Kwargs []*Node
	Params []*Node
	Body   []*Node

	Loc     Location
	NameLoc Location
}

// Positional returns the positional arguments of a call.
func (n *Node) Positional() []*Node {
	if n == nil || !n.IsCall() {
		return nil
	}
	return n.Args
}

// PositionalAt returns the positional argument at the 0-based index, or nil.
func (n *Node) PositionalAt(i int) *Node {
	args := n.Positional()
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// Keywords returns the keyword pairs of a call.
func (n *Node) Keywords() []*Node {
	if n == nil || !n.IsCall() {
		return nil
	}
	return n.Kwargs
}

// IsCall reports whether n is a method call.
func (n *Node) IsCall() bool {
	return n != nil && (n.Kind == KindSend || n.Kind == KindCSend)
}

// HasReceiver reports whether n is a call with an explicit receiver.
func (n *Node) HasReceiver() bool {
	return n.IsCall() && n.Receiver != nil
}

// IsProc reports whether n evaluates to a proc: a lambda literal, a block
// pass or a proc/lambda call with a block.
func (n *Node) IsProc() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindBlock:
		return n.Text == "lambda"
	case KindBlockPass:
		return true
	case KindSend:
		if n.Block == nil {
			return false
		}
		switch n.Name {
		case "proc", "lambda":
			return n.Receiver == nil
		case "new":
			return n.Receiver != nil && n.Receiver.Kind == KindConst && n.Receiver.Name == "Proc"
		}
	}
	return false
}

// Literal returns the static string value of a symbol or string node.
func (n *Node) Literal() (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindSym, KindStr:
		return n.Text, true
	}
	return "", false
}

// DynamicLiteral renders an interpolated symbol or string with each
// interpolation replaced by "*".
func (n *Node) DynamicLiteral() (string, bool) {
	if n == nil || (n.Kind != KindDsym && n.Kind != KindDstr) {
		return "", false
	}
	var b strings.Builder
	for _, part := range n.Body {
		if s, ok := part.Literal(); ok {
			b.WriteString(s)
			continue
		}
		b.WriteByte('*')
	}
	return b.String(), true
}

// Scalar returns the value of an integer, float, true, false or nil node.
func (n *Node) Scalar() (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind {
	case KindInt:
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Text, "_", ""), 0, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case KindFloat:
		v, err := strconv.ParseFloat(strings.ReplaceAll(n.Text, "_", ""), 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case KindTrue:
		return true, true
	case KindFalse:
		return false, true
	case KindNil:
		return nil, true
	}
	return nil, false
}

// NodeName returns the name a matcher compares against: the method name of
// a call or def, the value of a symbol or string, the name of a constant or
// variable, and the key name of a pair.
func (n *Node) NodeName() (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case KindSend, KindCSend, KindDef, KindDefs, KindConst, KindClass, KindModule,
		KindCasgn, KindIdent, KindLvasgn, KindIvar, KindIvasgn, KindCvar, KindCvasgn,
		KindGvar, KindGvasgn, KindArg:
		return n.Name, n.Name != ""
	case KindSym, KindStr:
		return n.Text, true
	case KindPair:
		return n.Target.NodeName()
	}
	return "", false
}

// Children returns every direct child node in source order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	add := func(c *Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	add(n.Receiver)
	add(n.Target)
	add(n.Superclass)
	out = append(out, n.Params...)
	out = append(out, n.Args...)
	out = append(out, n.Kwargs...)
	add(n.BlockArg)
	add(n.Right)
	out = append(out, n.Body...)
	add(n.Block)
	return out
}
