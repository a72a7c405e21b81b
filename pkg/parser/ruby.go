package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kamoh/leftovers/pkg/ast"
)

// converter lowers a tree-sitter Ruby CST into ast nodes.
type converter struct {
	src      []byte
	lines    ast.Lines
	path     string
	comments []ast.Comment
}

func (c *converter) text(n *sitter.Node) string {
	return GetNodeText(n, c.src)
}

func (c *converter) loc(n *sitter.Node) ast.Location {
	if n == nil {
		return ast.Location{}
	}
	s, e := n.StartPoint(), n.EndPoint()
	return c.lines.Location(c.path, int(s.Row), int(s.Column), int(e.Row), int(e.Column))
}

func (c *converter) collectComments(root *sitter.Node) {
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "comment" {
			c.comments = append(c.comments, ast.Comment{Text: c.text(n), Loc: c.loc(n)})
			return false
		}
		return true
	})
}

// namedChildren returns n's named children, skipping any that are the
// same node as one of skip.
func namedChildren(n *sitter.Node, skip ...*sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
outer:
	for i := range int(n.NamedChildCount()) {
		ch := n.NamedChild(i)
		if ch == nil {
			continue
		}
		for _, s := range skip {
			if sameNode(ch, s) {
				continue outer
			}
		}
		out = append(out, ch)
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// hasToken reports whether n has a direct anonymous child of the given type.
func hasToken(n *sitter.Node, tok string) bool {
	for i := range int(n.ChildCount()) {
		ch := n.Child(i)
		if ch != nil && !ch.IsNamed() && ch.Type() == tok {
			return true
		}
	}
	return false
}

func (c *converter) list(ns []*sitter.Node) []*ast.Node {
	out := make([]*ast.Node, 0, len(ns))
	for _, n := range ns {
		if an := c.node(n); an != nil {
			out = append(out, an)
		}
	}
	return out
}

func (c *converter) leaf(n *sitter.Node, kind ast.Kind) *ast.Node {
	loc := c.loc(n)
	return &ast.Node{Kind: kind, Name: c.text(n), Loc: loc, NameLoc: loc}
}

func (c *converter) generic(n *sitter.Node, skip ...*sitter.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindBegin, Body: c.list(namedChildren(n, skip...)), Loc: c.loc(n)}
}

func (c *converter) node(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "comment", "empty_statement", "uninterpreted":
		return nil
	case "identifier":
		return c.leaf(n, ast.KindIdent)
	case "constant":
		return c.leaf(n, ast.KindConst)
	case "instance_variable":
		return c.leaf(n, ast.KindIvar)
	case "class_variable":
		return c.leaf(n, ast.KindCvar)
	case "global_variable":
		return c.leaf(n, ast.KindGvar)
	case "self":
		return &ast.Node{Kind: ast.KindSelf, Loc: c.loc(n)}
	case "nil":
		return &ast.Node{Kind: ast.KindNil, Loc: c.loc(n)}
	case "true":
		return &ast.Node{Kind: ast.KindTrue, Loc: c.loc(n)}
	case "false":
		return &ast.Node{Kind: ast.KindFalse, Loc: c.loc(n)}
	case "integer":
		return &ast.Node{Kind: ast.KindInt, Text: c.text(n), Loc: c.loc(n)}
	case "float":
		return &ast.Node{Kind: ast.KindFloat, Text: c.text(n), Loc: c.loc(n)}
	case "simple_symbol":
		return &ast.Node{Kind: ast.KindSym, Text: strings.TrimPrefix(c.text(n), ":"), Loc: c.loc(n)}
	case "hash_key_symbol":
		return &ast.Node{Kind: ast.KindSym, Text: c.text(n), Loc: c.loc(n)}
	case "delimited_symbol", "bare_symbol":
		return c.str(n, ast.KindSym, ast.KindDsym)
	case "string", "bare_string":
		return c.str(n, ast.KindStr, ast.KindDstr)
	case "character":
		return &ast.Node{Kind: ast.KindStr, Text: strings.TrimPrefix(c.text(n), "?"), Loc: c.loc(n)}
	case "chained_string":
		return c.chainedString(n)
	case "heredoc_beginning":
		return &ast.Node{Kind: ast.KindStr, Loc: c.loc(n)}
	case "scope_resolution":
		return c.scopeResolution(n)
	case "call", "method_call":
		return c.call(n)
	case "element_reference":
		obj := n.ChildByFieldName("object")
		return &ast.Node{
			Kind:     ast.KindSend,
			Name:     "[]",
			Receiver: c.node(obj),
			Args:     c.list(namedChildren(n, obj)),
			Loc:      c.loc(n),
			NameLoc:  c.loc(n),
		}
	case "assignment":
		return c.assignment(n)
	case "operator_assignment":
		return c.operatorAssignment(n)
	case "binary":
		return c.binary(n)
	case "unary":
		return c.unary(n)
	case "method":
		return c.def(n, ast.KindDef)
	case "singleton_method":
		return c.def(n, ast.KindDefs)
	case "class":
		return c.class(n, ast.KindClass)
	case "module":
		return c.class(n, ast.KindModule)
	case "singleton_class":
		value := n.ChildByFieldName("value")
		return &ast.Node{
			Kind:     ast.KindSClass,
			Receiver: c.node(value),
			Body:     c.list(namedChildren(n, value)),
			Loc:      c.loc(n),
		}
	case "block", "do_block":
		return c.block(n)
	case "lambda":
		return c.lambda(n)
	case "block_argument":
		out := &ast.Node{Kind: ast.KindBlockPass, Loc: c.loc(n)}
		if kids := namedChildren(n); len(kids) > 0 {
			out.Right = c.node(kids[0])
		}
		return out
	case "splat_argument", "hash_splat_argument":
		out := &ast.Node{Kind: ast.KindSplat, Loc: c.loc(n)}
		if kids := namedChildren(n); len(kids) > 0 {
			out.Right = c.node(kids[0])
		}
		return out
	case "array", "string_array", "symbol_array":
		return &ast.Node{Kind: ast.KindArray, Body: c.list(namedChildren(n)), Loc: c.loc(n)}
	case "hash":
		return &ast.Node{Kind: ast.KindHash, Body: c.list(namedChildren(n)), Loc: c.loc(n)}
	case "pair":
		return c.pair(n)
	case "alias":
		return c.alias(n)
	case "exception_variable":
		if kids := namedChildren(n); len(kids) > 0 {
			return c.target(kids[0])
		}
		return nil
	case "for":
		pattern := n.ChildByFieldName("pattern")
		out := c.generic(n, pattern)
		if pattern != nil {
			out.Body = append([]*ast.Node{c.target(pattern)}, out.Body...)
		}
		return out
	case "in_clause":
		pattern := n.ChildByFieldName("pattern")
		out := c.generic(n, pattern)
		if pattern != nil {
			out.Body = append([]*ast.Node{c.pattern(pattern)}, out.Body...)
		}
		return out
	case "match_pattern", "test_pattern":
		value := n.ChildByFieldName("value")
		pattern := n.ChildByFieldName("pattern")
		out := &ast.Node{Kind: ast.KindBegin, Loc: c.loc(n)}
		for _, an := range []*ast.Node{c.node(value), c.pattern(pattern)} {
			if an != nil {
				out.Body = append(out.Body, an)
			}
		}
		return out
	default:
		return c.generic(n)
	}
}

// str lowers a string or symbol literal; interpolated ones become the
// dynamic kind with their parts as Body.
func (c *converter) str(n *sitter.Node, static, dynamic ast.Kind) *ast.Node {
	var (
		b            strings.Builder
		parts        []*ast.Node
		interpolated bool
	)
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "string_content", "escape_sequence":
			s := c.text(ch)
			b.WriteString(s)
			parts = append(parts, &ast.Node{Kind: ast.KindStr, Text: s, Loc: c.loc(ch)})
		case "interpolation":
			interpolated = true
			parts = append(parts, c.generic(ch))
		default:
			if an := c.node(ch); an != nil {
				parts = append(parts, an)
			}
		}
	}
	if interpolated {
		return &ast.Node{Kind: dynamic, Body: parts, Loc: c.loc(n)}
	}
	return &ast.Node{Kind: static, Text: b.String(), Loc: c.loc(n)}
}

func (c *converter) chainedString(n *sitter.Node) *ast.Node {
	var (
		b       strings.Builder
		parts   []*ast.Node
		dynamic bool
	)
	for _, part := range c.list(namedChildren(n)) {
		switch part.Kind {
		case ast.KindStr:
			b.WriteString(part.Text)
			parts = append(parts, part)
		case ast.KindDstr:
			dynamic = true
			parts = append(parts, part.Body...)
		}
	}
	if dynamic {
		return &ast.Node{Kind: ast.KindDstr, Body: parts, Loc: c.loc(n)}
	}
	return &ast.Node{Kind: ast.KindStr, Text: b.String(), Loc: c.loc(n)}
}

func (c *converter) scopeResolution(n *sitter.Node) *ast.Node {
	name := n.ChildByFieldName("name")
	out := &ast.Node{
		Kind:     ast.KindConst,
		Name:     c.text(name),
		Receiver: c.node(n.ChildByFieldName("scope")),
		Loc:      c.loc(n),
		NameLoc:  c.loc(name),
	}
	if name != nil && name.Type() == "identifier" {
		// Foo::bar is a method call
		out.Kind = ast.KindSend
	}
	return out
}

func (c *converter) call(n *sitter.Node) *ast.Node {
	recv := n.ChildByFieldName("receiver")
	method := n.ChildByFieldName("method")
	safe := hasToken(n, "&.")
	if method != nil && method.Type() == "call" {
		// older grammars nest the receiver/method pair inside method_call
		safe = safe || hasToken(method, "&.")
		recv, method = method.ChildByFieldName("receiver"), method.ChildByFieldName("method")
	}

	out := &ast.Node{Kind: ast.KindSend, Receiver: c.node(recv), Loc: c.loc(n)}
	if safe {
		out.Kind = ast.KindCSend
	}
	switch {
	case method == nil:
		// foo.() is sugar for foo.call()
		out.Name = "call"
		out.NameLoc = out.Loc
	case method.Type() == "super" || method.Type() == "yield":
		out = &ast.Node{Kind: ast.KindBegin, Loc: c.loc(n)}
	case method.Type() == "scope_resolution":
		out.Receiver = c.node(method.ChildByFieldName("scope"))
		name := method.ChildByFieldName("name")
		out.Name = c.text(name)
		out.NameLoc = c.loc(name)
	default:
		out.Name = c.text(method)
		out.NameLoc = c.loc(method)
	}

	if args := n.ChildByFieldName("arguments"); args != nil {
		c.arguments(out, args)
	}
	if blk := n.ChildByFieldName("block"); blk != nil {
		out.Block = c.node(blk)
	}
	if out.Kind == ast.KindBegin {
		// super(...) and yield(...) keep their arguments as plain children
		out.Body = append(out.Body, out.Args...)
		out.Body = append(out.Body, out.Kwargs...)
		if out.BlockArg != nil {
			out.Body = append(out.Body, out.BlockArg)
		}
		if out.Block != nil {
			out.Body = append(out.Body, out.Block)
		}
		out.Args, out.Kwargs, out.BlockArg, out.Block = nil, nil, nil, nil
	}
	return out
}

func (c *converter) arguments(call *ast.Node, list *sitter.Node) {
	for _, ch := range namedChildren(list) {
		an := c.node(ch)
		if an == nil {
			continue
		}
		switch ch.Type() {
		case "pair", "hash_splat_argument":
			call.Kwargs = append(call.Kwargs, an)
		case "block_argument":
			call.BlockArg = an
		default:
			call.Args = append(call.Args, an)
		}
	}
}

// target lowers the left-hand side of an assignment. Values are attached
// by the caller.
func (c *converter) target(n *sitter.Node) *ast.Node {
	loc := c.loc(n)
	switch n.Type() {
	case "identifier":
		return &ast.Node{Kind: ast.KindLvasgn, Name: c.text(n), Loc: loc, NameLoc: loc}
	case "instance_variable":
		return &ast.Node{Kind: ast.KindIvasgn, Name: c.text(n), Loc: loc, NameLoc: loc}
	case "class_variable":
		return &ast.Node{Kind: ast.KindCvasgn, Name: c.text(n), Loc: loc, NameLoc: loc}
	case "global_variable":
		return &ast.Node{Kind: ast.KindGvasgn, Name: c.text(n), Loc: loc, NameLoc: loc}
	case "constant":
		return &ast.Node{Kind: ast.KindCasgn, Name: c.text(n), Loc: loc, NameLoc: loc}
	case "scope_resolution":
		name := n.ChildByFieldName("name")
		return &ast.Node{
			Kind:     ast.KindCasgn,
			Name:     c.text(name),
			Receiver: c.node(n.ChildByFieldName("scope")),
			Loc:      loc,
			NameLoc:  c.loc(name),
		}
	case "call":
		out := c.reader(n)
		out.Name += "="
		return out
	case "element_reference":
		out := c.reader(n)
		out.Name = "[]="
		return out
	case "left_assignment_list", "destructured_left_assignment":
		out := &ast.Node{Kind: ast.KindMasgn, Loc: loc}
		for _, ch := range namedChildren(n) {
			out.Args = append(out.Args, c.target(ch))
		}
		return out
	case "rest_assignment":
		out := &ast.Node{Kind: ast.KindSplat, Loc: loc}
		if kids := namedChildren(n); len(kids) > 0 {
			out.Right = c.target(kids[0])
		}
		return out
	default:
		return c.node(n)
	}
}

// reader lowers an attribute or index target to the call that reads it.
// pattern lowers a pattern-matching pattern. Bare identifiers in a pattern
// bind locals; ^name pins read them.
func (c *converter) pattern(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	loc := c.loc(n)
	switch n.Type() {
	case "identifier":
		return c.target(n)
	case "as_pattern":
		out := &ast.Node{Kind: ast.KindBegin, Loc: loc}
		if v := c.pattern(n.ChildByFieldName("value")); v != nil {
			out.Body = append(out.Body, v)
		}
		if name := n.ChildByFieldName("name"); name != nil {
			out.Body = append(out.Body, c.target(name))
		}
		return out
	case "keyword_pattern":
		key := n.ChildByFieldName("key")
		if value := n.ChildByFieldName("value"); value != nil {
			return c.pattern(value)
		}
		if key == nil {
			return nil
		}
		// {name:} binds name
		name := strings.TrimSuffix(c.text(key), ":")
		kloc := c.loc(key)
		return &ast.Node{Kind: ast.KindLvasgn, Name: name, Loc: kloc, NameLoc: kloc}
	case "splat_parameter", "hash_splat_parameter":
		if name := n.ChildByFieldName("name"); name != nil {
			return c.target(name)
		}
		return nil
	case "variable_reference_pattern":
		return c.node(n.ChildByFieldName("name"))
	case "hash_pattern", "array_pattern", "find_pattern", "alternative_pattern", "parenthesized_pattern":
		out := &ast.Node{Kind: ast.KindBegin, Loc: loc}
		for _, ch := range namedChildren(n) {
			if an := c.pattern(ch); an != nil {
				out.Body = append(out.Body, an)
			}
		}
		return out
	default:
		return c.node(n)
	}
}

func (c *converter) reader(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "call":
		method := n.ChildByFieldName("method")
		out := &ast.Node{
			Kind:     ast.KindSend,
			Name:     c.text(method),
			Receiver: c.node(n.ChildByFieldName("receiver")),
			Loc:      c.loc(n),
			NameLoc:  c.loc(method),
		}
		if hasToken(n, "&.") {
			out.Kind = ast.KindCSend
		}
		return out
	case "element_reference":
		obj := n.ChildByFieldName("object")
		return &ast.Node{
			Kind:     ast.KindSend,
			Name:     "[]",
			Receiver: c.node(obj),
			Args:     c.list(namedChildren(n, obj)),
			Loc:      c.loc(n),
			NameLoc:  c.loc(n),
		}
	default:
		return c.target(n)
	}
}

func (c *converter) assignment(n *sitter.Node) *ast.Node {
	left := n.ChildByFieldName("left")
	value := c.node(n.ChildByFieldName("right"))
	if left == nil {
		return c.generic(n)
	}
	out := c.target(left)
	if out == nil {
		return value
	}
	out.Loc = c.loc(n)
	if out.IsCall() {
		// self.foo = bar sends foo= with bar as its argument
		if value != nil {
			out.Args = append(out.Args, value)
		}
		return out
	}
	out.Right = value
	return out
}

func (c *converter) operatorAssignment(n *sitter.Node) *ast.Node {
	left := n.ChildByFieldName("left")
	op := n.ChildByFieldName("operator")
	out := &ast.Node{
		Kind:  ast.KindOpAsgn,
		Right: c.node(n.ChildByFieldName("right")),
		Loc:   c.loc(n),
	}
	if op != nil {
		out.Text = c.text(op)
	}
	if left != nil {
		out.Target = c.reader(left)
	}
	return out
}

func (c *converter) binary(n *sitter.Node) *ast.Node {
	left := c.node(n.ChildByFieldName("left"))
	right := c.node(n.ChildByFieldName("right"))
	op := n.ChildByFieldName("operator")
	switch name := c.text(op); name {
	case "&&", "||", "and", "or", "":
		out := &ast.Node{Kind: ast.KindBegin, Loc: c.loc(n)}
		for _, side := range []*ast.Node{left, right} {
			if side != nil {
				out.Body = append(out.Body, side)
			}
		}
		return out
	default:
		out := &ast.Node{Kind: ast.KindSend, Name: name, Receiver: left, Loc: c.loc(n), NameLoc: c.loc(op)}
		if right != nil {
			out.Args = []*ast.Node{right}
		}
		return out
	}
}

func (c *converter) unary(n *sitter.Node) *ast.Node {
	operand := c.node(n.ChildByFieldName("operand"))
	op := n.ChildByFieldName("operator")
	var name string
	switch c.text(op) {
	case "!", "not":
		name = "!"
	case "-":
		name = "-@"
	case "+":
		name = "+@"
	case "~":
		name = "~"
	default:
		// defined? and friends are not method calls
		out := &ast.Node{Kind: ast.KindBegin, Loc: c.loc(n)}
		if operand != nil {
			out.Body = []*ast.Node{operand}
		}
		return out
	}
	return &ast.Node{Kind: ast.KindSend, Name: name, Receiver: operand, Loc: c.loc(n), NameLoc: c.loc(op)}
}

func (c *converter) def(n *sitter.Node, kind ast.Kind) *ast.Node {
	name := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	object := n.ChildByFieldName("object")
	return &ast.Node{
		Kind:     kind,
		Name:     c.text(name),
		Receiver: c.node(object),
		Params:   c.params(params),
		Body:     c.list(namedChildren(n, name, params, object)),
		Loc:      c.loc(n),
		NameLoc:  c.loc(name),
	}
}

// params flattens a parameter list into Arg nodes in declaration order.
func (c *converter) params(n *sitter.Node) []*ast.Node {
	var out []*ast.Node
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "identifier":
			loc := c.loc(ch)
			out = append(out, &ast.Node{Kind: ast.KindArg, Name: c.text(ch), Loc: loc, NameLoc: loc})
		case "optional_parameter", "keyword_parameter", "splat_parameter",
			"hash_splat_parameter", "block_parameter":
			name := ch.ChildByFieldName("name")
			if name == nil {
				continue
			}
			out = append(out, &ast.Node{
				Kind:    ast.KindArg,
				Name:    c.text(name),
				Right:   c.node(ch.ChildByFieldName("value")),
				Loc:     c.loc(ch),
				NameLoc: c.loc(name),
			})
		case "destructured_parameter", "block_parameters", "lambda_parameters", "method_parameters":
			out = append(out, c.params(ch)...)
		}
	}
	return out
}

func (c *converter) class(n *sitter.Node, kind ast.Kind) *ast.Node {
	name := n.ChildByFieldName("name")
	super := n.ChildByFieldName("superclass")
	out := &ast.Node{
		Kind:   kind,
		Target: c.node(name),
		Body:   c.list(namedChildren(n, name, super)),
		Loc:    c.loc(n),
	}
	if out.Target != nil {
		out.Name = out.Target.Name
		out.NameLoc = out.Target.NameLoc
	}
	if super != nil {
		if kids := namedChildren(super); len(kids) > 0 {
			out.Superclass = c.node(kids[0])
		}
	}
	return out
}

func (c *converter) block(n *sitter.Node) *ast.Node {
	params := n.ChildByFieldName("parameters")
	var rest []*sitter.Node
	for _, ch := range namedChildren(n, params) {
		if params == nil && ch.Type() == "block_parameters" {
			params = ch
			continue
		}
		rest = append(rest, ch)
	}
	return &ast.Node{
		Kind:   ast.KindBlock,
		Params: c.params(params),
		Body:   c.list(rest),
		Loc:    c.loc(n),
	}
}

func (c *converter) lambda(n *sitter.Node) *ast.Node {
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")
	out := &ast.Node{Kind: ast.KindBlock, Text: "lambda", Params: c.params(params), Loc: c.loc(n)}
	if body != nil {
		inner := c.block(body)
		out.Params = append(out.Params, inner.Params...)
		out.Body = inner.Body
	}
	return out
}

func (c *converter) pair(n *sitter.Node) *ast.Node {
	key := n.ChildByFieldName("key")
	value := n.ChildByFieldName("value")
	out := &ast.Node{Kind: ast.KindPair, Target: c.node(key), Right: c.node(value), Loc: c.loc(n)}
	if out.Right == nil && out.Target != nil && out.Target.Kind == ast.KindSym {
		// {x:} shorthand reads x
		out.Right = &ast.Node{Kind: ast.KindIdent, Name: out.Target.Text, Loc: out.Target.Loc, NameLoc: out.Target.Loc}
	}
	return out
}

func (c *converter) alias(n *sitter.Node) *ast.Node {
	name := n.ChildByFieldName("name")
	old := n.ChildByFieldName("alias")
	if name == nil || old == nil {
		if kids := namedChildren(n); len(kids) == 2 {
			name, old = kids[0], kids[1]
		}
	}
	return &ast.Node{
		Kind: ast.KindAlias,
		Args: []*ast.Node{c.methodName(name), c.methodName(old)},
		Loc:  c.loc(n),
	}
}

// methodName lowers a bare method name (alias/undef operand) to a symbol.
func (c *converter) methodName(n *sitter.Node) *ast.Node {
	if n == nil {
		return &ast.Node{Kind: ast.KindNil}
	}
	switch n.Type() {
	case "simple_symbol", "delimited_symbol", "global_variable":
		return c.node(n)
	default:
		return &ast.Node{Kind: ast.KindSym, Text: c.text(n), Loc: c.loc(n)}
	}
}
