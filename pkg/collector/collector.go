// Package collector walks one parsed file and records what it defines and
// what it calls, applying the compiled dynamic rules at every node.
package collector

import (
	"sort"

	"github.com/kamoh/leftovers/pkg/ast"
	"github.com/kamoh/leftovers/pkg/models"
	"github.com/kamoh/leftovers/pkg/processor"
	"github.com/kamoh/leftovers/pkg/rules"
)

// Collect walks file once and returns its definitions and calls. test
// marks the file as a test file: its calls are recorded as test calls and
// its definitions are flagged. rs is only read.
func Collect(file *ast.File, rs *rules.RuleSet, test bool) *models.FileResult {
	c := &collector{
		rs:        rs,
		test:      test,
		calls:     make(map[string]struct{}),
		testCalls: make(map[string]struct{}),
		scope:     newScope(nil, true),
	}
	c.walk(file.Root)
	c.applyDirectives(file.Comments)

	return &models.FileResult{
		Path:        file.Path,
		Test:        test,
		Definitions: c.defs,
		Calls:       sortedKeys(c.calls),
		TestCalls:   sortedKeys(c.testCalls),
	}
}

type collector struct {
	rs    *rules.RuleSet
	test  bool
	scope *scope

	defs      []models.DefinitionSet
	calls     map[string]struct{}
	testCalls map[string]struct{}
}

func (c *collector) call(name string) {
	if name == "" {
		return
	}
	if c.test {
		c.testCalls[name] = struct{}{}
		return
	}
	c.calls[name] = struct{}{}
}

func (c *collector) define(name string, loc ast.Location, dynamic bool) {
	if name == "" {
		return
	}
	c.defs = append(c.defs, models.DefinitionSet{Definitions: []models.Definition{
		{Name: name, Location: loc, Test: c.test, Dynamic: dynamic},
	}})
}

func (c *collector) walk(n *ast.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case ast.KindSend, ast.KindCSend:
		c.send(n)
		return
	case ast.KindIdent:
		if !c.scope.has(n.Name) {
			// a receiverless call without arguments
			c.call(n.Name)
			c.fire(n)
		}
		return
	case ast.KindIvar, ast.KindCvar, ast.KindGvar:
		c.call(n.Name)
		return
	case ast.KindConst:
		c.call(n.Name)
		c.walk(n.Receiver)
		c.fire(n)
		return
	case ast.KindLvasgn:
		// the name is a local from here on, including in its own value
		c.scope.bind(n.Name)
		c.walk(n.Right)
		return
	case ast.KindIvasgn, ast.KindCvasgn, ast.KindGvasgn:
		c.define(n.Name, nameLoc(n), false)
		c.walk(n.Right)
		return
	case ast.KindCasgn:
		c.define(n.Name, nameLoc(n), false)
		c.walk(n.Receiver)
		c.fire(n)
		c.walk(n.Right)
		return
	case ast.KindOpAsgn:
		c.opAssign(n)
		return
	case ast.KindDef, ast.KindDefs:
		c.def(n)
		return
	case ast.KindClass, ast.KindModule:
		c.class(n)
		return
	case ast.KindSClass:
		c.walk(n.Receiver)
		c.enter(true, func() { c.walkAll(n.Body) })
		return
	case ast.KindBlock:
		c.fire(n)
		c.enter(false, func() {
			c.params(n.Params)
			c.walkAll(n.Body)
		})
		return
	case ast.KindBlockPass:
		c.fire(n)
		if name, ok := n.Right.Literal(); ok && n.Right.Kind == ast.KindSym {
			// &:name calls name on each element
			c.call(name)
			return
		}
		c.walk(n.Right)
		return
	case ast.KindAlias:
		c.alias(n)
		return
	}

	c.fire(n)
	for _, child := range n.Children() {
		c.walk(child)
	}
}

func (c *collector) walkAll(nodes []*ast.Node) {
	for _, n := range nodes {
		c.walk(n)
	}
}

// enter runs fn in a nested scope. A hard scope starts with no locals.
func (c *collector) enter(hard bool, fn func()) {
	outer := c.scope
	c.scope = newScope(outer, hard)
	fn()
	c.scope = outer
}

func (c *collector) send(n *ast.Node) {
	c.call(n.Name)
	c.walk(n.Receiver)
	c.fire(n)
	c.walkAll(n.Args)
	c.walkAll(n.Kwargs)
	c.walk(n.BlockArg)
	c.walk(n.Block)
}

// params binds parameters in order. A default value is walked before its
// parameter is bound, so `def m(a = a)` reads a method a.
func (c *collector) params(params []*ast.Node) {
	for _, p := range params {
		c.walk(p.Right)
		c.scope.bind(p.Name)
	}
}

func (c *collector) def(n *ast.Node) {
	c.walk(n.Receiver)
	c.define(n.Name, nameLoc(n), false)
	c.fire(n)
	c.enter(true, func() {
		c.params(n.Params)
		c.walkAll(n.Body)
	})
}

func (c *collector) class(n *ast.Node) {
	if n.Target != nil {
		c.walk(n.Target.Receiver)
	}
	c.define(n.Name, nameLoc(n), false)
	c.walk(n.Superclass)
	c.fire(n)
	c.enter(true, func() { c.walkAll(n.Body) })
}

// opAssign handles `target op= value`: the target is read and written.
func (c *collector) opAssign(n *ast.Node) {
	t := n.Target
	switch {
	case t == nil:
	case t.IsCall():
		c.call(t.Name)
		c.call(t.Name + "=")
		c.walk(t.Receiver)
		c.walkAll(t.Args)
	case t.Kind == ast.KindLvasgn:
		c.scope.bind(t.Name)
	case t.Kind == ast.KindIvasgn, t.Kind == ast.KindCvasgn, t.Kind == ast.KindGvasgn, t.Kind == ast.KindCasgn:
		c.define(t.Name, nameLoc(t), false)
		c.call(t.Name)
		c.walk(t.Receiver)
	default:
		c.walk(t)
	}
	c.walk(n.Right)
}

// alias handles the keyword form, which is syntax rather than a call.
func (c *collector) alias(n *ast.Node) {
	if len(n.Args) != 2 {
		return
	}
	newName, old := n.Args[0], n.Args[1]
	if name, ok := aliasName(newName); ok {
		c.define(name, newName.Loc, false)
	}
	if name, ok := aliasName(old); ok {
		c.call(name)
	}
}

func aliasName(n *ast.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Kind == ast.KindGvar {
		return n.Name, n.Name != ""
	}
	if n.Kind != ast.KindSym {
		return "", false
	}
	return n.Text, n.Text != ""
}

// fire runs every rule for n's kind whose matcher accepts it.
func (c *collector) fire(n *ast.Node) {
	if c.rs == nil {
		return
	}
	candidates := c.rs.For(n.Kind)
	if len(candidates) == 0 {
		return
	}

	acc := &ruleAcc{c: c}
	for _, r := range candidates {
		if !r.Matcher.Match(n) {
			continue
		}
		if r.Calls != nil {
			r.Calls.Process(processor.Value{}, n, n, acc)
		}
		if r.Defines != nil {
			r.Defines.Process(processor.Value{}, n, n, acc)
		}
	}
	acc.flush()
}

// ruleAcc collects what rules produce for one node. Definitions taken
// from the same argument node form one set.
type ruleAcc struct {
	c     *collector
	order []*ast.Node
	sets  map[*ast.Node]*models.DefinitionSet
}

func (a *ruleAcc) AddCall(name string, _ *ast.Node) {
	a.c.call(name)
}

func (a *ruleAcc) AddDefinition(name string, node *ast.Node, dynamic bool) {
	if name == "" {
		return
	}
	if a.sets == nil {
		a.sets = make(map[*ast.Node]*models.DefinitionSet)
	}
	set, ok := a.sets[node]
	if !ok {
		set = &models.DefinitionSet{}
		a.sets[node] = set
		a.order = append(a.order, node)
	}
	for _, d := range set.Definitions {
		if d.Name == name {
			return
		}
	}
	set.Definitions = append(set.Definitions, models.Definition{
		Name:     name,
		Location: nameLoc(node),
		Test:     a.c.test,
		Dynamic:  dynamic,
	})
}

func (a *ruleAcc) flush() {
	for _, n := range a.order {
		a.c.defs = append(a.c.defs, *a.sets[n])
	}
}

// nameLoc is where n's name is, falling back to the whole node.
func nameLoc(n *ast.Node) ast.Location {
	if !n.NameLoc.IsZero() {
		return n.NameLoc
	}
	return n.Loc
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
