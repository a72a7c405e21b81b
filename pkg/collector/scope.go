package collector

// scope is one level of local variable bindings. Blocks see the locals of
// the scope they are written in; method, class and module bodies do not.
type scope struct {
	parent *scope
	hard   bool
	locals map[string]struct{}
}

func newScope(parent *scope, hard bool) *scope {
	return &scope{parent: parent, hard: hard}
}

func (s *scope) bind(name string) {
	if name == "" {
		return
	}
	if s.locals == nil {
		s.locals = make(map[string]struct{})
	}
	s.locals[name] = struct{}{}
}

func (s *scope) has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.locals[name]; ok {
			return true
		}
		if cur.hard {
			return false
		}
	}
	return false
}
