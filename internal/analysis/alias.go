package analysis

import (
	"strconv"
	"strings"
)

// builtinNames are script globals whose calls return fresh values.
var builtinNames = map[string]bool{
	"Math": true, "JSON": true, "Object": true, "Array": true, "String": true,
	"Number": true, "Boolean": true, "Date": true, "parseInt": true,
	"parseFloat": true, "isNaN": true, "console": true,
}

// aliasGraph records which variables may share a value. Keys are top-level
// names or block-local keys (see localKey).
//
// An edge child -> parent means the value of child may be reachable from
// the value of parent without being that value. same links variables that
// may hold the very same value.
type aliasGraph struct {
	parents  map[string]map[string]bool
	children map[string]map[string]bool
	same     map[string]map[string]bool
	// opaque keys may hold any value, e.g. parameters or the result of a
	// user function call.
	opaque map[string]bool
}

func newAliasGraph() *aliasGraph {
	return &aliasGraph{
		parents:  make(map[string]map[string]bool),
		children: make(map[string]map[string]bool),
		same:     make(map[string]map[string]bool),
		opaque:   make(map[string]bool),
	}
}

func addEdge(m map[string]map[string]bool, from, to string) {
	if m[from] == nil {
		m[from] = make(map[string]bool)
	}
	m[from][to] = true
}

func (g *aliasGraph) add(e aliasEdge) {
	if e.from == e.to {
		return
	}
	switch e.kind {
	case refSame:
		addEdge(g.same, e.from, e.to)
		addEdge(g.same, e.to, e.from)
	case refInside:
		addEdge(g.parents, e.from, e.to)
		addEdge(g.children, e.to, e.from)
	}
}

// closure returns keys and everything reachable from them over the given
// relations.
func closure(keys map[string]bool, rels ...map[string]map[string]bool) map[string]bool {
	seen := make(map[string]bool, len(keys))
	queue := make([]string, 0, len(keys))
	for k := range keys {
		seen[k] = true
		queue = append(queue, k)
	}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, rel := range rels {
			for n := range rel[k] {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return seen
}

// observers returns every variable that can see a change to the value held
// by key. A deep change may be anywhere below that value.
func (g *aliasGraph) observers(key string, deep bool) map[string]bool {
	eq := closure(map[string]bool{key: true}, g.same)
	// Values taken out of a container may be any other value inside it.
	target := closure(eq)
	for p := range closure(eq, g.parents, g.same) {
		if eq[p] {
			continue
		}
		for c := range closure(g.children[p], g.children, g.same) {
			target[c] = true
		}
	}
	if deep {
		target = closure(target, g.children, g.same)
	}
	return closure(target, g.parents, g.same)
}

type aliasEdge struct {
	from, to string
	kind     refKind
}

// refKind describes how a referenced value relates to a binding target.
type refKind uint8

const (
	// refSame: the target may be the referenced value.
	refSame refKind = 1 << iota
	// refInside: the referenced value may be reachable from the target.
	refInside
	// refOwner: the target may be reachable from the referenced value.
	refOwner
)

type bindKind int

const (
	// bindValue assigns the value of an expression.
	bindValue bindKind = iota
	// bindStore stores the referenced values inside the target.
	bindStore
	// bindElem assigns elements of the referenced values.
	bindElem
)

// localKey names a variable bound inside a nested scope of one block.
func localKey(prefix string, scopeID int, name string) string {
	return "\x00" + prefix + "/" + strconv.Itoa(scopeID) + "/" + name
}

func isLocalKey(key string) bool { return strings.HasPrefix(key, "\x00") }

// binding tracks the right-hand side of an assignment, a declaration, a
// for-of head or the arguments of a mutating call while it is scanned.
type binding struct {
	target string
	kind   bindKind
	// depth is the group depth at which the right-hand side started.
	depth int
	// scopes is the scope depth at the start; references made deeper are
	// captured by a function literal.
	scopes int
	// grouped bindings end with their enclosing group only.
	grouped bool
	opaque  bool
	refs    map[string]refKind
	// names and called hold the top-level names referenced as values and
	// as callees. fns holds the bodies of function literals.
	names  map[string]bool
	called map[string]bool
	fns    []*effects
}

func (s *scanner) startBinding(target string, kind bindKind, grouped bool) {
	s.bindings = append(s.bindings, &binding{
		target:  target,
		kind:    kind,
		depth:   len(s.groups),
		scopes:  len(s.scopes),
		grouped: grouped,
		refs:    make(map[string]refKind),
		names:   make(map[string]bool),
		called:  make(map[string]bool),
	})
}

// endBindings closes the open bindings matching done.
func (s *scanner) endBindings(done func(*binding) bool) {
	kept := s.bindings[:0]
	for _, b := range s.bindings {
		if done(b) {
			s.bound = append(s.bound, b)
		} else {
			kept = append(kept, b)
		}
	}
	s.bindings = kept
}

// noteRef adds a reference to name to every open binding. derived is set
// when the value is reached through a member access or a method call.
func (s *scanner) noteRef(name string, derived bool) {
	if name == OutputVar || len(s.bindings) == 0 {
		return
	}
	key := s.keyOf(name)
	for _, b := range s.bindings {
		literal := s.inLiteral(b.depth)
		var kind refKind
		switch {
		case b.kind == bindElem && literal:
			kind = refSame
		case b.kind == bindElem:
			kind = refOwner
		case b.kind == bindStore || literal || len(s.scopes) > b.scopes:
			kind = refInside
		case derived:
			kind = refOwner
		default:
			kind = refSame
		}
		b.refs[key] |= kind
		if !isLocalKey(key) {
			b.names[name] = true
		}
	}
}

// noteCall records a call of a bare function name. A user function computes
// the value of the open bindings.
func (s *scanner) noteCall(name string) {
	for _, b := range s.bindings {
		if s.isLocal(name) {
			if len(s.scopes) == b.scopes {
				b.opaque = true
			}
			continue
		}
		b.called[name] = true
		if len(s.scopes) == b.scopes && !builtinNames[name] {
			b.opaque = true
		}
	}
}

// noteFunction attaches the body of a function literal to the open bindings.
func (s *scanner) noteFunction(fx *effects) {
	for _, b := range s.bindings {
		b.fns = append(b.fns, fx)
	}
}

func (s *scanner) inLiteral(depth int) bool {
	if depth > len(s.groups) {
		return false
	}
	for _, g := range s.groups[depth:] {
		if g.object || g.array {
			return true
		}
	}
	return false
}

// keyOf returns the graph key of name as seen from the current scope.
func (s *scanner) keyOf(name string) string {
	for k := len(s.scopes) - 1; k >= 1; k-- {
		if sc := s.scopes[k]; sc.names[name] {
			return localKey(s.prefix, sc.id, name)
		}
	}
	return name
}

// mutate records an in-place change of the value held by name. deep
// changes reach below the first level of the value.
func (s *scanner) mutate(name string, deep bool) {
	if name == OutputVar {
		return
	}
	key := s.keyOf(name)
	if !isLocalKey(key) {
		s.record(func(e *effects) {
			e.write(name)
			e.mutate(key, deep)
		})
		return
	}
	// A named function's locals only matter where it is called.
	if sc := s.summaryScope(); sc != nil && sc.named {
		sc.summary.mutate(key, deep)
		return
	}
	s.record(func(e *effects) { e.mutate(key, deep) })
}

// link turns the closed bindings into alias edges. The result of a call may
// be any value the callee can reach.
func (s *scanner) link(g *aliasGraph, lookup func(string) *effects) {
	for _, b := range s.bound {
		for ref, kinds := range b.refs {
			for _, k := range []refKind{refSame, refInside, refOwner} {
				switch {
				case kinds&k == 0:
				case k == refOwner:
					g.add(aliasEdge{from: b.target, to: ref, kind: refInside})
				default:
					g.add(aliasEdge{from: ref, to: b.target, kind: k})
				}
			}
		}
		for name := range b.called {
			fx := lookup(name)
			if fx == nil {
				continue
			}
			for _, n := range append(sortedKeys(fx.reads), sortedKeys(fx.writes)...) {
				if n != name && n != "tp" && !strings.Contains(n, ".") {
					g.add(aliasEdge{from: n, to: b.target, kind: refSame})
				}
			}
		}
		if b.opaque {
			g.opaque[b.target] = true
		}
	}
	for k := range s.opaque {
		g.opaque[k] = true
	}
}

// attachSummaries gives variables that may hold a function the effects of
// calling it, so that later blocks calling through them inherit those
// effects.
func (s *scanner) attachSummaries(known map[string]*effects, lookup func(string) *effects) {
	for _, b := range s.bound {
		if isLocalKey(b.target) || b.target == OutputVar {
			continue
		}
		carry := newEffects()
		for _, fx := range b.fns {
			carry.merge(fx)
		}
		for _, name := range sortedKeys(b.names) {
			if fx := lookup(name); fx != nil {
				carry.merge(fx)
			}
		}
		// A call result is only a function if the callee makes one.
		for _, name := range sortedKeys(b.called) {
			if fx := lookup(name); fx != nil && fx.makesFn {
				carry.merge(fx)
			}
		}
		if carry.empty() {
			continue
		}
		absorb(carry, lookup)
		fx := s.functions[b.target]
		if fx == nil {
			fx = newEffects()
			if prev := known[b.target]; prev != nil {
				fx.merge(prev)
			}
			s.functions[b.target] = fx
		}
		fx.merge(carry)
	}
}

// expandMutations turns the in-place changes of the block into writes of
// every variable that may observe them. A change through an opaque value
// writes everything the block reads.
func (s *scanner) expandMutations(g *aliasGraph) {
	wild := false
	for key, deep := range s.fx.mutates {
		for n := range g.observers(key, deep) {
			if g.opaque[n] {
				wild = true
			}
			if !isLocalKey(n) {
				s.fx.write(n)
			}
		}
	}
	if !wild {
		return
	}
	for _, r := range sortedKeys(s.fx.reads) {
		if r == "tp" || strings.Contains(r, ".") || builtinNames[r] {
			continue
		}
		for n := range g.observers(r, true) {
			if !isLocalKey(n) {
				s.fx.write(n)
			}
		}
	}
}
