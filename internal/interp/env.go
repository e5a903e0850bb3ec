package interp

import (
	"sort"
	"sync"

	"github.com/vk/burstmd/internal/value"
)

type binding struct {
	value    value.Value
	constant bool
}

// Env is one lexical scope. The root Env of a render is shared by every block
// and may be read and extended by concurrently running blocks, so all access
// goes through its lock. Child scopes hold a pointer to their parent; closures
// capture the scope they were created in by reference.
type Env struct {
	mu       sync.RWMutex
	vars     map[string]*binding
	parent   *Env
	function bool
}

// NewEnv creates a scope chained to parent. A nil parent creates a root.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]*binding), parent: parent}
}

func newFunctionEnv(parent *Env) *Env {
	e := NewEnv(parent)
	e.function = true
	return e
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env { return e.parent }

// Root returns the outermost scope.
func (e *Env) Root() *Env {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Declare creates or replaces a binding in this scope.
func (e *Env) Declare(name string, v value.Value, constant bool) {
	e.mu.Lock()
	e.vars[name] = &binding{value: v, constant: constant}
	e.mu.Unlock()
}

// Define is Declare for mutable bindings.
func (e *Env) Define(name string, v value.Value) { e.Declare(name, v, false) }

// Lookup resolves name through the scope chain.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for s := e; s != nil; s = s.parent {
		s.mu.RLock()
		b, ok := s.vars[name]
		var v value.Value
		if ok {
			v = b.value
		}
		s.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return value.Undefined, false
}

// Get returns the value bound to name, or undefined.
func (e *Env) Get(name string) value.Value {
	v, _ := e.Lookup(name)
	return v
}

// Owner returns the scope that binds name, or nil.
func (e *Env) Owner(name string) *Env {
	for s := e; s != nil; s = s.parent {
		s.mu.RLock()
		_, ok := s.vars[name]
		s.mu.RUnlock()
		if ok {
			return s
		}
	}
	return nil
}

// fork returns a sibling scope holding copies of this scope's bindings.
func (e *Env) fork() *Env {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f := &Env{vars: make(map[string]*binding, len(e.vars)), parent: e.parent, function: e.function}
	for name, b := range e.vars {
		f.vars[name] = &binding{value: b.value, constant: b.constant}
	}
	return f
}

// functionScope returns the nearest function scope, or the root.
func (e *Env) functionScope() *Env {
	s := e
	for !s.function && s.parent != nil {
		s = s.parent
	}
	return s
}

// set writes an existing binding of this scope.
func (e *Env) set(name string, v value.Value) (ok, constant bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, found := e.vars[name]
	if !found {
		return false, false
	}
	if b.constant {
		return true, true
	}
	b.value = v
	return true, false
}

// Names returns the names bound directly in this scope, sorted.
func (e *Env) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
