package value

// MaxListLen bounds the number of elements a list may grow to. Lists are
// dense, so writing far past the end would otherwise allocate every
// element in between.
const MaxListLen = 1 << 24

// MaxStringLen bounds the byte length of strings built by repetition or
// padding.
const MaxStringLen = 1 << 28

// List is the backing store of an array value. Lists are shared by reference:
// every Value wrapping the same *List observes the same elements.
type List struct {
	items  []Value
	frozen bool
}

// NewList creates a mutable list that takes ownership of items.
func NewList(items []Value) *List {
	return &List{items: items}
}

// Frozen reports whether in-place mutation is rejected.
func (l *List) Frozen() bool { return l.frozen }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at i, or undefined when i is out of range.
func (l *List) At(i int) Value {
	if i < 0 || i >= len(l.items) {
		return Undefined
	}
	return l.items[i]
}

// Values returns the underlying elements. Callers must not modify the slice
// of a frozen list.
func (l *List) Values() []Value { return l.items }

// Copy returns a mutable shallow copy of the elements.
func (l *List) Copy() []Value {
	out := make([]Value, len(l.items))
	copy(out, l.items)
	return out
}

// Set stores v at index i, growing the list with undefined as needed. It
// returns false for frozen lists and for indices outside [0, MaxListLen).
func (l *List) Set(i int, v Value) bool {
	if l.frozen || i < 0 || i >= MaxListLen {
		return false
	}
	if i >= len(l.items) {
		l.items = append(l.items, make([]Value, i+1-len(l.items))...)
	}
	l.items[i] = v
	return true
}

// Resize truncates the list or pads it with undefined to n elements. It
// returns false for frozen lists and for lengths outside [0, MaxListLen].
func (l *List) Resize(n int) bool {
	if l.frozen || n < 0 || n > MaxListLen {
		return false
	}
	if n <= len(l.items) {
		l.items = l.items[:n:n]
		return true
	}
	l.items = append(l.items, make([]Value, n-len(l.items))...)
	return true
}

// Append adds vs to the end of the list.
func (l *List) Append(vs ...Value) bool {
	if l.frozen {
		return false
	}
	l.items = append(l.items, vs...)
	return true
}

// Replace swaps the whole element slice.
func (l *List) Replace(items []Value) bool {
	if l.frozen {
		return false
	}
	l.items = items
	return true
}

// Object is an insertion-ordered string-keyed map.
type Object struct {
	keys   []string
	fields map[string]Value
	frozen bool
}

// NewObject returns an empty mutable object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Freeze makes the object reject further writes and returns it.
func (o *Object) Freeze() *Object {
	o.frozen = true
	return o
}

func (o *Object) Frozen() bool { return o.frozen }

// Get returns the field named key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// Set writes a field, appending new keys in insertion order.
func (o *Object) Set(key string, v Value) bool {
	if o.frozen {
		return false
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
	return true
}

// Delete removes a field.
func (o *Object) Delete(key string) bool {
	if o.frozen {
		return false
	}
	if _, ok := o.fields[key]; !ok {
		return false
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }
