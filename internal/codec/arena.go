package codec

// Arena is an owner-held collection of entities keyed by external identity
// string. Entities reference each other by key through the owning Arena,
// never by live pointer, which keeps serialized graphs free of cycles.
// Iteration follows insertion order so documents round-trip deterministically.
type Arena[E any] struct {
	keys  []string
	items map[string]E
}

// NewArena returns an empty arena.
func NewArena[E any]() *Arena[E] {
	return &Arena[E]{items: make(map[string]E)}
}

// Put inserts or replaces the entity stored under id. A replaced entity keeps
// its original position in the iteration order.
func (a *Arena[E]) Put(id string, e E) {
	if _, ok := a.items[id]; !ok {
		a.keys = append(a.keys, id)
	}
	a.items[id] = e
}

// Get returns the entity stored under id.
func (a *Arena[E]) Get(id string) (E, bool) {
	e, ok := a.items[id]
	return e, ok
}

// Delete removes the entity stored under id, if any.
func (a *Arena[E]) Delete(id string) {
	if _, ok := a.items[id]; !ok {
		return
	}
	delete(a.items, id)
	for i, k := range a.keys {
		if k == id {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored entities.
func (a *Arena[E]) Len() int {
	return len(a.keys)
}

// IDs returns the identity keys in insertion order.
func (a *Arena[E]) IDs() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Each calls fn for every entity in insertion order.
func (a *Arena[E]) Each(fn func(id string, e E)) {
	for _, k := range a.keys {
		fn(k, a.items[k])
	}
}

// Documents serializes every entity in insertion order using fn.
func (a *Arena[E]) Documents(fn func(e E) Document) []Document {
	out := make([]Document, 0, len(a.keys))
	for _, k := range a.keys {
		out = append(out, fn(a.items[k]))
	}
	return out
}

// Ref is a back-reference to an entity held in a sibling or owner Arena. It
// is persisted as the identity string alone and resolved once the whole
// graph exists, during the resolution pass of a two-phase load.
type Ref[E any] struct {
	ID string

	target E
	bound  bool
}

// RefTo returns a ref that is already bound to a live entity.
func RefTo[E any](id string, e E) Ref[E] {
	return Ref[E]{ID: id, target: e, bound: true}
}

// RefID returns an unbound ref carrying only the identity string, as built
// during the forward pass of a load.
func RefID[E any](id string) Ref[E] {
	return Ref[E]{ID: id}
}

// Set points the ref at a live entity.
func (r *Ref[E]) Set(id string, e E) {
	r.ID = id
	r.target = e
	r.bound = true
}

// Clear unbinds the ref.
func (r *Ref[E]) Clear() {
	var zero E
	r.ID = ""
	r.target = zero
	r.bound = false
}

// Resolved returns the bound entity. The second return is false for empty
// refs and for refs whose target could not be resolved at load time.
func (r Ref[E]) Resolved() (E, bool) {
	return r.target, r.bound
}

// Bind resolves the ref against the owning arena during the resolution pass.
// A missing target records an Unresolved marker on the report instead of
// failing the load; the ref keeps its identity string but stays unbound.
func (r *Ref[E]) Bind(owner *Arena[E], rep *Report, kind, field string) {
	if r.ID == "" {
		return
	}
	e, ok := owner.Get(r.ID)
	if !ok {
		rep.Mark(kind, r.ID, field)
		return
	}
	r.target = e
	r.bound = true
}
