package codec

import "fmt"

// Unresolved marks a back-reference whose target was absent from its owner's
// collection at load time, typically because the external identity was
// purged. It is a load-time condition, not an error: the entity loads with
// the ref unbound and the caller decides how to surface it.
type Unresolved struct {
	Kind  string // entity kind of the missing target, e.g. "player"
	ID    string // identity string that failed to resolve
	Field string // owning field, for diagnostics
}

func (u Unresolved) String() string {
	return fmt.Sprintf("unresolved %s %q referenced by %s", u.Kind, u.ID, u.Field)
}

// Report collects the conditions raised while loading one entity graph.
type Report struct {
	unresolved []Unresolved
}

// Mark records an unresolved back-reference.
func (r *Report) Mark(kind, id, field string) {
	r.unresolved = append(r.unresolved, Unresolved{Kind: kind, ID: id, Field: field})
}

// Unresolved returns every recorded marker in discovery order.
func (r *Report) Unresolved() []Unresolved {
	return r.unresolved
}

// Clean reports whether the load completed without conditions.
func (r *Report) Clean() bool {
	return len(r.unresolved) == 0
}
