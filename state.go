package hxstore

// State is the combined state tree: one slice per registered domain.
//
// A State is a snapshot. Dispatch never mutates it; each transition builds
// a shallow copy with exactly one domain replaced, so untouched slices are
// shared between the old and the new snapshot. Consumers must treat the
// map and the slices it holds as read-only.
type State map[string]any

// Combine builds the initial combined state from a registry. Each domain's
// InitialState is stored by reference, not cloned.
func Combine(models Models) State {
	state := make(State, len(models))
	for domain, model := range models {
		state[domain] = model.InitialState
	}
	return state
}

// Get returns a domain's slice, or nil if the domain is not present.
func (s State) Get(domain string) any {
	return s[domain]
}

// With returns a shallow copy of s with one domain's slice replaced.
func (s State) With(domain string, slice any) State {
	next := make(State, len(s))
	for k, v := range s {
		next[k] = v
	}
	next[domain] = slice
	return next
}

// Slice returns a domain's slice as an S. The boolean is false when the
// domain is missing or holds a different type.
//
//	counter, ok := hxstore.Slice[Counter](hxstore.UseState(ctx), "counter")
func Slice[S any](state State, domain string) (S, bool) {
	v, ok := state[domain].(S)
	return v, ok
}
