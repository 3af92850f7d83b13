package hxstore

import "fmt"

// Reduce is the root reducer. It resolves the action's domain and name in
// the registry, runs that reducer on the domain's slice and returns the next
// state with only that slice replaced.
//
// Reduce is pure: it never mutates current and has no side effects. When
// the action is not registered, or the reducer returns an error, current is
// returned unchanged together with the error.
func Reduce(models Models, current State, a Action) (State, error) {
	model, ok := models[a.Domain]
	if !ok {
		return current, fmt.Errorf("%w: %q", ErrUnknownDomain, a.Type())
	}
	reducer, ok := model.Reducers[a.Name]
	if !ok {
		return current, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type())
	}

	slice, err := reducer(current[a.Domain], a.Payload)
	if err != nil {
		return current, fmt.Errorf("hxstore: %s: %w", a.Type(), err)
	}
	return current.With(a.Domain, slice), nil
}
