package hxstore

// ActionFunc dispatches one specific action with the given payload.
type ActionFunc func(payload any) error

// DomainActions maps a domain's action names to their dispatch functions.
type DomainActions map[string]ActionFunc

// Dispatch maps domain names to their generated action functions:
//
//	d := store.Actions()
//	d["counter"]["inc"](5) // same as store.Dispatch(Action{"counter", "inc", 5})
type Dispatch map[string]DomainActions

// Rematchify generates an action function for every domain and action in
// the registry. Each function wraps dispatch with its own domain and name,
// so callers never spell out action types. The result depends only on the
// registry's shape, not on any state.
func Rematchify(models Models, dispatch func(Action) error) Dispatch {
	out := make(Dispatch, len(models))
	for domain, model := range models {
		actions := make(DomainActions, len(model.Reducers))
		for name := range model.Reducers {
			actions[name] = bind(dispatch, domain, name)
		}
		out[domain] = actions
	}
	return out
}

func bind(dispatch func(Action) error, domain, name string) ActionFunc {
	return func(payload any) error {
		return dispatch(Action{Domain: domain, Name: name, Payload: payload})
	}
}
