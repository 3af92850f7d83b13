package hxstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Reducer updates one domain's slice of state. It receives the whole slice
// and must return the whole replacement slice, never a partial patch.
//
// Most reducers are written with Handle, which takes care of the type
// assertions:
//
//	hxstore.Handle(func(s Counter, n int) Counter {
//	    s.N += n
//	    return s
//	})
type Reducer func(slice, payload any) (any, error)

// Model declares one domain: its initial slice and its named reducers.
type Model struct {
	InitialState any
	Reducers     map[string]Reducer
}

// Models maps domain names to their models. It is the input to New.
//
//	models := hxstore.Models{
//	    "counter": {
//	        InitialState: Counter{},
//	        Reducers: map[string]hxstore.Reducer{
//	            "inc":   hxstore.Handle(inc),
//	            "reset": hxstore.Handle(reset),
//	        },
//	    },
//	}
type Models map[string]Model

// Validate checks the registry shape. Domain and action names must be
// non-empty and must not contain "/", and every reducer must be non-nil.
//
// An empty registry, or a domain without reducers, is valid.
func (m Models) Validate() error {
	for _, domain := range m.Domains() {
		if err := validateName(domain); err != nil {
			return fmt.Errorf("%w: domain %q: %v", ErrInvalidModel, domain, err)
		}
		for _, action := range m.Actions(domain) {
			if err := validateName(action); err != nil {
				return fmt.Errorf("%w: action %q in domain %q: %v", ErrInvalidModel, action, domain, err)
			}
			if m[domain].Reducers[action] == nil {
				return fmt.Errorf("%w: action %q in domain %q has a nil reducer", ErrInvalidModel, action, domain)
			}
		}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("name contains '/'")
	}
	return nil
}

// Domains returns the registered domain names in sorted order.
func (m Models) Domains() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Actions returns the action names of a domain in sorted order.
// Unknown domains have no actions.
func (m Models) Actions(domain string) []string {
	model, ok := m[domain]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(model.Reducers))
	for name := range model.Reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// clone copies the registry and each reducer table so later changes to the
// caller's maps do not reach a running store.
func (m Models) clone() Models {
	out := make(Models, len(m))
	for domain, model := range m {
		reducers := make(map[string]Reducer, len(model.Reducers))
		for name, fn := range model.Reducers {
			reducers[name] = fn
		}
		out[domain] = Model{InitialState: model.InitialState, Reducers: reducers}
	}
	return out
}

// Handle adapts a typed update function into a Reducer.
//
// The slice must hold an S (a nil slice is passed as the zero S). The
// payload is passed through when it already is a P; otherwise it is
// converted with mapstructure, which covers payloads decoded from JSON,
// msgpack or form values (maps, float64 numbers, numeric strings).
func Handle[S, P any](fn func(S, P) S) Reducer {
	return HandleErr(func(s S, p P) (S, error) {
		return fn(s, p), nil
	})
}

// HandleErr is Handle for update functions that can reject a payload.
// A returned error aborts the dispatch and leaves the state unchanged.
func HandleErr[S, P any](fn func(S, P) (S, error)) Reducer {
	return func(slice, payload any) (any, error) {
		var s S
		if slice != nil {
			v, ok := slice.(S)
			if !ok {
				return nil, fmt.Errorf("%w: got %T, want %T", ErrSliceType, slice, s)
			}
			s = v
		}

		p, err := convertPayload[P](payload)
		if err != nil {
			return nil, err
		}

		return fn(s, p)
	}
}

func convertPayload[P any](payload any) (P, error) {
	var p P
	if payload == nil {
		return p, nil
	}
	if v, ok := payload.(P); ok {
		return v, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrPayloadType, err)
	}
	if err := dec.Decode(payload); err != nil {
		return p, fmt.Errorf("%w: cannot use %T as %T: %v", ErrPayloadType, payload, p, err)
	}
	return p, nil
}
