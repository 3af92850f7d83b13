package hxstore

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Value is what a Provider makes available to its descendants.
//
// Dispatch holds the generated per-domain action functions. Raw dispatches
// an Action directly, for callers that build actions dynamically.
type Value struct {
	State    State
	Dispatch Dispatch
	Raw      func(Action) error
}

type contextKey struct{}

// WithValue returns a copy of ctx carrying v. Provider uses it; call it
// directly when rendering outside of templ.
func WithValue(ctx context.Context, v Value) context.Context {
	return context.WithValue(ctx, contextKey{}, v)
}

// FromContext returns the Value installed by the nearest Provider.
func FromContext(ctx context.Context) (Value, bool) {
	v, ok := ctx.Value(contextKey{}).(Value)
	return v, ok
}

// Provider renders children with h's current Value in the render context.
// Mount it once near the root of the page:
//
//	hxstore.Provider(store, layout()).Render(ctx, w)
//
// The Value is read when the Provider renders, so every render of the page
// sees one consistent snapshot even if dispatches happen meanwhile.
func Provider(h StoreHandle, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if children == nil {
			return nil
		}
		return children.Render(WithValue(ctx, h.Value()), w)
	})
}

// UseState returns the state published by the nearest Provider.
// Outside of a Provider it returns nil.
func UseState(ctx context.Context) State {
	v, _ := FromContext(ctx)
	return v.State
}

// UseDispatch returns the action functions published by the nearest
// Provider. Outside of a Provider it returns nil.
//
//	hxstore.UseDispatch(ctx)["todos"]["add"](title)
func UseDispatch(ctx context.Context) Dispatch {
	v, _ := FromContext(ctx)
	return v.Dispatch
}
