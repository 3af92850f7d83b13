// Package hxstore provides a global state container for server-rendered
// applications built with Go, Templ templates, and HTMX.
//
// State is split into named domains. Each domain is described by a Model:
// an initial slice of state and a set of named reducers that compute the
// next slice from the current one and an action payload. A Store combines
// the models into one State, applies dispatched actions, and hands the
// current snapshot to components through a Provider.
//
// # Models
//
// A registry maps domain names to models:
//
//	models := hxstore.Models{
//	    "counter": {
//	        InitialState: Counter{},
//	        Reducers: map[string]hxstore.Reducer{
//	            "inc": hxstore.Handle(func(s Counter, n int) Counter {
//	                s.N += n
//	                return s
//	            }),
//	        },
//	    },
//	}
//
// Reducers must not mutate the slice they receive. Handle and HandleErr
// adapt typed functions to the Reducer signature and convert payloads
// decoded from JSON or form fields (float64, strings, maps) into the
// parameter type.
//
// New validates the registry and fails with ErrInvalidModel for empty
// domain or action names, names containing "/", and nil reducers.
//
// # Dispatching
//
// An Action names its domain, its reducer, and carries a payload. Its
// type string is "domain/name":
//
//	err := store.Dispatch(hxstore.Action{Domain: "counter", Name: "inc", Payload: 5})
//
// Only the addressed domain changes; every other slice keeps its identity.
// A failing reducer leaves the state untouched and its error is returned
// to the caller. Unknown domains and actions fail with ErrUnknownDomain and
// ErrUnknownAction.
//
// Store.Actions returns the same effect through generated action creators,
// built once by Rematchify:
//
//	store.Actions()["counter"]["inc"](5)
//
// # Provider and accessors
//
// Provider is a templ.Component that makes the store's snapshot available
// to everything it renders. Components read it back with UseState and
// UseDispatch:
//
//	templ Count() {
//	    {{ c, _ := hxstore.Slice[Counter](hxstore.UseState(ctx), "counter") }}
//	    <p>{ strconv.Itoa(c.N) }</p>
//	}
//
// A render sees one consistent snapshot even if actions are dispatched
// while it runs. Outside a Provider both accessors return nil.
//
// # HTMX transport
//
// Store.Handler serves dispatches over HTTP. Wire and MustWire build the
// attributes that post an action with a signed payload:
//
//	<button { store.MustWire("counter", "inc", 1)... }>+1</button>
//
// After a successful dispatch the handler re-renders the given view inside
// a Provider and sends an HX-Trigger event named DispatchedEvent. Errors
// are answered with an out-of-band toast swapped into #toasts. Unknown
// actions get 404. Payloads that cannot be decoded or converted get 400,
// and bodies over the size cap get 413. Reducer failures get 422.
//
// Mutating requests require the HX-Request header, which cross-origin
// forms cannot set.
//
// # Observing
//
// Observers see every transition, successful or not, in dispatch order.
// WithLogger installs LogObserver, which logs the previous state, the
// action, and the next state. NewMetrics exports Prometheus counters and
// a duration histogram.
//
// # Testing
//
// TestRender renders a component under a Provider, and NewTestRequest
// builds HTMX requests against Store.Handler. Recorder captures
// transitions for assertions.
package hxstore
