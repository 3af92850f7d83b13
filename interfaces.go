package hxstore

// StoreHandle is the store as seen by components.
//
// Components that prefer explicit wiring over context lookup take a StoreHandle
// as a constructor parameter instead of calling UseState and UseDispatch:
//
//	type CounterView struct {
//	    store hxstore.StoreHandle
//	}
//
//	func (v *CounterView) Render(ctx context.Context) templ.Component {
//	    c, _ := hxstore.Slice[Counter](v.store.State(), "counter")
//	    return counterTemplate(c)
//	}
//
// *Store implements StoreHandle. Tests can substitute a fake.
type StoreHandle interface {
	State() State
	Actions() Dispatch
	Dispatch(a Action) error
	Value() Value
}

var _ StoreHandle = (*Store)(nil)
