package demo

import (
	"context"

	"github.com/pthm/hxstore"
)

// htmxConfig lets htmx swap 4xx and 5xx responses, so the error toasts the
// dispatch handler sends out of band reach #toasts. 204 swaps nothing.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true},{"code":"...","swap":true}]}`

func counterSlice(ctx context.Context) Counter {
	c, _ := hxstore.Slice[Counter](hxstore.UseState(ctx), "counter")
	return c
}

func todoSlice(ctx context.Context) Todos {
	t, _ := hxstore.Slice[Todos](hxstore.UseState(ctx), "todos")
	return t
}
