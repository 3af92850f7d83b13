package hxstore

import (
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response inside a Provider
// for h, so the component and its children can call UseState and
// UseDispatch.
//
//	func page(w http.ResponseWriter, r *http.Request) {
//	    hxstore.Render(w, r, store, layout())
//	}
func Render(w http.ResponseWriter, r *http.Request, h StoreHandle, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return Provider(h, component).Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
