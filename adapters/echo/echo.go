// Package hxstoreecho provides Echo framework integration for hxstore.
//
// Mount a store's dispatch routes onto an Echo instance or group:
//
//	e := echo.New()
//	hxstoreecho.Mount(e, store, appView())
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	hxstoreecho.MountGroup(g, store, appView())
//
// Under a group, the store's routes live below the group prefix
// (/app/_s/...). Build wire attributes with a store created
// WithPath("/app/_s/") so they point there.
package hxstoreecho

import (
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/hxstore"
)

// Mount registers the store's routes on an Echo instance at store.Path().
func Mount(e *echo.Echo, store *hxstore.Store, view templ.Component) {
	e.Any(store.Path()+"*", wrap(store, view))
}

// MountGroup registers the store's routes on an Echo group. The routes
// share the group's middleware (auth, logging, etc.).
func MountGroup(g *echo.Group, store *hxstore.Store, view templ.Component) {
	g.Any(relativePath(store.Path())+"*", wrap(store, view))
}

// relativePath drops everything but the last segment of a mount path, so
// a store created WithPath("/app/_s/") mounts at "/_s/" inside group "/app".
func relativePath(p string) string {
	base := path.Base(strings.TrimSuffix(p, "/"))
	if base == "." || base == "/" {
		return "/"
	}
	return "/" + base + "/"
}

// wrap rewrites the matched request path onto the store's own path before
// handing it to the store handler, which routes on full paths.
func wrap(store *hxstore.Store, view templ.Component) echo.HandlerFunc {
	h := store.Handler(view)
	return func(c echo.Context) error {
		r := c.Request().Clone(c.Request().Context())
		r.URL.Path = store.Path() + c.Param("*")
		r.URL.RawPath = ""
		h.ServeHTTP(c.Response(), r)
		return nil
	}
}

// Render writes a templ component to the Echo response inside a Provider
// for store.
//
//	func handler(c echo.Context) error {
//	    return hxstoreecho.Render(c, store, page())
//	}
func Render(c echo.Context, store hxstore.StoreHandle, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return hxstore.Provider(store, component).Render(c.Request().Context(), c.Response())
}
