package hxstore

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vmihailenco/msgpack/v5"
)

// DispatchedEvent is the HX-Trigger event sent after a successful dispatch.
// Its detail carries the action type, so other elements can refresh with
// hx-trigger="hxstore:dispatched from:body".
const DispatchedEvent = "hxstore:dispatched"

// Handler returns the HTTP handler for the store's routes. Mount it at the
// store's path:
//
//	mux.Handle(store.Path(), store.Handler(appView()))
//
// Routes, relative to the path (default "/_s/"):
//
//	POST {domain}/{action}   dispatch; responds with view rendered under a Provider
//	GET  /                   current state as JSON
//
// The payload of a dispatch is taken from, in order of preference: a JSON
// body (Content-Type application/json), a msgpack body (application/msgpack),
// the signed "p" value produced by Wire, or the remaining form fields as a
// map[string]any. With a nil view a successful dispatch answers 204. Bodies
// are capped at DefaultMaxBodySize, or the size set with WithMaxBodySize.
//
// Mutating requests must carry the HX-Request: true header that HTMX sends.
func (s *Store) Handler(view templ.Component) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requireHTMX)

	routes := func(r chi.Router) {
		r.Get("/", s.serveState)
		r.Post("/*", func(w http.ResponseWriter, req *http.Request) {
			s.serveDispatch(w, req, view)
		})
	}
	if prefix := strings.TrimSuffix(s.path, "/"); prefix != "" {
		r.Route(prefix, routes)
	} else {
		routes(r)
	}
	return r
}

// requireHTMX provides CSRF protection: mutating methods require the
// HX-Request header, which cross-origin forms cannot set.
func requireHTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Store) serveState(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.State())
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Store) serveDispatch(w http.ResponseWriter, r *http.Request, view templ.Component) {
	domain, name, err := ParseType(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := s.readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a := Action{Domain: domain, Name: name, Payload: payload}
	if err := s.Dispatch(a); err != nil {
		writeError(w, r, err)
		return
	}

	trigger, _ := json.Marshal(map[string]any{DispatchedEvent: map[string]string{"type": a.Type()}})
	w.Header().Set("HX-Trigger", string(trigger))

	if view == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// The status line is already written; a render error can only truncate.
	_ = Provider(s, view).Render(r.Context(), w)
}

func (s *Store) readPayload(w http.ResponseWriter, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var unmarshal func([]byte, any) error
	switch ct {
	case "application/json":
		unmarshal = json.Unmarshal
	case "application/msgpack", "application/x-msgpack":
		unmarshal = msgpack.Unmarshal
	}
	if unmarshal != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.Join(ErrInvalidFormat, err)
		}
		var payload any
		if len(data) == 0 {
			return payload, nil
		}
		if err := unmarshal(data, &payload); err != nil {
			return nil, errors.Join(ErrInvalidFormat, err)
		}
		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.Join(ErrInvalidFormat, err)
	}
	if p := r.PostForm.Get("p"); p != "" {
		return s.DecodePayload(p)
	}
	if len(r.PostForm) == 0 {
		return nil, nil
	}
	fields := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) == 1 {
			fields[k] = vs[0]
		} else {
			fields[k] = vs
		}
	}
	return fields, nil
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case IsNotFound(err):
		return http.StatusNotFound
	case IsDecodeError(err), errors.Is(err, ErrPayloadType):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeError answers with an error toast, swapped out of band into the
// page's #toasts container. HX-Reswap keeps the request's target intact;
// the page must let htmx swap 4xx responses for the toast to show.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("HX-Reswap", "none")
	w.WriteHeader(statusFor(err))
	_ = errorToast(err.Error()).Render(r.Context(), w)
}
