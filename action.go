package hxstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

// Action is a request to run one named reducer of one domain.
//
// Actions are addressed by their two parts rather than by a combined type
// string. Most code never builds an Action directly; it calls the generated
// functions from Actions or UseDispatch instead:
//
//	hxstore.UseDispatch(ctx)["counter"]["inc"](5)
type Action struct {
	Domain  string
	Name    string
	Payload any
}

// Type returns the "domain/name" form of the action, used in logs, metrics
// and HTTP routes.
func (a Action) Type() string {
	return a.Domain + "/" + a.Name
}

// ParseType splits a "domain/name" type string.
func ParseType(typ string) (domain, name string, err error) {
	domain, name, ok := strings.Cut(typ, "/")
	if !ok || domain == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedType, typ)
	}
	return domain, name, nil
}

// WireAttrs builds the HTMX attributes for an element that dispatches an
// action through the store's HTTP handler.
//
// The encoded payload is sent as the "p" value in hx-vals. Targeting and
// swapping (hx-target, hx-swap) are left to the template:
//
//	<button { store.MustWire("counter", "inc", 1)... } hx-target="#app">+1</button>
func WireAttrs(path, encoded string) templ.Attributes {
	attrs := templ.Attributes{"hx-post": path}
	if encoded != "" {
		data, _ := json.Marshal(map[string]string{"p": encoded})
		attrs["hx-vals"] = string(data)
	}
	return attrs
}
