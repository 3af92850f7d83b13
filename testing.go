package hxstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// TestResult holds the result of rendering or dispatching for testing.
type TestResult struct {
	HTML       string
	StatusCode int
	Headers    http.Header
	// Dispatched lists the action types reported in the HX-Trigger header.
	Dispatched []string
	// Errors lists the messages of error toasts in the response.
	Errors []string
}

// TestRender renders a component inside a Provider for h.
//
//	store := hxstore.MustNew(models)
//	result, err := hxstore.TestRender(store, counterView())
//	if !result.HTMLContains("count: 0") { ... }
func TestRender(h StoreHandle, component templ.Component) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), h, component)
}

// TestRenderWithContext is TestRender with a caller-supplied context.
func TestRenderWithContext(ctx context.Context, h StoreHandle, component templ.Component) (*TestResult, error) {
	var buf bytes.Buffer
	if err := Provider(h, component).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return &TestResult{
		HTML:       buf.String(),
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}, nil
}

// TestDispatch posts payload as JSON to a dispatch route of handler, the
// way HTMX would (with HX-Request set).
//
//	result, err := hxstore.TestDispatch(store.Handler(view), "/_s/counter/inc", 5)
func TestDispatch(handler http.Handler, path string, payload any) (*TestResult, error) {
	req := NewTestRequest(http.MethodPost, path)
	if payload != nil {
		if err := req.WithJSON(payload); err != nil {
			return nil, err
		}
	}
	return req.Execute(handler), nil
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasDispatched checks if the response reports a dispatch of typ.
func (r *TestResult) HasDispatched(typ string) bool {
	for _, d := range r.Dispatched {
		if d == typ {
			return true
		}
	}
	return false
}

// HasError checks if the response carries an error toast.
func (r *TestResult) HasError() bool {
	return len(r.Errors) > 0
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// parseDispatched extracts action types from an HX-Trigger header value.
func parseDispatched(trigger string) []string {
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &events); err != nil {
		return nil
	}
	raw, ok := events[DispatchedEvent]
	if !ok {
		return nil
	}
	var detail struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil || detail.Type == "" {
		return nil
	}
	return []string{detail.Type}
}

// parseErrors extracts error toast messages from response HTML.
func parseErrors(html string) []string {
	const prefix = `<div class="toast toast-error">`
	var msgs []string
	for rest := html; ; {
		_, after, ok := strings.Cut(rest, prefix)
		if !ok {
			return msgs
		}
		msg, tail, ok := strings.Cut(after, "</div>")
		if !ok {
			return msgs
		}
		msgs = append(msgs, msg)
		rest = tail
	}
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
//	result := hxstore.NewTestRequest("POST", "/_s/todos/add").
//	    WithFormData("title", "milk").
//	    Execute(store.Handler(view))
type TestRequestBuilder struct {
	method   string
	url      string
	formData url.Values
	body     []byte
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a new test request builder. The HX-Request header
// is set by default.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string][]string),
		headers:  map[string]string{"HX-Request": "true"},
		ctx:      context.Background(),
	}
}

// WithFormData adds a form value to the request.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData.Add(key, value)
	return b
}

// WithJSON sets a JSON body.
func (b *TestRequestBuilder) WithJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.body = data
	b.headers["Content-Type"] = "application/json"
	return nil
}

// WithBody sets a raw body with the given content type.
func (b *TestRequestBuilder) WithBody(contentType string, body []byte) *TestRequestBuilder {
	b.body = body
	b.headers["Content-Type"] = contentType
	return b
}

// WithHeader sets a header. An empty value removes it.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	if value == "" {
		delete(b.headers, key)
		return b
	}
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute runs the request against handler.
func (b *TestRequestBuilder) Execute(handler http.Handler) *TestResult {
	var body io.Reader = bytes.NewReader(b.body)
	if b.body == nil && len(b.formData) > 0 {
		body = strings.NewReader(b.formData.Encode())
		b.headers["Content-Type"] = "application/x-www-form-urlencoded"
	}

	req := httptest.NewRequest(b.method, b.url, body).WithContext(b.ctx)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.Dispatched = parseDispatched(trigger)
	}
	result.Errors = parseErrors(result.HTML)
	return result
}

// Recorder is an Observer that keeps every transition for later assertions.
type Recorder struct {
	mu          sync.Mutex
	transitions []Transition
}

// Observe records t.
func (r *Recorder) Observe(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

// Transitions returns a copy of the recorded transitions.
func (r *Recorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.transitions...)
}

// Types returns the action types of the recorded transitions, in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.transitions))
	for i, t := range r.transitions {
		types[i] = t.Action.Type()
	}
	return types
}
