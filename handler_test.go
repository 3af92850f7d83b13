package hxstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type profile struct {
	Name string
	Age  int
}

func handlerModels() Models {
	models := testModels()
	models["profile"] = Model{
		InitialState: profile{},
		Reducers: map[string]Reducer{
			"set": Handle(func(_ profile, p profile) profile { return p }),
		},
	}
	return models
}

func TestHandlerRequiresHTMX(t *testing.T) {
	store := MustNew(handlerModels())
	h := store.Handler(counterView())

	result := NewTestRequest(http.MethodPost, "/_s/counter/inc").
		WithHeader("HX-Request", "").
		Execute(h)

	assert.True(t, result.HasStatus(http.StatusForbidden))
	assert.Equal(t, 0, store.State()["counter"].(*counter).N)
}

func TestHandlerJSONDispatch(t *testing.T) {
	store := MustNew(handlerModels())

	result, err := TestDispatch(store.Handler(counterView()), "/_s/counter/inc", 5)
	require.NoError(t, err)

	assert.True(t, result.IsOK())
	assert.True(t, result.HTMLContains("count: 5"), result.HTML)
	assert.True(t, result.HasDispatched("counter/inc"))
	assert.Equal(t, "text/html; charset=utf-8", result.Headers.Get("Content-Type"))
}

func TestHandlerEmptyBody(t *testing.T) {
	store := MustNew(handlerModels())
	require.NoError(t, store.Actions()["counter"]["inc"](4))

	result, err := TestDispatch(store.Handler(counterView()), "/_s/counter/reset", nil)
	require.NoError(t, err)

	assert.True(t, result.IsOK())
	assert.True(t, result.HTMLContains("count: 0"))
}

func TestHandlerSignedPayload(t *testing.T) {
	store := MustNew(handlerModels(), WithKey([]byte("k")))
	attrs := store.MustWire("todos", "add", "milk")

	var vals map[string]string
	require.NoError(t, json.Unmarshal([]byte(attrs["hx-vals"].(string)), &vals))

	result := NewTestRequest(http.MethodPost, attrs["hx-post"].(string)).
		WithFormData("p", vals["p"]).
		Execute(store.Handler(nil))

	assert.True(t, result.HasStatus(http.StatusNoContent))
	assert.True(t, result.HasDispatched("todos/add"))
	assert.Equal(t, []string{"milk"}, store.State()["todos"].(*todos).Items)
}

func TestHandlerTamperedPayload(t *testing.T) {
	store := MustNew(handlerModels(), WithKey([]byte("k")))
	forger := MustNew(handlerModels(), WithKey([]byte("other")))

	encoded, err := forger.EncodePayload(1000)
	require.NoError(t, err)

	result := NewTestRequest(http.MethodPost, "/_s/counter/inc").
		WithFormData("p", encoded).
		Execute(store.Handler(counterView()))

	assert.True(t, result.HasStatus(http.StatusBadRequest))
	assert.True(t, result.HasError())
	assert.Equal(t, 0, store.State()["counter"].(*counter).N)
}

func TestHandlerFormFields(t *testing.T) {
	store := MustNew(handlerModels())

	result := NewTestRequest(http.MethodPost, "/_s/profile/set").
		WithFormData("name", "Ann").
		WithFormData("age", "30").
		Execute(store.Handler(nil))

	assert.True(t, result.HasStatus(http.StatusNoContent))
	assert.Equal(t, profile{Name: "Ann", Age: 30}, store.State()["profile"])
}

func TestHandlerMsgpackBody(t *testing.T) {
	store := MustNew(handlerModels())

	body, err := msgpack.Marshal(map[string]any{"name": "Bo", "age": 7})
	require.NoError(t, err)

	result := NewTestRequest(http.MethodPost, "/_s/profile/set").
		WithBody("application/msgpack", body).
		Execute(store.Handler(nil))

	assert.True(t, result.HasStatus(http.StatusNoContent))
	assert.Equal(t, profile{Name: "Bo", Age: 7}, store.State()["profile"])
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		payload any
		status  int
	}{
		{"unknown domain", "/_s/ghost/inc", nil, http.StatusNotFound},
		{"unknown action", "/_s/counter/ghost", nil, http.StatusNotFound},
		{"reducer rejects", "/_s/todos/add", "", http.StatusUnprocessableEntity},
		{"payload type", "/_s/counter/inc", []string{"x", "y"}, http.StatusBadRequest},
		{"missing action", "/_s/counter", nil, http.StatusBadRequest},
		{"extra segment", "/_s/counter/inc/more", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := MustNew(handlerModels())
			before := store.State()

			result, err := TestDispatch(store.Handler(counterView()), tt.path, tt.payload)
			require.NoError(t, err)

			assert.True(t, result.HasStatus(tt.status), "status = %d", result.StatusCode)
			assert.True(t, result.HasError())
			assert.Empty(t, result.Dispatched)
			assert.Equal(t, statePtr(before), statePtr(store.State()))
		})
	}
}

func TestHandlerMalformedJSON(t *testing.T) {
	store := MustNew(handlerModels())

	result := NewTestRequest(http.MethodPost, "/_s/counter/inc").
		WithBody("application/json", []byte("{not json")).
		Execute(store.Handler(nil))

	assert.True(t, result.HasStatus(http.StatusBadRequest))
}

func TestHandlerServesState(t *testing.T) {
	store := MustNew(handlerModels())
	require.NoError(t, store.Actions()["counter"]["inc"](2))

	req := httptest.NewRequest(http.MethodGet, "/_s/", nil)
	rec := httptest.NewRecorder()
	store.Handler(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var state map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, float64(2), state["counter"]["N"])
	assert.Equal(t, "", state["profile"]["Name"])
}

func TestHandlerCustomPath(t *testing.T) {
	store := MustNew(handlerModels(), WithPath("/"))

	result, err := TestDispatch(store.Handler(counterView()), "/counter/inc", 1)
	require.NoError(t, err)
	assert.True(t, result.HTMLContains("count: 1"))

	assert.Equal(t, "/counter/inc", store.MustWire("counter", "inc", nil)["hx-post"])
}

func TestHandlerNormalisesPath(t *testing.T) {
	for _, p := range []string{"/api/store", "api/store/", "api/store"} {
		t.Run(p, func(t *testing.T) {
			store := MustNew(handlerModels(), WithPath(p))
			assert.Equal(t, "/api/store/", store.Path())

			hxPost := store.MustWire("counter", "inc", nil)["hx-post"].(string)
			assert.Equal(t, "/api/store/counter/inc", hxPost)

			result, err := TestDispatch(store.Handler(counterView()), hxPost, 2)
			require.NoError(t, err)
			assert.True(t, result.IsOK(), "status = %d", result.StatusCode)
			assert.True(t, result.HTMLContains("count: 2"))
		})
	}
}

func TestHandlerBodyLimit(t *testing.T) {
	store := MustNew(handlerModels(), WithMaxBodySize(16))
	h := store.Handler(nil)

	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"json", "application/json", []byte(`{"name":"` + strings.Repeat("a", 64) + `"}`)},
		{"msgpack", "application/msgpack", mustMsgpack(t, map[string]any{"name": strings.Repeat("a", 64)})},
		{"form", "application/x-www-form-urlencoded", []byte("name=" + strings.Repeat("a", 64))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewTestRequest(http.MethodPost, "/_s/profile/set").
				WithBody(tt.contentType, tt.body).
				Execute(h)

			assert.True(t, result.HasStatus(http.StatusRequestEntityTooLarge), "status = %d", result.StatusCode)
			assert.True(t, result.HasError())
			assert.Equal(t, profile{}, store.State()["profile"])
		})
	}

	result := NewTestRequest(http.MethodPost, "/_s/profile/set").
		WithBody("application/json", []byte(`{"age":3}`)).
		Execute(h)
	assert.True(t, result.HasStatus(http.StatusNoContent))
}

func TestHandlerErrorToastIsEscaped(t *testing.T) {
	store := MustNew(handlerModels())

	result, err := TestDispatch(store.Handler(nil), "/_s/ghost/%3Cb%3E", nil)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.NotContains(t, result.HTML, "<b>")
	assert.Contains(t, result.Errors[0], "&lt;b&gt;")
	assert.Equal(t, "none", result.Headers.Get("HX-Reswap"))
}

func mustMsgpack(t *testing.T, v any) []byte {
	t.Helper()
	data, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return data
}
