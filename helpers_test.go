package hxstore

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWritesProvider(t *testing.T) {
	store := MustNew(testModels())
	require.NoError(t, store.Actions()["counter"]["inc"](3))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, Render(rec, req, store, counterView()))

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<p id="count">count: 3</p>`, rec.Body.String())
}

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"htmx request", "true", true},
		{"no header", "", false},
		{"other value", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}
			assert.Equal(t, tt.want, IsHTMX(req))
		})
	}
}
