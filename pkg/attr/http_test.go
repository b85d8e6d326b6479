package attr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPSet() (*Set, *uint64) {
	v := uint64(100)
	s := NewSet()
	s.Register(
		Attr{Name: "sample_time_ms", Get: func() uint64 { return v }, Set: func(n uint64) error { v = n; return nil }},
		Attr{Name: "platform_units", Get: func() uint64 { return 4 }},
	)
	return s, &v
}

func TestHandler_List(t *testing.T) {
	s, _ := newHTTPSet()
	rr := httptest.NewRecorder()
	Handler(s, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]uint64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, map[string]uint64{"sample_time_ms": 100, "platform_units": 4}, got)
}

func TestHandler_ShowAndStore(t *testing.T) {
	s, v := newHTTPSet()
	h := Handler(s, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sample_time_ms", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "100\n", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/sample_time_ms", strings.NewReader("250\n")))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, uint64(250), *v)
}

func TestHandler_Errors(t *testing.T) {
	s, v := newHTTPSet()
	h := Handler(s, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown get", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"unknown put", http.MethodPut, "/nope", "1", http.StatusNotFound},
		{"not a number", http.MethodPut, "/sample_time_ms", "fast", http.StatusBadRequest},
		{"negative", http.MethodPut, "/sample_time_ms", "-5", http.StatusBadRequest},
		{"read-only", http.MethodPut, "/platform_units", "8", http.StatusBadRequest},
		{"too long", http.MethodPut, "/sample_time_ms", strings.Repeat("1", 100), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, tc.code, rr.Code)
		})
	}
	assert.Equal(t, uint64(100), *v, "rejected stores leave the value alone")
}
