package vmpressure

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Status(t *testing.T) {
	s := newService(t, 512)
	s.publish(Medium, 72)

	rr := httptest.NewRecorder()
	Handler(s).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var st Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, Status{Level: "medium", Pressure: Medium, Score: 72}, st)
}

func TestHandler_WatchBadThreshold(t *testing.T) {
	s := newService(t, 512)
	rr := httptest.NewRecorder()
	Handler(s).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/watch?threshold=severe", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, s.Watchers())
}

func TestHandler_WatchStream(t *testing.T) {
	s := newService(t, 512)
	srv := httptest.NewServer(Handler(s))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/watch?threshold=medium", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return s.Watchers() == 1 }, time.Second, time.Millisecond)
	s.publish(Low, 20)
	s.publish(OOM, 100)

	line, err := bufio.NewReader(resp.Body).ReadBytes('\n')
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(line, &st))
	assert.Equal(t, OOM, st.Pressure)

	cancel()
	require.Eventually(t, func() bool { return s.Watchers() == 0 }, 2*time.Second, 5*time.Millisecond)
}
