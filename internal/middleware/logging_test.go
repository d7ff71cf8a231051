package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/rooms", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
}

func TestLogMiddlewareDefaultStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/session", nil))
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestLogWebSocketDisconnectIncludesError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/room/ws/x", logrus.Fields{"player": "p"}, errors.New("boom"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "p", entry.Data["player"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "boom")
}
