// internal/middleware/logging.go

package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusRecorder captures the response status. It passes Hijack through so websocket upgrades
// still work behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// LogMiddleware is an HTTP middleware that logs incoming requests using Logrus.
// Logs the method, path, status, and duration of each request.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect logs a message when a player's websocket is accepted.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr, path string, fields logrus.Fields) {
	entry := logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"path":   path,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a websocket's read loop ends.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr, path string, fields logrus.Fields, err error) {
	entry := logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"path":   path,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Info("WebSocket disconnected")
}
