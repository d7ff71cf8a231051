package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/sirupsen/logrus"
)

// tokenFromRequest returns the session token from the session cookie, the "token" query parameter,
// or a bearer Authorization header, in that order. Empty if none is present.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("failed to encode response: %v", err)
	}
}
