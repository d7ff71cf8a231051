// internal/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

type sessionResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
	Token    string    `json:"token"`
}

// SessionHandler returns the caller's player id, issuing a new one (and its cookie) when the request
// carries no valid token. Clients that cannot use cookies pass the token as ?token= on the websocket.
func (rs *RoomServer) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if token := tokenFromRequest(r); token != "" {
		if playerID, err := rs.Issuer.AuthenticateJWT(token); err == nil {
			writeJSON(w, rs.Logger, http.StatusOK, sessionResponse{PlayerID: playerID, Token: token})
			return
		}
	}

	playerID, token, err := rs.Issuer.NewSession()
	if err != nil {
		rs.Logger.Errorf("failed to issue session: %v", err)
		http.Error(w, "failed to issue session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token)
	writeJSON(w, rs.Logger, http.StatusCreated, sessionResponse{PlayerID: playerID, Token: token})
}

// identify resolves the player behind a websocket upgrade. A request without a token gets a new
// session whose cookie rides on the upgrade response; a request with a bad token is refused.
func (rs *RoomServer) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		playerID, token, err := rs.Issuer.NewSession()
		if err != nil {
			rs.Logger.Errorf("failed to issue session: %v", err)
			http.Error(w, "failed to issue session", http.StatusInternalServerError)
			return uuid.Nil, false
		}
		setSessionCookie(w, token)
		return playerID, true
	}

	playerID, err := rs.Issuer.AuthenticateJWT(token)
	if err != nil {
		rs.Logger.Warnf("rejected websocket token from %s: %v", r.RemoteAddr, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return playerID, true
}
