// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/auth"
)

// requestToken returns the session token from the auth cookie, falling back
// to the "token" query parameter used by clients that cannot set cookies on
// a websocket handshake.
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the caller's identity.
func authenticate(r *http.Request) (uuid.UUID, string, error) {
	return auth.AuthenticateJWT(requestToken(r))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the same {code, message} shape the websocket uses.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"code":    errorCode(err),
		"message": err.Error(),
	})
}
