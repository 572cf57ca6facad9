package common

import (
	"net"
	"net/http"

	"github.com/google/uuid"
)

const SessionCookie = "sid"

// cookieDomain is the request host without port. Cookie domains never carry one.
func cookieDomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionId,
		Domain:   cookieDomain(r.Host),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   7200,
		Path:     "/",
	})
}

// HandleSessionCookie returns the session id of the request, issuing a new one when the
// cookie is missing or malformed. The second value reports a new session.
func HandleSessionCookie(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, false
		}
	}
	sessionId := uuid.NewString()
	setSessionCookie(w, r, sessionId)
	return sessionId, true
}
