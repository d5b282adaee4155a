package utils

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// VisitorSessionName is the cookie carrying the anonymous visitor session.
const VisitorSessionName = "unimap_session"

// NewSessionStore builds the signed cookie store for visitor sessions.
func NewSessionStore(secret string, maxAgeSec int, secure bool) *sessions.CookieStore {
	hashKey := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore(hashKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	// MaxAge also moves the codecs' timestamp limit off its 30 day default.
	store.MaxAge(maxAgeSec)
	return store
}
