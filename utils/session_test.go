package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agedCookie signs a session cookie the way securecookie does, stamped at issued.
func agedCookie(t *testing.T, secret string, values map[interface{}]interface{}, issued time.Time) *http.Cookie {
	t.Helper()
	hashKey := sha256.Sum256([]byte(secret))

	payload, err := securecookie.GobEncoder{}.Serialize(values)
	require.NoError(t, err)
	signed := fmt.Sprintf("%s|%d|%s|", VisitorSessionName, issued.Unix(), base64.URLEncoding.EncodeToString(payload))
	mac := hmac.New(sha256.New, hashKey[:])
	mac.Write([]byte(signed[:len(signed)-1]))
	body := append([]byte(signed), mac.Sum(nil)...)[len(VisitorSessionName)+1:]

	return &http.Cookie{Name: VisitorSessionName, Value: base64.URLEncoding.EncodeToString(body)}
}

func TestSessionStore_HonoursConfiguredMaxAge(t *testing.T) {
	const secret = "session-secret"
	values := map[interface{}]interface{}{"session_key": "visitor-1"}
	issued := time.Now().Add(-40 * 24 * time.Hour)

	tests := []struct {
		name      string
		maxAgeSec int
		wantKept  bool
	}{
		{name: "sixty day sessions keep a forty day old cookie", maxAgeSec: 60 * 24 * 3600, wantKept: true},
		{name: "one week sessions reject it", maxAgeSec: 7 * 24 * 3600, wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStore(secret, tt.maxAgeSec, false)
			assert.Equal(t, tt.maxAgeSec, store.Options.MaxAge)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(agedCookie(t, secret, values, issued))

			session, err := store.Get(req, VisitorSessionName)
			require.NotNil(t, session)
			if tt.wantKept {
				require.NoError(t, err)
				assert.False(t, session.IsNew)
				assert.Equal(t, "visitor-1", session.Values["session_key"])
			} else {
				assert.Error(t, err)
				assert.True(t, session.IsNew)
			}
		})
	}
}
