// Package auth resolves the player identity attached to a request. The
// engine trusts an upstream proxy for real authentication; here we only
// need a stable name to key seats, bets, and ledger accounts.
package auth

import (
	"net/http"

	"github.com/google/uuid"
)

// Header carries the authenticated username set by the front proxy.
const Header = "X-Casino-User"

// Identity returns the player name for a request: the proxy header first,
// then a user query parameter, otherwise a fresh anonymous handle.
func Identity(r *http.Request) string {
	if user := r.Header.Get(Header); user != "" {
		return user
	}
	if user := r.URL.Query().Get("user"); user != "" {
		return user
	}
	return "anon-" + uuid.NewString()[:8]
}
