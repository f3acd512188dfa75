package server

import (
	"net/http"

	"github.com/telegate/telegate/auth"
)

// Session token transport headers. The token travels as an opaque string in
// a dedicated request header and comes back rotated in the matching response
// header; a second header tells the caller to discard its stored copy.
const (
	SessionHeader      = "X-Telegram-Session"
	SessionClearHeader = "X-Telegram-Session-Clear"
)

func sessionFromRequest(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}

// applySessionTransport relays the orchestrator's session signals onto the
// response. Both headers may be set on the same response (clear-then-set
// after an auth restart); consumers treat clear as winning.
func applySessionTransport(w http.ResponseWriter, res auth.Result) {
	if res.ClearSession {
		w.Header().Set(SessionClearHeader, "true")
	}
	if res.SessionString != "" {
		w.Header().Set(SessionHeader, res.SessionString)
	}
}
