/*Package session provides the cookie based session identity.

The session identifier is an opaque uuid stored in a `sessionId` cookie. It
is not an authentication credential, it merely scopes row ownership: rows
written by a browser carry its session id, and session gated reads only see
rows with a matching id.

Session identifiers are added to a request context by the Gated middleware

	handler = session.Gated(handler)

and retrieved with

	sessionID, ok := session.FromContext(ctx)
*/
package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

const contextKeySession contextKey = "_session_"

// CookieName is the name of the session cookie
const CookieName = "sessionId"

// cookie lifetime in seconds, 7 days
const maxAge = 7 * 24 * 60 * 60

// FromRequest returns the session id from the request cookie.
func FromRequest(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// Ensure returns the session id from the request cookie. If the request does
// not carry one, a new id is generated and set as a cookie on the response,
// scoped to the whole path space with a 7 day max-age.
func Ensure(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if id, ok := FromRequest(r); ok {
		return id
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:   CookieName,
		Value:  id.String(),
		Path:   "/",
		MaxAge: maxAge,
	})
	return id
}

// Gated is the precondition middleware for session gated routes. Requests
// without a valid session cookie are rejected with 401 before the handler
// runs. The session id is added to the request context.
func Gated(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromRequest(r)
		if !ok {
			http.Error(w, "missing session", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeySession, id)
		h.ServeHTTP(w, r.WithContext(ctx))
	}
}

// FromContext retrieves the session id from the context
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKeySession).(uuid.UUID)
	return id, ok
}
