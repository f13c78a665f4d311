package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const sessionKey contextKey = "session"

// withSession resolves {sessionID} once per request and stores the session
// in the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// sessionFrom returns the session stored by withSession.
func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionKey).(*Session)
	return sess
}
