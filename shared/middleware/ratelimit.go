package middleware

import (
	"fmt"
	"net/http"

	"github.com/carebridge-dev/carebridge/shared/middleware/ratelimiter"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

// RateLimit rejects requests once the caller identity runs out of tokens.
func RateLimit(l *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !l.Allow(identity) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetViewerIdentity keys limits by role and id; clinic and operator ids can collide.
func GetViewerIdentity(r *http.Request) (string, error) {
	session := GetSessionFromContext(r)
	if session == nil {
		return "", errNoSession
	}
	return fmt.Sprintf("%s:%d", session.Viewer.Role, session.Viewer.Id), nil
}
