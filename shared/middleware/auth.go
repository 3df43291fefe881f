package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	jwt_internal "github.com/carebridge-dev/carebridge/shared/jwt"
	"github.com/carebridge-dev/carebridge/shared/logger"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

var errNoSession = &internal_errors.ErrorWithStatusCode{Message: "Please sign-in", StatusCode: http.StatusUnauthorized}

// Key to store the session in the request context
type key int

const SessionKey key = 0

// Session is the authenticated viewer together with the bearer token that is
// forwarded to the transport service.
type Session struct {
	Viewer domain.Viewer
	Token  string
}

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

func bearerToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	// Browser clients
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// NeedAuth rejects requests without a valid bearer token.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}
			viewer, err := a.jwtService.DecodeViewer(token)
			if err != nil {
				logger.Log.Debug("authentication failed", "component", "http", "error", err)
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), SessionKey, &Session{Viewer: viewer, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session stored by NeedAuth.
func GetSessionFromContext(r *http.Request) *Session {
	session, ok := r.Context().Value(SessionKey).(*Session)
	if !ok {
		return nil
	}
	return session
}
