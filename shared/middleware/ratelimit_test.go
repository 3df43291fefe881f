package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/middleware/ratelimiter"
	"github.com/stretchr/testify/assert"
)

func withSession(r *http.Request, viewer domain.Viewer) *http.Request {
	ctx := context.WithValue(r.Context(), SessionKey, &Session{Viewer: viewer, Token: "t"})
	return r.WithContext(ctx)
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(ratelimiter.New(0, 2, time.Hour), GetViewerIdentity)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
	do := func(r *http.Request) int {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, r)
		return rr.Code
	}

	operator := domain.Viewer{Id: 5, Role: domain.ParticipantOperator}
	clinic := domain.Viewer{Id: 5, Role: domain.ParticipantClinic}

	t.Run("limits per viewer", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(withSession(httptest.NewRequest("POST", "/v1/messages", nil), operator)))
		assert.Equal(t, http.StatusOK, do(withSession(httptest.NewRequest("POST", "/v1/messages", nil), operator)))
		assert.Equal(t, http.StatusTooManyRequests, do(withSession(httptest.NewRequest("POST", "/v1/messages", nil), operator)))
	})

	t.Run("clinic with the same id has its own bucket", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(withSession(httptest.NewRequest("POST", "/v1/messages", nil), clinic)))
	})

	t.Run("no session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(httptest.NewRequest("POST", "/v1/messages", nil)))
	})
}
