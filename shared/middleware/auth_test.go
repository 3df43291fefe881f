package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	jwt_internal "github.com/carebridge-dev/carebridge/shared/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedAuth(t *testing.T) {
	jwtService := jwt_internal.New("test_secret", time.Hour)
	operator := domain.Viewer{Id: 5, Role: domain.ParticipantOperator, Name: "Op"}
	token, err := jwtService.NewToken(operator)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		cookie         *http.Cookie
		expectedStatus int
		expectedViewer *domain.Viewer
	}{
		{
			name:           "Valid bearer token",
			header:         "Bearer " + token,
			expectedStatus: http.StatusOK,
			expectedViewer: &operator,
		},
		{
			name:           "Valid cookie",
			cookie:         &http.Cookie{Name: "accessToken", Value: token},
			expectedStatus: http.StatusOK,
			expectedViewer: &operator,
		},
		{
			name:           "No token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid token",
			header:         "Bearer invalid_token",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()

			var got *Session
			handler := NewAuth(jwtService).NeedAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetSessionFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedViewer == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.expectedViewer, got.Viewer)
			assert.Equal(t, token, got.Token)
		})
	}
}

func TestGetSessionFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, GetSessionFromContext(req))
}
