package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

func TestSendMessage(t *testing.T) {
	route := "/v1/messages"

	t.Run("confirmed message", func(t *testing.T) {
		router := setupTestHandler(&stubSessions{engine: newTestEngine(t, newTestTransport(), newTestDirectory())}, validation.DefaultPolicy())
		selectConversation(t, router, persistedKey)

		rr := serve(router, createRequest(t, http.MethodPost, route, []byte(`{"text": "policy *A-12* approved"}`)))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		msg := decodeBody[api.MessageResponse](t, rr)
		assert.Equal(t, int64(11), msg.Id)
		assert.False(t, msg.Provisional)
		assert.True(t, msg.Mine)
		assert.Equal(t, "confirmed", msg.SendState)
		assert.Contains(t, msg.ContentHTML, "<em>A-12</em>")

		list := decodeBody[api.MessagesResponse](t, serve(router, createRequest(t, http.MethodGet, route, nil)))
		require.Len(t, list.Messages, 2)
		assert.Equal(t, int64(10), list.Messages[0].Id)
		assert.Equal(t, int64(11), list.Messages[1].Id)
	})

	t.Run("no conversation selected", func(t *testing.T) {
		router := setupTestHandler(&stubSessions{engine: newTestEngine(t, newTestTransport(), newTestDirectory())}, validation.DefaultPolicy())

		rr := serve(router, createRequest(t, http.MethodPost, route, []byte(`{"text": "hi"}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty text", func(t *testing.T) {
		router := setupTestHandler(&stubSessions{engine: newTestEngine(t, newTestTransport(), newTestDirectory())}, validation.DefaultPolicy())
		selectConversation(t, router, persistedKey)

		for _, body := range []string{`{"text": ""}`, `{"text": "   "}`, `not json`} {
			rr := serve(router, createRequest(t, http.MethodPost, route, []byte(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		}
	})

	t.Run("failed send can be retried", func(t *testing.T) {
		transport := newTestTransport()
		confirm := transport.MockCreateMessage
		down := true
		var refs []string
		transport.MockCreateMessage = func(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
			refs = append(refs, draft.ClientRef)
			if down {
				return domain.Message{}, &internal_errors.NetworkError{Op: "create message", Err: errors.New("timeout")}
			}
			return confirm(ctx, draft)
		}
		router := setupTestHandler(&stubSessions{engine: newTestEngine(t, transport, newTestDirectory())}, validation.DefaultPolicy())
		selectConversation(t, router, persistedKey)

		rr := serve(router, createRequest(t, http.MethodPost, route, []byte(`{"text": "hello?"}`)))
		require.Equal(t, http.StatusBadGateway, rr.Code)
		failed := decodeBody[api.MessageResponse](t, rr)
		assert.True(t, failed.Provisional)
		assert.Less(t, failed.Id, int64(0))
		assert.Equal(t, "failed", failed.SendState)

		notes := decodeBody[api.NotificationsResponse](t, serve(router, createRequest(t, http.MethodGet, "/v1/notifications", nil)))
		require.Len(t, notes.Notifications, 1)
		assert.Equal(t, "error", notes.Notifications[0].Level)

		down = false
		rr = serve(router, createRequest(t, http.MethodPost, route+"/"+strconv.FormatInt(failed.Id, 10)+"/retry", nil))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, int64(11), decodeBody[api.MessageResponse](t, rr).Id)

		require.Len(t, refs, 2)
		assert.Equal(t, refs[0], refs[1], "retry reuses the client reference")

		list := decodeBody[api.MessagesResponse](t, serve(router, createRequest(t, http.MethodGet, route, nil)))
		require.Len(t, list.Messages, 2, "the provisional entry was replaced")
		assert.Equal(t, int64(11), list.Messages[1].Id)
	})
}

func TestRetryMessage(t *testing.T) {
	router := setupTestHandler(&stubSessions{engine: newTestEngine(t, newTestTransport(), newTestDirectory())}, validation.DefaultPolicy())
	selectConversation(t, router, persistedKey)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "not a number", id: "abc", expectedStatus: http.StatusBadRequest},
		{name: "unknown message", id: "-999", expectedStatus: http.StatusNotFound},
		{name: "confirmed message", id: "10", expectedStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, createRequest(t, http.MethodPost, "/v1/messages/"+tt.id+"/retry", nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
