package chat

import (
	"net/http"

	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
)

var (
	ErrConversationNotFound = &internal_errors.ErrorWithStatusCode{Message: "conversation not found", StatusCode: http.StatusNotFound}
	ErrMessageNotFound      = &internal_errors.ErrorWithStatusCode{Message: "message not found", StatusCode: http.StatusNotFound}
	ErrNotRetryable         = &internal_errors.ErrorWithStatusCode{Message: "only failed messages can be retried", StatusCode: http.StatusConflict}
	ErrEngineClosed         = &internal_errors.ErrorWithStatusCode{Message: "session closed", StatusCode: http.StatusGone}

	ErrNoActiveConversation = &internal_errors.ValidationError{Field: "conversation", Reason: "no conversation selected"}
	ErrEmptyMessage         = &internal_errors.ValidationError{Field: "text", Reason: "message is empty"}
)
