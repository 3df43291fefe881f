package utils

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/logger"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusCode maps an error from the engine or transport onto an HTTP status.
func StatusCode(err error) int {
	var withStatus *errors.ErrorWithStatusCode
	var validationErr *errors.ValidationError
	var serverErr *errors.ServerError
	var networkErr *errors.NetworkError
	switch {
	case stderrors.Is(err, validation.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, validation.ErrTooManyAttachments):
		return http.StatusBadRequest
	case stderrors.As(err, &withStatus):
		return withStatus.StatusCode
	case stderrors.As(err, &validationErr):
		return http.StatusBadRequest
	case stderrors.As(err, &serverErr):
		if serverErr.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		return serverErr.StatusCode
	case stderrors.As(err, &networkErr):
		return http.StatusBadGateway
	default:
		// default error is 500
		return http.StatusInternalServerError
	}
}

func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusCode(err))
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("body validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400}
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	return nil
}
