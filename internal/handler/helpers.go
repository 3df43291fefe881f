package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

// maxBatchFiles bounds a single document upload request.
const maxBatchFiles = 10

// parseMultipartFiles parses a multipart request and turns the parts under
// field into pending files. Policy checks are left to the engine so that the
// user sees the same message for every rejected file.
func (h *Handler) parseMultipartFiles(w http.ResponseWriter, r *http.Request, field string, maxFiles int) ([]*domain.PendingFile, error) {
	limit := h.policy.MaxSizeBytes
	if limit <= 0 {
		limit = validation.DefaultMaxAttachmentSize
	}
	maxRequestSize := validation.CalculateMaxRequestSize(limit*int64(maxFiles), 1<<20)
	if err := validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		return nil, fmt.Errorf("%w: uploads are limited to %.0f MB per file", validation.ErrPayloadTooLarge, validation.FormatSizeMB(limit))
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) == 0 {
		return nil, &internal_errors.ValidationError{Field: field, Reason: "no file selected"}
	}
	if len(headers) > maxFiles {
		return nil, fmt.Errorf("%w: at most %d files per request", validation.ErrTooManyAttachments, maxFiles)
	}
	return validation.PendingFilesFromMultipart(headers, limit)
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int64, error) {
	val, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}
