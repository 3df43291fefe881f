package validation

import "errors"

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrInvalidMimeType is returned when a file has a MIME type outside the allow-list
var ErrInvalidMimeType = errors.New("invalid MIME type")

// ErrFileTooLarge is returned when a single file exceeds the size limit
var ErrFileTooLarge = errors.New("file too large")

// ErrTooManyAttachments is returned when too many files are uploaded
var ErrTooManyAttachments = errors.New("too many attachments")
