package validation

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/carebridge-dev/carebridge/shared/domain"
)

// ValidateAndParseMultipart enforces the request size limit with
// MaxBytesReader and parses the multipart form.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
	}
	return nil
}

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
func CalculateMaxRequestSize(maxAttachmentSize int64, bufferSize int64) int64 {
	return maxAttachmentSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}

// PendingFilesFromMultipart opens every uploaded part and turns it into a
// PendingFile. Policy checks are left to the attachment pipeline.
func PendingFilesFromMultipart(fileHeaders []*multipart.FileHeader, limit int64) ([]*domain.PendingFile, error) {
	var pendingFiles []*domain.PendingFile
	for _, fileHeader := range fileHeaders {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		pf, err := NewPendingFile(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file, limit)
		file.Close()
		if err != nil {
			return nil, err
		}
		pendingFiles = append(pendingFiles, pf)
	}
	return pendingFiles, nil
}
