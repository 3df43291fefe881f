package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/carebridge-dev/carebridge/shared/domain"
	internal_errors "github.com/carebridge-dev/carebridge/shared/errors"
)

// DefaultMaxAttachmentSize is 10 MB.
const DefaultMaxAttachmentSize int64 = 10 << 20

// DefaultAllowedMimeTypes covers PDF, Word documents, common images and plain text.
var DefaultAllowedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"text/plain",
}

// sniffing is inconclusive for these, fall back to the file extension
var genericMimeTypes = map[string]bool{
	"":                          true,
	"application/octet-stream":  true,
	"application/zip":           true,
	"application/x-ole-storage": true,
}

// not in Go's builtin extension table
var extensionMimeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// AttachmentPolicy is the pre-flight check every attachment passes before upload.
type AttachmentPolicy struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

func DefaultPolicy() AttachmentPolicy {
	return AttachmentPolicy{MaxSizeBytes: DefaultMaxAttachmentSize, AllowedMimeTypes: DefaultAllowedMimeTypes}
}

// Validate checks metadata only; it never reads the file data.
func (p AttachmentPolicy) Validate(file *domain.PendingFile) error {
	if file == nil {
		return &internal_errors.ValidationError{Field: "file", Reason: "no file selected"}
	}
	maxSize := p.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxAttachmentSize
	}
	if file.SizeBytes > maxSize {
		return fmt.Errorf("%w: %w", ErrFileTooLarge, &internal_errors.ValidationError{
			Field:  "size",
			Reason: fmt.Sprintf("%s is %.1f MB, the limit is %.0f MB", file.Filename, FormatSizeMB(file.SizeBytes), FormatSizeMB(maxSize)),
		})
	}
	if file.SizeBytes <= 0 {
		return &internal_errors.ValidationError{Field: "size", Reason: fmt.Sprintf("%s is empty", file.Filename)}
	}
	allowed := p.AllowedMimeTypes
	if len(allowed) == 0 {
		allowed = DefaultAllowedMimeTypes
	}
	if !BuildAllowedMimeMap(allowed)[normalizeMime(file.MimeType)] {
		return fmt.Errorf("%w: %w", ErrInvalidMimeType, &internal_errors.ValidationError{
			Field:  "mime_type",
			Reason: fmt.Sprintf("%s has unsupported type %q", file.Filename, file.MimeType),
		})
	}
	return nil
}

func BuildAllowedMimeMap(mimeTypes ...[]string) map[string]bool {
	allowedMimes := make(map[string]bool)
	for _, list := range mimeTypes {
		for _, m := range list {
			allowedMimes[normalizeMime(m)] = true
		}
	}
	return allowedMimes
}

// DetectMimeType prefers the declared type, then content sniffing, then the
// file extension.
func DetectMimeType(filename, declared string, head []byte) string {
	if m := normalizeMime(declared); !genericMimeTypes[m] {
		return m
	}
	if len(head) > 0 {
		if m := normalizeMime(mimetype.Detect(head).String()); !genericMimeTypes[m] {
			return m
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if m, ok := extensionMimeTypes[ext]; ok {
		return m
	}
	if m := normalizeMime(mime.TypeByExtension(ext)); m != "" {
		return m
	}
	return "application/octet-stream"
}

func normalizeMime(m string) string {
	m = strings.TrimSpace(strings.ToLower(m))
	if m == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(m); err == nil {
		return mediaType
	}
	return m
}

func ExtractImageDimensions(data []byte, mimeType string) (*int, *int) {
	// Only process images
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, nil
	}

	img, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Not fatal: the preview just has no dimensions
		return nil, nil
	}
	width, height := img.Width, img.Height
	return &width, &height
}

// NewPendingFile reads the file into memory (bounded by limit+1 bytes) and
// fills in the detected MIME type and image dimensions. A file longer than the
// limit keeps its true declared size so that Validate rejects it.
func NewPendingFile(filename, declaredType string, declaredSize int64, r io.Reader, limit int64) (*domain.PendingFile, error) {
	if limit <= 0 {
		limit = DefaultMaxAttachmentSize
	}
	if declaredSize > limit {
		return &domain.PendingFile{
			FileCommonMetadata: domain.FileCommonMetadata{Filename: filename, SizeBytes: declaredSize, MimeType: normalizeMime(declaredType)},
		}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	size := int64(len(data))
	if declaredSize > size {
		size = declaredSize
	}
	mimeType := DetectMimeType(filename, declaredType, data)
	width, height := ExtractImageDimensions(data, mimeType)
	return &domain.PendingFile{
		FileCommonMetadata: domain.FileCommonMetadata{
			Filename:    filepath.Base(filename),
			SizeBytes:   size,
			MimeType:    mimeType,
			ImageWidth:  width,
			ImageHeight: height,
		},
		Data: bytes.NewReader(data),
	}, nil
}
