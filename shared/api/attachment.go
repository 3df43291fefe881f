package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AttachmentDTO is the structured attachment record on the wire.
type AttachmentDTO struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

// ParseLegacyAttachment decodes the legacy "name|url|type|size" encoding.
// The name is the only field allowed to contain '|'.
func ParseLegacyAttachment(s string) (*AttachmentDTO, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 4 {
		return nil, fmt.Errorf("legacy attachment: expected 4 fields, got %d", len(parts))
	}
	n := len(parts)
	var size int64
	if raw := strings.TrimSpace(parts[n-1]); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("legacy attachment: invalid size %q", raw)
		}
		size = v
	}
	return &AttachmentDTO{
		FileName: strings.Join(parts[:n-3], "|"),
		URL:      parts[n-3],
		MimeType: parts[n-2],
		Size:     size,
	}, nil
}

// FormatLegacyAttachment is the inverse of ParseLegacyAttachment.
func FormatLegacyAttachment(a AttachmentDTO) string {
	return strings.Join([]string{a.FileName, a.URL, a.MimeType, strconv.FormatInt(a.Size, 10)}, "|")
}

// LooksLikeLegacyAttachment reports whether s can be parsed as the legacy encoding.
func LooksLikeLegacyAttachment(s string) bool {
	if strings.Count(s, "|") < 3 {
		return false
	}
	_, err := ParseLegacyAttachment(s)
	return err == nil
}

// AttachmentField accepts either the structured object or the legacy string.
type AttachmentField struct {
	AttachmentDTO
}

func (f *AttachmentField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		dto, err := ParseLegacyAttachment(s)
		if err != nil {
			return err
		}
		f.AttachmentDTO = *dto
		return nil
	}
	return json.Unmarshal(data, &f.AttachmentDTO)
}

func (f AttachmentField) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.AttachmentDTO)
}
