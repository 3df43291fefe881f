package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLegacyAttachment(t *testing.T) {
	t.Run("four fields", func(t *testing.T) {
		dto, err := ParseLegacyAttachment("scan.pdf|https://files/1.pdf|application/pdf|2048")
		require.NoError(t, err)
		assert.Equal(t, "scan.pdf", dto.FileName)
		assert.Equal(t, "https://files/1.pdf", dto.URL)
		assert.Equal(t, "application/pdf", dto.MimeType)
		assert.Equal(t, int64(2048), dto.Size)
	})

	t.Run("pipe in file name", func(t *testing.T) {
		dto, err := ParseLegacyAttachment("a|b.txt|/f/2|text/plain|10")
		require.NoError(t, err)
		assert.Equal(t, "a|b.txt", dto.FileName)
		assert.Equal(t, "/f/2", dto.URL)
	})

	t.Run("empty size", func(t *testing.T) {
		dto, err := ParseLegacyAttachment("x.png|/f/3|image/png|")
		require.NoError(t, err)
		assert.Zero(t, dto.Size)
	})

	t.Run("too few fields", func(t *testing.T) {
		_, err := ParseLegacyAttachment("x.png|/f/3")
		assert.Error(t, err)
		assert.False(t, LooksLikeLegacyAttachment("x.png|/f/3"))
	})

	t.Run("bad size", func(t *testing.T) {
		_, err := ParseLegacyAttachment("x.png|/f/3|image/png|big")
		assert.Error(t, err)
	})
}

func TestFormatLegacyAttachment(t *testing.T) {
	s := FormatLegacyAttachment(AttachmentDTO{FileName: "a.pdf", URL: "/u", MimeType: "application/pdf", Size: 5})
	assert.Equal(t, "a.pdf|/u|application/pdf|5", s)
	assert.True(t, LooksLikeLegacyAttachment(s))
}

func TestAttachmentFieldUnmarshal(t *testing.T) {
	var msg MessageDTO
	err := json.Unmarshal([]byte(`{"id":1,"attachment":"r.pdf|/r|application/pdf|7"}`), &msg)
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "r.pdf", msg.Attachment.FileName)
	assert.Equal(t, int64(7), msg.Attachment.Size)

	msg = MessageDTO{}
	err = json.Unmarshal([]byte(`{"id":2,"attachment":{"file_name":"p.png","url":"/p","mime_type":"image/png","size":9}}`), &msg)
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "p.png", msg.Attachment.FileName)
	assert.Equal(t, "image/png", msg.Attachment.MimeType)

	msg = MessageDTO{}
	err = json.Unmarshal([]byte(`{"id":3,"attachment":"broken"}`), &msg)
	assert.Error(t, err)
}
