package validator_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"receiptdesk/internal/validator"
)

func TestIsContentTypeAllowed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{"jpeg", "image/jpeg", true},
		{"png", "image/png", true},
		{"pdf", "application/pdf", true},
		{"jpeg uppercase", "IMAGE/JPEG", true},
		{"pdf mixed case", "Application/Pdf", true},
		{"gif", "image/gif", false},
		{"octet-stream", "application/octet-stream", false},
		{"empty", "", false},
		{"whitespace", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.IsContentTypeAllowed(tt.contentType))
		})
	}
}

func TestHasValidMagicBytes(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	pdf := []byte("%PDF-1.4 content")

	tests := []struct {
		name        string
		content     []byte
		contentType string
		want        bool
	}{
		{"jpeg signature", jpeg, "image/jpeg", true},
		{"png signature", png, "image/png", true},
		{"pdf signature", pdf, "application/pdf", true},
		{"jpeg declared as png", jpeg, "image/png", false},
		{"png declared as jpeg", png, "image/jpeg", false},
		{"plain text declared as pdf", []byte("hello world"), "application/pdf", false},
		{"too short", []byte{0xFF, 0xD8}, "image/jpeg", false},
		{"empty", nil, "image/jpeg", false},
		{"unknown declared type", jpeg, "image/gif", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validator.HasValidMagicBytes(bytes.NewReader(tt.content), tt.contentType))
		})
	}
}

func TestHasValidMagicBytes_RestoresSeekPosition(t *testing.T) {
	r := bytes.NewReader([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A})

	// advance the cursor, the check must put it back
	_, err := r.Seek(3, io.SeekStart)
	assert.NoError(t, err)

	assert.True(t, validator.HasValidMagicBytes(r, "image/png"))

	pos, err := r.Seek(0, io.SeekCurrent)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), pos)
}

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"application/pdf", ".pdf"},
		{"IMAGE/PNG", ".png"},
	}
	for _, tt := range tests {
		ext, err := validator.ExtensionForContentType(tt.contentType)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, ext)
	}

	_, err := validator.ExtensionForContentType("image/gif")
	assert.Error(t, err)
}

func TestMaxFileSizeBytes(t *testing.T) {
	assert.Equal(t, int64(10*1024*1024), int64(validator.MaxFileSizeBytes))
}
