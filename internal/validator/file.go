// Package validator holds pure upload validation: content-type allow-list,
// magic-byte sniffing and extension mapping. No I/O beyond the provided bytes.
package validator

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// MaxFileSizeBytes is the upload size ceiling, enforced by callers before any
// signature check.
const MaxFileSizeBytes = 10 * 1024 * 1024 // 10 MiB

// AllowedContentTypes lists the accepted declared MIME types.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// IsContentTypeAllowed reports whether the declared content type is on the
// allow-list. Matching is case-insensitive; empty input is rejected.
func IsContentTypeAllowed(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return false
	}
	for _, allowed := range AllowedContentTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// HasValidMagicBytes reports whether the first four bytes of r match the
// signature of the declared content type. If r is seekable its position is
// restored before returning. Fewer than four readable bytes, or a declared
// type without a known signature, both fail the check.
func HasValidMagicBytes(r io.Reader, contentType string) bool {
	header := make([]byte, 4)

	if seeker, ok := r.(io.Seeker); ok {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return false
		}
		defer func() { _, _ = seeker.Seek(pos, io.SeekStart) }()
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return false
		}
	}

	if _, err := io.ReadFull(r, header); err != nil {
		return false
	}

	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF})
	case "image/png":
		return bytes.Equal(header, []byte{0x89, 0x50, 0x4E, 0x47})
	case "application/pdf":
		return bytes.Equal(header, []byte{0x25, 0x50, 0x44, 0x46})
	default:
		return false
	}
}

// ExtensionForContentType maps an allowed content type to its file extension.
// An unsupported type is a programmer error: callers must have already passed
// the declared type through IsContentTypeAllowed.
func ExtensionForContentType(contentType string) (string, error) {
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "application/pdf":
		return ".pdf", nil
	default:
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
}
