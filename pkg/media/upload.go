package media

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFilename     = errors.New("filename cannot be empty")
	ErrFilenameTooLong   = errors.New("filename too long")
	ErrInvalidFilename   = errors.New("filename contains invalid characters")
	ErrExtension         = errors.New("file type not allowed")
	ErrMIMEMismatch      = errors.New("content type does not match file extension")
	ErrSignatureMismatch = errors.New("file content does not match its extension")
	ErrTooSmall          = errors.New("file too small to identify")
)

// Uploads are limited to these extensions, each with its canonical MIME type.
var allowedTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
}

// SniffLen is how many leading bytes ValidateUpload needs to see.
const SniffLen = 3072

const maxFilenameLen = 255

// SanitizeFilename strips directories and control characters and rejects
// names that still contain path or shell metacharacters.
func SanitizeFilename(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyFilename
	}

	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == "/" {
		return "", ErrEmptyFilename
	}
	if len(name) > maxFilenameLen {
		return "", ErrFilenameTooLong
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\:*?"<>|`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return name, nil
}

// Extension returns the lower-cased allowed extension of name, or "".
func Extension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := allowedTypes[ext]; !ok {
		return ""
	}
	return ext
}

// Upload is an accepted file.
type Upload struct {
	Filename    string
	Extension   string
	ContentType string
}

// ValidateUpload checks the filename, the declared content type and the
// file's leading bytes against each other. An empty contentType is taken
// from the extension.
func ValidateUpload(filename, contentType string, head []byte) (*Upload, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	ext := Extension(name)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s", ErrExtension, filepath.Ext(name))
	}
	canonical := allowedTypes[ext]

	if contentType == "" {
		contentType = canonical
	}
	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil || !mimeMatches(declared, canonical) {
		return nil, fmt.Errorf("%w: %s for .%s", ErrMIMEMismatch, contentType, ext)
	}

	if len(head) < 4 {
		return nil, ErrTooSmall
	}
	detected := mimetype.Detect(head)
	if !signatureMatches(detected, canonical) {
		return nil, fmt.Errorf("%w: detected %s", ErrSignatureMismatch, detected.String())
	}

	return &Upload{Filename: name, Extension: ext, ContentType: canonical}, nil
}

func mimeMatches(declared, canonical string) bool {
	declared = strings.ToLower(declared)
	if declared == canonical {
		return true
	}
	// Browsers send image/jpg for jpegs.
	return declared == "image/jpg" && canonical == "image/jpeg"
}

func signatureMatches(detected *mimetype.MIME, canonical string) bool {
	if detected.Is(canonical) {
		return true
	}
	// mov and mp4 share the ftyp box; brands vary by encoder.
	if canonical == "video/mp4" || canonical == "video/quicktime" {
		for m := detected; m != nil; m = m.Parent() {
			if m.Is("video/mp4") || m.Is("video/quicktime") {
				return true
			}
		}
	}
	return false
}
