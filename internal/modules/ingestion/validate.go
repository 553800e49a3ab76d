package ingestion

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

const (
	PDFMimeType = "application/pdf"
	MaxFileSize = 10 * 1024 * 1024
)

// File describes one candidate upload.
type File struct {
	Name     string
	MimeType string
	Size     int64
}

// Validate accepts PDFs up to MaxFileSize. It runs before any progress state
// exists.
func Validate(f File) error {
	mt := strings.ToLower(strings.TrimSpace(f.MimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt != PDFMimeType {
		return apierr.New(http.StatusUnsupportedMediaType, "unsupported_file_type",
			fmt.Errorf("%q is not a PDF (got %q)", f.Name, f.MimeType))
	}
	if f.Size > MaxFileSize {
		return apierr.New(http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("%q is %d bytes; the limit is 10 MiB", f.Name, f.Size))
	}
	if f.Size <= 0 {
		return apierr.Validation("empty_file", fmt.Errorf("%q is empty", f.Name))
	}
	return nil
}
