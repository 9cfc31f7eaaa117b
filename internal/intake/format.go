package intake

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
)

// Format identifies an upload's tabular encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Adapter turns raw upload bytes into rows: header first, then data rows.
type Adapter interface {
	Parse(r io.Reader) ([][]string, error)
}

var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".xlsx": FormatXLSX,
	".xls":  FormatXLSX,
}

var mimeFormats = map[string]Format{
	"text/csv":                 FormatCSV,
	"application/csv":          FormatCSV,
	"application/vnd.ms-excel": FormatXLSX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,
}

// DetectFormat picks the format from the file extension, falling back to the
// MIME type. Extensions are matched case-insensitively.
func DetectFormat(name, contentType string) (Format, error) {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f, nil
	}

	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if f, ok := mimeFormats[strings.ToLower(mediaType)]; ok {
				return f, nil
			}
		}
	}

	return "", &UnsupportedFormatError{Name: name, ContentType: contentType}
}

// UnsupportedFormatError is returned before any parsing when no adapter
// handles the upload.
type UnsupportedFormatError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format for %q: please upload a CSV or Excel file (.csv, .xlsx, .xls)", e.Name)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return apperrors.ErrUnsupportedFormat
}

// ReadError wraps a failure to read or decode the upload. It matches
// apperrors.ErrRead and still exposes the underlying cause.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Is(target error) bool {
	return target == apperrors.ErrRead
}

// IsFormatOrReadError reports whether err is one of the two file-level
// failures that ValidateFile returns instead of a result.
func IsFormatOrReadError(err error) bool {
	return errors.Is(err, apperrors.ErrUnsupportedFormat) || errors.Is(err, apperrors.ErrRead)
}
