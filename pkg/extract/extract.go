package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat rejects a document before chunking ever starts.
	ErrUnsupportedFormat = errors.New("extract: unsupported format")

	// ErrExtraction wraps converter failures on formats we do support.
	ErrExtraction = errors.New("extract: extraction failed")
)

// Extractor turns raw file bytes into plain text for one format family.
type Extractor interface {
	Extract(data []byte, formatTag string) (string, error)
}

// Converter is the external capability that renders binary office formats
// (pdf, docx, pptx) to text. The core ships no format parsers of its own.
type Converter interface {
	Convert(data []byte, formatTag string) (string, error)
}

// Registry routes a format tag to the extractor responsible for it.
type Registry struct {
	converter Converter
}

// NewRegistry builds a registry. converter may be nil, in which case binary
// formats are rejected as unsupported.
func NewRegistry(converter Converter) *Registry {
	return &Registry{converter: converter}
}

func (r *Registry) Extract(data []byte, formatTag string) (string, error) {
	switch normalizeTag(formatTag) {
	case "txt", "md", "text":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %q payload is not valid UTF-8", ErrExtraction, formatTag)
		}
		return string(data), nil
	case "pdf", "docx", "pptx":
		if r.converter == nil {
			return "", fmt.Errorf("%w: no converter configured for %q", ErrUnsupportedFormat, formatTag)
		}
		text, err := r.converter.Convert(data, normalizeTag(formatTag))
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrExtraction, formatTag, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, formatTag)
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "."))
}
