package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConverter struct {
	text string
	err  error
}

func (s *stubConverter) Convert(data []byte, formatTag string) (string, error) {
	return s.text, s.err
}

func TestExtractPlainText(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name string
		tag  string
	}{
		{name: "txt", tag: "txt"},
		{name: "dotted txt", tag: ".txt"},
		{name: "uppercase", tag: "TXT"},
		{name: "markdown", tag: "md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := r.Extract([]byte("hello world"), tt.tag)
			require.NoError(t, err)
			assert.Equal(t, "hello world", text)
		})
	}
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Extract([]byte{0x1}, "exe")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractBinaryFormatsNeedConverter(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Extract([]byte("%PDF-1.4"), "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDelegatesToConverter(t *testing.T) {
	r := NewRegistry(&stubConverter{text: "converted body"})
	text, err := r.Extract([]byte("%PDF-1.4"), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "converted body", text)
}

func TestExtractConverterFailure(t *testing.T) {
	r := NewRegistry(&stubConverter{err: errors.New("parser blew up")})
	_, err := r.Extract([]byte("%PDF-1.4"), "docx")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractInvalidUTF8(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Extract([]byte{0xff, 0xfe, 0xfd}, "txt")
	assert.ErrorIs(t, err, ErrExtraction)
}
