package extract

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"talkzilla/internal/constant"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
)

// Result is the text pulled out of an uploaded document.
type Result struct {
	MimeType string
	Text     string
}

// Extractor turns plain text, PDF and Word uploads into text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract resolves the document type and returns its text. declaredType is the
// Content-Type sent with the upload and may be empty or generic.
func (e *Extractor) Extract(name, declaredType string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mimeType := ResolveType(name, declaredType, data)

	var (
		text string
		err  error
	)
	switch mimeType {
	case constant.MimeTypeText:
		text, err = guard(extractText, data)
	case constant.MimeTypePDF:
		text, err = guard(extractPDF, data)
	case constant.MimeTypeDocx:
		text, err = guard(extractDocx, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, describe(name, declaredType))
	}
	if err != nil {
		return nil, err
	}

	return &Result{MimeType: mimeType, Text: text}, nil
}

// guard turns a parser panic on malformed input into an error.
func guard(parse func([]byte) (string, error), data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed document: %v", r)
		}
	}()
	return parse(data)
}

// ResolveType picks one of the supported MIME types, or "" when none fits.
// The declared type wins, then content sniffing, then the file extension.
func ResolveType(name, declaredType string, data []byte) string {
	if declared, _, err := mime.ParseMediaType(declaredType); err == nil && isSupported(declared) {
		return declared
	}

	detected := mimetype.Detect(data)
	for _, t := range []string{constant.MimeTypePDF, constant.MimeTypeDocx, constant.MimeTypeText} {
		if detected.Is(t) {
			return t
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return constant.MimeTypeText
	case ".pdf":
		return constant.MimeTypePDF
	case ".docx":
		return constant.MimeTypeDocx
	}
	return ""
}

func isSupported(t string) bool {
	switch t {
	case constant.MimeTypeText, constant.MimeTypePDF, constant.MimeTypeDocx:
		return true
	}
	return false
}

func describe(name, declaredType string) string {
	if declaredType != "" {
		return fmt.Sprintf("%s (%s)", name, declaredType)
	}
	return name
}
