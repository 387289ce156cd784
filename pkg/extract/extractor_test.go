package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"talkzilla/internal/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Talkzilla</w:t></w:r><w:r><w:t xml:space="preserve"> roars</w:t></w:r></w:p>
    <w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	res, err := e.Extract("notes.txt", "text/plain", []byte("\xEF\xBB\xBFhello dino"))

	require.NoError(t, err)
	assert.Equal(t, constant.MimeTypeText, res.MimeType)
	assert.Equal(t, "hello dino", res.Text)
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract("notes.txt", "text/plain", []byte{0xff, 0xfe, 0xfd})

	assert.Error(t, err)
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

func TestExtractDocx(t *testing.T) {
	e := NewExtractor()
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"word/document.xml":   docxBody,
	})

	res, err := e.Extract("story.docx", constant.MimeTypeDocx, data)

	require.NoError(t, err)
	assert.Equal(t, constant.MimeTypeDocx, res.MimeType)
	assert.True(t, strings.HasPrefix(res.Text, "Talkzilla roars\n"), res.Text)
	assert.Contains(t, res.Text, "line one")
	assert.Contains(t, res.Text, "line two")
	assert.NotContains(t, res.Text, "\n\n")
}

func TestExtractDocxMissingBody(t *testing.T) {
	e := NewExtractor()
	data := buildDocx(t, map[string]string{"word/other.xml": "<x/>"})

	_, err := e.Extract("broken.docx", constant.MimeTypeDocx, data)

	assert.Error(t, err)
}

func TestExtractDocxNotAZip(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract("broken.docx", constant.MimeTypeDocx, []byte("definitely not a zip archive"))

	assert.Error(t, err)
}

func TestJoinParagraphsDropsBlankLines(t *testing.T) {
	assert.Equal(t, "first\nsecond", joinParagraphs("\n  first \n\n\t\nsecond\n\n"))
}

func TestGuardRecoversParserPanic(t *testing.T) {
	text, err := guard(func([]byte) (string, error) { panic("bad xref") }, []byte("x"))

	assert.Empty(t, text)
	assert.ErrorContains(t, err, "malformed document: bad xref")
}

func TestExtractCorruptPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract("scan.pdf", constant.MimeTypePDF, []byte("%PDF-1.4 this is not really a pdf"))

	assert.Error(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := e.Extract("dino.png", "image/png", png)

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractEmpty(t *testing.T) {
	_, err := NewExtractor().Extract("empty.txt", "text/plain", nil)

	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestResolveType(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		declared string
		data     []byte
		want     string
	}{
		{"declared with params", "a", "text/plain; charset=utf-8", []byte("x"), constant.MimeTypeText},
		{"sniffed pdf", "upload", "application/octet-stream", []byte("%PDF-1.7\n"), constant.MimeTypePDF},
		{"sniffed text", "upload", "", []byte("just some words"), constant.MimeTypeText},
		{"extension fallback", "report.docx", "application/octet-stream", []byte{0x00, 0x01, 0x02}, constant.MimeTypeDocx},
		{"unknown", "blob.bin", "application/octet-stream", []byte{0x00, 0x01, 0x02}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveType(tt.file, tt.declared, tt.data))
		})
	}
}
