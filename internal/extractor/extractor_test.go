package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Alex Morgan</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Operations </w:t></w:r><w:r><w:t>Lead</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>2018 - Present</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Acme</w:t></w:r></w:p></w:tc>
        <w:tc><w:p></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>SAP</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestExtractor() *Extractor {
	return New(Config{AntiwordPath: "/nonexistent/antiword"}, zap.NewNop())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name, mime string
		want       models.FileKind
	}{
		{"cv.pdf", "", models.FileKindPDF},
		{"CV.PDF", "application/octet-stream", models.FileKindPDF},
		{"cv.docx", "", models.FileKindDocx},
		{"cv.doc", "", models.FileKindDoc},
		{"page.htm", "", models.FileKindHTML},
		{"", "application/pdf", models.FileKindPDF},
		{"upload", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", models.FileKindDocx},
		{"upload", "application/msword", models.FileKindDoc},
		{"upload", "text/html; charset=utf-8", models.FileKindHTML},
		{"photo.jpg", "image/jpeg", models.FileKindUnknown},
		{"notes.txt", "text/plain", models.FileKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name+"|"+tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.name, tt.mime))
		})
	}
}

func TestExtract_Docx(t *testing.T) {
	text, err := newTestExtractor().Extract(context.Background(), buildDocx(t, documentXML), models.FileKindDocx)
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{
		"Alex Morgan",
		"Operations Lead",
		"2018 - Present | Acme",
		"Skills\tSAP",
	}, lines)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := newTestExtractor().Extract(context.Background(), []byte("x"), models.FileKindUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_CorruptFiles(t *testing.T) {
	e := newTestExtractor()
	for _, kind := range []models.FileKind{models.FileKindPDF, models.FileKindDocx, models.FileKindDoc} {
		t.Run(string(kind), func(t *testing.T) {
			_, err := e.Extract(context.Background(), []byte("definitely not a document"), kind)
			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr), "got %v", err)
			assert.Equal(t, kind, extractErr.Kind)
		})
	}
}

func TestExtract_EmptyDocx(t *testing.T) {
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`
	_, err := newTestExtractor().Extract(context.Background(), buildDocx(t, body), models.FileKindDocx)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtract_HTML(t *testing.T) {
	page := `<html><head><style>p{color:red}</style><script>alert(1)</script></head><body>
<h1>Alex Morgan</h1>
<p>Professional summary: operations lead with ten years of experience in logistics and supply chain planning across the UK, including warehouse automation projects, vendor negotiation and team leadership for multi-site operations.</p>
<ul><li>Education: BSc Logistics, University of Leeds</li><li>Skills: SAP, Power BI</li></ul>
<table><tr><td>2018</td><td>Acme</td></tr></table>
</body></html>`

	text, err := newTestExtractor().Extract(context.Background(), []byte(page), models.FileKindHTML)
	require.NoError(t, err)
	assert.Contains(t, text, "Alex Morgan")
	assert.Contains(t, text, "Skills: SAP, Power BI")
	assert.Contains(t, text, "2018 | Acme")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
}

func TestExtract_HTMLThatIsNotACV(t *testing.T) {
	_, err := newTestExtractor().Extract(context.Background(), []byte("<p>hello there</p>"), models.FileKindHTML)
	var extractErr *ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}
