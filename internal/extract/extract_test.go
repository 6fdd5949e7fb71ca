package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText_Txt(t *testing.T) {
	got, err := Text("txt", []byte("  plain text body\n"))
	require.NoError(t, err)
	require.Equal(t, "plain text body", got)
}

func TestText_ExtensionIsCaseInsensitive(t *testing.T) {
	got, err := Text("TXT", []byte("body"))
	require.NoError(t, err)
	require.Equal(t, "body", got)
}

func TestText_UnsupportedExtension(t *testing.T) {
	_, err := Text("csv", []byte("a,b,c"))
	require.ErrorContains(t, err, `unsupported extension "csv"`)
}

func newDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxDocumentXMLPath)
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestText_Docx(t *testing.T) {
	docx := newDocx(t, `<?xml version="1.0"?>
		<w:document><w:body>
			<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">world</w:t></w:r></w:p>
			<w:p><w:r><w:t>second paragraph</w:t></w:r></w:p>
		</w:body></w:document>`)

	got, err := Text("docx", docx)
	require.NoError(t, err)
	require.Equal(t, "Hello world second paragraph", got)
}

func TestText_DocxWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Text("docx", buf.Bytes())
	require.ErrorContains(t, err, "word/document.xml not found")
}

func TestText_DocxNotAZip(t *testing.T) {
	_, err := Text("docx", []byte("this is not a zip archive"))
	require.ErrorContains(t, err, "not a zip")
}

func TestText_PdfGarbage(t *testing.T) {
	_, err := Text("pdf", []byte("not a pdf"))
	require.Error(t, err)
}
