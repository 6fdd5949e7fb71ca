// Package extract pulls plain text out of supported document formats.
package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text extracts the plain text of a document given its extension and raw bytes.
func Text(extension string, data []byte) (string, error) {
	switch strings.ToLower(extension) {
	case "pdf":
		return pdfText(data)
	case "docx":
		return docxText(data)
	case "txt":
		return string(bytes.TrimSpace(data)), nil
	}
	return "", fmt.Errorf("extract: unsupported extension %q", extension)
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d: %w", i, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
	}
	return strings.TrimSpace(buf.String()), nil
}

// docxDocumentXMLPath is the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// wtTag matches <w:t>text</w:t> including variants with attributes such as
// <w:t xml:space="preserve">.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: docx is not a zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract: open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract: read %s: %w", f.Name, err)
		}
		parts := wtTag.FindAllSubmatch(buf.Bytes(), -1)
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, string(p[1]))
		}
		return strings.TrimSpace(strings.Join(texts, " ")), nil
	}
	return "", fmt.Errorf("extract: %s not found in docx", docxDocumentXMLPath)
}
