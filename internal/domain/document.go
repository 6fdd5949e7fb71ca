package domain

import "fmt"

// TextDocument is the index-document shape for text files. Field names match
// the search-engine mapping; a document is never mutated after construction.
type TextDocument struct {
	Title      string   `json:"title"`
	Extension  string   `json:"extension"`
	FileSize   int64    `json:"filesize"`
	S3URL      string   `json:"s3_url"`
	Content    string   `json:"content"`
	Entities   []Entity `json:"entities"`
	KeyPhrases []string `json:"key_phrases"`
}

// ImageDocument is the index-document shape for image files.
type ImageDocument struct {
	Extension string   `json:"extension"`
	FileSize  int64    `json:"filesize"`
	S3URL     string   `json:"s3_url"`
	Tags      []string `json:"tags"`
}

// S3URL derives the public object URL for a file reference in the given region.
func S3URL(region string, ref FileReference) string {
	return fmt.Sprintf("https://s3-%s.amazonaws.com/%s/%s", region, ref.Bucket, ref.Key)
}

// NewTextDocument assembles the canonical text index document. Entities and
// key phrases may be nil; fresh empty slices are allocated so documents never
// share backing storage.
func NewTextDocument(region, title, extension string, ref FileReference, content string, entities []Entity, keyPhrases []string) TextDocument {
	doc := TextDocument{
		Title:      title,
		Extension:  extension,
		FileSize:   ref.SizeBytes,
		S3URL:      S3URL(region, ref),
		Content:    content,
		Entities:   make([]Entity, 0, len(entities)),
		KeyPhrases: make([]string, 0, len(keyPhrases)),
	}
	doc.Entities = append(doc.Entities, entities...)
	doc.KeyPhrases = append(doc.KeyPhrases, keyPhrases...)
	return doc
}

// NewImageDocument assembles the canonical image index document. The three tag
// sources merge into one list with celebrities first, detected text second and
// generic labels last, so named entities rank ahead of generic labels.
func NewImageDocument(region, extension string, ref FileReference, labels, detectedText, celebrities []string) ImageDocument {
	tags := make([]string, 0, len(celebrities)+len(detectedText)+len(labels))
	tags = append(tags, celebrities...)
	tags = append(tags, detectedText...)
	tags = append(tags, labels...)
	return ImageDocument{
		Extension: extension,
		FileSize:  ref.SizeBytes,
		S3URL:     S3URL(region, ref),
		Tags:      tags,
	}
}
