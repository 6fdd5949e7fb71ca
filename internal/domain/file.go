package domain

import (
	"path"
	"strings"
)

// FileReference identifies one uploaded object in S3 storage.
// Immutable once constructed from an arrival event.
type FileReference struct {
	Bucket    string
	Key       string
	SizeBytes int64
}

// Extension returns the lower-cased file extension without the dot,
// or an empty string when the key has none.
func (r FileReference) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(r.Key), "."))
}

// Entity is a named entity detected in extracted text.
type Entity struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
