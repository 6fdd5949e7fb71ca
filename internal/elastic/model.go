package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"document-search/internal/domain"
)

// Model bundles one index, its document type and its field mapping.
type Model struct {
	client  *Client
	index   string
	docType string
	mapping json.RawMessage
}

// Index returns the index name this model writes to.
func (m *Model) Index() string { return m.index }

// DocType returns the document type this model writes under.
func (m *Model) DocType() string { return m.docType }

// EnsureIndex creates the index and applies the mapping. Idempotent; must run
// before the first document write.
func (m *Model) EnsureIndex(ctx context.Context) error {
	if err := m.client.CreateIndex(ctx, m.index); err != nil {
		return err
	}
	return m.client.PutMapping(ctx, m.index, m.docType, m.mapping)
}

// Accumulator creates a bulk accumulator writing to this model's index.
func (m *Model) Accumulator(thresholdBytes int64) (*Accumulator, error) {
	return NewAccumulator(m.client, m.index, m.docType, thresholdBytes)
}

// PutDocument writes one document under the identity derived from ref.
func (m *Model) PutDocument(ctx context.Context, ref domain.FileReference, document any) error {
	return m.client.PutDocument(ctx, m.index, m.docType, DocumentID(ref.Bucket, ref.Key), document)
}

// GetDocument fetches the stored source for ref's identity.
func (m *Model) GetDocument(ctx context.Context, ref domain.FileReference) (json.RawMessage, error) {
	return m.client.GetDocument(ctx, m.index, m.docType, DocumentID(ref.Bucket, ref.Key))
}

// DeleteDocument removes the document stored under ref's identity.
func (m *Model) DeleteDocument(ctx context.Context, ref domain.FileReference) error {
	return m.client.DeleteDocument(ctx, m.index, m.docType, DocumentID(ref.Bucket, ref.Key))
}

func (m *Model) search(ctx context.Context, query Query) (SearchResult, error) {
	return m.client.Search(ctx, m.index, m.docType, query)
}

var textfileMapping = json.RawMessage(`{
	"properties": {
		"title": {"type": "text"},
		"extension": {"type": "keyword"},
		"s3_url": {"type": "text"},
		"filesize": {"type": "integer"},
		"content": {"type": "text"},
		"entities": {
			"properties": {
				"type": {"type": "keyword"},
				"content": {"type": "keyword"}
			}
		},
		"key_phrases": {"type": "keyword"}
	}
}`)

var imagefileMapping = json.RawMessage(`{
	"properties": {
		"extension": {"type": "keyword"},
		"s3_url": {"type": "text"},
		"filesize": {"type": "integer"},
		"tags": {"type": "text"}
	}
}`)

// TextfileModel is the index model for extracted text documents.
type TextfileModel struct {
	Model
}

func NewTextfileModel(client *Client) *TextfileModel {
	return &TextfileModel{Model{
		client:  client,
		index:   "textfilesearch",
		docType: "textfile",
		mapping: textfileMapping,
	}}
}

// TextHit is one matched text document with its highlight fragments.
type TextHit struct {
	ID         string
	Document   domain.TextDocument
	Highlights []string
}

// SearchKeywords runs a highlight query and decodes the hits.
func (m *TextfileModel) SearchKeywords(ctx context.Context, keywords []string, maxDocs, fragmentCount, fragmentLength int) ([]TextHit, error) {
	result, err := m.search(ctx, HighlightQuery(keywords, maxDocs, fragmentCount, fragmentLength))
	if err != nil {
		return nil, err
	}
	hits := make([]TextHit, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc domain.TextDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("elastic: decode textfile hit %q: %w", hit.ID, err)
		}
		hits = append(hits, TextHit{
			ID:         hit.ID,
			Document:   doc,
			Highlights: hit.Highlight["content"],
		})
	}
	return hits, nil
}

// ImagefileModel is the index model for tagged image documents.
type ImagefileModel struct {
	Model
}

func NewImagefileModel(client *Client) *ImagefileModel {
	return &ImagefileModel{Model{
		client:  client,
		index:   "imagefilesearch",
		docType: "imagefile",
		mapping: imagefileMapping,
	}}
}

// ImageHit is one matched image document.
type ImageHit struct {
	ID       string
	Document domain.ImageDocument
}

// SearchTags runs a disjunctive tag query and decodes the hits.
func (m *ImagefileModel) SearchTags(ctx context.Context, tags []string, maxDocs int) ([]ImageHit, error) {
	result, err := m.search(ctx, TagQuery(tags, maxDocs))
	if err != nil {
		return nil, err
	}
	hits := make([]ImageHit, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc domain.ImageDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("elastic: decode imagefile hit %q: %w", hit.ID, err)
		}
		hits = append(hits, ImageHit{ID: hit.ID, Document: doc})
	}
	return hits, nil
}
