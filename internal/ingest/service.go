// Package ingest turns uploaded files into index documents and submits them
// in size-bounded bulk batches.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"document-search/internal/domain"
	"document-search/internal/elastic"
	"document-search/internal/extract"
)

// Status summarizes the outcome of one ingestion run.
type Status string

const (
	StatusNothingToIndex Status = "nothing_to_index"
	StatusIndexed        Status = "indexed"
	StatusFailed         Status = "failed"
)

// Report is the outcome of one ingestion run. Indexed and Lost carry the
// document identities that were (respectively were not) written before the
// run ended, so an external retry of the whole run stays idempotent.
type Report struct {
	RunID   string   `json:"runId"`
	Status  Status   `json:"status"`
	Indexed []string `json:"indexed"`
	Lost    []string `json:"lost"`
}

// ObjectFetcher retrieves the raw bytes of an uploaded object.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// TextClassifier detects entities and key phrases, one result list per input
// text, index-aligned.
type TextClassifier interface {
	DetectEntitiesBatch(ctx context.Context, texts []string) ([][]domain.Entity, error)
	DetectKeyPhrasesBatch(ctx context.Context, texts []string) ([][]string, error)
}

// ImageClassifier derives tags from a stored image.
type ImageClassifier interface {
	DetectLabels(ctx context.Context, ref domain.FileReference, maxLabels int32, minConfidence float32) ([]string, error)
	DetectText(ctx context.Context, ref domain.FileReference, minConfidence float32) ([]string, error)
	RecognizeCelebrities(ctx context.Context, ref domain.FileReference, minConfidence float32) ([]string, error)
}

// IndexModel is the index surface a run writes through.
// *elastic.TextfileModel and *elastic.ImagefileModel satisfy it.
type IndexModel interface {
	EnsureIndex(ctx context.Context) error
	Accumulator(thresholdBytes int64) (*elastic.Accumulator, error)
}

// Config tunes one ingestion service.
type Config struct {
	Region              string
	FlushThresholdBytes int64
	MaxLabels           int32
	MinConfidence       float32
}

const (
	defaultFlushThreshold = 5_000_000
	defaultMaxLabels      = 20
	defaultMinConfidence  = 90
)

var supportedTextExtensions = map[string]bool{"pdf": true, "docx": true, "txt": true}
var supportedImageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "bmp": true, "gif": true}

// Service is the batched indexing pipeline. One Run handles one arrival
// event; accumulation within a run is strictly sequential.
type Service struct {
	objects    ObjectFetcher
	texts      TextClassifier
	images     ImageClassifier
	textfiles  IndexModel
	imagefiles IndexModel
	cfg        Config
}

func NewService(objects ObjectFetcher, texts TextClassifier, images ImageClassifier, textfiles, imagefiles IndexModel, cfg Config) (*Service, error) {
	if objects == nil {
		return nil, errors.New("ingest: object fetcher must not be nil")
	}
	if texts == nil {
		return nil, errors.New("ingest: text classifier must not be nil")
	}
	if images == nil {
		return nil, errors.New("ingest: image classifier must not be nil")
	}
	if textfiles == nil || imagefiles == nil {
		return nil, errors.New("ingest: index models must not be nil")
	}
	if cfg.Region == "" {
		return nil, errors.New("ingest: region must not be empty")
	}
	if cfg.FlushThresholdBytes <= 0 {
		cfg.FlushThresholdBytes = defaultFlushThreshold
	}
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = defaultMaxLabels
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	return &Service{
		objects:    objects,
		texts:      texts,
		images:     images,
		textfiles:  textfiles,
		imagefiles: imagefiles,
		cfg:        cfg,
	}, nil
}

// Run processes one batch of file arrivals to completion. Unsupported
// extensions are ignored. A failure aborts the run; the report then carries
// the identities already flushed and the ones lost.
func (s *Service) Run(ctx context.Context, refs []domain.FileReference) (Report, error) {
	report := Report{
		RunID:   newRunID(),
		Indexed: []string{},
		Lost:    []string{},
	}
	log := slog.With("run_id", report.RunID)

	var textRefs, imageRefs []domain.FileReference
	for _, ref := range refs {
		switch ext := ref.Extension(); {
		case supportedTextExtensions[ext]:
			textRefs = append(textRefs, ref)
		case supportedImageExtensions[ext]:
			imageRefs = append(imageRefs, ref)
		}
	}
	if len(textRefs)+len(imageRefs) == 0 {
		report.Status = StatusNothingToIndex
		return report, nil
	}
	log.Info("ingestion run started", "textfiles", len(textRefs), "imagefiles", len(imageRefs))

	if len(textRefs) > 0 {
		if err := s.indexTextfiles(ctx, textRefs, &report); err != nil {
			report.Status = StatusFailed
			log.Error("ingestion run failed", "err", err, "indexed", len(report.Indexed), "lost", len(report.Lost))
			return report, err
		}
	}
	if len(imageRefs) > 0 {
		if err := s.indexImagefiles(ctx, imageRefs, &report); err != nil {
			report.Status = StatusFailed
			log.Error("ingestion run failed", "err", err, "indexed", len(report.Indexed), "lost", len(report.Lost))
			return report, err
		}
	}

	report.Status = StatusIndexed
	log.Info("ingestion run complete", "indexed", len(report.Indexed))
	return report, nil
}

func (s *Service) indexTextfiles(ctx context.Context, refs []domain.FileReference, report *Report) error {
	ids := identities(refs)

	contents := make([]string, len(refs))
	for i, ref := range refs {
		data, err := s.objects.Fetch(ctx, ref.Bucket, ref.Key)
		if err != nil {
			report.Lost = append(report.Lost, ids...)
			return newError(ErrorTransport, "object_fetch_error", err)
		}
		text, err := extractText(ref.Extension(), data)
		if err != nil {
			report.Lost = append(report.Lost, ids...)
			return newError(ErrorValidation, "text_extract_error", err)
		}
		contents[i] = text
	}

	entities, err := s.texts.DetectEntitiesBatch(ctx, contents)
	if err != nil {
		report.Lost = append(report.Lost, ids...)
		return newError(ErrorTransport, "entity_detect_error", err)
	}
	keyPhrases, err := s.texts.DetectKeyPhrasesBatch(ctx, contents)
	if err != nil {
		report.Lost = append(report.Lost, ids...)
		return newError(ErrorTransport, "key_phrase_detect_error", err)
	}

	acc, err := s.prepare(ctx, s.textfiles, ids, report)
	if err != nil {
		return err
	}
	for i, ref := range refs {
		doc := domain.NewTextDocument(s.cfg.Region, ref.Key, ref.Extension(), ref, contents[i], entities[i], keyPhrases[i])
		if err := acc.Add(ctx, ids[i], doc, ref.SizeBytes); err != nil {
			return s.recordFlushFailure(acc, ids, report, err)
		}
	}
	if err := acc.Flush(ctx); err != nil {
		return s.recordFlushFailure(acc, ids, report, err)
	}
	report.Indexed = append(report.Indexed, acc.Flushed()...)
	return nil
}

func (s *Service) indexImagefiles(ctx context.Context, refs []domain.FileReference, report *Report) error {
	ids := identities(refs)

	acc, err := s.prepare(ctx, s.imagefiles, ids, report)
	if err != nil {
		return err
	}
	for i, ref := range refs {
		labels, err := s.images.DetectLabels(ctx, ref, s.cfg.MaxLabels, s.cfg.MinConfidence)
		if err != nil {
			report.Lost = append(report.Lost, remaining(ids, acc)...)
			return newError(ErrorTransport, "label_detect_error", err)
		}
		texts, err := s.images.DetectText(ctx, ref, s.cfg.MinConfidence)
		if err != nil {
			report.Lost = append(report.Lost, remaining(ids, acc)...)
			return newError(ErrorTransport, "text_detect_error", err)
		}
		celebrities, err := s.images.RecognizeCelebrities(ctx, ref, s.cfg.MinConfidence)
		if err != nil {
			report.Lost = append(report.Lost, remaining(ids, acc)...)
			return newError(ErrorTransport, "celebrity_detect_error", err)
		}
		doc := domain.NewImageDocument(s.cfg.Region, ref.Extension(), ref, labels, texts, celebrities)
		if err := acc.Add(ctx, ids[i], doc, ref.SizeBytes); err != nil {
			return s.recordFlushFailure(acc, ids, report, err)
		}
	}
	if err := acc.Flush(ctx); err != nil {
		return s.recordFlushFailure(acc, ids, report, err)
	}
	report.Indexed = append(report.Indexed, acc.Flushed()...)
	return nil
}

// prepare ensures index and mapping exist and opens an accumulator for the run.
func (s *Service) prepare(ctx context.Context, model IndexModel, ids []string, report *Report) (*elastic.Accumulator, error) {
	if err := model.EnsureIndex(ctx); err != nil {
		report.Lost = append(report.Lost, ids...)
		return nil, newError(ErrorTransport, "ensure_index_error", err)
	}
	acc, err := model.Accumulator(s.cfg.FlushThresholdBytes)
	if err != nil {
		report.Lost = append(report.Lost, ids...)
		return nil, newError(ErrorValidation, "accumulator_error", err)
	}
	return acc, nil
}

// recordFlushFailure splits a run's identities into flushed and lost after a
// failed bulk submission.
func (s *Service) recordFlushFailure(acc *elastic.Accumulator, ids []string, report *Report, err error) error {
	report.Indexed = append(report.Indexed, acc.Flushed()...)
	report.Lost = append(report.Lost, remaining(ids, acc)...)
	return newError(ErrorPartialBatch, "bulk_flush_error", err)
}

// remaining returns the identities of ids not yet flushed by acc.
func remaining(ids []string, acc *elastic.Accumulator) []string {
	flushed := make(map[string]bool)
	for _, id := range acc.Flushed() {
		flushed[id] = true
	}
	var lost []string
	for _, id := range ids {
		if !flushed[id] {
			lost = append(lost, id)
		}
	}
	return lost
}

func identities(refs []domain.FileReference) []string {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = elastic.DocumentID(ref.Bucket, ref.Key)
	}
	return ids
}

var extractText = extract.Text

var newRunID = func() string {
	return uuid.NewString()
}
