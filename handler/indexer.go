package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"document-search/internal/domain"
	"document-search/internal/ingest"
)

// IngestService runs one batched indexing pass over arrived files.
type IngestService interface {
	Run(ctx context.Context, refs []domain.FileReference) (ingest.Report, error)
}

// Response is the status body an indexing invocation returns.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// IndexHandler is the file-arrival Lambda boundary: it decodes SQS-wrapped S3
// put events into file references and hands them to the ingestion service.
type IndexHandler struct {
	service IngestService
	timeout time.Duration
}

// NewIndexHandler creates an IndexHandler. timeout bounds a run's wall clock
// when the invocation context carries no deadline of its own.
func NewIndexHandler(service IngestService, timeout time.Duration) (*IndexHandler, error) {
	if service == nil {
		return nil, errors.New("handler: ingest service must not be nil")
	}
	return &IndexHandler{service: service, timeout: timeout}, nil
}

// Handle processes one batch of queued S3 arrival events.
func (h *IndexHandler) Handle(ctx context.Context, event events.SQSEvent) (Response, error) {
	if _, ok := ctx.Deadline(); !ok && h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	refs, err := fileReferences(event)
	if err != nil {
		slog.Error("malformed arrival event", "err", err)
		return statusResponse(http.StatusBadRequest, ingest.Report{Status: ingest.StatusFailed, Indexed: []string{}, Lost: []string{}}), nil
	}

	report, err := h.service.Run(ctx, refs)
	if err != nil {
		return statusResponse(http.StatusInternalServerError, report), nil
	}
	return statusResponse(http.StatusOK, report), nil
}

func fileReferences(event events.SQSEvent) ([]domain.FileReference, error) {
	var refs []domain.FileReference
	for _, record := range event.Records {
		var s3Event events.S3Event
		if err := json.Unmarshal([]byte(record.Body), &s3Event); err != nil {
			return nil, fmt.Errorf("handler: decode S3 event in message %s: %w", record.MessageId, err)
		}
		for _, rec := range s3Event.Records {
			refs = append(refs, domain.FileReference{
				Bucket:    rec.S3.Bucket.Name,
				Key:       rec.S3.Object.Key,
				SizeBytes: rec.S3.Object.Size,
			})
		}
	}
	return refs, nil
}

func statusResponse(status int, report ingest.Report) Response {
	body, err := json.Marshal(report)
	if err != nil {
		// Report has no unmarshalable fields; kept as a guard.
		body = []byte(fmt.Sprintf(`{"status":%q}`, report.Status))
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(body),
	}
}
