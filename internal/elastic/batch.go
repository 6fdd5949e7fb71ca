package elastic

import (
	"context"
	"errors"
	"fmt"
)

// BulkWriter is the bulk submission surface the accumulator needs.
// *Client satisfies it.
type BulkWriter interface {
	Bulk(ctx context.Context, items []BulkItem) error
}

// FlushError reports a failed bulk submission together with the identities
// that were in flight, so a caller can retry the whole run idempotently.
type FlushError struct {
	InFlight []string
	Err      error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("elastic: bulk flush of %d documents failed: %v", len(e.InFlight), e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// Accumulator buffers formatted documents and submits them in bulk once the
// accumulated declared file size reaches the threshold. The declared size, not
// the serialized payload size, drives the flush; the engine's payload ceiling
// is approximated through it. Accumulation is round-based: the buffer and the
// running total reset after every flush, and Flush must be called once at the
// end of a run for the remainder. Not safe for concurrent use.
type Accumulator struct {
	writer  BulkWriter
	index   string
	docType string

	thresholdBytes int64
	runningSize    int64
	items          []BulkItem
	pending        []string
	flushed        []string
}

// NewAccumulator creates an Accumulator writing to one index and doc type.
func NewAccumulator(writer BulkWriter, index, docType string, thresholdBytes int64) (*Accumulator, error) {
	if writer == nil {
		return nil, errors.New("elastic: bulk writer must not be nil")
	}
	if index == "" || docType == "" {
		return nil, errors.New("elastic: index and doc type must not be empty")
	}
	if thresholdBytes <= 0 {
		return nil, errors.New("elastic: flush threshold must be positive")
	}
	return &Accumulator{
		writer:         writer,
		index:          index,
		docType:        docType,
		thresholdBytes: thresholdBytes,
	}, nil
}

// Add buffers one document under its identity and flushes synchronously when
// the accumulated declared size reaches the threshold.
func (a *Accumulator) Add(ctx context.Context, id string, document any, declaredSize int64) error {
	a.items = append(a.items, BulkItem{Index: a.index, DocType: a.docType, ID: id, Document: document})
	a.pending = append(a.pending, id)
	a.runningSize += declaredSize
	if a.runningSize >= a.thresholdBytes {
		return a.flush(ctx)
	}
	return nil
}

// Flush submits any buffered remainder. Call exactly once at the end of a run.
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.items) == 0 {
		return nil
	}
	return a.flush(ctx)
}

func (a *Accumulator) flush(ctx context.Context) error {
	if err := a.writer.Bulk(ctx, a.items); err != nil {
		return &FlushError{InFlight: append([]string(nil), a.pending...), Err: err}
	}
	a.flushed = append(a.flushed, a.pending...)
	a.items = nil
	a.pending = nil
	a.runningSize = 0
	return nil
}

// Flushed returns the identities submitted successfully so far, in order.
func (a *Accumulator) Flushed() []string {
	return append([]string(nil), a.flushed...)
}

// Pending returns the identities buffered but not yet submitted.
func (a *Accumulator) Pending() []string {
	return append([]string(nil), a.pending...)
}
