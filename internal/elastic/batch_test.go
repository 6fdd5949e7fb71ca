package elastic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockBulkWriter struct {
	calls [][]BulkItem
	err   error
}

func (m *mockBulkWriter) Bulk(_ context.Context, items []BulkItem) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, append([]BulkItem(nil), items...))
	return nil
}

func newTestAccumulator(t *testing.T, writer BulkWriter, threshold int64) *Accumulator {
	t.Helper()
	acc, err := NewAccumulator(writer, "textfilesearch", "textfile", threshold)
	require.NoError(t, err)
	return acc
}

func TestNewAccumulator_ValidatesInputs(t *testing.T) {
	_, err := NewAccumulator(nil, "i", "d", 1)
	require.Error(t, err)

	_, err = NewAccumulator(&mockBulkWriter{}, "", "d", 1)
	require.Error(t, err)

	_, err = NewAccumulator(&mockBulkWriter{}, "i", "d", 0)
	require.Error(t, err)
}

func TestAccumulator_FlushesOnDeclaredSizeThreshold(t *testing.T) {
	writer := &mockBulkWriter{}
	acc := newTestAccumulator(t, writer, 5_000_000)
	ctx := context.Background()

	require.NoError(t, acc.Add(ctx, "doc-1", "a", 3_000_000))
	require.Empty(t, writer.calls)

	require.NoError(t, acc.Add(ctx, "doc-2", "b", 3_000_000))
	require.Len(t, writer.calls, 1)
	require.Len(t, writer.calls[0], 2)
	require.Equal(t, []string{"doc-1", "doc-2"}, acc.Flushed())

	require.NoError(t, acc.Add(ctx, "doc-3", "c", 1_000_000))
	require.Len(t, writer.calls, 1)
	require.Equal(t, []string{"doc-3"}, acc.Pending())

	require.NoError(t, acc.Flush(ctx))
	require.Len(t, writer.calls, 2)
	require.Len(t, writer.calls[1], 1)
	require.Equal(t, "doc-3", writer.calls[1][0].ID)
	require.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, acc.Flushed())
	require.Empty(t, acc.Pending())
}

func TestAccumulator_FinalFlushOnEmptyBufferIsNoop(t *testing.T) {
	writer := &mockBulkWriter{}
	acc := newTestAccumulator(t, writer, 100)

	require.NoError(t, acc.Flush(context.Background()))
	require.Empty(t, writer.calls)
}

func TestAccumulator_ItemsCarryIndexAndDocType(t *testing.T) {
	writer := &mockBulkWriter{}
	acc := newTestAccumulator(t, writer, 1)

	require.NoError(t, acc.Add(context.Background(), "doc-1", "a", 1))
	require.Equal(t, "textfilesearch", writer.calls[0][0].Index)
	require.Equal(t, "textfile", writer.calls[0][0].DocType)
}

func TestAccumulator_FlushFailureReportsInFlightIdentities(t *testing.T) {
	writer := &mockBulkWriter{err: errors.New("bulk endpoint down")}
	acc := newTestAccumulator(t, writer, 10)
	ctx := context.Background()

	require.NoError(t, acc.Add(ctx, "doc-1", "a", 4))
	err := acc.Add(ctx, "doc-2", "b", 6)
	require.Error(t, err)

	var flushErr *FlushError
	require.ErrorAs(t, err, &flushErr)
	require.Equal(t, []string{"doc-1", "doc-2"}, flushErr.InFlight)
	require.Empty(t, acc.Flushed())
}
