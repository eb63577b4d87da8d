package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%03d", i)
	}
	return ids
}

func TestPartition(t *testing.T) {
	tests := []struct {
		n       int
		batches int
		last    int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{50, 1, 50},
		{51, 2, 1},
		{120, 3, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			batches := Partition(makeIDs(tt.n), BatchCap)
			require.Len(t, batches, tt.batches)
			if tt.batches > 0 {
				assert.Len(t, batches[len(batches)-1], tt.last)
			}

			var flat []string
			for _, b := range batches {
				assert.LessOrEqual(t, len(b), BatchCap)
				flat = append(flat, b...)
			}
			if tt.n > 0 {
				assert.Equal(t, makeIDs(tt.n), flat)
			}
		})
	}
}

func TestPartition_ClampsSize(t *testing.T) {
	assert.Len(t, Partition(makeIDs(120), 500), 3)
	assert.Len(t, Partition(makeIDs(120), 0), 3)
	assert.Len(t, Partition(makeIDs(120), 40), 3)
}

func TestFetchBatches_CallCount(t *testing.T) {
	for _, n := range []int{0, 1, 49, 50, 51, 100, 101, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var calls atomic.Int32
			out, errs, err := FetchBatches(context.Background(), makeIDs(n), BatchOptions{},
				func(_ context.Context, ids []string) ([]string, error) {
					calls.Add(1)
					return ids, nil
				})

			require.NoError(t, err)
			assert.Empty(t, errs)
			assert.Equal(t, int32((n+BatchCap-1)/BatchCap), calls.Load())
			assert.Len(t, out, n)
		})
	}
}

func TestFetchBatches_PreservesBatchOrder(t *testing.T) {
	ids := makeIDs(175)

	out, errs, err := FetchBatches(context.Background(), ids, BatchOptions{Workers: 8},
		func(_ context.Context, batch []string) ([]string, error) {
			// later batches finish first
			if batch[0] == ids[0] {
				time.Sleep(20 * time.Millisecond)
			}
			return batch, nil
		})

	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, ids, out)
}

func TestFetchBatches_FailedBatchIsSkipped(t *testing.T) {
	ids := makeIDs(120)

	out, errs, err := FetchBatches(context.Background(), ids, BatchOptions{Stage: StageVideos},
		func(_ context.Context, batch []string) ([]string, error) {
			if batch[0] == ids[50] {
				return nil, fmt.Errorf("%w: 503", ErrSourceUnavailable)
			}
			return batch, nil
		})

	require.NoError(t, err)
	assert.Len(t, out, 70)
	require.Len(t, errs, 1)

	var batchErr *BatchError
	require.ErrorAs(t, errs[0], &batchErr)
	assert.Equal(t, StageVideos, batchErr.Stage)
	assert.Equal(t, 1, batchErr.Batch)
	assert.Equal(t, ids[50:100], batchErr.IDs)
	assert.ErrorIs(t, errs[0], ErrSourceUnavailable)
}

func TestFetchBatches_PartialBatchKeepsRecords(t *testing.T) {
	ids := makeIDs(60)

	out, errs, err := FetchBatches(context.Background(), ids, BatchOptions{Stage: StageVideos},
		func(_ context.Context, batch []string) ([]string, error) {
			if batch[0] != ids[0] {
				return batch, nil
			}
			return batch[1:], Partial([]error{
				&EntityError{Stage: StageVideos, ID: batch[0], Err: errors.New("bad publishedAt")},
			})
		})

	require.NoError(t, err)
	assert.Equal(t, ids[1:], out)
	require.Len(t, errs, 1)

	var entityErr *EntityError
	require.ErrorAs(t, errs[0], &entityErr)
	assert.Equal(t, ids[0], entityErr.ID)
	assert.ErrorIs(t, errs[0], ErrMalformedResponse)
}

func TestPartial(t *testing.T) {
	assert.NoError(t, Partial(nil))

	err := Partial([]error{fmt.Errorf("%w: x", ErrMalformedResponse)})
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "1 items dropped")
}

func TestFetchBatches_UnclassifiedErrorBecomesMalformed(t *testing.T) {
	_, errs, err := FetchBatches(context.Background(), makeIDs(3), BatchOptions{},
		func(context.Context, []string) ([]string, error) {
			return nil, errors.New("unexpected field")
		})

	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformedResponse)
}

func TestFetchBatches_CallTimeout(t *testing.T) {
	ids := makeIDs(60)

	out, errs, err := FetchBatches(context.Background(), ids, BatchOptions{CallTimeout: 20 * time.Millisecond},
		func(ctx context.Context, batch []string) ([]string, error) {
			if batch[0] == ids[0] {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return batch, nil
		})

	require.NoError(t, err)
	assert.Equal(t, ids[50:], out)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSourceUnavailable)
}

func TestFetchBatches_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	_, _, err := FetchBatches(context.Background(), makeIDs(500), BatchOptions{Workers: 3},
		func(_ context.Context, batch []string) ([]string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return batch, nil
		})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetchBatches_CancelledContextIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	out, errs, err := FetchBatches(ctx, makeIDs(500), BatchOptions{Workers: 1},
		func(_ context.Context, batch []string) ([]string, error) {
			if calls.Add(1) == 2 {
				cancel()
			}
			return batch, nil
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Nil(t, errs)
	assert.Less(t, calls.Load(), int32(10))
}
