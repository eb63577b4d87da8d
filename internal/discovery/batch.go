package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

const (
	// DefaultWorkers is the number of concurrent lookup calls per stage.
	DefaultWorkers = 4
	// MaxWorkers bounds concurrency to stay clear of the remote rate limits.
	MaxWorkers = 8
	// DefaultCallTimeout bounds every remote call.
	DefaultCallTimeout = 10 * time.Second
)

// BatchOptions controls how FetchBatches fans out.
type BatchOptions struct {
	Stage       string
	Size        int           // ids per call, clamped to 1..BatchCap
	Workers     int           // concurrent calls, clamped to 1..MaxWorkers
	CallTimeout time.Duration // per call; zero means DefaultCallTimeout
}

func (o BatchOptions) size() int {
	if o.Size <= 0 || o.Size > BatchCap {
		return BatchCap
	}
	return o.Size
}

func (o BatchOptions) workers() int {
	switch {
	case o.Workers <= 0:
		return DefaultWorkers
	case o.Workers > MaxWorkers:
		return MaxWorkers
	}
	return o.Workers
}

func (o BatchOptions) callTimeout() time.Duration {
	if o.CallTimeout <= 0 {
		return DefaultCallTimeout
	}
	return o.CallTimeout
}

// Partition splits ids into contiguous slices of at most size elements.
func Partition(ids []string, size int) [][]string {
	if size <= 0 || size > BatchCap {
		size = BatchCap
	}

	var batches [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}

	return batches
}

// FetchBatches issues one fetch call per batch of ids and concatenates the
// results in batch order.
//
// A failing or timed-out batch does not abort the fetch: it is reported as a
// *BatchError in the returned slice and its ids stay unresolved. A batch that
// fails with a *PartialError keeps its records and contributes the per-item
// errors instead. The only fatal error is cancellation of ctx, in which case
// no results are returned.
func FetchBatches[T any](
	ctx context.Context,
	ids []string,
	opts BatchOptions,
	fetch func(ctx context.Context, ids []string) ([]T, error),
) ([]T, []error, error) {
	batches := Partition(ids, opts.size())
	if len(batches) == 0 {
		return nil, nil, nil
	}

	results := make([][]T, len(batches))
	failures := make([][]error, len(batches))
	timeout := opts.callTimeout()

	var g errgroup.Group
	g.SetLimit(opts.workers())

	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			items, err := fetch(callCtx, batch)
			if itemErrs, ok := splitPartial(err); ok {
				for _, e := range itemErrs {
					metrics.ObserveBatchFailure(opts.Stage, Kind(e))
				}
				results[i] = items
				failures[i] = itemErrs
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("%w: call timed out after %s", ErrSourceUnavailable, timeout)
				}
				err = ClassifyError(err)
				metrics.ObserveBatchFailure(opts.Stage, Kind(err))
				failures[i] = []error{&BatchError{Stage: opts.Stage, Batch: i, IDs: batch, Err: err}}
				return nil
			}

			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var out []T
	var errs []error
	for i := range batches {
		out = append(out, results[i]...)
		errs = append(errs, failures[i]...)
	}

	return out, errs, nil
}

// FetchVideos resolves video ids through src in batches of at most BatchCap.
func FetchVideos(ctx context.Context, src Source, ids []string, opts BatchOptions) ([]model.VideoRecord, []error, error) {
	opts.Stage = StageVideos
	return FetchBatches(ctx, ids, opts, src.GetVideos)
}

// FetchChannels resolves channel ids through src and indexes them by id.
func FetchChannels(ctx context.Context, src Source, ids []string, opts BatchOptions) (map[string]model.ChannelRecord, []error, error) {
	opts.Stage = StageChannels
	records, errs, err := FetchBatches(ctx, ids, opts, src.GetChannels)
	if err != nil {
		return nil, nil, err
	}

	channels := make(map[string]model.ChannelRecord, len(records))
	for _, c := range records {
		if c.ID == "" {
			errs = append(errs, &EntityError{Stage: StageChannels, ID: "", Err: fmt.Errorf("%w: channel without id", ErrMalformedResponse)})
			continue
		}
		channels[c.ID] = c
	}

	return channels, errs, nil
}
