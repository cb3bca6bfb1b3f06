// Package batch splits unbounded identifier lists into bounded-size chunks.
//
// The media store's bulk-delete endpoint caps how many keys a single call
// may carry, so callers partition their key lists here and issue one call
// per batch. The partitioning is pure and allocation-light: batches are
// subslices of the input, so the caller must not mutate the input slice
// while batches are in flight.
package batch

import "errors"

// ErrInvalidBatchSize reports a non-positive maximum batch size. This is a
// programmer error, not an input condition worth recovering from.
var ErrInvalidBatchSize = errors.New("batch: max batch size must be >= 1")

// MakeBatches partitions items into contiguous runs of at most maxBatchSize,
// preserving input order. Every batch except possibly the last is full. An
// empty input yields zero batches.
func MakeBatches(items []string, maxBatchSize int) ([][]string, error) {
	if maxBatchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if len(items) == 0 {
		return nil, nil
	}

	batches := make([][]string, 0, (len(items)+maxBatchSize-1)/maxBatchSize)
	for start := 0; start < len(items); start += maxBatchSize {
		end := min(start+maxBatchSize, len(items))
		batches = append(batches, items[start:end])
	}
	return batches, nil
}
