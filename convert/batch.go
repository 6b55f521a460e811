package convert

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyBatch is returned when a batch holds no document.
	ErrEmptyBatch = errors.New("No se seleccionó ningún archivo.")

	// ErrBatchTooLarge is returned when a batch exceeds the configured maximum.
	ErrBatchTooLarge = errors.New("Demasiados archivos en una sola conversión")
)

// BatchResult is the outcome of one batch item: Result on success, Err
// otherwise.
type BatchResult struct {
	Filename string
	Result   *Result
	Err      error
}

// ConvertBatch converts items with at most Concurrency conversions in
// flight. A failing item never aborts its siblings; results keep the input
// order.
func (s *Service) ConvertBatch(ctx context.Context, items []Item) ([]BatchResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d (máximo %d)", ErrBatchTooLarge, len(items), s.maxBatch)
	}

	results := make([]BatchResult, len(items))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			res, err := s.Convert(ctx, item)
			results[i] = BatchResult{Filename: item.Filename, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
