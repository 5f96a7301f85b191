package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"healthetl/internal/models"
)

// DefaultChunkSize is used when a batch is given no chunk size.
const DefaultChunkSize = 500

// RecordFunc cleans one raw record, counting into st.
type RecordFunc[T any] func(rec models.RawRecord, st *Stats) T

// ProcessBatch applies fn to every record in parallel chunks of chunkSize,
// with at most workers chunks in flight. The output has one entry per input,
// in input order, and the chunk statistics are merged in chunk order.
func ProcessBatch[T any](
	ctx context.Context,
	dataset string,
	records []models.RawRecord,
	workers, chunkSize int,
	fn RecordFunc[T],
) ([]T, *Stats, error) {
	if workers < 1 {
		workers = 1
	}

	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	out := make([]T, len(records))
	chunks := make([]*Stats, (len(records)+chunkSize-1)/chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range chunks {
		lo := i * chunkSize
		hi := min(lo+chunkSize, len(records))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			st := NewStats(dataset)
			for j := lo; j < hi; j++ {
				out[j] = fn(records[j], st)
				st.Total++
			}

			chunks[i] = st

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	total := NewStats(dataset)
	for _, st := range chunks {
		total.Merge(st)
	}

	return out, total, nil
}
