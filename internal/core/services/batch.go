package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Ensure BatchService implements the interface.
var _ driving.BatchRunner = (*BatchService)(nil)

// Batch stage selectors.
const (
	BatchStageAll     = ""
	BatchStageExtract = "extract"
	BatchStageMerge   = "merge"
	BatchStageDivide  = "divide"
)

// BatchService runs the structurer over many documents with a bounded
// worker pool. Documents share nothing, so workers never coordinate
// beyond handing out ids and collecting results.
type BatchService struct {
	structurer driving.Structurer
	workers    int
	limiter    *rate.Limiter
}

// NewBatchService creates a batch runner. ratePerSecond limits how many
// documents start per second; 0 or less means unlimited.
func NewBatchService(structurer driving.Structurer, workers int, ratePerSecond float64) *BatchService {
	if workers < 1 {
		workers = 1
	}
	b := &BatchService{
		structurer: structurer,
		workers:    workers,
	}
	if ratePerSecond > 0 {
		burst := int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return b
}

// RunAll processes every id. A failing document is recorded and the
// batch moves on. Cancelling ctx stops handing out new documents; the
// ones not started are reported as failed with the context error.
func (b *BatchService) RunAll(ctx context.Context, docIDs []string, opts driving.BatchOptions) (*driving.BatchResult, error) {
	run, err := b.runner(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &driving.BatchResult{
		Total:    len(docIDs),
		Failures: make(map[string]error),
	}
	if len(docIDs) == 0 {
		return result, nil
	}

	workers := b.workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	if workers > len(docIDs) {
		workers = len(docIDs)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan string)
	)
	fail := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed++
		result.Failures[id] = err
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if b.limiter != nil {
					if err := b.limiter.Wait(ctx); err != nil {
						fail(id, err)
						continue
					}
				}
				skipped, err := run(ctx, id)
				if err != nil {
					logger.WithFields(logger.Fields{"doc_id": id}).Warnf("batch: %v", err)
					fail(id, err)
					continue
				}
				mu.Lock()
				if skipped {
					result.Skipped++
				} else {
					result.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i, id := range docIDs {
		select {
		case jobs <- id:
		case <-ctx.Done():
			for _, rest := range docIDs[i:] {
				fail(rest, ctx.Err())
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	result.Elapsed = time.Since(start)
	logger.Info("batch: %d documents, %d succeeded, %d skipped, %d failed in %s",
		result.Total, result.Succeeded, result.Skipped, result.Failed, result.Elapsed.Round(time.Millisecond))

	return result, joinFailures(result.Failures)
}

// runner returns the per-document operation for the selected stage.
// skipped is true when every stage involved was a no-op.
func (b *BatchService) runner(opts driving.BatchOptions) (func(ctx context.Context, id string) (bool, error), error) {
	single := func(op func(context.Context, string, bool) (*driving.StageResult, error)) func(context.Context, string) (bool, error) {
		return func(ctx context.Context, id string) (bool, error) {
			res, err := op(ctx, id, opts.Force)
			if err != nil {
				return false, err
			}
			return res.Skipped, nil
		}
	}

	switch opts.Stage {
	case BatchStageAll:
		return func(ctx context.Context, id string) (bool, error) {
			results, err := b.structurer.Run(ctx, id, opts.Force)
			if err != nil {
				return false, err
			}
			for _, r := range results {
				if !r.Skipped {
					return false, nil
				}
			}
			return true, nil
		}, nil
	case BatchStageExtract:
		return single(b.structurer.Extract), nil
	case BatchStageMerge:
		return single(b.structurer.Merge), nil
	case BatchStageDivide:
		return single(b.structurer.Divide), nil
	default:
		return nil, fmt.Errorf("%w: unknown batch stage %q", domain.ErrInvalidInput, opts.Stage)
	}
}

// joinFailures joins per-document errors in id order.
func joinFailures(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		err := failures[id]
		var de *domain.DocumentError
		if !errors.As(err, &de) {
			err = domain.NewDocumentError(id, "", err)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
