package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"invoicegen/internal"
	"invoicegen/internal/config"
)

// BatchService generates many documents concurrently, capped by the
// configured batch concurrency. Each document still renders its sheets
// sequentially; only whole documents run in parallel.
type BatchService struct {
	generator *GenerationService
	limit     int64
	logger    *internal.Logger
}

// BatchItemResult pairs one request with its outcome.
type BatchItemResult struct {
	Request GenerationRequest
	Result  *GenerationResult
	Err     error
}

// NewBatchService creates a batch runner over the given generator.
func NewBatchService(generator *GenerationService, cfg *config.Config) *BatchService {
	limit := int64(cfg.Generation.BatchConcurrency)
	if limit < 1 {
		limit = 1
	}
	return &BatchService{
		generator: generator,
		limit:     limit,
		logger:    internal.DefaultLogger,
	}
}

// Run generates every request and returns the results in request order.
// Context cancellation stops admitting new documents; documents already
// rendering finish. One document failing never stops the rest.
func (s *BatchService) Run(ctx context.Context, requests []GenerationRequest) []BatchItemResult {
	results := make([]BatchItemResult, len(requests))
	sem := semaphore.NewWeighted(s.limit)

	var wg sync.WaitGroup
	for i, req := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = BatchItemResult{Request: req, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, req GenerationRequest) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := s.generator.Generate(ctx, req)
			if err != nil {
				s.logger.Error("Batch item %s failed: %v", req.DataPath, err)
			}
			results[i] = BatchItemResult{Request: req, Result: result, Err: err}
		}(i, req)
	}
	wg.Wait()

	s.logger.Info("Batch finished: %d/%d succeeded", succeededCount(results), len(results))
	return results
}

func succeededCount(results []BatchItemResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil && r.Result != nil {
			n++
		}
	}
	return n
}
