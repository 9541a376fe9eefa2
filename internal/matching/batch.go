package matching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

// ScoreFunc computes the score for a single candidate item.
type ScoreFunc func(ctx context.Context, item catalog.Item) int

// BatchScorer scores candidate items concurrently with a bounded worker
// pool.
type BatchScorer struct {
	maxWorkers int
	timeout    time.Duration
}

// NewBatchScorer creates a batch scorer.
func NewBatchScorer(maxWorkers int, timeout time.Duration) *BatchScorer {
	if maxWorkers <= 0 {
		maxWorkers = 4 // Default: 4 concurrent workers
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BatchScorer{maxWorkers: maxWorkers, timeout: timeout}
}

// ScoreAll scores every item with fn and returns one Result per item, in
// input order. Scoring stops early when the context expires; partial
// results are returned alongside the error.
func (bs *BatchScorer) ScoreAll(ctx context.Context, items []catalog.Item, fn ScoreFunc) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	scoreCtx, cancel := context.WithTimeout(ctx, bs.timeout)
	defer cancel()

	type workItem struct {
		index int
		item  catalog.Item
	}

	workChan := make(chan workItem, len(items))
	results := make([]Result, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, item := range items {
		workChan <- workItem{index: i, item: item}
	}
	close(workChan)

	workers := bs.maxWorkers
	if workers > len(items) {
		workers = len(items)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workChan {
				if scoreCtx.Err() != nil {
					return
				}
				score := fn(scoreCtx, w.item)

				mu.Lock()
				results[w.index] = Result{Item: w.item, Score: score}
				mu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-scoreCtx.Done():
		// Workers may still be writing; copy under the mutex so the
		// partial results are safe to read.
		mu.Lock()
		partial := make([]Result, len(results))
		copy(partial, results)
		mu.Unlock()
		return partial, fmt.Errorf("batch scoring timeout after %v", bs.timeout)
	}

	return results, nil
}
