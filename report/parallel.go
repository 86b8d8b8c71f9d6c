/*
parallel.go - Partition-parallel summarization

PURPOSE:
  Summarize over partitions can be computed independently and combined
  with Merge - the algebra guarantees the result is identical to a single
  sequential fold. This is an optimization for large monthly batches, not
  a correctness requirement; callers that don't care use engine.Summarize
  directly.
*/
package report

import (
	"sync"

	"github.com/warp/provision-engine/engine"
)

// SummarizeParallel splits the items into `workers` partitions, folds
// each concurrently and merges the partial summaries. workers <= 1 or a
// small input degrades to the sequential fold.
func SummarizeParallel(items []engine.LineItem, workers int) engine.ProvisionSummary {
	if workers <= 1 || len(items) < workers*2 {
		return engine.Summarize(items)
	}

	partials := make([]engine.ProvisionSummary, workers)
	chunk := (len(items) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		if start >= end {
			partials[w] = engine.EmptySummary()
			continue
		}
		wg.Add(1)
		go func(w int, part []engine.LineItem) {
			defer wg.Done()
			partials[w] = engine.Summarize(part)
		}(w, items[start:end])
	}
	wg.Wait()

	out := engine.EmptySummary()
	for _, p := range partials {
		out = engine.Merge(out, p)
	}
	return out
}
