package managed

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/pkg/hac"
)

// BatchResult is the outcome of one method of a batch.
type BatchResult struct {
	ID       string
	Name     string
	Response *hac.Response
	Error    error
	Duration time.Duration
}

// SendAll sends methods with at most concurrency in flight. Results are in
// the order of methods.
func (e *Engine) SendAll(ctx context.Context, concurrency int, methods ...*Method) []BatchResult {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	results := make([]BatchResult, len(methods))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, concurrency)

	for index, method := range methods {
		waitGroup.Add(1)

		go func(index int, method *Method) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			start := time.Now()
			resp, err := method.Send(ctx)
			results[index] = BatchResult{
				ID:       method.ID(),
				Name:     method.Name(),
				Response: resp,
				Error:    err,
				Duration: time.Since(start),
			}
		}(index, method)
	}

	waitGroup.Wait()

	return results
}
