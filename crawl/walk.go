package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/seoaudit"
)

// drainTimeout bounds how long the coordinator waits for in-flight
// results after it stops dispatching.
const drainTimeout = 5 * time.Second

// walkAdmit is called on the coordinator before a URL is dispatched.
// Returning false skips the URL without counting it against the limit.
type walkAdmit func(item seoaudit.QueuedURL) bool

// walkProcessor processes a URL on a worker goroutine.
type walkProcessor func(ctx context.Context, item seoaudit.QueuedURL) crawlResult

// walkResultHandler handles a completed crawlResult on the coordinator.
// It may push newly discovered URLs onto the frontier.
type walkResultHandler func(result *crawlResult, frontier *Frontier)

// walkFrontier processes URLs from the frontier with a pool of concurrency
// workers until the frontier is exhausted, maxDispatch URLs have been
// dispatched or ctx is canceled. Only the calling goroutine touches the
// handler, so handlers need no locking.
func walkFrontier(
	ctx context.Context,
	frontier *Frontier,
	concurrency int,
	maxDispatch int,
	admit walkAdmit,
	processURL walkProcessor,
	handleResult walkResultHandler,
) {
	if concurrency <= 0 {
		concurrency = 1
	}

	workCh := make(chan seoaudit.QueuedURL, concurrency)
	resultCh := make(chan crawlResult)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				result := processURL(ctx, item)
				select {
				case resultCh <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	dispatched := 0
	pending := 0
	var next *seoaudit.QueuedURL

	nextAdmitted := func() *seoaudit.QueuedURL {
		for dispatched < maxDispatch {
			item, ok := frontier.Pop()
			if !ok {
				return nil
			}
			if admit == nil || admit(item) {
				return &item
			}
		}
		return nil
	}

	next = nextAdmitted()

coordinatorLoop:
	for {
		if next == nil && pending == 0 {
			break coordinatorLoop
		}
		if ctx.Err() != nil {
			break coordinatorLoop
		}

		if next != nil {
			select {
			case <-ctx.Done():
				break coordinatorLoop
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				pending--
				handleResult(&res, frontier)
			}
		} else {
			select {
			case <-ctx.Done():
				break coordinatorLoop
			case res, ok := <-resultCh:
				if !ok {
					break coordinatorLoop
				}
				pending--
				handleResult(&res, frontier)
			}
		}

		if next == nil {
			next = nextAdmitted()
		}
	}

	close(workCh)

	timeout := time.After(drainTimeout)
drainLoop:
	for pending > 0 {
		select {
		case res, ok := <-resultCh:
			if !ok {
				break drainLoop
			}
			pending--
			handleResult(&res, frontier)
		case <-timeout:
			break drainLoop
		}
	}
}
