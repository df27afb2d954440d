package crawl

import (
	"container/heap"
	"strings"
	"sync"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/bloom"
)

// Compile-time interface verification.
var _ seoaudit.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first URL queue with Bloom filter
// deduplication. Shallower URLs are popped first; URLs at the same depth
// come out in insertion order. It is safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *depthHeap
	seq   uint64
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &depthHeap{}
	heap.Init(h)
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push adds a URL to the frontier.
// Returns false if the URL has already been seen. URLs differing only by
// fragment are considered duplicates.
func (f *Frontier) Push(u seoaudit.QueuedURL) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	u.URL = stripFragment(u.URL)
	if f.seen.TestAndAdd(u.URL) {
		return false
	}

	f.seq++
	heap.Push(f.queue, queued{QueuedURL: u, seq: f.seq})
	return true
}

// Pop returns the shallowest queued URL.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (seoaudit.QueuedURL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return seoaudit.QueuedURL{}, false
	}
	q, _ := heap.Pop(f.queue).(queued)
	return q.QueuedURL, true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen returns true if the URL has been processed or queued.
// URL fragments are stripped before checking.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(stripFragment(rawURL))
}

func stripFragment(u string) string {
	if idx := strings.Index(u, "#"); idx != -1 {
		return u[:idx]
	}
	return u
}

type queued struct {
	seoaudit.QueuedURL
	seq uint64
}

// depthHeap orders queued URLs by depth, then insertion order.
type depthHeap []queued

func (h depthHeap) Len() int { return len(h) }

func (h depthHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}

func (h depthHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *depthHeap) Push(x any) {
	q, _ := x.(queued)
	*h = append(*h, q)
}

func (h *depthHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
