// Package bloom provides probabilistic set membership for crawl
// deduplication. False positives mean a URL may be skipped; a URL is never
// crawled twice.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a Bloom filter keyed by strings.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected keys with the given
// false positive rate. n is raised to 1 when zero.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add adds key to the filter.
func (f *Filter) Add(key string) {
	f.f.AddString(key)
}

// Test reports whether key might be in the filter.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}

// TestAndAdd adds key and reports whether it might already have been present.
func (f *Filter) TestAndAdd(key string) bool {
	return f.f.TestAndAddString(key)
}

// EstimatedCount returns the approximate number of keys in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
