package crawl_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/crawl"
	"github.com/fwojciec/seoaudit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type urlExtractor struct {
	gotURL string
}

func (e *urlExtractor) Extract(string) (*seoaudit.ExtractResult, error) {
	return e.ExtractURL("", "")
}

func (e *urlExtractor) ExtractURL(_, pageURL string) (*seoaudit.ExtractResult, error) {
	e.gotURL = pageURL
	return &seoaudit.ExtractResult{ContentHTML: "<p>url aware</p>"}, nil
}

func extractorReturning(content string, err error) *mock.Extractor {
	return &mock.Extractor{ExtractFn: func(string) (*seoaudit.ExtractResult, error) {
		if err != nil {
			return nil, err
		}
		return &seoaudit.ExtractResult{ContentHTML: content}, nil
	}}
}

func TestFallbackExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("uses primary when it finds content", func(t *testing.T) {
		t.Parallel()

		e := crawl.NewFallbackExtractor(extractorReturning("<p>primary</p>", nil), extractorReturning("<p>secondary</p>", nil))

		res, err := e.Extract("<html></html>")

		require.NoError(t, err)
		assert.Equal(t, "<p>primary</p>", res.ContentHTML)
	})

	t.Run("falls back when primary fails", func(t *testing.T) {
		t.Parallel()

		e := crawl.NewFallbackExtractor(extractorReturning("", errors.New("boom")), extractorReturning("<p>secondary</p>", nil))

		res, err := e.Extract("<html></html>")

		require.NoError(t, err)
		assert.Equal(t, "<p>secondary</p>", res.ContentHTML)
	})

	t.Run("falls back when primary is empty", func(t *testing.T) {
		t.Parallel()

		e := crawl.NewFallbackExtractor(extractorReturning("  ", nil), extractorReturning("<p>secondary</p>", nil))

		res, err := e.Extract("<html></html>")

		require.NoError(t, err)
		assert.Equal(t, "<p>secondary</p>", res.ContentHTML)
	})

	t.Run("keeps empty primary result when secondary fails", func(t *testing.T) {
		t.Parallel()

		e := crawl.NewFallbackExtractor(extractorReturning("", nil), extractorReturning("", errors.New("boom")))

		res, err := e.Extract("<html></html>")

		require.NoError(t, err)
		assert.Empty(t, res.ContentHTML)
	})

	t.Run("returns primary error when both fail", func(t *testing.T) {
		t.Parallel()

		e := crawl.NewFallbackExtractor(extractorReturning("", errors.New("first")), extractorReturning("", errors.New("second")))

		_, err := e.Extract("<html></html>")

		assert.EqualError(t, err, "first")
	})

	t.Run("passes the page URL to URL aware extractors", func(t *testing.T) {
		t.Parallel()

		primary := &urlExtractor{}
		e := crawl.NewFallbackExtractor(primary, nil)

		res, err := e.ExtractURL("<html></html>", "https://example.com/x")

		require.NoError(t, err)
		assert.Equal(t, "<p>url aware</p>", res.ContentHTML)
		assert.Equal(t, "https://example.com/x", primary.gotURL)
	})
}
