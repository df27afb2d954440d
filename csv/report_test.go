package csv_test

import (
	"bytes"
	stdcsv "encoding/csv"
	"testing"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/csv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("writes header and one row per page", func(t *testing.T) {
		t.Parallel()

		report := &seoaudit.Report{Pages: []*seoaudit.PageReport{
			{
				URL:     "https://example.com/",
				Status:  200,
				Title:   "Home, sweet \"home\"",
				H1Count: 1,
				Metrics: seoaudit.Metrics{SEOScore: 70, UXScore: 55},
			},
			{URL: "https://example.com/gone", Status: 404, FetchError: "HTTP 404"},
		}}

		var buf bytes.Buffer
		err := csv.NewRenderer().Render(&buf, report)
		require.NoError(t, err)

		records, err := stdcsv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, csv.Header, records[0])
		assert.Equal(t, "Home, sweet \"home\"", records[1][12])
		assert.Equal(t, "70", records[1][23])
		assert.Equal(t, "HTTP 404", records[2][len(csv.Header)-1])
	})

	t.Run("writes only the header for no pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := csv.NewRenderer().Render(&buf, &seoaudit.Report{})

		require.NoError(t, err)
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	})
}

func TestRow(t *testing.T) {
	t.Parallel()

	row := csv.Row(&seoaudit.PageReport{URL: "u", Noindex: true})

	assert.Len(t, row, len(csv.Header))
	assert.Equal(t, "true", row[8])
	assert.Equal(t, "false", row[9])
}
