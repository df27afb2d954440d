package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts headings and paragraphs", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<h1>Pricing</h1><p>Plans start at $9.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# Pricing")
		assert.Contains(t, md, "Plans start at $9.")
	})

	t.Run("keeps links", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>See <a href="https://example.com/faq">the FAQ</a>.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "[the FAQ](https://example.com/faq)")
	})

	t.Run("converts lists and tables", func(t *testing.T) {
		t.Parallel()

		html := `<ul><li>Fast</li><li>Cheap</li></ul>
<table><thead><tr><th>Plan</th><th>Price</th></tr></thead><tbody><tr><td>Basic</td><td>9</td></tr></tbody></table>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "- Fast")
		assert.Contains(t, md, "| Plan")
		assert.Contains(t, md, "Basic")
	})

	t.Run("drops images by default", func(t *testing.T) {
		t.Parallel()

		html := `<p>Before</p><p><img src="/hero.png" alt="Hero"></p><p>After</p>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.NotContains(t, md, "hero.png")
		assert.NotContains(t, md, "\n\n\n")
		assert.Contains(t, md, "Before")
		assert.Contains(t, md, "After")
	})

	t.Run("keeps images when asked", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter(htmltomarkdown.WithImages()).Convert(`<img src="/hero.png" alt="Hero">`)

		require.NoError(t, err)
		assert.Contains(t, md, "![Hero](/hero.png)")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := htmltomarkdown.NewConverter().Convert(" \n ")

		assert.Equal(t, seoaudit.EINVALID, seoaudit.ErrorCode(err))
	})
}
