package rod

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/seoaudit"
	"github.com/stretchr/testify/assert"
)

func TestTruncateHTML(t *testing.T) {
	t.Parallel()

	t.Run("backs off to a character boundary", func(t *testing.T) {
		t.Parallel()

		html := "<p>" + strings.Repeat("日本", 10) + "</p>"

		for n := 1; n < len(html); n++ {
			got := truncateHTML(html, n)
			assert.LessOrEqual(t, len(got), n)
			assert.True(t, utf8.ValidString(got), "cut at %d", n)
			assert.True(t, strings.HasPrefix(html, got))
		}
		assert.Equal(t, "<p>日", truncateHTML(html, 7))
	})

	t.Run("leaves short documents alone", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "<p>é</p>", truncateHTML("<p>é</p>", 100))
		assert.Equal(t, "<p>é</p>", truncateHTML("<p>é</p>", 0))
	})
}

func TestCheckFinalURL(t *testing.T) {
	t.Parallel()

	t.Run("allows navigation within the registrable domain", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, checkFinalURL("https://example.com/a", "https://example.com/a"))
		assert.NoError(t, checkFinalURL("https://example.com/a", "https://www.example.com/b"))
		assert.NoError(t, checkFinalURL("http://shop.example.co.uk/", "https://example.co.uk/"))
	})

	t.Run("rejects navigation to another site", func(t *testing.T) {
		t.Parallel()

		for _, final := range []string{
			"https://evil.example.org/",
			"https://other.co.uk/",
			"file:///etc/passwd",
		} {
			err := checkFinalURL("https://example.com/", final)
			assert.Equal(t, seoaudit.EFORBIDDEN, seoaudit.ErrorCode(err), final)
			assert.Contains(t, seoaudit.ErrorMessage(err), seoaudit.ReasonHostChanged, final)
		}
	})
}
