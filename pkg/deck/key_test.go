package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticleKey(t *testing.T) {
	t.Run("non alphanumerics replaced", func(t *testing.T) {
		got := articleKey("https://example.com/rss", "https://example.com/a?id=1", "Hello, World!")
		assert.Equal(t, "https___example_com_rss_https___example_com_a_id_1_Hello__World_", got)
	})

	t.Run("stable for identical input", func(t *testing.T) {
		a := articleKey("f", "l", "t")
		b := articleKey("f", "l", "t")
		assert.Equal(t, a, b)
	})

	t.Run("title change yields different key", func(t *testing.T) {
		a := articleKey("f", "l", "old title")
		b := articleKey("f", "l", "new title")
		assert.NotEqual(t, a, b)
	})
}
