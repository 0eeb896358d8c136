package fetch

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!doctype html>
<html><head><title>About Acme Industrial</title><script>var tracking = "SECRET_TRACKER";</script></head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a><a href="/products">Products</a></nav>
<article>
<h1>About Acme Industrial</h1>
<p>Acme Industrial was founded in 2005 and is headquartered in Austin, Texas. The company designs and
manufactures industrial pumps, valves and control systems for water utilities across North America.</p>
<p>Acme serves more than 400 customers in twelve countries and employs roughly 250 people in engineering,
manufacturing and field service. Its partners include Siemens and Rockwell Automation.</p>
<p>Our leadership team is led by Jane Doe, Chief Executive Officer, and John Roe, Chief Technology Officer.</p>
</article>
<footer>
<a href="mailto:info@acme.example?subject=hi">Email us</a>
<a href="tel:+15125550100">Call</a>
<a href="tel:+15125550100">Call again</a>
</footer>
</body></html>`

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestClean_Article(t *testing.T) {
	t.Parallel()

	out, err := Clean(articlePage, mustURL(t, "https://acme.example/about"), 0)
	require.NoError(t, err)

	assert.Equal(t, "About Acme Industrial", out.Title)
	assert.Contains(t, out.Markdown, "founded in 2005")
	assert.Contains(t, out.Markdown, "Jane Doe")
	assert.NotContains(t, out.Markdown, "SECRET_TRACKER")
	assert.Contains(t, out.Markdown, "## Contact links")
	assert.Contains(t, out.Markdown, "- mailto:info@acme.example")
	assert.Equal(t, 1, strings.Count(out.Markdown, "tel:+15125550100"))
	assert.NotContains(t, out.Markdown, "\n\n\n")
}

func TestClean_CollectsLinksBeforePruning(t *testing.T) {
	t.Parallel()

	out, err := Clean(articlePage, mustURL(t, "https://acme.example/about"), 0)
	require.NoError(t, err)

	var urls []string
	for _, l := range out.links {
		urls = append(urls, l.URL)
	}
	assert.Contains(t, urls, "https://acme.example/products")
	assert.Contains(t, urls, "https://acme.example/")
	for _, u := range urls {
		assert.False(t, strings.HasPrefix(u, "mailto:") || strings.HasPrefix(u, "tel:"), u)
	}
}

func TestClean_ShortPageUsesBody(t *testing.T) {
	t.Parallel()

	out, err := Clean(`<html><body><p>Acme Corp. Contact sales.</p></body></html>`, mustURL(t, "https://acme.example"), 0)
	require.NoError(t, err)
	assert.Contains(t, out.Markdown, "Acme Corp. Contact sales.")
}

func TestClean_Truncates(t *testing.T) {
	t.Parallel()

	out, err := Clean(articlePage, mustURL(t, "https://acme.example/about"), 40)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out.Markdown), 40)
}

func TestClean_RequiresURL(t *testing.T) {
	t.Parallel()
	_, err := Clean("<html></html>", nil, 0)
	assert.Error(t, err)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	t.Parallel()
	s := "añb" // ñ is two bytes
	assert.Equal(t, "a", truncate(s, 2))
	assert.Equal(t, s, truncate(s, 0))
	assert.Equal(t, s, truncate(s, 10))
}
