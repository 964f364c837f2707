package publish

import (
	"strings"
	"testing"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/dao"
	"github.com/aisa-it/pencraft/internal/pencraft/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWriting(content string) *dao.Writing {
	return &dao.Writing{
		ID:        dao.GenUUID(),
		Content:   types.NewRedactorHTML(content),
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderTableOfContents(t *testing.T) {
	r, err := NewRenderer(0)
	require.NoError(t, err)

	res, err := r.Render(testWriting(`<h1>Intro</h1><p>text</p><h2 id="custom">Details</h2><h4>skip</h4><h3> Deep </h3>`))
	require.NoError(t, err)

	assert.Equal(t, []Heading{
		{ID: "heading-0", Text: "Intro", Level: 1},
		{ID: "custom", Text: "Details", Level: 2},
		{ID: "heading-2", Text: "Deep", Level: 3},
	}, res.TOC)
	assert.Contains(t, res.HTML, `<h1 id="heading-0">Intro</h1>`)
	assert.Contains(t, res.HTML, `<h2 id="custom">`)
	assert.NotContains(t, res.HTML, `<h4 id=`)
}

func TestRenderHighlightsCode(t *testing.T) {
	r, err := NewRenderer(0)
	require.NoError(t, err)

	res, err := r.Render(testWriting(`<pre><code class="language-go">func main() {}</code></pre><pre><code>a &lt; b</code></pre>`))
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `<pre class="chroma">`)
	assert.Contains(t, res.HTML, `class="language-go"`)
	assert.Contains(t, res.HTML, `<span class="kd">func</span>`)
	assert.Contains(t, res.HTML, "a &lt; b")
	assert.Empty(t, res.TOC)

	css, err := r.StyleCSS()
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")
}

func TestRenderCache(t *testing.T) {
	r, err := NewRenderer(2)
	require.NoError(t, err)

	w := testWriting("<p>one</p>")
	first, err := r.Render(w)
	require.NoError(t, err)

	w.Content = types.NewRedactorHTML("<p>two</p>")
	cached, err := r.Render(w)
	require.NoError(t, err)
	assert.Same(t, first, cached, "same updated_at serves cached result")

	w.UpdatedAt = w.UpdatedAt.Add(time.Second)
	fresh, err := r.Render(w)
	require.NoError(t, err)
	assert.Contains(t, fresh.HTML, "two")

	r.Invalidate(w)
	assert.Zero(t, r.cache.Len())
}

func TestReadingTime(t *testing.T) {
	r, err := NewRenderer(0)
	require.NoError(t, err)
	res, err := r.Render(testWriting("<p>" + strings.Repeat("word ", 401) + "</p>"))
	require.NoError(t, err)
	assert.Equal(t, 401, res.WordCount)
	assert.Equal(t, 3, res.ReadingTime)
}
