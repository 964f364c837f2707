package types

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactorHTMLUnmarshalSanitizes(t *testing.T) {
	var payload struct {
		Content RedactorHTML `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"content":"<p>a\u200b<script>x</script></p><pre><code class=\"language-go\">1 < 2</code></pre>"}`), &payload))

	assert.Equal(t, `<p>a</p><pre><code class="language-go">1 &lt; 2</code></pre>`, payload.Content.Body)
	assert.True(t, payload.Content.AlreadySanitized)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(payload.Content))
	assert.Contains(t, buf.String(), `<p>a</p>`)

	out, err := json.Marshal(payload.Content)
	require.NoError(t, err)
	var again RedactorHTML
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, payload.Content.Body, again.Body)
}

func TestRedactorHTMLValue(t *testing.T) {
	v, err := NewRedactorHTML(`<p onclick="x()">hi</p>`).Value()
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", v)

	r := RedactorHTML{}
	require.NoError(t, r.Scan([]byte("<h1>T</h1>")))
	assert.Equal(t, "T", r.StripTags())
}

func TestTagList(t *testing.T) {
	v, err := TagList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var tags TagList
	require.NoError(t, tags.Scan(`["go","rust"]`))
	assert.Equal(t, TagList{"go", "rust"}, tags)
	assert.True(t, tags.Contains("go"))

	require.NoError(t, tags.Scan(nil))
	assert.Empty(t, tags)
	assert.Error(t, tags.Scan(42))
}

func TestCategory(t *testing.T) {
	assert.True(t, Category("novel").IsValid())
	assert.False(t, Category("poem").IsValid())
	assert.Equal(t, CategoryThought, DefaultCategory)
}
